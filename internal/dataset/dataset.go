// Package dataset builds the labelled training set for the forest and
// persists it between runs. Only the dataset is stored; the forest is always
// retrained from it.
package dataset

import (
	"time"

	"github.com/hydras3/hydras/internal/rules"
	"github.com/hydras3/hydras/internal/sensor"
	"github.com/hydras3/hydras/pkg/errors"
)

// Dataset is a feature table with one label per row.
type Dataset struct {
	X [][]float64 `json:"X"`
	Y []string    `json:"y"`
}

func (d Dataset) Len() int { return len(d.Y) }

// Validate checks that the dataset can be fed to the forest.
func (d Dataset) Validate() error {
	const op = "dataset.Validate"
	if len(d.X) == 0 {
		return errors.NewEmptyDataError(op)
	}
	if len(d.X) != len(d.Y) {
		return errors.NewDimensionError(op, len(d.X), len(d.Y), 0)
	}
	for i, row := range d.X {
		if len(row) != sensor.NumFeatures {
			return errors.NewInvalidInputErrorf(op, "row %d has %d features, want %d", i, len(row), sensor.NumFeatures)
		}
		if d.Y[i] == "" {
			return errors.NewInvalidInputErrorf(op, "row %d has an empty label", i)
		}
	}
	return nil
}

// Counts returns the number of rows per label.
func (d Dataset) Counts() map[string]int {
	counts := make(map[string]int)
	for _, label := range d.Y {
		counts[label]++
	}
	return counts
}

// Generate draws perBuoy readings from every buoy, interleaved by round, and
// labels them with the oracle. It also returns the labelled readings,
// timestamped one second apart per round and ending at end, so a caller can
// seed its reading history.
func Generate(sim *sensor.Simulator, oracle rules.Oracle, perBuoy int, end time.Time) (Dataset, []sensor.ClassifiedReading) {
	n := perBuoy * len(sensor.Buoys)
	ds := Dataset{X: make([][]float64, 0, n), Y: make([]string, 0, n)}
	history := make([]sensor.ClassifiedReading, 0, n)

	for i := 0; i < perBuoy; i++ {
		ts := end.Add(-time.Duration(perBuoy-i) * time.Second)
		for _, id := range sensor.Buoys {
			r := sim.Next(id)
			r.Timestamp = ts
			label := oracle.Label(r)
			ds.X = append(ds.X, r.Features())
			ds.Y = append(ds.Y, label)
			history = append(history, sensor.ClassifiedReading{Reading: r, Classification: label})
		}
	}
	return ds, history
}
