package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/hydras3/hydras/internal/sensor"
)

const labelColumn = "label"

// CSVStore keeps the dataset as a CSV table with one column per feature and
// a trailing label column. Features are written with six decimal places.
type CSVStore struct {
	path string
}

func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

func csvColumns() []string {
	return append(sensor.FeatureNames[:], labelColumn)
}

func (s *CSVStore) Load(_ context.Context) (Dataset, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Dataset{}, ErrNotFound
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	types := map[string]series.Type{labelColumn: series.String}
	for _, name := range sensor.FeatureNames {
		types[name] = series.Float
	}
	df := dataframe.ReadCSV(f, dataframe.WithTypes(types))
	if df.Err != nil {
		return Dataset{}, fmt.Errorf("decode dataset %s: %w", s.path, df.Err)
	}
	if !slices.Equal(df.Names(), csvColumns()) {
		return Dataset{}, fmt.Errorf("decode dataset %s: unexpected columns %v", s.path, df.Names())
	}
	if df.Nrow() == 0 {
		return Dataset{}, ErrNotFound
	}

	ds := Dataset{
		X: make([][]float64, df.Nrow()),
		Y: df.Col(labelColumn).Records(),
	}
	for i := range ds.X {
		ds.X[i] = make([]float64, sensor.NumFeatures)
	}
	for j, name := range sensor.FeatureNames {
		for i, v := range df.Col(name).Float() {
			ds.X[i][j] = v
		}
	}
	return ds, nil
}

func (s *CSVStore) Save(_ context.Context, ds Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}

	cols := make([]series.Series, 0, sensor.NumFeatures+1)
	for j, name := range sensor.FeatureNames {
		values := make([]float64, ds.Len())
		for i, row := range ds.X {
			values[i] = row[j]
		}
		cols = append(cols, series.New(values, series.Float, name))
	}
	cols = append(cols, series.New(ds.Y, series.String, labelColumn))

	df := dataframe.New(cols...)
	if df.Err != nil {
		return fmt.Errorf("encode dataset: %w", df.Err)
	}
	return writeAtomic(s.path, ".dataset-*.csv", func(w io.Writer) error {
		return df.WriteCSV(w)
	})
}

func (s *CSVStore) Close() error { return nil }
