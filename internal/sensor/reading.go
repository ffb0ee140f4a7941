// Package sensor models buoy water-quality readings and simulates the buoys
// that produce them.
package sensor

import "time"

// NumFeatures is the width of a feature vector built from a Reading.
const NumFeatures = 5

// FeatureNames lists the measured variables in feature-vector order.
var FeatureNames = [NumFeatures]string{"pH", "temperature", "conductivity", "oxygen", "turbidity"}

// Reading is one sample from a buoy. Conductivity is in µS/cm, oxygen in
// mg/L and turbidity in NTU.
type Reading struct {
	BuoyID       int       `json:"buoy_id"`
	Timestamp    time.Time `json:"timestamp"`
	PH           float64   `json:"pH"`
	Temperature  float64   `json:"temperature"`
	Conductivity float64   `json:"conductivity"`
	Oxygen       float64   `json:"oxygen"`
	Turbidity    float64   `json:"turbidity"`
}

// Features returns the reading as [pH, temperature, conductivity, oxygen, turbidity].
func (r Reading) Features() []float64 {
	return []float64{r.PH, r.Temperature, r.Conductivity, r.Oxygen, r.Turbidity}
}

// Value returns the variable at feature index i.
func (r Reading) Value(i int) float64 {
	switch i {
	case 0:
		return r.PH
	case 1:
		return r.Temperature
	case 2:
		return r.Conductivity
	case 3:
		return r.Oxygen
	case 4:
		return r.Turbidity
	}
	return 0
}

// ClassifiedReading is a Reading with the label assigned by a classifier.
type ClassifiedReading struct {
	Reading
	Classification string `json:"classification"`
}
