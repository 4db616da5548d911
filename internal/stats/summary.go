package stats

import (
	"errors"
	"fmt"
	"math"

	mstats "github.com/montanaflynn/stats"
)

// ErrInsufficientData is returned when a history is too short for the
// requested computation.
var ErrInsufficientData = errors.New("insufficient data")

// ErrOutOfRange is returned when a statistic overflows the float64 range.
var ErrOutOfRange = errors.New("statistic out of range")

// CheckFinite returns ErrOutOfRange, naming the statistic, if any value
// is infinite or NaN.
func CheckFinite(named map[string]float64) error {
	for name, v := range named {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return fmt.Errorf("%w: %s overflows", ErrOutOfRange, name)
		}
	}
	return nil
}

// Summary holds the descriptive statistics of a full history.
type Summary struct {
	Mean   Fixed `json:"mean"`
	Mode   Fixed `json:"mode"`
	Median Fixed `json:"median"`
	StdDev Fixed `json:"stdDev"`
	Min    Fixed `json:"min"`
	Max    Fixed `json:"max"`
	Count  int   `json:"count"`
}

// Describe computes the summary of values, which must be in chronological
// order (the mode tie-break depends on it). Nothing is cached: every call
// works on the slice it is given.
func Describe(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, fmt.Errorf("%w: need at least 1 entry", ErrInsufficientData)
	}

	data := mstats.Float64Data(values)

	mean, err := data.Mean()
	if err != nil {
		return Summary{}, fmt.Errorf("mean: %w", err)
	}
	median, err := data.Median()
	if err != nil {
		return Summary{}, fmt.Errorf("median: %w", err)
	}
	// Population deviation: squared deviations are divided by n.
	stdDev, err := data.StandardDeviationPopulation()
	if err != nil {
		return Summary{}, fmt.Errorf("standard deviation: %w", err)
	}
	lo, err := data.Min()
	if err != nil {
		return Summary{}, fmt.Errorf("min: %w", err)
	}
	hi, err := data.Max()
	if err != nil {
		return Summary{}, fmt.Errorf("max: %w", err)
	}

	if err := CheckFinite(map[string]float64{"mean": mean, "median": median, "stdDev": stdDev}); err != nil {
		return Summary{}, err
	}

	return Summary{
		Mean:   Fixed(mean),
		Mode:   Fixed(FirstMode(values)),
		Median: Fixed(median),
		StdDev: Fixed(stdDev),
		Min:    Fixed(lo),
		Max:    Fixed(hi),
		Count:  len(values),
	}, nil
}
