// Package forecast derives short-horizon estimates from a chronological
// multiplier history. The estimators are heuristics, not a model with error
// bounds.
package forecast

import (
	"errors"
	"fmt"
	"strings"

	"oddsledger/internal/stats"

	mstats "github.com/montanaflynn/stats"
)

// Mode selects a prediction policy.
type Mode string

const (
	// MovingWindow averages the most recent WindowSize observations.
	MovingWindow Mode = "moving-window"
	// MultiStatistic reports robust central values and percentile risk tiers.
	MultiStatistic Mode = "forecast"
)

const (
	// WindowSize is the number of trailing observations used by MovingWindow.
	WindowSize = 5
	// TrimFraction is the share dropped from each end for the trimmed mean.
	TrimFraction = 0.10

	lowRiskPercentile    = 0.20
	mediumRiskPercentile = 0.50
	highRiskPercentile   = 0.80
)

// ErrUnknownMode is returned for a mode name that selects no policy.
var ErrUnknownMode = errors.New("unknown prediction mode")

// ParseMode resolves a mode name. An empty name selects MultiStatistic.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MultiStatistic:
		return MultiStatistic, nil
	case MovingWindow:
		return MovingWindow, nil
	default:
		return "", fmt.Errorf("%w %q (use %q or %q)", ErrUnknownMode, s, MultiStatistic, MovingWindow)
	}
}

// Prediction is the result of either policy. Fields that a policy does not
// produce are nil and omitted from JSON.
type Prediction struct {
	Mode       Mode        `json:"mode"`
	NextValue  stats.Fixed `json:"nextValue"`
	SampleSize int         `json:"sampleSize"`

	SimpleMean    *stats.Fixed `json:"simpleMean,omitempty"`
	Median        *stats.Fixed `json:"median,omitempty"`
	TrimmedMean   *stats.Fixed `json:"trimmedMean,omitempty"`
	LowRiskOdd    *stats.Fixed `json:"lowRiskOdd,omitempty"`
	MediumRiskOdd *stats.Fixed `json:"mediumRiskOdd,omitempty"`
	HighRiskOdd   *stats.Fixed `json:"highRiskOdd,omitempty"`
}

// Predict runs the selected policy over values, oldest first.
func Predict(values []float64, mode Mode) (Prediction, error) {
	switch mode {
	case MovingWindow:
		return windowMean(values)
	case MultiStatistic, "":
		return multiStatistic(values)
	default:
		return Prediction{}, fmt.Errorf("%w %q", ErrUnknownMode, mode)
	}
}

func windowMean(values []float64) (Prediction, error) {
	if len(values) < WindowSize {
		return Prediction{}, fmt.Errorf("%w: need at least %d entries", stats.ErrInsufficientData, WindowSize)
	}

	recent := values[len(values)-WindowSize:]
	m, err := mstats.Mean(recent)
	if err != nil {
		return Prediction{}, fmt.Errorf("window mean: %w", err)
	}

	if err := stats.CheckFinite(map[string]float64{"window mean": m}); err != nil {
		return Prediction{}, err
	}

	return Prediction{
		Mode:       MovingWindow,
		NextValue:  stats.Fixed(m),
		SampleSize: WindowSize,
	}, nil
}

func multiStatistic(values []float64) (Prediction, error) {
	if len(values) == 0 {
		return Prediction{}, fmt.Errorf("%w: need at least 1 entry", stats.ErrInsufficientData)
	}

	simple, err := mstats.Mean(values)
	if err != nil {
		return Prediction{}, fmt.Errorf("mean: %w", err)
	}
	median, err := mstats.Median(values)
	if err != nil {
		return Prediction{}, fmt.Errorf("median: %w", err)
	}

	sorted := stats.Sorted(values)
	trimmed := stats.TrimmedMean(sorted, TrimFraction)
	low := stats.Quantile(sorted, lowRiskPercentile)
	medium := stats.Quantile(sorted, mediumRiskPercentile)
	high := stats.Quantile(sorted, highRiskPercentile)

	if err := stats.CheckFinite(map[string]float64{
		"mean": simple, "median": median, "trimmed mean": trimmed,
		"low risk odd": low, "medium risk odd": medium, "high risk odd": high,
	}); err != nil {
		return Prediction{}, err
	}

	return Prediction{
		Mode:          MultiStatistic,
		NextValue:     stats.Fixed(simple),
		SampleSize:    len(values),
		SimpleMean:    fixed(simple),
		Median:        fixed(median),
		TrimmedMean:   fixed(trimmed),
		LowRiskOdd:    fixed(low),
		MediumRiskOdd: fixed(medium),
		HighRiskOdd:   fixed(high),
	}, nil
}

func fixed(v float64) *stats.Fixed {
	f := stats.Fixed(v)
	return &f
}
