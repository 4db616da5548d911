package forecast

import (
	"fmt"
	"math"

	"oddsledger/internal/stats"

	mstats "github.com/montanaflynn/stats"
)

// Checkpoint is one replayed round: the window prediction made from the
// rounds before it, and what actually happened.
type Checkpoint struct {
	Index     int         `json:"index"`
	Predicted stats.Fixed `json:"predicted"`
	Actual    stats.Fixed `json:"actual"`
	Reached   bool        `json:"reached"` // actual >= predicted
}

// BacktestResult summarises a walk-forward replay of the moving window.
type BacktestResult struct {
	Checkpoints       int          `json:"checkpoints"`
	MeanAbsoluteError stats.Fixed  `json:"meanAbsoluteError"`
	HitRate           stats.Fixed  `json:"hitRate"`
	History           []Checkpoint `json:"history"`
}

// Backtest walks forward through values, predicting every round from the
// WindowSize rounds that precede it.
func Backtest(values []float64) (BacktestResult, error) {
	if len(values) <= WindowSize {
		return BacktestResult{}, fmt.Errorf("%w: need at least %d entries", stats.ErrInsufficientData, WindowSize+1)
	}

	result := BacktestResult{
		History: make([]Checkpoint, 0, len(values)-WindowSize),
	}

	var errs []float64
	hits := 0
	for i := WindowSize; i < len(values); i++ {
		predicted, err := mstats.Mean(values[i-WindowSize : i])
		if err != nil {
			return BacktestResult{}, fmt.Errorf("checkpoint %d: %w", i, err)
		}
		if err := stats.CheckFinite(map[string]float64{"window mean": predicted}); err != nil {
			return BacktestResult{}, fmt.Errorf("checkpoint %d: %w", i, err)
		}
		actual := values[i]
		reached := actual >= predicted
		if reached {
			hits++
		}
		errs = append(errs, math.Abs(actual-predicted))

		result.History = append(result.History, Checkpoint{
			Index:     i,
			Predicted: stats.Fixed(predicted),
			Actual:    stats.Fixed(actual),
			Reached:   reached,
		})
	}

	mae, err := mstats.Mean(errs)
	if err != nil {
		return BacktestResult{}, fmt.Errorf("mean absolute error: %w", err)
	}

	if err := stats.CheckFinite(map[string]float64{"mean absolute error": mae}); err != nil {
		return BacktestResult{}, err
	}

	result.Checkpoints = len(errs)
	result.MeanAbsoluteError = stats.Fixed(mae)
	result.HitRate = stats.Fixed(float64(hits) / float64(len(errs)))
	return result, nil
}
