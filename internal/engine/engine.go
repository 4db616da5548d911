// Package engine implements ingestion, history reads, statistics and
// predictions for one owner at a time.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"oddsledger/internal/forecast"
	"oddsledger/internal/history"
	"oddsledger/internal/multiplier"
	"oddsledger/internal/stats"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Engine applies the ingestion rules and derives statistics from a Store.
// It holds no mutable state of its own.
type Engine struct {
	store history.Store
	now   func() time.Time
	newID func() string
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the ingestion timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides how observation ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// New creates an engine over store.
func New(store history.Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IngestReplace extracts every marked multiplier from text and replaces the
// owner's history with them. If text holds no candidates the history is left
// untouched and ErrNoValuesFound is returned.
func (e *Engine) IngestReplace(ctx context.Context, owner, text string) ([]multiplier.Value, error) {
	candidates := multiplier.Extract(text)
	if len(candidates) == 0 {
		log.Debug().Str("owner", owner).Msg("Replace rejected: no values in recognized text")
		return nil, ErrNoValuesFound
	}

	values := make([]multiplier.Value, 0, len(candidates))
	for _, c := range candidates {
		v, err := multiplier.Normalize(string(c))
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, ErrNoValuesFound
	}

	batch := e.batch(values, history.SourceScreenshot)
	if err := e.store.Replace(ctx, owner, batch); err != nil {
		return nil, fmt.Errorf("replace history: %w", err)
	}

	log.Info().Str("owner", owner).Int("count", len(values)).Msg("History replaced from recognized text")
	return values, nil
}

// IngestAppend normalizes every token and appends them in order. If any
// token is malformed nothing is stored and an *InvalidFormatError naming the
// first offender is returned.
func (e *Engine) IngestAppend(ctx context.Context, owner string, tokens []string) ([]multiplier.Value, error) {
	if len(tokens) == 0 {
		return nil, ErrNoValuesFound
	}

	values := make([]multiplier.Value, len(tokens))
	for i, tok := range tokens {
		v, err := multiplier.Normalize(tok)
		if err != nil {
			log.Debug().Str("owner", owner).Str("token", tok).Msg("Append rejected: invalid token")
			return nil, &InvalidFormatError{Token: tok, Err: err}
		}
		values[i] = v
	}

	batch := e.batch(values, history.SourceManual)
	if err := e.store.Append(ctx, owner, batch); err != nil {
		return nil, fmt.Errorf("append history: %w", err)
	}

	log.Info().Str("owner", owner).Int("count", len(values)).Msg("Values appended to history")
	return values, nil
}

// History returns the owner's observations, oldest first.
func (e *Engine) History(ctx context.Context, owner string) ([]history.Observation, error) {
	obs, err := e.store.List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return obs, nil
}

// Statistics describes the owner's full history.
func (e *Engine) Statistics(ctx context.Context, owner string) (stats.Summary, error) {
	values, err := e.magnitudes(ctx, owner)
	if err != nil {
		return stats.Summary{}, err
	}
	return stats.Describe(values)
}

// Prediction runs the chosen policy over the owner's full history.
func (e *Engine) Prediction(ctx context.Context, owner string, mode forecast.Mode) (forecast.Prediction, error) {
	values, err := e.magnitudes(ctx, owner)
	if err != nil {
		return forecast.Prediction{}, err
	}
	return forecast.Predict(values, mode)
}

// Backtest replays the moving-window policy over the owner's history.
func (e *Engine) Backtest(ctx context.Context, owner string) (forecast.BacktestResult, error) {
	values, err := e.magnitudes(ctx, owner)
	if err != nil {
		return forecast.BacktestResult{}, err
	}
	return forecast.Backtest(values)
}

// IsClientError reports whether err is caused by the caller's input or data
// rather than by infrastructure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoValuesFound) ||
		errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, stats.ErrInsufficientData) ||
		errors.Is(err, stats.ErrOutOfRange)
}

func (e *Engine) batch(values []multiplier.Value, source history.Source) []history.Observation {
	at := e.now()
	batch := make([]history.Observation, len(values))
	for i, v := range values {
		batch[i] = history.Observation{
			ID:         e.newID(),
			Value:      v,
			RecordedAt: at,
			Source:     source,
		}
	}
	return batch
}

func (e *Engine) magnitudes(ctx context.Context, owner string) ([]float64, error) {
	obs, err := e.History(ctx, owner)
	if err != nil {
		return nil, err
	}
	values, err := multiplier.Floats(history.Values(obs))
	if err != nil {
		return nil, fmt.Errorf("stored value: %w", err)
	}
	return values, nil
}
