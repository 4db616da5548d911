package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"oddsledger/internal/forecast"
	"oddsledger/internal/history"
	"oddsledger/internal/multiplier"
	"oddsledger/internal/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func newTestEngine(store history.Store) *Engine {
	return New(store, WithClock(func() time.Time { return fixedNow }))
}

func values(t *testing.T, e *Engine, owner string) []multiplier.Value {
	t.Helper()
	obs, err := e.History(context.Background(), owner)
	require.NoError(t, err)
	return history.Values(obs)
}

func TestIngestReplace(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(history.NewMemoryStore())

	_, err := e.IngestAppend(ctx, "alice", []string{"9.99", "8.88"})
	require.NoError(t, err)

	got, err := e.IngestReplace(ctx, "alice", "Round 1: 2.45x\nRound 2: 1.03x 15.70x tail")
	require.NoError(t, err)
	assert.Equal(t, []multiplier.Value{"2.45x", "1.03x", "15.70x"}, got)
	assert.Equal(t, got, values(t, e, "alice"))

	obs, err := e.History(ctx, "alice")
	require.NoError(t, err)
	for _, o := range obs {
		assert.Equal(t, history.SourceScreenshot, o.Source)
		assert.True(t, o.RecordedAt.Equal(fixedNow))
		assert.NotEmpty(t, o.ID)
	}
}

func TestIngestReplace_NoValuesLeavesHistory(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(history.NewMemoryStore())

	_, err := e.IngestAppend(ctx, "alice", []string{"1.50"})
	require.NoError(t, err)

	for _, text := range []string{"", "no numbers here", "2.45 3.10 (no markers)"} {
		_, err := e.IngestReplace(ctx, "alice", text)
		assert.ErrorIs(t, err, ErrNoValuesFound, "text %q", text)
	}
	assert.Equal(t, []multiplier.Value{"1.50x"}, values(t, e, "alice"))
}

func TestIngestAppend(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(history.NewMemoryStore())

	got, err := e.IngestAppend(ctx, "alice", []string{"2.45"})
	require.NoError(t, err)
	assert.Equal(t, []multiplier.Value{"2.45x"}, got)

	got, err = e.IngestAppend(ctx, "alice", []string{"1.20x", "3.00"})
	require.NoError(t, err)
	assert.Equal(t, []multiplier.Value{"1.20x", "3.00x"}, got)

	assert.Equal(t, []multiplier.Value{"2.45x", "1.20x", "3.00x"}, values(t, e, "alice"))

	obs, err := e.History(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, history.SourceManual, obs[0].Source)
}

func TestIngestAppend_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(history.NewMemoryStore())

	_, err := e.IngestAppend(ctx, "alice", []string{"1.00", "2.00"})
	require.NoError(t, err)
	before := values(t, e, "alice")

	_, err = e.IngestAppend(ctx, "alice", []string{"3.00", "abc", "4", "5.00"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.ErrorIs(t, err, multiplier.ErrInvalidToken)

	var ferr *InvalidFormatError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, "abc", ferr.Token, "first offending token is reported")

	assert.Equal(t, before, values(t, e, "alice"))
}

func TestIngestAppend_EmptyBatch(t *testing.T) {
	e := newTestEngine(history.NewMemoryStore())
	_, err := e.IngestAppend(context.Background(), "alice", nil)
	assert.ErrorIs(t, err, ErrNoValuesFound)
}

func TestOwnerIsolation(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(history.NewMemoryStore())

	_, err := e.IngestAppend(ctx, "bob", []string{"5.00", "6.00"})
	require.NoError(t, err)
	_, err = e.IngestReplace(ctx, "alice", "1.00x 2.00x")
	require.NoError(t, err)
	_, err = e.IngestAppend(ctx, "alice", []string{"3.00"})
	require.NoError(t, err)

	assert.Equal(t, []multiplier.Value{"5.00x", "6.00x"}, values(t, e, "bob"))

	s, err := e.Statistics(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, "2.00", s.Mean.String())
}

func TestStatistics(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(history.NewMemoryStore())

	_, err := e.Statistics(ctx, "alice")
	assert.ErrorIs(t, err, stats.ErrInsufficientData)

	_, err = e.IngestAppend(ctx, "alice", []string{"1.00", "2.00", "3.00", "4.00", "5.00"})
	require.NoError(t, err)

	s, err := e.Statistics(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "3.00", s.Mean.String())
	assert.Equal(t, "3.00", s.Median.String())
	assert.Equal(t, "1.00", s.Min.String())
	assert.Equal(t, "5.00", s.Max.String())
	assert.Equal(t, "1.41", s.StdDev.String())
	assert.Equal(t, 5, s.Count)
}

func TestPrediction(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(history.NewMemoryStore())

	_, err := e.Prediction(ctx, "alice", forecast.MultiStatistic)
	assert.ErrorIs(t, err, stats.ErrInsufficientData)

	_, err = e.IngestAppend(ctx, "alice", []string{"1.00", "2.00", "3.00", "4.00"})
	require.NoError(t, err)

	_, err = e.Prediction(ctx, "alice", forecast.MovingWindow)
	assert.ErrorIs(t, err, stats.ErrInsufficientData, "four entries are not enough")

	_, err = e.IngestAppend(ctx, "alice", []string{"5.00"})
	require.NoError(t, err)

	p, err := e.Prediction(ctx, "alice", forecast.MovingWindow)
	require.NoError(t, err)
	assert.Equal(t, "3.00", p.NextValue.String())

	p, err = e.Prediction(ctx, "alice", forecast.MultiStatistic)
	require.NoError(t, err)
	assert.Equal(t, p.Median.String(), p.MediumRiskOdd.String())
	assert.Equal(t, p.SimpleMean.String(), p.TrimmedMean.String())

	assert.Len(t, values(t, e, "alice"), 5, "predictions never mutate history")
}

func TestBacktest(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(history.NewMemoryStore())

	_, err := e.IngestAppend(ctx, "alice", []string{"1.00", "2.00", "3.00", "4.00", "5.00", "6.00"})
	require.NoError(t, err)

	res, err := e.Backtest(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Checkpoints)
	assert.Equal(t, "1.00", res.HitRate.String())
}

type failingStore struct {
	history.Store
	err error
}

func (f failingStore) Append(ctx context.Context, owner string, batch []history.Observation) error {
	return f.err
}

func (f failingStore) Replace(ctx context.Context, owner string, batch []history.Observation) error {
	return f.err
}

func (f failingStore) List(ctx context.Context, owner string) ([]history.Observation, error) {
	return nil, f.err
}

func TestStoreErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk on fire")
	e := newTestEngine(failingStore{err: boom})

	_, err := e.IngestReplace(ctx, "alice", "1.00x")
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsClientError(err))

	_, err = e.IngestAppend(ctx, "alice", []string{"1.00"})
	assert.ErrorIs(t, err, boom)

	_, err = e.Statistics(ctx, "alice")
	assert.ErrorIs(t, err, boom)

	_, err = e.Prediction(ctx, "alice", forecast.MultiStatistic)
	assert.ErrorIs(t, err, boom)
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(ErrNoValuesFound))
	assert.True(t, IsClientError(&InvalidFormatError{Token: "x"}))
	assert.True(t, IsClientError(fmt.Errorf("wrapped: %w", stats.ErrInsufficientData)))
	assert.False(t, IsClientError(errors.New("other")))
}

func TestConcurrentAppendsAreAllOrNothing(t *testing.T) {
	ctx := context.Background()
	e := New(history.NewMemoryStore())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens := []string{"1.00", "2.00", "3.00"}
			if i%4 == 0 {
				tokens[1] = "bad"
			}
			_, _ = e.IngestAppend(ctx, "alice", tokens)
		}(i)
	}
	wg.Wait()

	got := values(t, e, "alice")
	// 12 valid batches of three values each.
	require.Len(t, got, 36)
	counts := map[multiplier.Value]int{}
	for _, v := range got {
		counts[v]++
	}
	assert.Equal(t, map[multiplier.Value]int{"1.00x": 12, "2.00x": 12, "3.00x": 12}, counts)
}

func TestOutOfRangeMagnitudes(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(history.NewMemoryStore())
	huge := strings.Repeat("9", 400) + ".00"

	_, err := e.IngestAppend(ctx, "alice", []string{"1.00", huge})
	var ferr *InvalidFormatError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, huge, ferr.Token)
	assert.Empty(t, values(t, e, "alice"))

	_, err = e.IngestReplace(ctx, "alice", huge+"x")
	assert.ErrorIs(t, err, ErrNoValuesFound)

	// Finite values whose sum overflows are stored, but every derived
	// statistic reports an error instead of panicking on serialization.
	big := "1" + strings.Repeat("0", 308) + ".0"
	_, err = e.IngestAppend(ctx, "alice", []string{big, big, big, big, big, big})
	require.NoError(t, err)

	_, err = e.Statistics(ctx, "alice")
	assert.ErrorIs(t, err, stats.ErrOutOfRange)
	_, err = e.Prediction(ctx, "alice", forecast.MultiStatistic)
	assert.ErrorIs(t, err, stats.ErrOutOfRange)
	_, err = e.Prediction(ctx, "alice", forecast.MovingWindow)
	assert.ErrorIs(t, err, stats.ErrOutOfRange)
	_, err = e.Backtest(ctx, "alice")
	assert.ErrorIs(t, err, stats.ErrOutOfRange)
	assert.True(t, IsClientError(err))
}
