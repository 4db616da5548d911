package forecast

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"oddsledger/internal/stats"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", MultiStatistic, false},
		{"forecast", MultiStatistic, false},
		{"moving-window", MovingWindow, false},
		{" Moving-Window ", MovingWindow, false},
		{"average", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMovingWindow_Threshold(t *testing.T) {
	_, err := Predict([]float64{1, 2, 3, 4}, MovingWindow)
	if !errors.Is(err, stats.ErrInsufficientData) {
		t.Fatalf("4 entries: expected ErrInsufficientData, got %v", err)
	}

	p, err := Predict([]float64{1, 2, 3, 4, 5}, MovingWindow)
	if err != nil {
		t.Fatalf("5 entries: unexpected error %v", err)
	}
	if p.NextValue.String() != "3.00" {
		t.Errorf("NextValue = %s, want 3.00", p.NextValue)
	}
	if p.SampleSize != WindowSize {
		t.Errorf("SampleSize = %d, want %d", p.SampleSize, WindowSize)
	}
}

func TestMovingWindow_UsesLastFive(t *testing.T) {
	values := []float64{100, 100, 1.10, 1.20, 1.30, 1.40, 1.50}
	p, err := Predict(values, MovingWindow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := p.NextValue.String(); got != "1.30" {
		t.Errorf("NextValue = %s, want 1.30", got)
	}
	if p.SimpleMean != nil || p.LowRiskOdd != nil {
		t.Error("moving window must not fill multi-statistic fields")
	}
}

func TestMultiStatistic_Empty(t *testing.T) {
	_, err := Predict(nil, MultiStatistic)
	if !errors.Is(err, stats.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestMultiStatistic_KnownInput(t *testing.T) {
	p, err := Predict([]float64{5, 1, 4, 2, 3}, MultiStatistic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checks := []struct {
		name string
		got  *stats.Fixed
		want string
	}{
		{"simpleMean", p.SimpleMean, "3.00"},
		{"median", p.Median, "3.00"},
		// k = floor(5*0.10) = 0, so nothing is trimmed.
		{"trimmedMean", p.TrimmedMean, "3.00"},
		{"lowRiskOdd", p.LowRiskOdd, "1.80"},
		{"mediumRiskOdd", p.MediumRiskOdd, "3.00"},
		{"highRiskOdd", p.HighRiskOdd, "4.20"},
	}
	for _, c := range checks {
		if c.got == nil {
			t.Errorf("%s is nil", c.name)
			continue
		}
		if c.got.String() != c.want {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
	if p.NextValue.String() != "3.00" {
		t.Errorf("NextValue = %s, want simple mean 3.00", p.NextValue)
	}
}

func TestMultiStatistic_TrimsTenPercent(t *testing.T) {
	values := []float64{1000, 1, 1, 1, 1, 1, 1, 1, 1, 0.01}
	p, err := Predict(values, MultiStatistic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := p.TrimmedMean.String(); got != "1.00" {
		t.Errorf("TrimmedMean = %s, want 1.00", got)
	}
	if p.SimpleMean.String() == p.TrimmedMean.String() {
		t.Error("trimmed mean should differ from simple mean when outliers exist")
	}
}

func TestMultiStatistic_SingleEntry(t *testing.T) {
	p, err := Predict([]float64{2.45}, MultiStatistic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for name, f := range map[string]*stats.Fixed{
		"simpleMean": p.SimpleMean, "median": p.Median, "trimmedMean": p.TrimmedMean,
		"low": p.LowRiskOdd, "medium": p.MediumRiskOdd, "high": p.HighRiskOdd,
	} {
		if f.String() != "2.45" {
			t.Errorf("%s = %s, want 2.45", name, f)
		}
	}
}

func TestMultiStatistic_MediumRiskEqualsMedian(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 1; n <= 60; n++ {
		values := make([]float64, n)
		for i := range values {
			values[i] = 1 + rng.Float64()*20
		}
		p, err := Predict(values, MultiStatistic)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if p.MediumRiskOdd.Float64() != p.Median.Float64() {
			t.Errorf("n=%d: mediumRiskOdd %v != median %v", n, p.MediumRiskOdd.Float64(), p.Median.Float64())
		}
	}
}

func TestPrediction_JSON(t *testing.T) {
	p, err := Predict([]float64{1, 2, 3, 4, 5}, MovingWindow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"mode":"moving-window","nextValue":"3.00","sampleSize":5}`
	if string(out) != want {
		t.Errorf("JSON = %s, want %s", out, want)
	}
}

func TestPredict_UnknownMode(t *testing.T) {
	if _, err := Predict([]float64{1}, Mode("oracle")); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestPredict_OverflowIsAnError(t *testing.T) {
	values := []float64{1e308, 1e308, 1e308, 1e308, 1e308}
	for _, mode := range []Mode{MultiStatistic, MovingWindow} {
		t.Run(string(mode), func(t *testing.T) {
			if _, err := Predict(values, mode); !errors.Is(err, stats.ErrOutOfRange) {
				t.Fatalf("expected ErrOutOfRange, got %v", err)
			}
		})
	}
}
