package stats

import (
	"reflect"
	"testing"
)

func TestSorted(t *testing.T) {
	in := []float64{3, 1, 2}
	got := Sorted(in)
	if !reflect.DeepEqual(got, []float64{1, 2, 3}) {
		t.Errorf("Sorted() = %v", got)
	}
	if !reflect.DeepEqual(in, []float64{3, 1, 2}) {
		t.Errorf("Sorted mutated its input: %v", in)
	}
}

func TestQuantile(t *testing.T) {
	tests := []struct {
		name     string
		sorted   []float64
		p        float64
		expected float64
	}{
		{"Empty", []float64{}, 0.5, 0},
		{"SingleItem", []float64{4.2}, 0.8, 4.2},
		{"Minimum", []float64{1, 2, 3}, 0, 1},
		{"Maximum", []float64{1, 2, 3}, 1, 3},
		{"OddMedian", []float64{1, 2, 3, 4, 5}, 0.5, 3},
		{"EvenMedian", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"Interpolated20", []float64{1, 2, 3, 4, 5}, 0.2, 1.8},
		{"Interpolated80", []float64{1, 2, 3, 4, 5}, 0.8, 4.2},
		{"ExactRank", []float64{10, 20, 30, 40, 50, 60}, 0.4, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Quantile(tt.sorted, tt.p)
			if diff := got - tt.expected; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Quantile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.expected)
			}
		})
	}
}

func TestQuantileMidpointMatchesMedian(t *testing.T) {
	datasets := [][]float64{
		{1.1, 2.2, 3.3, 4.4},
		{0.1, 0.2},
		{1.37, 2.91, 2.93, 8.05, 11.2, 40.01},
	}
	for _, d := range datasets {
		s := Sorted(d)
		n := len(s)
		want := (s[n/2-1] + s[n/2]) / 2
		if got := Quantile(s, 0.5); got != want {
			t.Errorf("Quantile(%v, 0.5) = %v, want exactly %v", s, got, want)
		}
	}
}

func TestFirstMode(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"Empty", []float64{}, 0},
		{"AllDistinct", []float64{5, 4, 3}, 5},
		{"ClearWinner", []float64{1, 2, 2, 3}, 2},
		{"TieFirstSeenWins", []float64{3, 1, 1, 3}, 3},
		{"LaterCatchUp", []float64{2, 7, 7, 2, 9}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstMode(tt.values); got != tt.expected {
				t.Errorf("FirstMode(%v) = %v, want %v", tt.values, got, tt.expected)
			}
		})
	}
}

func TestTrimmedMean(t *testing.T) {
	tests := []struct {
		name     string
		sorted   []float64
		expected float64
	}{
		{"Empty", []float64{}, 0},
		{"FiveKeepsAll", []float64{1, 2, 3, 4, 100}, 22},
		{"TenDropsOneEachSide", []float64{1, 2, 2, 2, 2, 2, 2, 2, 2, 50}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimmedMean(tt.sorted, 0.10); got != tt.expected {
				t.Errorf("TrimmedMean(%v) = %v, want %v", tt.sorted, got, tt.expected)
			}
		})
	}

	// With a fraction of one half k reaches n/2 and nothing would remain.
	if got := TrimmedMean([]float64{1, 3}, 0.5); got != 2 {
		t.Errorf("fallback TrimmedMean = %v, want 2", got)
	}
}
