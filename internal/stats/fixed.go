package stats

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Fixed is a computed statistic. It keeps full precision in memory and is
// rendered with exactly two decimal digits.
type Fixed float64

func (f Fixed) String() string {
	v := float64(f)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Float64 returns the unrounded value.
func (f Fixed) Float64() float64 {
	return float64(f)
}

func (f Fixed) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *Fixed) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("fixed value must be a string: %w", err)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid fixed value %q: %w", s, err)
	}
	*f = Fixed(d.InexactFloat64())
	return nil
}
