// Package multiplier parses round multipliers into their canonical form.
//
// A canonical value is a decimal with at least one fractional digit followed
// by the marker "x" (for example "2.45x"). The marker is cosmetic: it is
// stripped before any numeric work.
package multiplier

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Marker is the suffix carried by every canonical value.
const Marker = "x"

var (
	// tokenPattern accepts "2.45" and "2.45x".
	tokenPattern = regexp.MustCompile(`^(\d+\.\d+)x?$`)
	// extractPattern finds marked values inside recognized text.
	extractPattern = regexp.MustCompile(`(\d+\.\d+)x`)
)

// ErrInvalidToken is matched by every NormalizationError.
var ErrInvalidToken = errors.New("invalid multiplier token")

// NormalizationError reports a token that does not have the n.nn(x) shape,
// or whose magnitude does not fit in a float64.
type NormalizationError struct {
	Token string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("invalid multiplier %q: use \"n.nn\" or \"n.nnx\"", e.Token)
}

func (e *NormalizationError) Is(target error) bool {
	return target == ErrInvalidToken
}

// Value is a canonical multiplier such as "2.45x". It is the only form ever
// handed to a store.
type Value string

// Normalize validates raw and returns it in canonical form. The digits are
// kept exactly as written, so normalizing a canonical value returns it
// unchanged.
func Normalize(raw string) (Value, error) {
	m := tokenPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", &NormalizationError{Token: raw}
	}
	v := Value(m[1] + Marker)
	if _, err := v.Float64(); err != nil {
		return "", &NormalizationError{Token: raw}
	}
	return v, nil
}

// MustNormalize is like Normalize but panics on invalid input. Intended for
// tests and literals.
func MustNormalize(raw string) Value {
	v, err := Normalize(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// Extract scans text for every non-overlapping "n.nnx" occurrence, in order
// of appearance. Unmarked numbers are not candidates.
func Extract(text string) []Value {
	matches := extractPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	values := make([]Value, 0, len(matches))
	for _, m := range matches {
		v, err := Normalize(m[1])
		if err != nil {
			// Out of float64 range.
			continue
		}
		values = append(values, v)
	}
	return values
}

func (v Value) String() string {
	return string(v)
}

// Digits returns the value without its marker.
func (v Value) Digits() string {
	return strings.TrimSuffix(string(v), Marker)
}

// Decimal parses the numeric magnitude of v.
func (v Value) Decimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.Digits())
	if err != nil {
		return decimal.Zero, &NormalizationError{Token: string(v)}
	}
	return d, nil
}

// Float64 returns the numeric magnitude of v as a float. Magnitudes beyond
// the float64 range are rejected.
func (v Value) Float64() (float64, error) {
	d, err := v.Decimal()
	if err != nil {
		return 0, err
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, &NormalizationError{Token: string(v)}
	}
	return f, nil
}

// Floats converts values to their magnitudes, preserving order.
func Floats(values []Value) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// Strings returns the canonical text of each value.
func Strings(values []Value) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
