package engine

import (
	"errors"
	"math"
	"strconv"
)

// Format renders a computed value for an operand slot. Integral values have
// no fractional part, other values use the shortest text that parses back
// to the same float64. Finite values are never written in exponent form, so
// the text stays a valid operand slot for further digit entry. Non-finite values render as Inf, -Inf and NaN, all
// of which strconv.ParseFloat accepts.
func Format(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	case v == 0:
		// Covers negative zero.
		return "0"
	}

	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parse reads an operand slot. Unset slots never parse. Digit strings too
// long for a float64 parse as ±Inf.
func parse(o Operand) (float64, bool) {
	if !o.Set {
		return 0, false
	}
	v, err := strconv.ParseFloat(o.Text, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return v, true
}
