package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{name: "integer", value: 6, want: "6"},
		{name: "negative integer", value: -3, want: "-3"},
		{name: "zero", value: 0, want: "0"},
		{name: "negative zero", value: math.Copysign(0, -1), want: "0"},
		{name: "half", value: 0.5, want: "0.5"},
		{name: "fraction", value: 2.25, want: "2.25"},
		{name: "large integer", value: 123456789, want: "123456789"},
		{name: "large fraction", value: 1234567.5, want: "1234567.5"},
		{name: "tiny", value: 1e-7, want: "0.0000001"},
		{name: "huge", value: 1e21, want: "1000000000000000000000"},
		{name: "positive infinity", value: math.Inf(1), want: "Inf"},
		{name: "negative infinity", value: math.Inf(-1), want: "-Inf"},
		{name: "not a number", value: math.NaN(), want: "NaN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.value))
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		in     Operand
		want   float64
		wantOK bool
	}{
		{name: "unset", in: Operand{}, wantOK: false},
		{name: "integer", in: operand("42"), want: 42, wantOK: true},
		{name: "trailing point", in: operand("12."), want: 12, wantOK: true},
		{name: "negative", in: operand("-0.5"), want: -0.5, wantOK: true},
		{name: "infinity", in: operand("Inf"), want: math.Inf(1), wantOK: true},
		{name: "negative infinity", in: operand("-Inf"), want: math.Inf(-1), wantOK: true},
		{name: "garbage", in: operand("Inf5"), wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parse(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFormatRoundTripsThroughParse(t *testing.T) {
	for _, v := range []float64{0.1, 1.0 / 3, -2.75, 1e-9, 6.02e23, math.Inf(1), math.Inf(-1)} {
		got, ok := parse(operand(Format(v)))
		assert.True(t, ok, "Format(%v) must parse back", v)
		assert.Equal(t, v, got)
	}

	got, ok := parse(operand(Format(math.NaN())))
	assert.True(t, ok)
	assert.True(t, math.IsNaN(got))
}

func TestOperatorApply(t *testing.T) {
	assert.Equal(t, 5.0, Add.Apply(2, 3))
	assert.Equal(t, -1.0, Subtract.Apply(2, 3))
	assert.Equal(t, 6.0, Multiply.Apply(2, 3))
	assert.Equal(t, 2.5, Divide.Apply(5, 2))
	assert.True(t, math.IsInf(Divide.Apply(1, 0), 1))
	assert.True(t, math.IsNaN(Divide.Apply(0, 0)))
}
