package engine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDigit    = errors.New("digit must be between 0 and 9")
	ErrInvalidOperator = errors.New("unknown operator")
)

// Operator is one of the four binary arithmetic operations.
// The zero value means "no operator".
type Operator uint8

const (
	Add Operator = iota + 1
	Subtract
	Multiply
	Divide
)

// Operators lists every valid operator in keypad order.
var Operators = []Operator{Divide, Multiply, Subtract, Add}

// Valid reports whether o is one of the four operators.
func (o Operator) Valid() bool {
	return o >= Add && o <= Divide
}

// Apply evaluates a <o> b. Division by zero follows IEEE 754 and yields
// ±Inf or NaN.
func (o Operator) Apply(a, b float64) float64 {
	switch o {
	case Add:
		return a + b
	case Subtract:
		return a - b
	case Multiply:
		return a * b
	case Divide:
		return a / b
	default:
		return a
	}
}

func (o Operator) String() string {
	switch o {
	case Add:
		return "add"
	case Subtract:
		return "subtract"
	case Multiply:
		return "multiply"
	case Divide:
		return "divide"
	default:
		return "none"
	}
}

// Symbol is the arithmetic sign used in logs and traces.
func (o Operator) Symbol() string {
	switch o {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "×"
	case Divide:
		return "÷"
	default:
		return ""
	}
}

// Kind identifies which variant a Button holds.
type Kind uint8

const (
	KindNone Kind = iota
	KindAllClear
	KindToggleSign
	KindPercent
	KindOperator
	KindDigit
	KindDecimalPoint
	KindEquals
)

// Button is a single user action. Buttons are immutable values; build
// digit and operator buttons with Digit and OperatorButton.
type Button struct {
	kind  Kind
	op    Operator
	digit uint8
}

var (
	AllClear     = Button{kind: KindAllClear}
	ToggleSign   = Button{kind: KindToggleSign}
	Percent      = Button{kind: KindPercent}
	DecimalPoint = Button{kind: KindDecimalPoint}
	Equals       = Button{kind: KindEquals}
)

// Digit returns the button for a single decimal digit.
func Digit(d int) (Button, error) {
	if d < 0 || d > 9 {
		return Button{}, fmt.Errorf("%w: got %d", ErrInvalidDigit, d)
	}
	return Button{kind: KindDigit, digit: uint8(d)}, nil
}

// MustDigit is like Digit but panics on an invalid digit. Use it for
// literals only.
func MustDigit(d int) Button {
	b, err := Digit(d)
	if err != nil {
		panic(err)
	}
	return b
}

// OperatorButton returns the button for op.
func OperatorButton(op Operator) (Button, error) {
	if !op.Valid() {
		return Button{}, fmt.Errorf("%w: %d", ErrInvalidOperator, op)
	}
	return Button{kind: KindOperator, op: op}, nil
}

// MustOperator is like OperatorButton but panics on an invalid operator.
func MustOperator(op Operator) Button {
	b, err := OperatorButton(op)
	if err != nil {
		panic(err)
	}
	return b
}

func (b Button) Kind() Kind {
	return b.kind
}

// Digit returns the digit of a digit button.
func (b Button) Digit() (int, bool) {
	if b.kind != KindDigit {
		return 0, false
	}
	return int(b.digit), true
}

// Operator returns the operator of an operator button.
func (b Button) Operator() (Operator, bool) {
	if b.kind != KindOperator {
		return 0, false
	}
	return b.op, true
}

func (b Button) String() string {
	switch b.kind {
	case KindAllClear:
		return "all_clear"
	case KindToggleSign:
		return "toggle_sign"
	case KindPercent:
		return "percent"
	case KindOperator:
		return b.op.String()
	case KindDigit:
		return string(rune('0' + b.digit))
	case KindDecimalPoint:
		return "decimal_point"
	case KindEquals:
		return "equals"
	default:
		return "none"
	}
}
