package engine

import "strings"

// Slot selects which operand receives digit, point, sign and percent edits.
type Slot uint8

const (
	EnteringFirst Slot = iota
	EnteringSecond
)

func (s Slot) String() string {
	if s == EnteringSecond {
		return "second"
	}
	return "first"
}

// Operand is the text of a number being typed or already committed. It is
// kept as text so partial input such as "12." survives until evaluation.
type Operand struct {
	Text string
	Set  bool
}

func operand(text string) Operand {
	return Operand{Text: text, Set: true}
}

// State is a comparable snapshot of an Engine.
type State struct {
	Active      Slot
	First       Operand
	Second      Operand
	Pending     Operator
	Last        Operator
	LastOperand Operand
}

// Evaluation describes one arithmetic step performed by the engine.
type Evaluation struct {
	Op     Operator
	Left   float64
	Right  float64
	Result float64
	// Repeat is set when Equals reapplied the last operation.
	Repeat bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxDigits caps the number of digits a single operand may hold.
// Zero or a negative value leaves operands unbounded.
func WithMaxDigits(n int) Option {
	return func(e *Engine) {
		if n < 0 {
			n = 0
		}
		e.maxDigits = n
	}
}

// WithEvaluationHook registers fn to be called after every evaluation.
func WithEvaluationHook(fn func(Evaluation)) Option {
	return func(e *Engine) {
		e.onEvaluate = fn
	}
}

// Engine is the calculator state machine. It consumes one button at a time
// and exposes the text the display should show.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	state State

	maxDigits  int
	onEvaluate func(Evaluation)
}

// New returns an engine in the initial state.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns a snapshot of the current state.
func (e *Engine) State() State {
	return e.state
}

// Reset returns the engine to its initial state. Options are kept.
func (e *Engine) Reset() {
	e.state = State{}
}

// DisplayText returns the active operand, or "0" when it is unset.
func (e *Engine) DisplayText() string {
	if slot := e.active(); slot.Set {
		return slot.Text
	}
	return "0"
}

// PendingOperator returns the operator waiting for its second operand.
func (e *Engine) PendingOperator() (Operator, bool) {
	return e.state.Pending, e.state.Pending != 0
}

// PressAll presses each button in order and returns the final display.
func (e *Engine) PressAll(buttons ...Button) string {
	for _, b := range buttons {
		e.Press(b)
	}
	return e.DisplayText()
}

// Press applies one button and returns the resulting display text.
// Presses that make no sense in the current state are ignored.
func (e *Engine) Press(b Button) string {
	switch b.kind {
	case KindAllClear:
		e.Reset()
	case KindDigit:
		e.pressDigit(b.digit)
	case KindDecimalPoint:
		e.pressDecimalPoint()
	case KindToggleSign:
		e.pressToggleSign()
	case KindPercent:
		e.pressPercent()
	case KindOperator:
		e.pressOperator(b.op)
	case KindEquals:
		e.pressEquals()
	}
	return e.DisplayText()
}

func (e *Engine) active() Operand {
	if e.state.Active == EnteringSecond {
		return e.state.Second
	}
	return e.state.First
}

func (e *Engine) setActive(o Operand) {
	if e.state.Active == EnteringSecond {
		e.state.Second = o
		return
	}
	e.state.First = o
}

func (e *Engine) pressDigit(d uint8) {
	digit := string(rune('0' + d))

	slot := e.active()
	if !slot.Set {
		e.setActive(operand(digit))
		return
	}
	if e.maxDigits > 0 && countDigits(slot.Text) >= e.maxDigits {
		return
	}
	e.setActive(operand(slot.Text + digit))
}

func (e *Engine) pressDecimalPoint() {
	slot := e.active()
	switch {
	case !slot.Set:
		e.setActive(operand("0."))
	case strings.Contains(slot.Text, "."):
	default:
		e.setActive(operand(slot.Text + "."))
	}
}

func (e *Engine) pressToggleSign() {
	slot := e.active()
	if !slot.Set {
		return
	}
	if strings.HasPrefix(slot.Text, "-") {
		e.setActive(operand(slot.Text[1:]))
		return
	}
	e.setActive(operand("-" + slot.Text))
}

func (e *Engine) pressPercent() {
	v, ok := parse(e.active())
	if !ok {
		return
	}
	e.setActive(operand(Format(v / 100)))
}

func (e *Engine) pressOperator(op Operator) {
	if !op.Valid() {
		return
	}

	if e.state.Active == EnteringFirst {
		e.state.Pending = op
		e.state.Active = EnteringSecond
		return
	}

	if !e.state.Second.Set {
		e.state.Pending = op
		return
	}

	result, ok := e.evaluate(e.state.Pending, e.state.First, e.state.Second, false)
	if !ok {
		return
	}
	e.state.First = operand(Format(result))
	e.state.Second = Operand{}
	e.state.Pending = op
}

func (e *Engine) pressEquals() {
	s := &e.state

	if s.Pending != 0 {
		if !s.Second.Set {
			return
		}
		result, ok := e.evaluate(s.Pending, s.First, s.Second, false)
		if !ok {
			return
		}
		s.Last = s.Pending
		s.LastOperand = s.Second
		s.First = operand(Format(result))
		s.Second = Operand{}
		s.Pending = 0
		s.Active = EnteringFirst
		return
	}

	if s.Last == 0 || !s.LastOperand.Set {
		return
	}
	result, ok := e.evaluate(s.Last, s.First, s.LastOperand, true)
	if !ok {
		return
	}
	s.First = operand(Format(result))
}

// evaluate applies op to the parsed operands. It reports false, leaving
// the state untouched, when either operand does not parse.
func (e *Engine) evaluate(op Operator, left, right Operand, repeat bool) (float64, bool) {
	if !op.Valid() {
		return 0, false
	}
	a, ok := parse(left)
	if !ok {
		return 0, false
	}
	b, ok := parse(right)
	if !ok {
		return 0, false
	}

	result := op.Apply(a, b)
	if e.onEvaluate != nil {
		e.onEvaluate(Evaluation{Op: op, Left: a, Right: b, Result: result, Repeat: repeat})
	}
	return result, true
}

func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}
