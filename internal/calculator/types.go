package calculator

import (
	"go-calculator/internal/engine"
	"go-calculator/internal/keypad"
)

// PressRequest is the JSON body for POST /calculator/sessions/{id}/press.
// Buttons are pressed first, then the keys in Sequence.
type PressRequest struct {
	Buttons  []string `json:"buttons,omitempty"`  // key titles or names: "7", "+", "AC", "toggle_sign"
	Sequence string   `json:"sequence,omitempty"` // e.g. "12+3="
}

// SessionResponse describes a session's current display.
type SessionResponse struct {
	ID      string    `json:"id"`
	Display string    `json:"display"`
	State   StateView `json:"state"`
}

// PressResponse is the JSON response for a press request.
type PressResponse struct {
	ID      string        `json:"id"`
	Presses []PressResult `json:"presses"`
	Display string        `json:"display"`
	State   StateView     `json:"state"`
}

// PressResult records the display after one button.
type PressResult struct {
	Button  string `json:"button"`
	Display string `json:"display"`
}

// KeypadResponse is the JSON response for GET /calculator/keypad.
type KeypadResponse struct {
	Keys []keypad.Key `json:"keys"`
}

// StateView is the JSON form of engine.State. Unset operands are null.
type StateView struct {
	Active      string  `json:"active"`
	First       *string `json:"first"`
	Second      *string `json:"second"`
	Pending     string  `json:"pending_operator,omitempty"`
	Last        string  `json:"last_operator,omitempty"`
	LastOperand *string `json:"last_operand"`
	// Highlighted is the title of the operator key drawn as selected.
	Highlighted string `json:"highlighted,omitempty"`
}

func newStateView(s engine.State) StateView {
	v := StateView{
		Active:      s.Active.String(),
		First:       operandText(s.First),
		Second:      operandText(s.Second),
		LastOperand: operandText(s.LastOperand),
	}
	if s.Pending.Valid() {
		v.Pending = s.Pending.String()
	}
	if k, ok := keypad.Highlighted(s); ok {
		v.Highlighted = k.Title
	}
	if s.Last.Valid() {
		v.Last = s.Last.String()
	}
	return v
}

func operandText(o engine.Operand) *string {
	if !o.Set {
		return nil
	}
	text := o.Text
	return &text
}
