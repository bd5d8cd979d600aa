// Package keypad describes the calculator keys a front end shows: their
// titles, layout order, colour category and numeric tags, and maps typed
// key names back to engine buttons. The engine itself knows none of this.
package keypad

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go-calculator/internal/engine"
)

var ErrUnknownKey = errors.New("unknown key")

// Category groups keys that share a colour on the keypad.
type Category uint8

const (
	Function Category = iota + 1
	Operator
	Number
)

func (c Category) String() string {
	switch c {
	case Function:
		return "function"
	case Operator:
		return "operator"
	case Number:
		return "number"
	default:
		return "unknown"
	}
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Key is one button on the keypad.
type Key struct {
	Button   engine.Button `json:"-"`
	Name     string        `json:"name"`
	Title    string        `json:"title"`
	Tag      int           `json:"tag"`
	Category Category      `json:"category"`
	// Wide keys span two columns.
	Wide bool `json:"wide,omitempty"`
}

func key(b engine.Button, title string, tag int, c Category) Key {
	return Key{Button: b, Name: b.String(), Title: title, Tag: tag, Category: c}
}

func digitKey(n int) Key {
	return key(engine.MustDigit(n), fmt.Sprint(n), n, Number)
}

// Tags for the non-digit keys. Digits use their own value as tag.
const (
	TagAllClear     = 10
	TagToggleSign   = 11
	TagPercent      = 12
	TagDivide       = 13
	TagMultiply     = 14
	TagSubtract     = 15
	TagAdd          = 16
	TagEquals       = 17
	TagDecimalPoint = 19
)

var layout = func() []Key {
	zero := digitKey(0)
	zero.Wide = true

	return []Key{
		key(engine.AllClear, "AC", TagAllClear, Function),
		key(engine.ToggleSign, "+/-", TagToggleSign, Function),
		key(engine.Percent, "%", TagPercent, Function),
		key(engine.MustOperator(engine.Divide), "÷", TagDivide, Operator),

		digitKey(7), digitKey(8), digitKey(9),
		key(engine.MustOperator(engine.Multiply), "x", TagMultiply, Operator),

		digitKey(4), digitKey(5), digitKey(6),
		key(engine.MustOperator(engine.Subtract), "-", TagSubtract, Operator),

		digitKey(1), digitKey(2), digitKey(3),
		key(engine.MustOperator(engine.Add), "+", TagAdd, Operator),

		zero,
		key(engine.DecimalPoint, ".", TagDecimalPoint, Number),
		key(engine.Equals, "=", TagEquals, Operator),
	}
}()

// Layout returns the keys in display order, row by row.
func Layout() []Key {
	out := make([]Key, len(layout))
	copy(out, layout)
	return out
}

// ByTag looks a key up by its numeric tag.
func ByTag(tag int) (Key, error) {
	for _, k := range layout {
		if k.Tag == tag {
			return k, nil
		}
	}
	return Key{}, fmt.Errorf("%w: tag %d", ErrUnknownKey, tag)
}

// ForButton returns the keypad key that produces b.
func ForButton(b engine.Button) (Key, bool) {
	for _, k := range layout {
		if k.Button == b {
			return k, true
		}
	}
	return Key{}, false
}

// Highlighted returns the operator key to draw as selected: the pending
// operator while its second operand is still empty.
func Highlighted(s engine.State) (Key, bool) {
	if !s.Pending.Valid() || s.Second.Set {
		return Key{}, false
	}
	return ForButton(engine.MustOperator(s.Pending))
}

var aliases = func() map[string]engine.Button {
	m := map[string]engine.Button{
		"c":       engine.AllClear,
		"clear":   engine.AllClear,
		"±":       engine.ToggleSign,
		"neg":     engine.ToggleSign,
		"negate":  engine.ToggleSign,
		"/":       engine.MustOperator(engine.Divide),
		"*":       engine.MustOperator(engine.Multiply),
		"×":       engine.MustOperator(engine.Multiply),
		"−":       engine.MustOperator(engine.Subtract),
		"enter":   engine.Equals,
		"point":   engine.DecimalPoint,
		"decimal": engine.DecimalPoint,
	}
	for _, k := range layout {
		m[strings.ToLower(k.Title)] = k.Button
		m[k.Name] = k.Button
	}
	return m
}()

// Parse maps a key title, button name or common alias to a button.
// Matching is case-insensitive.
func Parse(token string) (engine.Button, error) {
	b, ok := aliases[strings.ToLower(strings.TrimSpace(token))]
	if !ok {
		return engine.Button{}, fmt.Errorf("%w: %q", ErrUnknownKey, token)
	}
	return b, nil
}

// multiRune lists the aliases longer than one rune that may appear inside
// a run such as "12+/-=". Longest first.
var multiRune = []string{"+/-", "ac"}

// ParseSequence splits s on whitespace and commas and parses each field.
// A field that is not itself a key is read as a run of keys, so "12+3="
// and "1 2 + 3 =" are equivalent.
func ParseSequence(s string) ([]engine.Button, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})

	var out []engine.Button
	for _, f := range fields {
		if b, err := Parse(f); err == nil {
			out = append(out, b)
			continue
		}

		run, err := parseRun(f)
		if err != nil {
			return nil, err
		}
		out = append(out, run...)
	}
	return out, nil
}

func parseRun(field string) ([]engine.Button, error) {
	var out []engine.Button

	rest := field
	for rest != "" {
		matched := false
		for _, m := range multiRune {
			if len(rest) >= len(m) && strings.EqualFold(rest[:len(m)], m) {
				out = append(out, aliases[m])
				rest = rest[len(m):]
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		r, size := utf8.DecodeRuneInString(rest)
		b, err := Parse(string(r))
		if err != nil {
			return nil, fmt.Errorf("%w: %q in %q", ErrUnknownKey, string(r), field)
		}
		out = append(out, b)
		rest = rest[size:]
	}
	return out, nil
}
