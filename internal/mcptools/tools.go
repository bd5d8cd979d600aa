// Package mcptools exposes a calculator engine as MCP tools so an agent
// can press keys and read the display.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"go-calculator/internal/engine"
	"go-calculator/internal/keypad"
)

// Tool name prefix for all MCP tools
const ToolPrefix = "calculator."

// Tool names
const (
	ToolPress   = ToolPrefix + "press"
	ToolDisplay = ToolPrefix + "display"
	ToolClear   = ToolPrefix + "clear"
	ToolKeypad  = ToolPrefix + "keypad"
)

// Calculator serializes tool calls onto one engine.
type Calculator struct {
	mu     sync.Mutex
	engine *engine.Engine
}

func NewCalculator(opts ...engine.Option) *Calculator {
	return &Calculator{engine: engine.New(opts...)}
}

// Register adds every calculator tool to s.
func Register(s *server.MCPServer, calc *Calculator) {
	press := NewPressTool(calc)
	s.AddTool(press.GetTool(), press.Handle)

	display := NewDisplayTool(calc)
	s.AddTool(display.GetTool(), display.Handle)

	clr := NewClearTool(calc)
	s.AddTool(clr.GetTool(), clr.Handle)

	kp := NewKeypadTool()
	s.AddTool(kp.GetTool(), kp.Handle)
}

// PressResult is the JSON returned by the press tool.
type PressResult struct {
	Keys    []PressStep `json:"keys"`
	Display string      `json:"display"`
}

// PressStep is the display after one key.
type PressStep struct {
	Key     string `json:"key"`
	Display string `json:"display"`
}

// PressTool handles key presses
type PressTool struct {
	calc *Calculator
}

func NewPressTool(calc *Calculator) *PressTool {
	return &PressTool{calc: calc}
}

// GetTool returns the MCP tool definition
func (t *PressTool) GetTool() mcp.Tool {
	return mcp.NewTool(ToolPress,
		mcp.WithDescription("Press calculator keys in order and return the display after each key. "+
			"Keys are titles such as 7, ., +, -, x, ÷, %, +/-, AC, = separated by spaces, or a run like 12+3=."),
		mcp.WithString("keys", mcp.Required(), mcp.Description("Keys to press, e.g. \"2 + 3 =\" or \"2+3=\"")),
	)
}

// Handle processes the tool request
func (t *PressTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keys := mcp.ParseString(req, "keys", "")
	if keys == "" {
		return mcp.NewToolResultError("keys parameter is required"), nil
	}

	buttons, err := keypad.ParseSequence(keys)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(buttons) == 0 {
		return mcp.NewToolResultError("keys parameter contains no keys"), nil
	}

	t.calc.mu.Lock()
	result := PressResult{Keys: make([]PressStep, 0, len(buttons))}
	for _, b := range buttons {
		result.Keys = append(result.Keys, PressStep{Key: title(b), Display: t.calc.engine.Press(b)})
	}
	result.Display = t.calc.engine.DisplayText()
	t.calc.mu.Unlock()

	return jsonResult(result)
}

// DisplayTool reads the display
type DisplayTool struct {
	calc *Calculator
}

func NewDisplayTool(calc *Calculator) *DisplayTool {
	return &DisplayTool{calc: calc}
}

// GetTool returns the MCP tool definition
func (t *DisplayTool) GetTool() mcp.Tool {
	return mcp.NewTool(ToolDisplay,
		mcp.WithDescription("Return the text currently shown on the calculator display"),
	)
}

// Handle processes the tool request
func (t *DisplayTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.calc.mu.Lock()
	display := t.calc.engine.DisplayText()
	t.calc.mu.Unlock()

	return mcp.NewToolResultText(display), nil
}

// ClearTool presses AC
type ClearTool struct {
	calc *Calculator
}

func NewClearTool(calc *Calculator) *ClearTool {
	return &ClearTool{calc: calc}
}

// GetTool returns the MCP tool definition
func (t *ClearTool) GetTool() mcp.Tool {
	return mcp.NewTool(ToolClear,
		mcp.WithDescription("Reset the calculator to its initial state (AC)"),
	)
}

// Handle processes the tool request
func (t *ClearTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.calc.mu.Lock()
	display := t.calc.engine.Press(engine.AllClear)
	t.calc.mu.Unlock()

	return mcp.NewToolResultText(display), nil
}

// KeypadTool lists the keys
type KeypadTool struct{}

func NewKeypadTool() *KeypadTool {
	return &KeypadTool{}
}

// GetTool returns the MCP tool definition
func (t *KeypadTool) GetTool() mcp.Tool {
	return mcp.NewTool(ToolKeypad,
		mcp.WithDescription("List the calculator keys in keypad order"),
	)
}

// Handle processes the tool request
func (t *KeypadTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(keypad.Layout())
}

func title(b engine.Button) string {
	if k, ok := keypad.ForButton(b); ok {
		return k.Title
	}
	return b.String()
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal tool result into JSON: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
