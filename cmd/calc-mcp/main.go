// Command calc-mcp serves one calculator over MCP on stdio.
package main

import (
	"flag"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"go-calculator/internal/config"
	"go-calculator/internal/engine"
	"go-calculator/internal/mcptools"
	"go-calculator/internal/observability"
)

const (
	serverName    = "go-calculator"
	serverVersion = "0.1.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	var (
		maxDigits = flag.Int("max-digits", cfg.MaxDigits, "Maximum digits per operand (0 = unbounded, default from CALC_MAX_DIGITS)")
		logLevel  = flag.String("log-level", "warn", "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	// zap's production logger writes to stderr, leaving stdout to MCP.
	if err := observability.InitLogger(*logLevel); err != nil {
		panic(err)
	}
	defer observability.SyncLogger()

	s := server.NewMCPServer(serverName, serverVersion)
	mcptools.Register(s, mcptools.NewCalculator(engine.WithMaxDigits(*maxDigits)))

	observability.Logger.Info("mcp server started", zap.Int("max_digits", *maxDigits))

	// Blocks until stdin closes.
	if err := server.ServeStdio(s); err != nil {
		observability.Logger.Fatal("mcp server failed", zap.Error(err))
	}
}
