package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"go-calculator/internal/calculator"
	"go-calculator/internal/config"
	"go-calculator/internal/engine"
	"go-calculator/internal/observability"
	"go-calculator/internal/server"
)

func main() {

	ctx := context.Background()

	// Config
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Logger
	err = observability.InitLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer observability.SyncLogger()

	// Telemetry export
	if cfg.OTelExport {
		shutdown, err := initTelemetry(ctx)
		if err != nil {
			observability.Logger.Fatal("telemetry init failed", zap.Error(err))
		}
		defer shutdown(ctx)
	}

	if err := calculator.InitMetrics(); err != nil {
		observability.Logger.Fatal("calculator metrics init failed", zap.Error(err))
	}

	// Sessions
	store := calculator.NewStore(cfg.MaxSessions,
		calculator.WithEngineOptions(engine.WithMaxDigits(cfg.MaxDigits)),
		calculator.WithIdleTTL(cfg.SessionTTL),
	)
	if err := calculator.RegisterCollectors(prometheus.DefaultRegisterer, store); err != nil {
		observability.Logger.Fatal("prometheus registration failed", zap.Error(err))
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go store.RunJanitor(janitorCtx, calculator.JanitorInterval(cfg.SessionTTL))

	// Router
	router := server.NewRouter(calculator.NewHandler(store))

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		observability.Logger.Info("server started",
			zap.String("addr", cfg.HTTPAddr),
			zap.Int("max_digits", cfg.MaxDigits),
			zap.Int("max_sessions", cfg.MaxSessions),
			zap.Duration("session_ttl", cfg.SessionTTL),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Logger.Fatal("server failed", zap.Error(err))
		}
	}()

	waitForShutdown(srv)
}

func waitForShutdown(srv *http.Server) {

	stop := make(chan os.Signal, 1)

	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		observability.Logger.Error("server shutdown failed", zap.Error(err))
	}
}
