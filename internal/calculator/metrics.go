package calculator

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"go-calculator/internal/observability"
)

// Metric instruments — initialized once via InitMetrics().
var (
	pressCounter   metric.Int64Counter
	pressHistogram metric.Float64Histogram
	evalCounter    metric.Int64Counter
	errorCounter   metric.Int64Counter
	resultGauge    metric.Float64Gauge
	sessionsUpDown metric.Int64UpDownCounter
	evictCounter   metric.Int64Counter
)

// InitMetrics registers custom OTel metric instruments for the calculator domain.
// Call this once at startup (after observability.InitMetrics).
func InitMetrics() error {
	meter := otel.Meter("calculator")

	var err error

	pressCounter, err = meter.Int64Counter("calculator.presses.total",
		metric.WithDescription("Total number of buttons pressed"),
		metric.WithUnit("{press}"),
	)
	if err != nil {
		return fmt.Errorf("creating press counter: %w", err)
	}

	pressHistogram, err = meter.Float64Histogram("calculator.press.duration",
		metric.WithDescription("Duration of a single button press in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 5, 10),
	)
	if err != nil {
		return fmt.Errorf("creating press histogram: %w", err)
	}

	evalCounter, err = meter.Int64Counter("calculator.evaluations.total",
		metric.WithDescription("Total number of arithmetic evaluations"),
		metric.WithUnit("{evaluation}"),
	)
	if err != nil {
		return fmt.Errorf("creating evaluation counter: %w", err)
	}

	errorCounter, err = meter.Int64Counter("calculator.errors.total",
		metric.WithDescription("Total number of calculator errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("creating error counter: %w", err)
	}

	resultGauge, err = meter.Float64Gauge("calculator.last_result",
		metric.WithDescription("The result of the last evaluation"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("creating result gauge: %w", err)
	}

	sessionsUpDown, err = meter.Int64UpDownCounter("calculator.sessions.active",
		metric.WithDescription("Number of open calculator sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return fmt.Errorf("creating sessions counter: %w", err)
	}

	evictCounter, err = meter.Int64Counter("calculator.sessions.evicted.total",
		metric.WithDescription("Total number of idle sessions evicted"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return fmt.Errorf("creating eviction counter: %w", err)
	}

	return nil
}

// recordEvictions accounts for n sessions removed after idling. The store
// can run before InitMetrics, so unset instruments are skipped.
func recordEvictions(ctx context.Context, n int) {
	if sessionsUpDown != nil {
		sessionsUpDown.Add(ctx, -int64(n))
	}
	if evictCounter != nil {
		evictCounter.Add(ctx, int64(n))
	}

	observability.Logger.Info("calculator sessions evicted", zap.Int("count", n))
}

// RegisterCollectors exposes the store's session count on reg, which
// backs the /metrics endpoint.
func RegisterCollectors(reg prometheus.Registerer, store *Store) error {
	sessions := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "calculator",
		Name:      "sessions",
		Help:      "Number of calculator sessions held in memory.",
	}, func() float64 {
		return float64(store.Len())
	})

	if err := reg.Register(sessions); err != nil {
		return fmt.Errorf("registering sessions gauge: %w", err)
	}
	return nil
}
