package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/ca-srg/footprint/internal/console"
)

const (
	meterName        = "footprint/metrics"
	totalGaugeName   = "footprint.searches.total"
	counterName      = "footprint.searches"
	durationHistName = "footprint.search.duration"
)

var (
	otelMu          sync.RWMutex
	otelInitialized bool
	searchCounter   metric.Int64Counter
	searchDuration  metric.Float64Histogram
)

// InitOTelMetrics registers the search instruments on the global meter
// provider: an observable gauge of the cumulative SQLite totals, a counter and
// a duration histogram. Call it after observability.Init. Repeated calls are no-ops.
func InitOTelMetrics() error {
	otelMu.Lock()
	defer otelMu.Unlock()
	if otelInitialized {
		return nil
	}

	meter := otel.Meter(meterName)

	if _, err := meter.Int64ObservableGauge(
		totalGaugeName,
		metric.WithDescription("Cumulative searches by mode (cli, console, webui) and outcome"),
		metric.WithUnit("{searches}"),
		metric.WithInt64Callback(totalsCallback),
	); err != nil {
		logger.Warn("metrics: failed to create totals gauge", zap.Error(err))
		return err
	}

	counter, err := meter.Int64Counter(
		counterName,
		metric.WithDescription("Searches recorded by this process"),
		metric.WithUnit("{searches}"),
	)
	if err != nil {
		return err
	}

	histogram, err := meter.Float64Histogram(
		durationHistName,
		metric.WithDescription("Time from submission to resolution"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	searchCounter = counter
	searchDuration = histogram
	otelInitialized = true
	return nil
}

// totalsCallback reads cumulative totals from SQLite for the gauge.
func totalsCallback(_ context.Context, observer metric.Int64Observer) error {
	totals := GetStats()
	if totals == nil {
		totals = newTotals()
	}

	for mode, byOutcome := range totals {
		for outcome, count := range byOutcome {
			observer.Observe(count, metric.WithAttributes(
				attribute.String("mode", string(mode)),
				attribute.String("outcome", string(outcome)),
			))
		}
	}
	return nil
}

func recordInstruments(ctx context.Context, mode Mode, outcome console.OutcomeKind, elapsed time.Duration) {
	otelMu.RLock()
	counter, histogram := searchCounter, searchDuration
	otelMu.RUnlock()
	if counter == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("mode", string(mode)),
		attribute.String("outcome", string(outcome)),
	)
	counter.Add(ctx, 1, attrs)
	// Rejected searches never reach the service.
	if elapsed > 0 {
		histogram.Record(ctx, elapsed.Seconds(), attrs)
	}
}

// ResetOTelForTesting resets the OTel registration for testing purposes.
func ResetOTelForTesting() {
	otelMu.Lock()
	defer otelMu.Unlock()
	otelInitialized = false
	searchCounter = nil
	searchDuration = nil
}
