package metrics

import (
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	StoreQueryDurationSeconds metric.Float64Histogram
	StoreQueryErrorsTotal     metric.Int64Counter
	ProviderCallsTotal        metric.Int64Counter
	ProviderDurationSeconds   metric.Float64Histogram
	IngestRecordsTotal        metric.Int64Counter
	QuestionsTotal            metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	initErr    error
	once       sync.Once
)

// InitAppMetrics creates the instruments once from the global MeterProvider.
// Without a configured provider the otel no-op meter is used.
func InitAppMetrics() error {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("travel-assistant")
		m := &AppMetrics{}
		var err error

		if m.StoreQueryDurationSeconds, err = meter.Float64Histogram(
			"store_query_duration_seconds",
			metric.WithDescription("Duration of data store queries in seconds"),
			metric.WithUnit("s"),
		); err != nil {
			initErr = fmt.Errorf("store_query_duration_seconds: %w", err)
			return
		}

		if m.StoreQueryErrorsTotal, err = meter.Int64Counter(
			"store_query_errors_total",
			metric.WithDescription("Total number of data store query errors"),
			metric.WithUnit("{error}"),
		); err != nil {
			initErr = fmt.Errorf("store_query_errors_total: %w", err)
			return
		}

		if m.ProviderCallsTotal, err = meter.Int64Counter(
			"provider_calls_total",
			metric.WithDescription("Total number of embedding and chat provider calls"),
			metric.WithUnit("{call}"),
		); err != nil {
			initErr = fmt.Errorf("provider_calls_total: %w", err)
			return
		}

		if m.ProviderDurationSeconds, err = meter.Float64Histogram(
			"provider_duration_seconds",
			metric.WithDescription("Duration of provider calls in seconds"),
			metric.WithUnit("s"),
		); err != nil {
			initErr = fmt.Errorf("provider_duration_seconds: %w", err)
			return
		}

		if m.IngestRecordsTotal, err = meter.Int64Counter(
			"ingest_records_total",
			metric.WithDescription("Ingested records by outcome"),
			metric.WithUnit("{record}"),
		); err != nil {
			initErr = fmt.Errorf("ingest_records_total: %w", err)
			return
		}

		if m.QuestionsTotal, err = meter.Int64Counter(
			"questions_total",
			metric.WithDescription("Questions answered by the retrieval chain"),
			metric.WithUnit("{question}"),
		); err != nil {
			initErr = fmt.Errorf("questions_total: %w", err)
			return
		}

		appMetrics = m
	})
	return initErr
}

// Get returns the instruments, initialising them on first use.
func Get() *AppMetrics {
	if appMetrics == nil {
		if err := InitAppMetrics(); err != nil {
			panic(fmt.Sprintf("metrics instruments not initialized: %v", err))
		}
	}
	return appMetrics
}
