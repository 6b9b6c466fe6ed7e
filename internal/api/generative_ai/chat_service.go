package generativeAI

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/travel-assistant/app/observability/metrics"
)

var _ Provider = (*InstrumentedProvider)(nil)

// InstrumentedProvider adds spans, metrics and debug logs around a Provider.
type InstrumentedProvider struct {
	next   Provider
	logger *slog.Logger
}

func NewInstrumentedProvider(next Provider, logger *slog.Logger) *InstrumentedProvider {
	return &InstrumentedProvider{next: next, logger: logger}
}

func (p *InstrumentedProvider) Name() string {
	return p.next.Name()
}

func (p *InstrumentedProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "Embed", trace.WithAttributes(
		attribute.String("provider", p.next.Name()),
		attribute.Int("texts.count", len(texts)),
	))
	defer span.End()

	start := time.Now()
	vectors, err := p.next.Embed(ctx, texts)
	p.record(ctx, "embed", start, err)
	if err != nil {
		p.logger.ErrorContext(ctx, "Embedding request failed", slog.Any("error", err), slog.Int("texts", len(texts)))
		span.RecordError(err)
		span.SetStatus(codes.Error, "embedding failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "embedded")
	return vectors, nil
}

func (p *InstrumentedProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "Complete", trace.WithAttributes(
		attribute.String("provider", p.next.Name()),
		attribute.Int("prompt.length", len(prompt)),
	))
	defer span.End()

	start := time.Now()
	answer, err := p.next.Complete(ctx, system, prompt)
	p.record(ctx, "complete", start, err)
	if err != nil {
		p.logger.ErrorContext(ctx, "Completion request failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return "", err
	}
	p.logger.DebugContext(ctx, "Completion received", slog.Duration("latency", time.Since(start)))
	span.SetStatus(codes.Ok, "completed")
	return answer, nil
}

func (p *InstrumentedProvider) record(ctx context.Context, op string, start time.Time, err error) {
	m := metrics.Get()
	attrs := metric.WithAttributes(
		attribute.String("provider", p.next.Name()),
		attribute.String("operation", op),
		attribute.Bool("error", err != nil),
	)
	m.ProviderCallsTotal.Add(ctx, 1, attrs)
	m.ProviderDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
}
