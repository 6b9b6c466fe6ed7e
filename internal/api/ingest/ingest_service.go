package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/travel-assistant/app/observability/metrics"
	generativeAI "github.com/FACorreiaa/travel-assistant/internal/api/generative_ai"
	"github.com/FACorreiaa/travel-assistant/internal/types"
)

// Inserter stores one catalog record with its embedding.
type Inserter interface {
	Insert(ctx context.Context, poi types.PointOfInterest, embedding []float32) (uuid.UUID, error)
}

type ServiceImpl struct {
	logger     *slog.Logger
	repository Inserter
	embedder   generativeAI.Embedder
	limiter    *rate.Limiter
	workers    int
}

// NewServiceImpl builds the ingestion service. ratePerSecond caps embedding
// calls; zero or less disables the cap.
func NewServiceImpl(repository Inserter, embedder generativeAI.Embedder, workers int, ratePerSecond float64, logger *slog.Logger) *ServiceImpl {
	if workers <= 0 {
		workers = 1
	}
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	return &ServiceImpl{
		logger:     logger,
		repository: repository,
		embedder:   embedder,
		limiter:    rate.NewLimiter(limit, 1),
		workers:    workers,
	}
}

func (s *ServiceImpl) IngestFile(ctx context.Context, path string, out io.Writer) (types.IngestSummary, error) {
	records, err := LoadFile(path)
	if err != nil {
		return types.IngestSummary{}, err
	}
	s.logger.InfoContext(ctx, "Loaded ingestion file", slog.String("path", path), slog.Int("records", len(records)))
	return s.Ingest(ctx, records, out)
}

// Ingest embeds and inserts every record. A failed record is reported and
// the batch moves on; only context cancellation stops it early. Lines are
// written to out in input order.
func (s *ServiceImpl) Ingest(ctx context.Context, records []types.IngestRecord, out io.Writer) (types.IngestSummary, error) {
	ctx, span := otel.Tracer("IngestService").Start(ctx, "Ingest", trace.WithAttributes(
		attribute.Int("records.count", len(records)),
		attribute.Int("workers", s.workers),
	))
	defer span.End()

	results := make([]types.IngestResult, len(records))
	done := make([]chan struct{}, len(records))
	for i := range done {
		done[i] = make(chan struct{})
	}

	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for i := range records {
			<-done[i]
			report(out, results[i])
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, record := range records {
		g.Go(func() error {
			defer close(done[i])
			results[i] = s.ingestOne(gctx, i, record)
			return gctx.Err()
		})
	}
	err := g.Wait()
	<-printed
	fmt.Fprintln(out, "Finished uploading data.")

	summary := types.IngestSummary{Results: results}
	for _, r := range results {
		if r.Inserted() {
			summary.Inserted++
		} else {
			summary.Failed++
		}
	}

	s.logger.InfoContext(ctx, "Ingestion finished",
		slog.Int("inserted", summary.Inserted),
		slog.Int("failed", summary.Failed))
	span.SetAttributes(
		attribute.Int("inserted", summary.Inserted),
		attribute.Int("failed", summary.Failed),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Ingestion interrupted")
		return summary, fmt.Errorf("ingestion interrupted: %w", err)
	}
	span.SetStatus(codes.Ok, "Ingestion finished")
	return summary, nil
}

func (s *ServiceImpl) ingestOne(ctx context.Context, index int, record types.IngestRecord) types.IngestResult {
	result := types.IngestResult{Index: index, Content: record.Content}
	defer func() {
		outcome := "inserted"
		if result.Err != nil {
			outcome = "failed"
		}
		metrics.Get().IngestRecordsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}()

	if err := s.limiter.Wait(ctx); err != nil {
		result.Err = err
		return result
	}

	embedding, err := generativeAI.EmbedOne(ctx, s.embedder, record.Content)
	if err != nil {
		result.Err = fmt.Errorf("embedding failed: %w", err)
		s.logger.WarnContext(ctx, "Failed to embed record", slog.Int("index", index), slog.Any("error", err))
		return result
	}

	id, err := s.repository.Insert(ctx, types.PointOfInterest{
		Content:     record.Content,
		Metadata:    record.Metadata,
		RawMetadata: record.RawMetadata,
	}, embedding)
	if err != nil {
		result.Err = err
		s.logger.WarnContext(ctx, "Failed to insert record", slog.Int("index", index), slog.Any("error", err))
		return result
	}
	result.ID = id
	return result
}

func report(out io.Writer, r types.IngestResult) {
	if r.Inserted() {
		fmt.Fprintf(out, "Inserted record with content: %s\n", r.Content)
		return
	}
	fmt.Fprintf(out, "Failed to insert record: %v\n", r.Err)
}
