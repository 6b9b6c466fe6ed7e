package rag

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/travel-assistant/app/db"
	"github.com/FACorreiaa/travel-assistant/app/observability/metrics"
	"github.com/FACorreiaa/travel-assistant/internal/types"
)

const vectorTable = "travel_vectors"

var _ Repository = (*RepositoryImpl)(nil)

// Repository reads and indexes the Q&A corpus.
type Repository interface {
	ListDocuments(ctx context.Context) ([]types.VectorDocument, error)
	UpdateEmbeddings(ctx context.Context, docs []types.VectorDocument) error
	FindSimilar(ctx context.Context, embedding []float32, k int) ([]types.VectorDocument, error)
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool database.DBTX
}

func NewRepository(pgpool database.DBTX, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *RepositoryImpl) ListDocuments(ctx context.Context) ([]types.VectorDocument, error) {
	ctx, span := otel.Tracer("RagRepository").Start(ctx, "ListDocuments")
	defer span.End()

	query := `SELECT id, content FROM travel_vectors ORDER BY id`

	start := time.Now()
	rows, err := r.pgpool.Query(ctx, query)
	recordQuery(ctx, "select", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to list vector documents", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return nil, fmt.Errorf("failed to query %s: %w", vectorTable, err)
	}
	defer rows.Close()

	var docs []types.VectorDocument
	for rows.Next() {
		var doc types.VectorDocument
		if err := rows.Scan(&doc.ID, &doc.Content); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan %s row: %w", vectorTable, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating %s rows: %w", vectorTable, err)
	}

	span.SetAttributes(attribute.Int("documents.count", len(docs)))
	span.SetStatus(codes.Ok, "Documents listed")
	return docs, nil
}

// UpdateEmbeddings writes the vectors of docs back onto their rows in one batch.
func (r *RepositoryImpl) UpdateEmbeddings(ctx context.Context, docs []types.VectorDocument) error {
	ctx, span := otel.Tracer("RagRepository").Start(ctx, "UpdateEmbeddings", trace.WithAttributes(
		attribute.Int("documents.count", len(docs)),
	))
	defer span.End()

	if len(docs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `UPDATE travel_vectors SET embedding = $1 WHERE id = $2`
	for _, doc := range docs {
		batch.Queue(query, pgvector.NewVector(doc.Embedding), doc.ID)
	}

	start := time.Now()
	br := r.pgpool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range docs {
		if _, err := br.Exec(); err != nil {
			recordQuery(ctx, "update", start, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Batch update failed")
			return fmt.Errorf("failed to store embedding for document %s (index %d): %w", docs[i].ID, i, err)
		}
	}
	recordQuery(ctx, "update", start, nil)

	span.SetStatus(codes.Ok, "Embeddings stored")
	return nil
}

// FindSimilar returns the k documents closest to embedding by cosine distance.
// Blank rows are never indexed, so a stale vector left on one is ignored.
func (r *RepositoryImpl) FindSimilar(ctx context.Context, embedding []float32, k int) ([]types.VectorDocument, error) {
	ctx, span := otel.Tracer("RagRepository").Start(ctx, "FindSimilar", trace.WithAttributes(
		attribute.Int("k", k),
	))
	defer span.End()

	query := `
        SELECT id, content, 1 - (embedding <=> $1) AS similarity
        FROM travel_vectors
        WHERE embedding IS NOT NULL
          AND btrim(coalesce(content, '')) <> ''
        ORDER BY embedding <=> $1
        LIMIT $2
    `

	start := time.Now()
	rows, err := r.pgpool.Query(ctx, query, pgvector.NewVector(embedding), k)
	recordQuery(ctx, "similarity", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to run similarity search", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Similarity search failed")
		return nil, fmt.Errorf("failed to search %s: %w", vectorTable, err)
	}
	defer rows.Close()

	var docs []types.VectorDocument
	for rows.Next() {
		var doc types.VectorDocument
		if err := rows.Scan(&doc.ID, &doc.Content, &doc.Similarity); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan similarity row: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating similarity rows: %w", err)
	}

	span.SetAttributes(attribute.Int("results.count", len(docs)))
	span.SetStatus(codes.Ok, "Similar documents found")
	return docs, nil
}

func recordQuery(ctx context.Context, op string, start time.Time, err error) {
	m := metrics.Get()
	attrs := metric.WithAttributes(attribute.String("table", vectorTable), attribute.String("operation", op))
	m.StoreQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		m.StoreQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}
