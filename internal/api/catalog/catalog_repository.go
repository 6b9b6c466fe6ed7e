package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
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

const catalogTable = "travel_data"

var _ Repository = (*RepositoryImpl)(nil)

// Repository is the remote data store contract for the catalog table.
type Repository interface {
	Select(ctx context.Context, q types.CatalogQuery) ([]types.PointOfInterest, error)
	Insert(ctx context.Context, poi types.PointOfInterest, embedding []float32) (uuid.UUID, error)
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

// buildSelect turns a CatalogQuery into SQL. Filter fields are checked
// against the metadata whitelist before being spliced into the statement.
func buildSelect(q types.CatalogQuery) (string, []any, error) {
	columns := []string{"id", "content", "metadata"}
	if q.MetadataOnly {
		columns = []string{"metadata"}
	}
	sb := squirrel.Select(columns...).From(catalogTable).PlaceholderFormat(squirrel.Dollar)

	for _, f := range q.Filters {
		if _, ok := types.CatalogFilterFields[f.Field]; !ok {
			return "", nil, fmt.Errorf("%w: field %q", types.ErrUnsupportedFilter, f.Field)
		}
		column := fmt.Sprintf("metadata->>'%s'", f.Field)
		switch f.Op {
		case types.FilterEq:
			sb = sb.Where(squirrel.Eq{column: f.Value})
		case types.FilterILike:
			sb = sb.Where(squirrel.ILike{column: "%" + escapeLike(f.Value) + "%"})
		default:
			return "", nil, fmt.Errorf("%w: operator %q", types.ErrUnsupportedFilter, f.Op)
		}
	}
	return sb.ToSql()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *RepositoryImpl) Select(ctx context.Context, q types.CatalogQuery) ([]types.PointOfInterest, error) {
	ctx, span := otel.Tracer("CatalogRepository").Start(ctx, "Select", trace.WithAttributes(
		attribute.Bool("metadata_only", q.MetadataOnly),
		attribute.Int("filters.count", len(q.Filters)),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "Select"))

	query, args, err := buildSelect(q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid query")
		return nil, err
	}
	l.DebugContext(ctx, "Executing catalog select", slog.String("query", query), slog.Any("args", args))

	start := time.Now()
	rows, err := r.pgpool.Query(ctx, query, args...)
	recordQuery(ctx, "select", start, err)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query catalog", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return nil, fmt.Errorf("failed to query %s: %w", catalogTable, err)
	}
	defer rows.Close()

	var pois []types.PointOfInterest
	for rows.Next() {
		var (
			poi      types.PointOfInterest
			metadata []byte
		)
		if q.MetadataOnly {
			err = rows.Scan(&metadata)
		} else {
			err = rows.Scan(&poi.ID, &poi.Content, &metadata)
		}
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan %s row: %w", catalogTable, err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &poi.Metadata); err != nil {
				// A single malformed document must not hide the rest of the catalog.
				l.WarnContext(ctx, "Skipping row with malformed metadata", slog.Any("error", err), slog.String("id", poi.ID.String()))
				continue
			}
		}
		pois = append(pois, poi)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating %s rows: %w", catalogTable, err)
	}

	span.SetAttributes(attribute.Int("results.count", len(pois)))
	span.SetStatus(codes.Ok, "Catalog rows fetched")
	return pois, nil
}

func (r *RepositoryImpl) Insert(ctx context.Context, poi types.PointOfInterest, embedding []float32) (uuid.UUID, error) {
	ctx, span := otel.Tracer("CatalogRepository").Start(ctx, "Insert", trace.WithAttributes(
		attribute.Int("embedding.dimension", len(embedding)),
	))
	defer span.End()

	metadata := []byte(poi.RawMetadata)
	if len(metadata) == 0 {
		encoded, err := json.Marshal(poi.Metadata)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to encode metadata: %w", err)
		}
		metadata = encoded
	}

	var vec any
	if len(embedding) > 0 {
		vec = pgvector.NewVector(embedding)
	}

	query := `
        INSERT INTO travel_data (content, metadata, embedding)
        VALUES ($1, $2, $3)
        RETURNING id
    `
	var id uuid.UUID
	start := time.Now()
	err := r.pgpool.QueryRow(ctx, query, poi.Content, metadata, vec).Scan(&id)
	recordQuery(ctx, "insert", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert catalog record", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Insert failed")
		return uuid.Nil, fmt.Errorf("failed to insert into %s: %w", catalogTable, err)
	}

	span.SetStatus(codes.Ok, "Record inserted")
	return id, nil
}

func recordQuery(ctx context.Context, op string, start time.Time, err error) {
	m := metrics.Get()
	attrs := metric.WithAttributes(attribute.String("table", catalogTable), attribute.String("operation", op))
	m.StoreQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		m.StoreQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}
