package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/travel-assistant/internal/types"
)

const citiesCacheKey = "cities"

var _ Service = (*ServiceImpl)(nil)

// Service is the catalog query layer used by the itinerary planner.
type Service interface {
	ListCities(ctx context.Context) ([]string, error)
	ListActivityVocabulary(ctx context.Context, city string) (types.ActivityVocabulary, error)
	FindSuggestions(ctx context.Context, city, activityWord string, budget types.BudgetTier) ([]types.PointOfInterest, error)
}

type ServiceImpl struct {
	logger     *slog.Logger
	repository Repository
	cache      *cache.Cache
}

// NewServiceImpl builds the service. A positive cacheTTL memoises the city
// list and the per-city vocabulary; suggestions are always fetched.
func NewServiceImpl(repository Repository, cacheTTL time.Duration, logger *slog.Logger) *ServiceImpl {
	s := &ServiceImpl{
		logger:     logger,
		repository: repository,
	}
	if cacheTTL > 0 {
		s.cache = cache.New(cacheTTL, 2*cacheTTL)
	}
	return s
}

func (s *ServiceImpl) ListCities(ctx context.Context) ([]string, error) {
	ctx, span := otel.Tracer("CatalogService").Start(ctx, "ListCities")
	defer span.End()

	if s.cache != nil {
		if cached, found := s.cache.Get(citiesCacheKey); found {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached.([]string), nil
		}
	}

	rows, err := s.repository.Select(ctx, types.CatalogQuery{MetadataOnly: true})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Select failed")
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}

	set := make(map[string]struct{})
	for _, row := range rows {
		if row.Metadata.Location == "" {
			continue
		}
		set[strings.ToLower(row.Metadata.Location)] = struct{}{}
	}
	cities := types.SortedKeys(set)

	if s.cache != nil {
		s.cache.Set(citiesCacheKey, cities, cache.DefaultExpiration)
	}
	s.logger.DebugContext(ctx, "Listed cities", slog.Int("count", len(cities)))
	span.SetStatus(codes.Ok, "Cities listed")
	return cities, nil
}

func (s *ServiceImpl) ListActivityVocabulary(ctx context.Context, city string) (types.ActivityVocabulary, error) {
	ctx, span := otel.Tracer("CatalogService").Start(ctx, "ListActivityVocabulary", trace.WithAttributes(
		attribute.String("city", city),
	))
	defer span.End()

	key := "vocabulary:" + strings.ToLower(city)
	if s.cache != nil {
		if cached, found := s.cache.Get(key); found {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached.(types.ActivityVocabulary), nil
		}
	}

	rows, err := s.repository.Select(ctx, types.CatalogQuery{
		MetadataOnly: true,
		Filters: []types.POIFilter{
			{Field: "location", Op: types.FilterILike, Value: city},
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Select failed")
		return types.ActivityVocabulary{}, fmt.Errorf("failed to list activities for %s: %w", city, err)
	}

	vocabulary := types.NewActivityVocabulary()
	for _, row := range rows {
		if row.Metadata.Type != "" {
			vocabulary.Types[strings.ToLower(row.Metadata.Type)] = struct{}{}
		}
		if row.Metadata.Category != nil && *row.Metadata.Category != "" {
			vocabulary.Categories[strings.ToLower(*row.Metadata.Category)] = struct{}{}
		}
	}

	if s.cache != nil {
		s.cache.Set(key, vocabulary, cache.DefaultExpiration)
	}
	span.SetAttributes(
		attribute.Int("types.count", len(vocabulary.Types)),
		attribute.Int("categories.count", len(vocabulary.Categories)),
	)
	span.SetStatus(codes.Ok, "Vocabulary listed")
	return vocabulary, nil
}

// FindSuggestions fetches matching records and applies the budget in memory,
// since price is stored as free-form JSON and parsed permissively.
func (s *ServiceImpl) FindSuggestions(ctx context.Context, city, activityWord string, budget types.BudgetTier) ([]types.PointOfInterest, error) {
	activity := NormalizeActivity(activityWord)
	ctx, span := otel.Tracer("CatalogService").Start(ctx, "FindSuggestions", trace.WithAttributes(
		attribute.String("city", city),
		attribute.String("activity", activity),
		attribute.String("budget", string(budget)),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "FindSuggestions"))

	rows, err := s.repository.Select(ctx, types.CatalogQuery{Filters: suggestionFilters(city, activity)})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Select failed")
		return nil, fmt.Errorf("failed to find suggestions: %w", err)
	}

	suggestions := make([]types.PointOfInterest, 0, len(rows))
	for _, row := range rows {
		if budget.Admits(row) {
			suggestions = append(suggestions, row)
		}
	}

	l.DebugContext(ctx, "Suggestions filtered",
		slog.Int("fetched", len(rows)),
		slog.Int("kept", len(suggestions)))
	span.SetAttributes(attribute.Int("results.count", len(suggestions)))
	span.SetStatus(codes.Ok, "Suggestions found")
	return suggestions, nil
}

func suggestionFilters(city, activity string) []types.POIFilter {
	filters := []types.POIFilter{
		{Field: "location", Op: types.FilterILike, Value: city},
	}
	switch {
	case types.IsHotelActivity(activity):
		filters = append(filters, types.POIFilter{Field: "type", Op: types.FilterEq, Value: types.POITypeHotel})
	case types.IsRestaurantActivity(activity):
		filters = append(filters, types.POIFilter{Field: "type", Op: types.FilterEq, Value: types.POITypeRestaurant})
	default:
		filters = append(filters,
			types.POIFilter{Field: "type", Op: types.FilterEq, Value: types.POITypeAttraction},
			types.POIFilter{Field: "category", Op: types.FilterILike, Value: activity},
		)
	}
	return filters
}
