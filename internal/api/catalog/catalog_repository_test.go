package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/travel-assistant/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestBuildSelect(t *testing.T) {
	t.Run("metadata only without filters", func(t *testing.T) {
		query, args, err := buildSelect(types.CatalogQuery{MetadataOnly: true})
		require.NoError(t, err)
		assert.Equal(t, "SELECT metadata FROM travel_data", query)
		assert.Empty(t, args)
	})

	t.Run("suggestion filters", func(t *testing.T) {
		query, args, err := buildSelect(types.CatalogQuery{Filters: suggestionFilters("paris", "nature")})
		require.NoError(t, err)
		assert.Contains(t, query, "SELECT id, content, metadata FROM travel_data WHERE")
		assert.Contains(t, query, "metadata->>'location' ILIKE $1")
		assert.Contains(t, query, "metadata->>'type' = $2")
		assert.Contains(t, query, "metadata->>'category' ILIKE $3")
		assert.Equal(t, []any{"%paris%", "attraction", "%nature%"}, args)
	})

	t.Run("like wildcards in user input are escaped", func(t *testing.T) {
		_, args, err := buildSelect(types.CatalogQuery{Filters: []types.POIFilter{
			{Field: "location", Op: types.FilterILike, Value: "50%_off"},
		}})
		require.NoError(t, err)
		assert.Equal(t, []any{`%50\%\_off%`}, args)
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		_, _, err := buildSelect(types.CatalogQuery{Filters: []types.POIFilter{
			{Field: "price'; DROP TABLE travel_data; --", Op: types.FilterEq, Value: "1"},
		}})
		assert.ErrorIs(t, err, types.ErrUnsupportedFilter)
	})

	t.Run("unknown operator is rejected", func(t *testing.T) {
		_, _, err := buildSelect(types.CatalogQuery{Filters: []types.POIFilter{
			{Field: "type", Op: "gt", Value: "1"},
		}})
		assert.ErrorIs(t, err, types.ErrUnsupportedFilter)
	})
}

func TestRepositoryImpl_Select(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes metadata and skips malformed rows", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		id := uuid.New()
		mockPool.ExpectQuery("SELECT id, content, metadata FROM travel_data").
			WithArgs("%paris%", "hotel").
			WillReturnRows(pgxmock.NewRows([]string{"id", "content", "metadata"}).
				AddRow(id, "Hotel Lumière", []byte(`{"location":"Paris","type":"hotel","price":"25","currency":"EUR"}`)).
				AddRow(uuid.New(), "broken", []byte(`{"location":`)))

		repo := NewRepository(mockPool, testLogger())
		pois, err := repo.Select(ctx, types.CatalogQuery{Filters: []types.POIFilter{
			{Field: "location", Op: types.FilterILike, Value: "paris"},
			{Field: "type", Op: types.FilterEq, Value: "hotel"},
		}})
		require.NoError(t, err)
		require.Len(t, pois, 1)
		assert.Equal(t, id, pois[0].ID)
		assert.Equal(t, "Paris", pois[0].Metadata.Location)
		price, ok := pois[0].Metadata.Price.Float()
		require.True(t, ok)
		assert.Equal(t, 25.0, price)
		assert.Equal(t, "EUR", pois[0].CurrencyLabel())
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("metadata only", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectQuery("SELECT metadata FROM travel_data").
			WillReturnRows(pgxmock.NewRows([]string{"metadata"}).
				AddRow([]byte(`{"location":"Lisbon","type":"attraction","category":"Nature"}`)))

		repo := NewRepository(mockPool, testLogger())
		pois, err := repo.Select(ctx, types.CatalogQuery{MetadataOnly: true})
		require.NoError(t, err)
		require.Len(t, pois, 1)
		assert.Equal(t, "Lisbon", pois[0].Metadata.Location)
		require.NotNil(t, pois[0].Metadata.Category)
		assert.Equal(t, "Nature", *pois[0].Metadata.Category)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("query error is wrapped", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		boom := errors.New("connection refused")
		mockPool.ExpectQuery("SELECT metadata FROM travel_data").WillReturnError(boom)

		repo := NewRepository(mockPool, testLogger())
		_, err = repo.Select(ctx, types.CatalogQuery{MetadataOnly: true})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRepositoryImpl_Insert(t *testing.T) {
	ctx := context.Background()

	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	id := uuid.New()
	mockPool.ExpectQuery("INSERT INTO travel_data").
		WithArgs("Budget hostel", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(id))

	repo := NewRepository(mockPool, testLogger())
	got, err := repo.Insert(ctx, types.PointOfInterest{
		Content:  "Budget hostel",
		Metadata: types.POIMetadata{Location: "Porto", Type: "hotel", Price: types.NewPrice("18")},
	}, []float32{0.1, 0.2})
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

// jsonArg matches a []byte argument holding a JSON document equal to want.
type jsonArg struct {
	want string
}

func (a jsonArg) Match(v any) bool {
	b, ok := v.([]byte)
	if !ok {
		return false
	}
	var got, want any
	if json.Unmarshal(b, &got) != nil || json.Unmarshal([]byte(a.want), &want) != nil {
		return false
	}
	return assert.ObjectsAreEqual(want, got)
}

func TestRepositoryImpl_InsertMetadata(t *testing.T) {
	ctx := context.Background()

	t.Run("raw document is stored unchanged", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		raw := `{"location":"Paris","type":"hotel","price":25,"name":"Hotel X","rating":4.5,"address":"1 rue"}`
		mockPool.ExpectQuery("INSERT INTO travel_data").
			WithArgs("Hotel X", jsonArg{want: raw}, pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(uuid.New()))

		var md types.POIMetadata
		require.NoError(t, json.Unmarshal([]byte(raw), &md))
		repo := NewRepository(mockPool, testLogger())
		_, err = repo.Insert(ctx, types.PointOfInterest{Content: "Hotel X", Metadata: md, RawMetadata: json.RawMessage(raw)}, []float32{0.1})
		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("string prices stay strings", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectQuery("INSERT INTO travel_data").
			WithArgs("Mystery inn", jsonArg{want: `{"location":"Paris","type":"hotel","price":"Infinity"}`}, pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(uuid.New()))

		var md types.POIMetadata
		require.NoError(t, json.Unmarshal([]byte(`{"location":"Paris","type":"hotel","price":"Infinity"}`), &md))
		repo := NewRepository(mockPool, testLogger())
		_, err = repo.Insert(ctx, types.PointOfInterest{Content: "Mystery inn", Metadata: md}, []float32{0.1})
		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
