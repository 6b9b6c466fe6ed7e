package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestPOIMetadata_DecodePrice(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantNil bool
		wantVal float64
		wantOK  bool
	}{
		{name: "number", doc: `{"location":"Paris","type":"hotel","price":25}`, wantVal: 25, wantOK: true},
		{name: "numeric string", doc: `{"location":"Paris","type":"hotel","price":"120.50"}`, wantVal: 120.5, wantOK: true},
		{name: "free text", doc: `{"location":"Paris","type":"hotel","price":"abc"}`},
		{name: "null", doc: `{"location":"Paris","type":"hotel","price":null}`, wantNil: true},
		{name: "missing", doc: `{"location":"Paris","type":"hotel"}`, wantNil: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var md POIMetadata
			require.NoError(t, json.Unmarshal([]byte(tt.doc), &md))
			if tt.wantNil {
				if md.Price != nil {
					_, ok := md.Price.Float()
					assert.False(t, ok)
				}
				return
			}
			require.NotNil(t, md.Price)
			v, ok := md.Price.Float()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantVal, v)
		})
	}
}

func TestPrice_YAML(t *testing.T) {
	var md POIMetadata
	require.NoError(t, yaml.Unmarshal([]byte("location: Lisbon\ntype: attraction\nprice: 12\n"), &md))
	require.NotNil(t, md.Price)
	v, ok := md.Price.Float()
	assert.True(t, ok)
	assert.Equal(t, 12.0, v)
}

func TestPointOfInterest_Labels(t *testing.T) {
	desc := "Old town walking tour"
	eur := "EUR"

	withContent := PointOfInterest{Content: "Hotel Lumière", Metadata: POIMetadata{Description: &desc}}
	assert.Equal(t, "Hotel Lumière", withContent.Description())

	withDescription := PointOfInterest{Metadata: POIMetadata{Description: &desc}}
	assert.Equal(t, desc, withDescription.Description())

	assert.Equal(t, "No description", PointOfInterest{}.Description())

	priced := PointOfInterest{Metadata: POIMetadata{Price: NewPrice("25"), Currency: &eur}}
	assert.Equal(t, "25", priced.PriceLabel())
	assert.Equal(t, "EUR", priced.CurrencyLabel())

	assert.Equal(t, "N/A", PointOfInterest{}.PriceLabel())
	assert.Equal(t, "", PointOfInterest{}.CurrencyLabel())
}

func TestPrice_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{name: "number", doc: `25`, want: `25`},
		{name: "decimal", doc: `120.50`, want: `120.50`},
		{name: "numeric string", doc: `"25"`, want: `"25"`},
		{name: "infinity string", doc: `"Infinity"`, want: `"Infinity"`},
		{name: "inf string", doc: `"Inf"`, want: `"Inf"`},
		{name: "hex float string", doc: `"0x1p4"`, want: `"0x1p4"`},
		{name: "free text", doc: `"free"`, want: `"free"`},
		{name: "empty string", doc: `""`, want: `""`},
		{name: "null", doc: `null`, want: `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Price
			require.NoError(t, json.Unmarshal([]byte(tt.doc), &p))
			got, err := json.Marshal(p)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}

	t.Run("yaml scalars", func(t *testing.T) {
		var md POIMetadata
		require.NoError(t, yaml.Unmarshal([]byte("price: .inf\n"), &md))
		got, err := json.Marshal(md.Price)
		require.NoError(t, err)
		assert.Equal(t, `".inf"`, string(got))

		require.NoError(t, yaml.Unmarshal([]byte("price: \"25\"\n"), &md))
		got, err = json.Marshal(md.Price)
		require.NoError(t, err)
		assert.Equal(t, `"25"`, string(got))

		require.NoError(t, yaml.Unmarshal([]byte("price: 25\n"), &md))
		got, err = json.Marshal(md.Price)
		require.NoError(t, err)
		assert.Equal(t, `25`, string(got))
	})
}
