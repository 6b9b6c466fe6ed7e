package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// POI types stored in metadata.type.
const (
	POITypeHotel      = "hotel"
	POITypeRestaurant = "restaurant"
	POITypeAttraction = "attraction"
)

// PointOfInterest is a row of the travel_data table.
type PointOfInterest struct {
	ID       uuid.UUID   `json:"id,omitempty"`
	Content  string      `json:"content"`
	Metadata POIMetadata `json:"metadata"`
	// RawMetadata is the document as received, including keys POIMetadata
	// does not model. When set it is stored instead of Metadata.
	RawMetadata json.RawMessage `json:"-"`
}

// POIMetadata is the typed view of the JSONB metadata document. Optional
// fields stay nil when the document does not carry them.
type POIMetadata struct {
	Location    string  `json:"location" yaml:"location"`
	Type        string  `json:"type" yaml:"type"`
	Category    *string `json:"category,omitempty" yaml:"category,omitempty"`
	Price       *Price  `json:"price,omitempty" yaml:"price,omitempty"`
	Currency    *string `json:"currency,omitempty" yaml:"currency,omitempty"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Description returns the text shown for a suggestion: content, then
// metadata.description, then a fixed fallback.
func (p PointOfInterest) Description() string {
	if p.Content != "" {
		return p.Content
	}
	if p.Metadata.Description != nil && *p.Metadata.Description != "" {
		return *p.Metadata.Description
	}
	return "No description"
}

// PriceLabel renders the raw price or N/A.
func (p PointOfInterest) PriceLabel() string {
	if p.Metadata.Price == nil || p.Metadata.Price.IsNull() {
		return "N/A"
	}
	return p.Metadata.Price.String()
}

// CurrencyLabel renders the currency or an empty string.
func (p PointOfInterest) CurrencyLabel() string {
	if p.Metadata.Currency == nil {
		return ""
	}
	return *p.Metadata.Currency
}

// Price holds the raw metadata.price token. Stores fill it with numbers as
// well as strings, so parsing is deferred to Float.
type Price struct {
	raw    string
	quoted bool
}

// NewPrice builds a Price from its textual form.
func NewPrice(raw string) *Price {
	return &Price{raw: raw}
}

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		p.raw = s
		p.quoted = true
		return nil
	}
	p.raw = string(data)
	p.quoted = false
	return nil
}

// MarshalJSON writes strings back as strings. Unquoted tokens are written
// raw only when they are valid JSON on their own.
func (p Price) MarshalJSON() ([]byte, error) {
	if p.quoted {
		return json.Marshal(p.raw)
	}
	if p.IsNull() {
		return []byte("null"), nil
	}
	if raw := []byte(strings.TrimSpace(p.raw)); json.Valid(raw) {
		return raw, nil
	}
	return json.Marshal(p.raw)
}

// UnmarshalYAML accepts scalar prices from YAML ingestion files.
func (p *Price) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("price must be a scalar, got kind %d", node.Kind)
	}
	if node.ShortTag() == "!!null" {
		p.raw = ""
		p.quoted = false
		return nil
	}
	p.raw = node.Value
	p.quoted = node.ShortTag() == "!!str"
	return nil
}

func (p Price) String() string {
	return p.raw
}

func (p Price) IsNull() bool {
	return p.raw == "" || p.raw == "null"
}

// Float parses the price. ok is false for null, empty, non-numeric or NaN values.
func (p Price) Float() (float64, bool) {
	if p.IsNull() {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(p.raw), 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// POIFilter is one predicate of a catalog select. Field must be one of the
// metadata keys in CatalogFilterFields.
type POIFilter struct {
	Field string
	Op    FilterOp
	Value string
}

type FilterOp string

const (
	FilterEq    FilterOp = "eq"
	FilterILike FilterOp = "ilike"
)

// CatalogFilterFields are the metadata keys a select may filter on.
var CatalogFilterFields = map[string]struct{}{
	"location": {},
	"type":     {},
	"category": {},
}

// CatalogQuery describes a select against travel_data.
type CatalogQuery struct {
	MetadataOnly bool
	Filters      []POIFilter
}
