package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// IngestRecord is one document of an ingestion file. Metadata is the typed
// view; RawMetadata keeps every key of the original document as JSON.
type IngestRecord struct {
	Content     string          `json:"content" yaml:"content"`
	Metadata    POIMetadata     `json:"metadata" yaml:"metadata"`
	RawMetadata json.RawMessage `json:"-" yaml:"-"`
}

func (r *IngestRecord) UnmarshalJSON(data []byte) error {
	var doc struct {
		Content  string          `json:"content"`
		Metadata json.RawMessage `json:"metadata"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	*r = IngestRecord{Content: doc.Content}
	raw := bytes.TrimSpace(doc.Metadata)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, &r.Metadata); err != nil {
		return fmt.Errorf("invalid metadata: %w", err)
	}
	r.RawMetadata = append(json.RawMessage(nil), raw...)
	return nil
}

func (r *IngestRecord) UnmarshalYAML(node *yaml.Node) error {
	var doc struct {
		Content  string    `yaml:"content"`
		Metadata yaml.Node `yaml:"metadata"`
	}
	if err := node.Decode(&doc); err != nil {
		return err
	}

	*r = IngestRecord{Content: doc.Content}
	if doc.Metadata.Kind == 0 || doc.Metadata.ShortTag() == "!!null" {
		return nil
	}
	if err := doc.Metadata.Decode(&r.Metadata); err != nil {
		return fmt.Errorf("invalid metadata: %w", err)
	}

	var generic map[string]any
	if err := doc.Metadata.Decode(&generic); err != nil {
		return fmt.Errorf("invalid metadata: %w", err)
	}
	raw, err := json.Marshal(generic)
	if err != nil {
		return fmt.Errorf("metadata cannot be stored as JSON: %w", err)
	}
	r.RawMetadata = raw
	return nil
}

// IngestResult reports the outcome of a single record. A nil Err means the
// store acknowledged the insert.
type IngestResult struct {
	Index   int
	Content string
	ID      uuid.UUID
	Err     error
}

func (r IngestResult) Inserted() bool {
	return r.Err == nil
}

// IngestSummary aggregates a batch run.
type IngestSummary struct {
	Results  []IngestResult
	Inserted int
	Failed   int
}
