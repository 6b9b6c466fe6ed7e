package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FACorreiaa/travel-assistant/internal/types"
)

// LoadFile reads an array of records from a .json, .yaml or .yml file.
func LoadFile(path string) ([]types.IngestRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return DecodeJSON(f)
	case ".yaml", ".yml":
		return DecodeYAML(f)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, ext)
	}
}

func DecodeJSON(r io.Reader) ([]types.IngestRecord, error) {
	var records []types.IngestRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode JSON records: %w", err)
	}
	return records, nil
}

func DecodeYAML(r io.Reader) ([]types.IngestRecord, error) {
	var records []types.IngestRecord
	if err := yaml.NewDecoder(r).Decode(&records); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode YAML records: %w", err)
	}
	return records, nil
}
