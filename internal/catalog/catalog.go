// Package catalog imports discount definitions from YAML catalogue files.
package catalog

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"discount-service/internal/model"

	"gopkg.in/yaml.v3"
)

// ErrInvalidDefinition is returned when a catalogue entry cannot be imported.
var ErrInvalidDefinition = errors.New("invalid discount definition")

// Definition is one discount entry of a catalogue file.
type Definition struct {
	ID             string `yaml:"id"`
	Code           string `yaml:"code"`
	Name           string `yaml:"name"`
	MaxTotalUses   *int   `yaml:"maxTotalUses"`
	MaxUsesPerUser *int   `yaml:"maxUsesPerUser"`
}

// file is the top-level layout of a catalogue file.
type file struct {
	Discounts []Definition `yaml:"discounts"`
}

// Loader defines the interface for loading catalogue files.
type Loader interface {
	// Load reads a catalogue file, gunzipping it when the name ends in ".gz".
	Load(ctx context.Context, path string) ([]Definition, error)
}

// Store persists imported definitions.
type Store interface {
	UpsertMany(ctx context.Context, discounts []model.Discount) error
}

// decode parses a catalogue from r. Unknown keys are rejected so that a
// misspelled cap is not silently imported as unlimited.
func decode(r io.Reader, name string) ([]Definition, error) {
	if strings.HasSuffix(name, ".gz") {
		gzipReader, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader for %s: %w", name, err)
		}
		defer gzipReader.Close()
		r = gzipReader
	}

	var doc file
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse catalogue %s: %w", name, err)
	}

	return doc.Discounts, nil
}
