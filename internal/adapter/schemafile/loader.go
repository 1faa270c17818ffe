// Package schemafile loads schema definitions and collection statistics from
// JSON files. It is the file-shaped implementation of the core's schema and
// statistics source ports; the core itself never touches the filesystem.
package schemafile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/avelarde/sizecast/internal/core/domain"
)

// LoadSchema reads and parses a JSON-Schema-like database description.
func LoadSchema(path string) (*domain.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}

	var schema domain.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parsing schema JSON: %w", err)
	}
	return &schema, nil
}

// LoadStatistics reads and parses a collection statistics file.
func LoadStatistics(path string) (*domain.Statistics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading statistics file: %w", err)
	}

	var stats domain.Statistics
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("parsing statistics JSON: %w", err)
	}
	return &stats, nil
}

// LoadUnitSizes reads a unit-size table, overriding only the keys the file
// provides; everything else keeps its default.
func LoadUnitSizes(path string) (domain.UnitSizes, error) {
	units := domain.DefaultUnitSizes()

	data, err := os.ReadFile(path)
	if err != nil {
		return units, fmt.Errorf("reading unit sizes file: %w", err)
	}
	if err := json.Unmarshal(data, &units); err != nil {
		return units, fmt.Errorf("parsing unit sizes JSON: %w", err)
	}
	return units, nil
}

// Source serves a schema and statistics pair from fixed file paths. The
// statistics path may be empty when statistics come from elsewhere (e.g. a
// live database).
type Source struct {
	schemaPath string
	statsPath  string
}

func NewSource(schemaPath, statsPath string) *Source {
	return &Source{schemaPath: schemaPath, statsPath: statsPath}
}

func (s *Source) Schema(_ context.Context) (*domain.Schema, error) {
	return LoadSchema(s.schemaPath)
}

func (s *Source) Statistics(_ context.Context) (*domain.Statistics, error) {
	return LoadStatistics(s.statsPath)
}
