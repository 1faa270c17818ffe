package port

import (
	"context"

	"github.com/avelarde/sizecast/internal/core/domain"
)

// SchemaSource supplies a parsed schema definition. The core assumes the
// data is already valid; it does not re-validate against a meta-schema.
type SchemaSource interface {
	Schema(ctx context.Context) (*domain.Schema, error)
}

// StatisticsSource supplies parsed collection statistics, whether read from
// a file or derived from a live database's catalogs.
type StatisticsSource interface {
	Statistics(ctx context.Context) (*domain.Statistics, error)
}
