// Package postgres derives collection statistics from a live PostgreSQL
// database's catalogs, so estimates can be based on observed data volumes
// instead of hand-written statistics files.
package postgres

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/avelarde/sizecast/internal/core/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatsSource implements the core's StatisticsSource port over pgx. Each
// ordinary table becomes a collection: the planner's row estimate maps to
// the document count and pg_stats rows map to field-specifics
// (null_frac -> null percentage, n_distinct -> distinct values,
// avg_width -> average length).
type StatsSource struct {
	pool    *pgxpool.Pool
	schemas []string
}

func NewStatsSource(pool *pgxpool.Pool, schemas []string) *StatsSource {
	return &StatsSource{pool: pool, schemas: schemas}
}

func (s *StatsSource) Statistics(ctx context.Context) (*domain.Statistics, error) {
	stats := &domain.Statistics{
		Collections: make(map[string]domain.CollectionStats),
	}

	if err := s.pool.QueryRow(ctx, queryDatabaseName).Scan(&stats.Database.Name); err != nil {
		return nil, fmt.Errorf("resolving database name: %w", err)
	}

	filter, filterArgs := schemaFilter(s.schemas, "n.nspname", 1)
	query := fmt.Sprintf(queryListCollections, filter)

	rows, err := s.pool.Query(ctx, query, filterArgs...)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	type table struct {
		schema string
		name   string
		count  int64
	}
	var tables []table
	for rows.Next() {
		var t table
		if err := rows.Scan(&t.schema, &t.name, &t.count); err != nil {
			return nil, fmt.Errorf("scanning table row: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}

	for _, t := range tables {
		specifics, err := s.fetchFieldSpecifics(ctx, t.schema, t.name, t.count)
		if err != nil {
			return nil, fmt.Errorf("table %s.%s: %w", t.schema, t.name, err)
		}
		stats.Collections[t.name] = domain.CollectionStats{
			DocumentCount:  t.count,
			FieldSpecifics: specifics,
		}
	}

	return stats, nil
}

func (s *StatsSource) fetchFieldSpecifics(ctx context.Context, schema, table string, rowEstimate int64) (map[string]domain.FieldStats, error) {
	rows, err := s.pool.Query(ctx, queryColumnStatistics, schema, table)
	if err != nil {
		return nil, fmt.Errorf("fetching column statistics: %w", err)
	}
	defer rows.Close()

	specifics := make(map[string]domain.FieldStats)
	for rows.Next() {
		var (
			column    string
			nullFrac  float64
			nDistinct float64
			avgWidth  int32
		)
		if err := rows.Scan(&column, &nullFrac, &nDistinct, &avgWidth); err != nil {
			return nil, fmt.Errorf("scanning statistics row: %w", err)
		}
		specifics[column] = domain.FieldStats{
			AvgLength:      float64(avgWidth),
			NullPercentage: nullFrac * 100,
			DistinctValues: pgDistinctToAbsolute(nDistinct, rowEstimate),
		}
	}
	return specifics, rows.Err()
}

// pgDistinctToAbsolute converts pg_stats.n_distinct to an absolute count:
// negative values encode a fraction of the row count, -1 meaning all rows
// are distinct.
func pgDistinctToAbsolute(nDistinct float64, rowEstimate int64) int64 {
	if nDistinct == -1 {
		return rowEstimate
	}
	if nDistinct < 0 {
		return int64(math.Round(-nDistinct * float64(rowEstimate)))
	}
	return int64(math.Round(nDistinct))
}

// schemaFilter returns a SQL WHERE clause fragment and args for filtering by
// schema. paramOffset is the starting $N parameter index (1-based). When
// schemas is empty, system schemas are excluded.
func schemaFilter(schemas []string, column string, paramOffset int) (clause string, args []any) {
	if len(schemas) == 0 {
		return fmt.Sprintf("%s NOT IN ('pg_catalog', 'information_schema')", column), nil
	}
	placeholders := make([]string, len(schemas))
	args = make([]any, len(schemas))
	for i, s := range schemas {
		placeholders[i] = fmt.Sprintf("$%d", paramOffset+i)
		args[i] = s
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")), args
}
