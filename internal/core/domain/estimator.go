package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingStatistics reports an operator whose collection has no entry in
// the supplied statistics. Without a document count every downstream number
// would be meaningless, so this is a hard failure rather than a default.
var ErrMissingStatistics = errors.New("missing collection statistics")

// Default selectivities applied when a request leaves them unset.
const (
	DefaultFilterSelectivity = 0.1
	DefaultJoinSelectivity   = 0.001
)

// Sharding describes how a collection is split across shards. Only the
// uniform distribution is meaningful: statistics divide evenly by Shards.
type Sharding struct {
	Shards       int    `json:"nb_shards" yaml:"nb_shards"`
	ShardKey     string `json:"shard_key" yaml:"shard_key"`
	Distribution string `json:"distribution" yaml:"distribution"`
}

// Costs is the cost breakdown attached to an operator estimate.
type Costs struct {
	IOCost      float64 `json:"io_cost"`
	CPUCost     float64 `json:"cpu_cost"`
	NetworkCost float64 `json:"network_cost"`
	TotalCost   float64 `json:"total_cost"`
}

// Estimate is the immutable result of one operator estimation. Only the
// fields relevant to the operator kind are populated; Costs is nil for the
// stats-only aggregate, which produces cardinality and size alone.
type Estimate struct {
	Operator        string `json:"operator"`
	Collection      string `json:"collection,omitempty"`
	LeftCollection  string `json:"left_collection,omitempty"`
	RightCollection string `json:"right_collection,omitempty"`
	JoinKey         string `json:"join_key,omitempty"`

	Shards    int  `json:"nb_shards,omitempty"`
	CoLocated bool `json:"co_located,omitempty"`

	InputDocCount   int64 `json:"input_doc_count,omitempty"`
	OutputDocCount  int64 `json:"output_doc_count"`
	DistinctGroups  int64 `json:"distinct_count,omitempty"`
	AvgDocSizeBytes int64 `json:"avg_document_size_bytes"`
	OutputSizeBytes int64 `json:"output_size_bytes"`

	// Per-shard shares of the totals above, for sharded variants.
	InputDocsPerShard  int64 `json:"input_docs_per_shard,omitempty"`
	OutputDocsPerShard int64 `json:"output_docs_per_shard,omitempty"`
	GroupsPerShard     int64 `json:"groups_per_shard,omitempty"`

	Costs *Costs `json:"costs,omitempty"`
}

// Estimator composes the type model, the size estimator and the cost model
// into operator-level estimates. It carries no state besides its immutable
// inputs and the resolver's memoization cache, so it is cheap to build per
// estimation session. An Estimator is not safe for concurrent use.
type Estimator struct {
	resolver *Resolver
	stats    *Statistics
	units    UnitSizes
	cost     *CostModel
}

// NewEstimator builds an estimator over already-parsed inputs. The unit
// size table and cost parameters are merged with their defaults field by
// field, so zero-valued overrides keep the built-in constants.
func NewEstimator(schema *Schema, stats *Statistics, units UnitSizes, params CostParams) *Estimator {
	return &Estimator{
		resolver: NewResolver(schema),
		stats:    stats,
		units:    mergeUnitSizes(units),
		cost:     NewCostModel(params),
	}
}

// Resolver exposes the estimator's (session-scoped) type model builder.
func (e *Estimator) Resolver() *Resolver { return e.resolver }

// UnitSizes returns the merged unit size table in effect.
func (e *Estimator) UnitSizes() UnitSizes { return e.units }

func mergeUnitSizes(u UnitSizes) UnitSizes {
	d := DefaultUnitSizes()
	if u.KeyValuePair == 0 {
		u.KeyValuePair = d.KeyValuePair
	}
	if u.Number == 0 {
		u.Number = d.Number
	}
	if u.String == 0 {
		u.String = d.String
	}
	if u.Date == 0 {
		u.Date = d.Date
	}
	if u.LongString == 0 {
		u.LongString = d.LongString
	}
	return u
}

// collectionStats fetches the statistics entry for a collection, failing
// with ErrMissingStatistics when absent.
func (e *Estimator) collectionStats(name string) (CollectionStats, error) {
	cs, ok := e.stats.Collection(name)
	if !ok {
		return CollectionStats{}, fmt.Errorf("collection %q: %w", name, ErrMissingStatistics)
	}
	return cs, nil
}

// projectedSize sums the estimated field sizes of the requested output keys.
// An empty key list projects the whole record (SELECT *). Keys missing from
// the resolved record are skipped silently; projecting only what exists is
// deliberate best-effort behavior.
func (e *Estimator) projectedSize(record *FieldType, outputKeys []string, specs map[string]FieldStats) int64 {
	if len(outputKeys) == 0 {
		return RecordSize(record, specs, e.units)
	}
	var total int64
	for _, key := range outputKeys {
		ft := record.FieldByName(key)
		if ft == nil {
			continue
		}
		total += FieldSize(ft, specs[key], e.units)
	}
	return total
}

// CanonicalCollection maps a case-folded name (e.g. a lowercased SQL table
// identifier) back to the schema's declared collection name. Unknown names
// pass through unchanged so the usual ErrUnknownCollection surfaces later.
func (e *Estimator) CanonicalCollection(name string) string {
	if _, ok := e.resolver.schema.Collections[name]; ok {
		return name
	}
	for declared := range e.resolver.schema.Collections {
		if strings.EqualFold(declared, name) {
			return declared
		}
	}
	return name
}

// shardCount returns the effective shard count, defaulting to 2 when the
// descriptor leaves it unset.
func (s *Sharding) shardCount() int64 {
	if s == nil || s.Shards <= 0 {
		return 2
	}
	return int64(s.Shards)
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
