package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopSchemaJSON = `{
	"title": "shop",
	"properties": {
		"Products": {
			"properties": {
				"name":  {"type": "string"},
				"brand": {"type": "string"},
				"price": {"type": "number"}
			},
			"required": ["name", "price"]
		},
		"Orders": {
			"properties": {
				"product_name": {"type": "string"},
				"quantity":     {"type": "number"},
				"region":       {"type": "string"}
			},
			"required": ["product_name"]
		},
		"Drafts": {
			"properties": {
				"body": {"type": "string"}
			}
		}
	}
}`

func shopStats() *Statistics {
	return &Statistics{
		Database: DatabaseInfo{Name: "shop", Description: "test database"},
		Collections: map[string]CollectionStats{
			"Products": {
				DocumentCount: 1000,
				FieldSpecifics: map[string]FieldStats{
					"name":  {AvgLength: 30, DistinctValues: 800},
					"brand": {AvgLength: 10, NullPercentage: 50, DistinctValues: 20},
				},
			},
			"Orders": {
				DocumentCount: 5000,
				FieldSpecifics: map[string]FieldStats{
					"product_name": {AvgLength: 30, DistinctValues: 400},
					"quantity":     {DistinctValues: 5},
					"region":       {AvgLength: 8, DistinctValues: 4},
				},
			},
			// Drafts has schema but no statistics entry on purpose.
		},
	}
}

func shopEstimator(t *testing.T) *Estimator {
	t.Helper()
	return NewEstimator(parseSchema(t, shopSchemaJSON), shopStats(), UnitSizes{}, CostParams{})
}

// --- filter ---

func TestEstimateFilter_Plain(t *testing.T) {
	e := shopEstimator(t)

	est, err := e.EstimateFilter(FilterRequest{
		Collection:  "Products",
		OutputKeys:  []string{"name", "price"},
		FilterKey:   "brand",
		Selectivity: 0.1,
	})
	require.NoError(t, err)

	assert.Equal(t, "Filter (no sharding)", est.Operator)
	assert.Equal(t, int64(1000), est.InputDocCount)
	assert.Equal(t, int64(100), est.OutputDocCount)
	assert.Equal(t, int64(62), est.AvgDocSizeBytes)
	assert.Equal(t, int64(6200), est.OutputSizeBytes)

	require.NotNil(t, est.Costs)
	// 1000*62/4096 -> 16 pages * 0.01.
	assert.InDelta(t, 0.16, est.Costs.IOCost, 1e-9)
	assert.InDelta(t, 1.0, est.Costs.CPUCost, 1e-9)
	assert.Equal(t, 0.0, est.Costs.NetworkCost)
	assert.InDelta(t, 1.16, est.Costs.TotalCost, 1e-9)
}

func TestEstimateFilter_DefaultSelectivity(t *testing.T) {
	e := shopEstimator(t)

	est, err := e.EstimateFilter(FilterRequest{Collection: "Products", OutputKeys: []string{"name"}})
	require.NoError(t, err)
	assert.Equal(t, int64(100), est.OutputDocCount)
}

func TestEstimateFilter_SelectivityShrinksOutputNotCost(t *testing.T) {
	e := shopEstimator(t)

	narrow, err := e.EstimateFilter(FilterRequest{Collection: "Products", OutputKeys: []string{"name"}, Selectivity: 0.01})
	require.NoError(t, err)
	wide, err := e.EstimateFilter(FilterRequest{Collection: "Products", OutputKeys: []string{"name"}, Selectivity: 0.5})
	require.NoError(t, err)

	assert.Less(t, narrow.OutputDocCount, wide.OutputDocCount)
	// The scan reads every document either way.
	assert.Equal(t, narrow.Costs.IOCost, wide.Costs.IOCost)
	assert.Equal(t, narrow.Costs.CPUCost, wide.Costs.CPUCost)
}

func TestEstimateFilter_EmptyProjectionUsesFullRecord(t *testing.T) {
	e := shopEstimator(t)

	est, err := e.EstimateFilter(FilterRequest{Collection: "Products"})
	require.NoError(t, err)

	// (30+12) + (10+12)*0.5 + (8+12) = 73, the whole declared record.
	assert.Equal(t, int64(73), est.AvgDocSizeBytes)
	assert.Equal(t, int64(100*73), est.OutputSizeBytes)
	require.NotNil(t, est.Costs)
	assert.Greater(t, est.Costs.IOCost, 0.0)
}

func TestEstimateFilter_MissingOutputKeysSkipped(t *testing.T) {
	e := shopEstimator(t)

	est, err := e.EstimateFilter(FilterRequest{
		Collection: "Products",
		OutputKeys: []string{"name", "no_such_field"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), est.AvgDocSizeBytes)
}

func TestEstimateFilter_Sharded(t *testing.T) {
	e := shopEstimator(t)

	est, err := e.EstimateFilter(FilterRequest{
		Collection:  "Products",
		OutputKeys:  []string{"name", "price"},
		Selectivity: 0.1,
		Sharding:    &Sharding{Shards: 4, ShardKey: "name"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Filter (with sharding)", est.Operator)
	assert.Equal(t, 4, est.Shards)
	assert.Equal(t, int64(250), est.InputDocsPerShard)
	assert.Equal(t, int64(25), est.OutputDocsPerShard)
	// 6200/4 bytes shipped: 1550 * 0.00001.
	assert.InDelta(t, 0.0155, est.Costs.NetworkCost, 1e-9)
}

func TestEstimateFilter_ShardedDefaultsToTwoShards(t *testing.T) {
	e := shopEstimator(t)

	est, err := e.EstimateFilter(FilterRequest{
		Collection: "Products",
		OutputKeys: []string{"name"},
		Sharding:   &Sharding{},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, est.Shards)
	assert.Equal(t, int64(500), est.InputDocsPerShard)
}

func TestEstimateFilter_MissingStatistics(t *testing.T) {
	e := shopEstimator(t)

	_, err := e.EstimateFilter(FilterRequest{Collection: "Drafts"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingStatistics)
}

func TestEstimateFilter_UnknownCollection(t *testing.T) {
	e := shopEstimator(t)

	_, err := e.EstimateFilter(FilterRequest{Collection: "Nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingStatistics)
}

// --- aggregate ---

func TestEstimateAggregate_StatsOnly(t *testing.T) {
	e := shopEstimator(t)

	est, err := e.EstimateAggregate(AggregateRequest{
		Collection: "Orders",
		GroupKeys:  []string{"product_name"},
		AggKey:     "quantity",
		OutputKeys: []string{"product_name", "quantity"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Aggregate (stats-only)", est.Operator)
	assert.Equal(t, int64(5000), est.InputDocCount)
	assert.Equal(t, int64(400), est.DistinctGroups)
	assert.Equal(t, int64(400), est.OutputDocCount)
	// product_name avg length 30, quantity unobserved -> 10.
	assert.Equal(t, int64(40), est.AvgDocSizeBytes)
	assert.Equal(t, int64(16000), est.OutputSizeBytes)
	assert.Nil(t, est.Costs)
}

func TestEstimateAggregate_DefaultOutputKeys(t *testing.T) {
	e := shopEstimator(t)

	est, err := e.EstimateAggregate(AggregateRequest{
		Collection: "Orders",
		GroupKeys:  []string{"product_name"},
		AggKey:     "quantity",
	})
	require.NoError(t, err)

	// Defaults to group keys + agg key: product_name (30) + quantity (10).
	assert.Equal(t, int64(40), est.AvgDocSizeBytes)
	assert.Equal(t, int64(16000), est.OutputSizeBytes)
}

func TestEstimateAggregate_GroupCountBoundedByInput(t *testing.T) {
	e := shopEstimator(t)

	// No distinct statistic for the group key: groups = input count.
	est, err := e.EstimateAggregate(AggregateRequest{
		Collection: "Products",
		GroupKeys:  []string{"price"},
		OutputKeys: []string{"price"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), est.DistinctGroups)
}

func TestEstimateAggregate_TightestGroupKeyWins(t *testing.T) {
	e := shopEstimator(t)

	est, err := e.EstimateAggregate(AggregateRequest{
		Collection: "Orders",
		GroupKeys:  []string{"product_name", "region"},
		OutputKeys: []string{"region"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), est.DistinctGroups)
}

func TestEstimateAggregate_FilterReducesInput(t *testing.T) {
	e := shopEstimator(t)

	est, err := e.EstimateAggregate(AggregateRequest{
		Collection: "Orders",
		GroupKeys:  []string{"product_name"},
		OutputKeys: []string{"product_name"},
		FilterKey:  "region",
	})
	require.NoError(t, err)

	// 5000 * 0.1 = 500 input docs; groups capped by both input and distinct.
	assert.Equal(t, int64(500), est.InputDocCount)
	assert.Equal(t, int64(400), est.DistinctGroups)
}

func TestEstimateAggregate_FilteredInputBoundsGroups(t *testing.T) {
	e := shopEstimator(t)

	est, err := e.EstimateAggregate(AggregateRequest{
		Collection:  "Orders",
		GroupKeys:   []string{"product_name"},
		OutputKeys:  []string{"product_name"},
		FilterKey:   "region",
		Selectivity: 0.01,
	})
	require.NoError(t, err)

	// 50 input docs cannot produce 400 groups.
	assert.Equal(t, int64(50), est.InputDocCount)
	assert.Equal(t, int64(50), est.DistinctGroups)
}

func TestEstimateAggregate_Sharded(t *testing.T) {
	e := shopEstimator(t)

	est, err := e.EstimateAggregate(AggregateRequest{
		Collection: "Orders",
		GroupKeys:  []string{"product_name"},
		OutputKeys: []string{"product_name", "quantity"},
		Sharding:   &Sharding{Shards: 4, ShardKey: "product_name"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Aggregate (with sharding)", est.Operator)
	assert.Equal(t, 4, est.Shards)
	assert.Equal(t, int64(400), est.DistinctGroups)
	assert.Equal(t, int64(1250), est.InputDocsPerShard)
	assert.Equal(t, int64(100), est.GroupsPerShard)

	// Sized through the schema: (30+12) + (8+12) = 62 per output record.
	assert.Equal(t, int64(62), est.AvgDocSizeBytes)
	assert.Equal(t, int64(400*62), est.OutputSizeBytes)

	require.NotNil(t, est.Costs)
	assert.Greater(t, est.Costs.IOCost, 0.0)
	assert.Greater(t, est.Costs.CPUCost, 0.0)
	assert.Greater(t, est.Costs.NetworkCost, 0.0)
}

// --- join ---

func TestEstimateJoin_Plain(t *testing.T) {
	e := shopEstimator(t)

	est, err := e.EstimateJoin(JoinRequest{
		Left:    "Products",
		Right:   "Orders",
		JoinKey: "product_name",
	})
	require.NoError(t, err)

	assert.Equal(t, "Nested Loop Join (no sharding)", est.Operator)
	assert.Equal(t, "Products", est.LeftCollection)
	assert.Equal(t, "Orders", est.RightCollection)
	assert.Equal(t, "product_name", est.JoinKey)

	// 1000 * 5000 * 0.001 default selectivity.
	assert.Equal(t, int64(5000), est.OutputDocCount)

	// Left: (30+12)+(10+12)*0.5+(8+12)=73. Right: (30+12)+(8+12)+(8+12)=82.
	assert.Equal(t, int64(155), est.AvgDocSizeBytes)
	assert.Equal(t, int64(5000*155), est.OutputSizeBytes)

	require.NotNil(t, est.Costs)
	// Full cross product of comparisons.
	assert.InDelta(t, 5000.0, est.Costs.CPUCost, 1e-6)
	assert.Equal(t, 0.0, est.Costs.NetworkCost)
}

func TestEstimateJoin_SelectivityShrinksVolumeNotCPU(t *testing.T) {
	e := shopEstimator(t)

	small, err := e.EstimateJoin(JoinRequest{Left: "Products", Right: "Orders", JoinKey: "product_name", Selectivity: 0.0001})
	require.NoError(t, err)
	big, err := e.EstimateJoin(JoinRequest{Left: "Products", Right: "Orders", JoinKey: "product_name", Selectivity: 0.01})
	require.NoError(t, err)

	assert.Less(t, small.OutputDocCount, big.OutputDocCount)
	assert.Equal(t, small.Costs.CPUCost, big.Costs.CPUCost)
}

func TestEstimateJoin_CoLocatedShipsLessThanShuffle(t *testing.T) {
	e := shopEstimator(t)

	base := JoinRequest{Left: "Products", Right: "Orders", JoinKey: "product_name"}

	colocated := base
	colocated.Sharding = &Sharding{Shards: 4, ShardKey: "product_name"}
	co, err := e.EstimateJoin(colocated)
	require.NoError(t, err)

	shuffled := base
	shuffled.Sharding = &Sharding{Shards: 4, ShardKey: "region"}
	sh, err := e.EstimateJoin(shuffled)
	require.NoError(t, err)

	assert.Equal(t, "Nested Loop Join (with sharding)", co.Operator)
	assert.True(t, co.CoLocated)
	assert.False(t, sh.CoLocated)
	assert.Less(t, co.Costs.NetworkCost, sh.Costs.NetworkCost)

	// Same data, same scan: only the network term differs.
	assert.Equal(t, co.Costs.IOCost, sh.Costs.IOCost)
	assert.Equal(t, co.Costs.CPUCost, sh.Costs.CPUCost)
}

func TestEstimateJoin_MissingSide(t *testing.T) {
	e := shopEstimator(t)

	_, err := e.EstimateJoin(JoinRequest{Left: "Products", Right: "Drafts", JoinKey: "name"})
	assert.ErrorIs(t, err, ErrMissingStatistics)

	_, err = e.EstimateJoin(JoinRequest{Left: "Drafts", Right: "Orders", JoinKey: "name"})
	assert.ErrorIs(t, err, ErrMissingStatistics)
}

// --- database size ---

func TestDatabaseSize(t *testing.T) {
	e := shopEstimator(t)

	summary, err := e.DatabaseSize()
	require.NoError(t, err)

	assert.Equal(t, "shop", summary.Name)
	assert.Equal(t, "test database", summary.Description)

	// Drafts has no statistics and is skipped.
	assert.Equal(t, 2, summary.TotalCollections)
	assert.NotContains(t, summary.Collections, "Drafts")

	products := summary.Collections["Products"]
	assert.Equal(t, int64(1000), products.DocumentCount)
	assert.Equal(t, int64(73), products.AvgDocumentSizeBytes)
	assert.Equal(t, int64(73000), products.TotalSizeBytes)

	orders := summary.Collections["Orders"]
	assert.Equal(t, int64(5000), orders.DocumentCount)
	assert.Equal(t, int64(82), orders.AvgDocumentSizeBytes)

	assert.Equal(t, int64(6000), summary.TotalDocuments)
	assert.Equal(t, products.TotalSizeBytes+orders.TotalSizeBytes, summary.TotalSizeBytes)
}

func TestDatabaseSize_UnnamedDatabase(t *testing.T) {
	e := NewEstimator(parseSchema(t, shopSchemaJSON), &Statistics{
		Collections: map[string]CollectionStats{},
	}, UnitSizes{}, CostParams{})

	summary, err := e.DatabaseSize()
	require.NoError(t, err)
	assert.Equal(t, "unknown", summary.Name)
	assert.Equal(t, 0, summary.TotalCollections)
}

// --- helpers ---

func TestCanonicalCollection(t *testing.T) {
	e := shopEstimator(t)

	assert.Equal(t, "Products", e.CanonicalCollection("Products"))
	assert.Equal(t, "Products", e.CanonicalCollection("products"))
	assert.Equal(t, "Orders", e.CanonicalCollection("ORDERS"))
	assert.Equal(t, "unknown_table", e.CanonicalCollection("unknown_table"))
}

func TestMergeUnitSizes(t *testing.T) {
	merged := mergeUnitSizes(UnitSizes{String: 40})
	assert.Equal(t, int64(40), merged.String)
	assert.Equal(t, int64(12), merged.KeyValuePair)
	assert.Equal(t, int64(200), merged.LongString)
}
