package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/avelarde/sizecast/internal/core/domain"
	"github.com/avelarde/sizecast/internal/core/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server metadata
const serverName = "sizecast"

// Tool descriptions
const (
	descEstimateFilter = "Estimate the output cardinality, byte volume and cost of filtering one collection. " +
		"Pass the projected output keys to size only the fields the query actually returns. " +
		"Selectivity is the fraction of documents that survive the filter (defaults to 0.1). " +
		"Set sharded to true to model distributed execution and include network cost."

	descEstimateJoin = "Estimate a nested-loop join between two collections on a shared key. " +
		"Selectivity is the fraction of the cross product that matches (defaults to 0.001). " +
		"When sharded, set shard_key: if it equals the join key both sides are co-located " +
		"and network cost drops sharply; otherwise the right side is reshuffled."

	descEstimateAggregate = "Estimate a grouping aggregate over one collection. " +
		"The distinct-group count is bounded by the per-column distinct counts from statistics. " +
		"Pass filter_key to model a preceding filter stage. " +
		"Set sharded to true for the distributed variant with per-shard group counts."

	descEstimateSQL = "Estimate a SELECT statement directly. The query is parsed and mapped to a " +
		"filter, join or aggregate operator: a WHERE clause becomes a filter, two tables with a " +
		"join condition become a join, and GROUP BY or aggregate functions become an aggregate. " +
		"Only single SELECT statements are supported."

	descDatabaseSize = "Summarize the estimated on-disk footprint of the whole database: " +
		"per-collection document counts, average document sizes and total bytes, " +
		"plus database-wide totals. Use this first to see which collections dominate storage."

	descCollectionParam  = "Name of the collection to estimate over"
	descOutputKeysParam  = "Comma-separated field names to project into the output (empty projects the whole record)"
	descAggOutputsParam  = "Comma-separated field names in the aggregate output (empty means the group keys plus the aggregation key)"
	descSelectivityParam = "Fraction of documents surviving the predicate, in (0, 1]"
	descShardedParam     = "Model sharded execution. Defaults to false."
	descShardsParam      = "Number of shards (defaults to 2 when sharded)"
	descShardKeyParam    = "Field the collections are sharded on"
)

func RegisterTools(s *server.MCPServer, estimator *service.EstimatorService) {
	s.AddTool(
		mcp.NewTool("estimate_filter",
			mcp.WithDescription(descEstimateFilter),
			mcp.WithString("collection",
				mcp.Required(),
				mcp.Description(descCollectionParam),
			),
			mcp.WithString("output_keys",
				mcp.Description(descOutputKeysParam),
			),
			mcp.WithString("filter_key",
				mcp.Description("Field the filter predicate applies to"),
			),
			mcp.WithNumber("selectivity",
				mcp.Description(descSelectivityParam),
			),
			mcp.WithBoolean("sharded",
				mcp.Description(descShardedParam),
			),
			mcp.WithNumber("nb_shards",
				mcp.Description(descShardsParam),
			),
			mcp.WithString("shard_key",
				mcp.Description(descShardKeyParam),
			),
		),
		estimateFilterHandler(estimator),
	)

	s.AddTool(
		mcp.NewTool("estimate_join",
			mcp.WithDescription(descEstimateJoin),
			mcp.WithString("left_collection",
				mcp.Required(),
				mcp.Description("Outer collection of the nested loop"),
			),
			mcp.WithString("right_collection",
				mcp.Required(),
				mcp.Description("Inner collection of the nested loop"),
			),
			mcp.WithString("join_key",
				mcp.Required(),
				mcp.Description("Field both collections are joined on"),
			),
			mcp.WithString("output_keys",
				mcp.Description(descOutputKeysParam),
			),
			mcp.WithNumber("selectivity",
				mcp.Description(descSelectivityParam),
			),
			mcp.WithBoolean("sharded",
				mcp.Description(descShardedParam),
			),
			mcp.WithNumber("nb_shards",
				mcp.Description(descShardsParam),
			),
			mcp.WithString("shard_key",
				mcp.Description(descShardKeyParam),
			),
		),
		estimateJoinHandler(estimator),
	)

	s.AddTool(
		mcp.NewTool("estimate_aggregate",
			mcp.WithDescription(descEstimateAggregate),
			mcp.WithString("collection",
				mcp.Required(),
				mcp.Description(descCollectionParam),
			),
			mcp.WithString("group_keys",
				mcp.Required(),
				mcp.Description("Comma-separated fields to group by"),
			),
			mcp.WithString("agg_key",
				mcp.Description("Field the aggregate function is computed over"),
			),
			mcp.WithString("output_keys",
				mcp.Description(descAggOutputsParam),
			),
			mcp.WithString("filter_key",
				mcp.Description("Field of a filter applied before grouping"),
			),
			mcp.WithNumber("selectivity",
				mcp.Description(descSelectivityParam),
			),
			mcp.WithBoolean("sharded",
				mcp.Description(descShardedParam),
			),
			mcp.WithNumber("nb_shards",
				mcp.Description(descShardsParam),
			),
			mcp.WithString("shard_key",
				mcp.Description(descShardKeyParam),
			),
		),
		estimateAggregateHandler(estimator),
	)

	s.AddTool(
		mcp.NewTool("estimate_sql",
			mcp.WithDescription(descEstimateSQL),
			mcp.WithString("sql",
				mcp.Required(),
				mcp.Description("The SELECT statement to estimate (without EXPLAIN)"),
			),
		),
		estimateSQLHandler(estimator),
	)

	s.AddTool(
		mcp.NewTool("database_size",
			mcp.WithDescription(descDatabaseSize),
		),
		databaseSizeHandler(estimator),
	)
}

func estimateFilterHandler(estimator *service.EstimatorService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		collection, ok := args["collection"].(string)
		if !ok || collection == "" {
			return mcp.NewToolResultError("collection is required"), nil
		}

		req := domain.FilterRequest{
			Collection: collection,
			OutputKeys: splitKeys(args["output_keys"]),
			Sharding:   shardingFromArgs(args),
		}
		req.FilterKey, _ = args["filter_key"].(string)
		req.Selectivity, _ = args["selectivity"].(float64)

		ctx = service.WithToolName(ctx, "estimate_filter")
		est, err := estimator.EstimateFilter(ctx, req)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("filter estimation failed: %v", err)), nil
		}

		return marshalResult(est)
	}
}

func estimateJoinHandler(estimator *service.EstimatorService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		left, _ := args["left_collection"].(string)
		right, _ := args["right_collection"].(string)
		joinKey, _ := args["join_key"].(string)
		if left == "" || right == "" || joinKey == "" {
			return mcp.NewToolResultError("left_collection, right_collection and join_key are required"), nil
		}

		req := domain.JoinRequest{
			Left:       left,
			Right:      right,
			JoinKey:    joinKey,
			OutputKeys: splitKeys(args["output_keys"]),
			Sharding:   shardingFromArgs(args),
		}
		req.Selectivity, _ = args["selectivity"].(float64)

		ctx = service.WithToolName(ctx, "estimate_join")
		est, err := estimator.EstimateJoin(ctx, req)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("join estimation failed: %v", err)), nil
		}

		return marshalResult(est)
	}
}

func estimateAggregateHandler(estimator *service.EstimatorService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		collection, ok := args["collection"].(string)
		if !ok || collection == "" {
			return mcp.NewToolResultError("collection is required"), nil
		}
		groupKeys := splitKeys(args["group_keys"])
		if len(groupKeys) == 0 {
			return mcp.NewToolResultError("group_keys is required"), nil
		}

		req := domain.AggregateRequest{
			Collection: collection,
			GroupKeys:  groupKeys,
			OutputKeys: splitKeys(args["output_keys"]),
			Sharding:   shardingFromArgs(args),
		}
		req.AggKey, _ = args["agg_key"].(string)
		req.FilterKey, _ = args["filter_key"].(string)
		req.Selectivity, _ = args["selectivity"].(float64)

		ctx = service.WithToolName(ctx, "estimate_aggregate")
		est, err := estimator.EstimateAggregate(ctx, req)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("aggregate estimation failed: %v", err)), nil
		}

		return marshalResult(est)
	}
}

func estimateSQLHandler(estimator *service.EstimatorService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, ok := request.GetArguments()["sql"].(string)
		if !ok || sql == "" {
			return mcp.NewToolResultError("sql is required"), nil
		}

		ctx = service.WithToolName(ctx, "estimate_sql")
		est, err := estimator.EstimateSQL(ctx, sql)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("sql estimation failed: %v", err)), nil
		}

		return marshalResult(est)
	}
}

func databaseSizeHandler(estimator *service.EstimatorService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx = service.WithToolName(ctx, "database_size")
		summary, err := estimator.DatabaseSize(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("database size estimation failed: %v", err)), nil
		}

		return marshalResult(summary)
	}
}

// splitKeys parses a comma-separated key list argument, dropping empty items.
func splitKeys(arg any) []string {
	raw, _ := arg.(string)
	if raw == "" {
		return nil
	}
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// shardingFromArgs builds a Sharding spec when the sharded flag is set.
func shardingFromArgs(args map[string]any) *domain.Sharding {
	sharded, _ := args["sharded"].(bool)
	if !sharded {
		return nil
	}
	sh := &domain.Sharding{}
	if n, ok := args["nb_shards"].(float64); ok {
		sh.Shards = int(n)
	}
	sh.ShardKey, _ = args["shard_key"].(string)
	return sh
}

func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
