package postgres

// queryListCollections has one %s placeholder for the schema filter clause.
// Row estimates come from the planner's reltuples with the stats collector's
// live-tuple count as a fallback for freshly created tables.
const queryListCollections = `
	SELECT
		n.nspname,
		c.relname,
		GREATEST(c.reltuples::bigint, COALESCE(s.n_live_tup, 0), 0) AS row_estimate
	FROM pg_class c
	JOIN pg_namespace n ON n.oid = c.relnamespace
	LEFT JOIN pg_stat_user_tables s
		ON s.schemaname = n.nspname AND s.relname = c.relname
	WHERE c.relkind = 'r'
		AND %s
	ORDER BY n.nspname, c.relname`

// queryColumnStatistics fetches the planner statistics that map onto
// field-specifics: null fraction, distinct count and average width.
// $1 = schema, $2 = table_name.
const queryColumnStatistics = `
	SELECT
		s.attname,
		s.null_frac,
		s.n_distinct,
		s.avg_width
	FROM pg_stats s
	WHERE s.schemaname = $1 AND s.tablename = $2
	ORDER BY s.attname`

const queryDatabaseName = `SELECT current_database()`
