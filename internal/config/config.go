package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Input files.
	SchemaFile    string // JSON Schema describing the collections (required)
	StatsFile     string // statistics JSON; optional when DatabaseURL is set
	UnitSizesFile string // optional unit-size overrides JSON
	ProfileFile   string // optional estimation profile YAML

	// Live statistics source.
	DatabaseURL string   // optional Postgres DSN to pull statistics from
	Schemas     []string // empty means all non-system schemas

	// Execution.
	Mode string // "report" (default) or "mcp"
	SQL  string // optional SELECT to estimate in report mode

	// Logging.
	LogLevel slog.Level

	// Connection pool.
	PoolMaxConns        int32         // default: 5
	PoolMinConns        int32         // default: 1
	PoolMaxConnLifetime time.Duration // default: 30m

	// Observability.
	OTelEnabled bool // enable OpenTelemetry tracing and metrics

	// CLI-only fields (not settable via env vars).
	AuditLog string // path to NDJSON audit log file
}

// Overrides holds CLI flag values that override environment variables.
// Pointer fields distinguish "not set" from zero values.
type Overrides struct {
	SchemaFile    *string
	StatsFile     *string
	UnitSizesFile *string
	ProfileFile   *string
	DatabaseURL   *string
	Mode          *string
	SQL           *string
	LogLevel      *string
	OTelEnabled   bool
	AuditLog      string

	// Connection pool overrides.
	PoolMaxConns        *int32
	PoolMinConns        *int32
	PoolMaxConnLifetime *time.Duration
}

// Load builds a Config from environment variables, then applies CLI overrides,
// then validates the result.
func Load(overrides Overrides) (*Config, error) {
	cfg := defaults()

	if err := loadEnvVars(cfg); err != nil {
		return nil, err
	}
	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaults returns a Config populated with default values.
func defaults() *Config {
	return &Config{
		SchemaFile:          os.Getenv("SCHEMA_FILE"),
		StatsFile:           os.Getenv("STATS_FILE"),
		UnitSizesFile:       os.Getenv("UNIT_SIZES_FILE"),
		ProfileFile:         os.Getenv("PROFILE_FILE"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		Mode:                "report",
		PoolMaxConns:        5,
		PoolMinConns:        1,
		PoolMaxConnLifetime: 30 * time.Minute,
	}
}

// loadEnvVars reads all supported environment variables into cfg.
func loadEnvVars(cfg *Config) error {
	if v := os.Getenv("MODE"); v != "" {
		cfg.Mode = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}

	if v := os.Getenv("SCHEMAS"); v != "" {
		for _, s := range strings.Split(v, ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				cfg.Schemas = append(cfg.Schemas, s)
			}
		}
	}

	if v := os.Getenv("OTEL_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid OTEL_ENABLED value %q: %w", v, err)
		}
		cfg.OTelEnabled = b
	}

	if err := loadPoolEnvVars(cfg); err != nil {
		return err
	}

	return nil
}

// loadPoolEnvVars reads connection pool environment variables.
func loadPoolEnvVars(cfg *Config) error {
	if v := os.Getenv("POOL_MAX_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid POOL_MAX_CONNS value %q: must be a positive integer", v)
		}
		cfg.PoolMaxConns = int32(n)
	}
	if v := os.Getenv("POOL_MIN_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid POOL_MIN_CONNS value %q: must be a non-negative integer", v)
		}
		cfg.PoolMinConns = int32(n)
	}
	if v := os.Getenv("POOL_MAX_CONN_LIFETIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid POOL_MAX_CONN_LIFETIME value %q: %w", v, err)
		}
		cfg.PoolMaxConnLifetime = d
	}
	return nil
}

// applyOverrides applies CLI flag values on top of the env-loaded config.
func applyOverrides(cfg *Config, o Overrides) error {
	if o.SchemaFile != nil {
		cfg.SchemaFile = *o.SchemaFile
	}
	if o.StatsFile != nil {
		cfg.StatsFile = *o.StatsFile
	}
	if o.UnitSizesFile != nil {
		cfg.UnitSizesFile = *o.UnitSizesFile
	}
	if o.ProfileFile != nil {
		cfg.ProfileFile = *o.ProfileFile
	}
	if o.DatabaseURL != nil {
		cfg.DatabaseURL = *o.DatabaseURL
	}
	if o.Mode != nil {
		cfg.Mode = *o.Mode
	}
	if o.SQL != nil {
		cfg.SQL = *o.SQL
	}
	if o.LogLevel != nil {
		level, err := parseLogLevel(*o.LogLevel)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}

	if err := applyPoolOverrides(cfg, o); err != nil {
		return err
	}

	cfg.AuditLog = o.AuditLog
	cfg.OTelEnabled = cfg.OTelEnabled || o.OTelEnabled

	return nil
}

// applyPoolOverrides applies connection pool CLI flag overrides.
func applyPoolOverrides(cfg *Config, o Overrides) error {
	if o.PoolMaxConns != nil {
		if *o.PoolMaxConns <= 0 {
			return fmt.Errorf("invalid --pool-max-conns value: must be a positive integer")
		}
		cfg.PoolMaxConns = *o.PoolMaxConns
	}
	if o.PoolMinConns != nil {
		if *o.PoolMinConns < 0 {
			return fmt.Errorf("invalid --pool-min-conns value: must be a non-negative integer")
		}
		cfg.PoolMinConns = *o.PoolMinConns
	}
	if o.PoolMaxConnLifetime != nil {
		cfg.PoolMaxConnLifetime = *o.PoolMaxConnLifetime
	}
	return nil
}

// validate checks cross-field constraints on the final config.
func validate(cfg *Config) error {
	if cfg.SchemaFile == "" {
		return fmt.Errorf("SCHEMA_FILE is required (set via env var or --schema flag)")
	}

	if cfg.StatsFile == "" && cfg.DatabaseURL == "" {
		return fmt.Errorf("either STATS_FILE or DATABASE_URL is required (set via env var or --stats / --database-url flags)")
	}

	switch cfg.Mode {
	case "report", "mcp":
	default:
		return fmt.Errorf("invalid MODE value %q: must be \"report\" or \"mcp\"", cfg.Mode)
	}

	if cfg.SQL != "" && cfg.Mode != "report" {
		return fmt.Errorf("--sql is only valid in report mode")
	}

	if cfg.PoolMinConns > cfg.PoolMaxConns {
		return fmt.Errorf("POOL_MIN_CONNS (%d) must not exceed POOL_MAX_CONNS (%d)", cfg.PoolMinConns, cfg.PoolMaxConns)
	}

	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL value %q: must be debug, info, warn, or error", s)
	}
}
