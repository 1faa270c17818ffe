package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/avelarde/sizecast/internal/adapter/mcp"
	"github.com/avelarde/sizecast/internal/adapter/postgres"
	"github.com/avelarde/sizecast/internal/adapter/profile"
	"github.com/avelarde/sizecast/internal/adapter/schemafile"
	"github.com/avelarde/sizecast/internal/audit"
	"github.com/avelarde/sizecast/internal/config"
	"github.com/avelarde/sizecast/internal/core/domain"
	"github.com/avelarde/sizecast/internal/core/port"
	"github.com/avelarde/sizecast/internal/core/service"
	"github.com/avelarde/sizecast/internal/report"
	"github.com/avelarde/sizecast/internal/telemetry"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/trace"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	overrides, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Logs go to stderr — stdout is reserved for the MCP stdio transport
	// and the report output.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	logger.Info("starting sizecast",
		slog.String("version", version),
		slog.String("mode", cfg.Mode),
		slog.String("log_level", cfg.LogLevel.String()),
		slog.String("schema_file", cfg.SchemaFile),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Telemetry (optional).
	tracer := telemetry.NoopTracer()
	var inst port.Instrumentation
	if cfg.OTelEnabled {
		provider, err := telemetry.Init(ctx, "sizecast", version)
		if err != nil {
			return fmt.Errorf("initializing telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				logger.Warn("telemetry shutdown", slog.String("error.message", err.Error()))
			}
		}()
		tracer = provider.Tracer()
		inst = telemetry.NewInstruments()
		logger.Info("telemetry enabled")
	}

	var prof *profile.Profile
	if cfg.ProfileFile != "" {
		prof, err = profile.LoadFromFile(cfg.ProfileFile)
		if err != nil {
			return fmt.Errorf("loading profile: %w", err)
		}
		logger.Info("profile loaded", slog.String("file", cfg.ProfileFile))
	}

	estimator, err := buildEstimator(ctx, cfg, prof, logger)
	if err != nil {
		return err
	}

	// Audit sink (optional).
	var auditor port.Auditor = port.NoopAuditor{}
	if cfg.AuditLog != "" {
		fa, err := audit.NewFileAuditor(cfg.AuditLog)
		if err != nil {
			return fmt.Errorf("opening audit log: %w", err)
		}
		defer func() { _ = fa.Close() }()
		auditor = fa
		logger.Info("audit log enabled", slog.String("file", cfg.AuditLog))
	}

	svc := service.NewEstimatorService(estimator, auditor, logger, tracer, inst)
	if prof != nil {
		svc.SetDefaultSharding(prof.DefaultSharding())
	}

	switch cfg.Mode {
	case "mcp":
		return runMCP(ctx, svc, logger, tracer, inst)
	default:
		return runReport(ctx, cfg, svc)
	}
}

// buildEstimator assembles the domain estimator from the configured schema,
// statistics, unit-size and profile sources.
func buildEstimator(ctx context.Context, cfg *config.Config, prof *profile.Profile, logger *slog.Logger) (*domain.Estimator, error) {
	files := schemafile.NewSource(cfg.SchemaFile, cfg.StatsFile)

	var schemaSource port.SchemaSource = files
	schema, err := schemaSource.Schema(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	var statsSource port.StatisticsSource = files
	if cfg.StatsFile == "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolSettings{
			MaxConns:        cfg.PoolMaxConns,
			MinConns:        cfg.PoolMinConns,
			MaxConnLifetime: cfg.PoolMaxConnLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		logger.Info("pulling statistics from database",
			slog.String("db.system", "postgresql"),
			slog.String("db.url", redactDSN(cfg.DatabaseURL)),
		)
		statsSource = postgres.NewStatsSource(pool, cfg.Schemas)
	}
	stats, err := statsSource.Statistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading statistics: %w", err)
	}

	units := domain.DefaultUnitSizes()
	if cfg.UnitSizesFile != "" {
		units, err = schemafile.LoadUnitSizes(cfg.UnitSizesFile)
		if err != nil {
			return nil, fmt.Errorf("loading unit sizes: %w", err)
		}
	}

	cost := domain.DefaultCostParams()
	if prof != nil {
		units = prof.ApplyUnitSizes(units)
		cost = prof.ApplyCost(cost)
	}

	return domain.NewEstimator(schema, stats, units, cost), nil
}

// runReport prints the database size summary and, when --sql is given, the
// estimate for that statement.
func runReport(ctx context.Context, cfg *config.Config, svc *service.EstimatorService) error {
	renderer := report.NewRenderer(os.Stdout)

	summary, err := svc.DatabaseSize(ctx)
	if err != nil {
		return fmt.Errorf("estimating database size: %w", err)
	}
	renderer.DatabaseSize(summary)

	if cfg.SQL != "" {
		est, err := svc.EstimateSQL(ctx, cfg.SQL)
		if err != nil {
			return fmt.Errorf("estimating query: %w", err)
		}
		renderer.Estimate(est)
	}
	return nil
}

// runMCP serves the estimation tools over stdio until the context is
// cancelled.
func runMCP(ctx context.Context, svc *service.EstimatorService, logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) error {
	mcpServer := mcp.NewServer(version, svc, logger, tracer, inst)
	stdioServer := mcpserver.NewStdioServer(mcpServer)

	logger.Info("serving MCP over stdio")
	if err := stdioServer.Listen(ctx, os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("stdio server: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// parseFlags parses CLI arguments into config overrides. Pointer fields stay
// nil when their flag was not given, so env vars keep precedence semantics.
func parseFlags(args []string) (config.Overrides, error) {
	fs := flag.NewFlagSet("sizecast", flag.ContinueOnError)

	schemaFile := fs.String("schema", "", "path to the JSON Schema file")
	statsFile := fs.String("stats", "", "path to the statistics JSON file")
	unitSizesFile := fs.String("unit-sizes", "", "path to a unit-size overrides JSON file")
	profileFile := fs.String("profile", "", "path to an estimation profile YAML file")
	databaseURL := fs.String("database-url", "", "Postgres DSN to pull statistics from")
	mode := fs.String("mode", "", "execution mode: report or mcp")
	sql := fs.String("sql", "", "SELECT statement to estimate in report mode")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	auditLog := fs.String("audit-log", "", "path to NDJSON audit log file")
	otel := fs.Bool("otel", false, "enable OpenTelemetry tracing and metrics")
	poolMaxConns := fs.Int("pool-max-conns", 0, "maximum connections in the pool")
	poolMinConns := fs.Int("pool-min-conns", -1, "minimum idle connections in the pool")
	poolMaxConnLifetime := fs.Duration("pool-max-conn-lifetime", 0, "maximum connection lifetime")

	if err := fs.Parse(args); err != nil {
		return config.Overrides{}, err
	}

	o := config.Overrides{
		OTelEnabled: *otel,
		AuditLog:    *auditLog,
	}
	if *schemaFile != "" {
		o.SchemaFile = schemaFile
	}
	if *statsFile != "" {
		o.StatsFile = statsFile
	}
	if *unitSizesFile != "" {
		o.UnitSizesFile = unitSizesFile
	}
	if *profileFile != "" {
		o.ProfileFile = profileFile
	}
	if *databaseURL != "" {
		o.DatabaseURL = databaseURL
	}
	if *mode != "" {
		o.Mode = mode
	}
	if *sql != "" {
		o.SQL = sql
	}
	if *logLevel != "" {
		o.LogLevel = logLevel
	}
	if *poolMaxConns > 0 {
		v := int32(*poolMaxConns)
		o.PoolMaxConns = &v
	}
	if *poolMinConns >= 0 {
		v := int32(*poolMinConns)
		o.PoolMinConns = &v
	}
	if *poolMaxConnLifetime > 0 {
		o.PoolMaxConnLifetime = poolMaxConnLifetime
	}

	return o, nil
}

// redactDSN masks the password in a connection string before logging it.
// pgx accepts both URL and keyword/value DSN forms.
func redactDSN(dsn string) string {
	if !strings.Contains(dsn, "://") {
		return redactKeywordDSN(dsn)
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

func redactKeywordDSN(dsn string) string {
	fields := strings.Fields(dsn)
	for i, f := range fields {
		if strings.HasPrefix(f, "password=") {
			fields[i] = "password=***"
		}
	}
	return strings.Join(fields, " ")
}
