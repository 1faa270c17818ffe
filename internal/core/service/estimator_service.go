package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avelarde/sizecast/internal/core/domain"
	"github.com/avelarde/sizecast/internal/core/port"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type toolNameKey struct{}

// WithToolName returns a context carrying the MCP tool name for audit logging.
func WithToolName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, toolNameKey{}, name)
}

func toolNameFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(toolNameKey{}).(string); ok {
		return v
	}
	return ""
}

type sqlKey struct{}

func sqlFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(sqlKey{}).(string); ok {
		return v
	}
	return ""
}

// EstimatorService orchestrates operator estimation: it delegates the
// arithmetic to the domain estimator and wraps every call with tracing,
// metrics, structured logging and audit. The underlying estimator is not
// concurrency-safe, so neither is the service; build one per session.
type EstimatorService struct {
	estimator *domain.Estimator
	auditor   port.Auditor
	logger    *slog.Logger
	tracer    trace.Tracer
	inst      port.Instrumentation
	sharding  *domain.Sharding
}

func NewEstimatorService(estimator *domain.Estimator, auditor port.Auditor, logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *EstimatorService {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	if inst == nil {
		inst = port.NoopInstrumentation{}
	}
	if auditor == nil {
		auditor = port.NoopAuditor{}
	}
	return &EstimatorService{
		estimator: estimator,
		auditor:   auditor,
		logger:    logger,
		tracer:    tracer,
		inst:      inst,
	}
}

// SetDefaultSharding makes SQL-derived estimates assume the given sharding
// layout, since SQL itself carries no placement information.
func (s *EstimatorService) SetDefaultSharding(sh *domain.Sharding) {
	s.sharding = sh
}

// EstimateFilter runs a single filter estimation.
func (s *EstimatorService) EstimateFilter(ctx context.Context, req domain.FilterRequest) (*domain.Estimate, error) {
	return s.run(ctx, "filter", []string{req.Collection}, func() (*domain.Estimate, error) {
		return s.estimator.EstimateFilter(req)
	})
}

// EstimateJoin runs a single nested-loop join estimation.
func (s *EstimatorService) EstimateJoin(ctx context.Context, req domain.JoinRequest) (*domain.Estimate, error) {
	return s.run(ctx, "join", []string{req.Left, req.Right}, func() (*domain.Estimate, error) {
		return s.estimator.EstimateJoin(req)
	})
}

// EstimateAggregate runs a single aggregate estimation.
func (s *EstimatorService) EstimateAggregate(ctx context.Context, req domain.AggregateRequest) (*domain.Estimate, error) {
	return s.run(ctx, "aggregate", []string{req.Collection}, func() (*domain.Estimate, error) {
		return s.estimator.EstimateAggregate(req)
	})
}

// EstimateSQL translates a SELECT statement into an operator plan and
// estimates it. Table identifiers are canonicalized against the schema's
// collection names, since unquoted SQL identifiers arrive lowercased.
func (s *EstimatorService) EstimateSQL(ctx context.Context, sql string) (*domain.Estimate, error) {
	ctx = context.WithValue(ctx, sqlKey{}, sql)
	plan, err := domain.PlanFromSQL(sql)
	if err != nil {
		s.logger.WarnContext(ctx, "sql plan rejected",
			slog.String("db.statement", sql),
			slog.String("error.type", "plan_error"),
		)
		s.inst.IncrementEstimateErrors(ctx)
		return nil, fmt.Errorf("planning: %w", err)
	}

	switch {
	case plan.Filter != nil:
		plan.Filter.Collection = s.estimator.CanonicalCollection(plan.Filter.Collection)
		plan.Filter.Sharding = s.sharding
		return s.EstimateFilter(ctx, *plan.Filter)
	case plan.Join != nil:
		plan.Join.Left = s.estimator.CanonicalCollection(plan.Join.Left)
		plan.Join.Right = s.estimator.CanonicalCollection(plan.Join.Right)
		plan.Join.Sharding = s.sharding
		return s.EstimateJoin(ctx, *plan.Join)
	default:
		plan.Aggregate.Collection = s.estimator.CanonicalCollection(plan.Aggregate.Collection)
		plan.Aggregate.Sharding = s.sharding
		return s.EstimateAggregate(ctx, *plan.Aggregate)
	}
}

// DatabaseSize produces the database-wide storage summary.
func (s *EstimatorService) DatabaseSize(ctx context.Context) (*domain.DatabaseSize, error) {
	ctx, span := s.tracer.Start(ctx, "EstimatorService.DatabaseSize")
	defer span.End()

	summary, err := s.estimator.DatabaseSize()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("db.collections", summary.TotalCollections))
	return summary, nil
}

// Operation is one item of a batch estimation; exactly one request field
// should be set.
type Operation struct {
	Filter    *domain.FilterRequest
	Join      *domain.JoinRequest
	Aggregate *domain.AggregateRequest
}

// Result pairs a batch operation's estimate with its own error, so one
// failing operator never aborts the rest of the batch.
type Result struct {
	Estimate *domain.Estimate
	Err      error
}

// EstimateBatch runs a sequence of operator estimations, isolating failures
// per operation.
func (s *EstimatorService) EstimateBatch(ctx context.Context, ops []Operation) []Result {
	results := make([]Result, len(ops))
	for i, op := range ops {
		switch {
		case op.Filter != nil:
			results[i].Estimate, results[i].Err = s.EstimateFilter(ctx, *op.Filter)
		case op.Join != nil:
			results[i].Estimate, results[i].Err = s.EstimateJoin(ctx, *op.Join)
		case op.Aggregate != nil:
			results[i].Estimate, results[i].Err = s.EstimateAggregate(ctx, *op.Aggregate)
		default:
			results[i].Err = fmt.Errorf("operation %d: no request set", i)
		}
	}
	return results
}

// run wraps one estimation with the span/metric/audit plumbing shared by
// every operator kind.
func (s *EstimatorService) run(ctx context.Context, kind string, collections []string, estimate func() (*domain.Estimate, error)) (*domain.Estimate, error) {
	ctx, span := s.tracer.Start(ctx, "EstimatorService.Estimate",
		trace.WithAttributes(
			attribute.String("estimate.operator", kind),
			attribute.StringSlice("estimate.collections", collections),
		),
	)
	defer span.End()

	start := time.Now()
	est, err := estimate()
	durationMS := time.Since(start).Milliseconds()

	s.inst.RecordEstimateDuration(ctx, float64(durationMS))

	entry := port.AuditEntry{
		Tool:        toolNameFromCtx(ctx),
		Operator:    kind,
		Collections: collections,
		SQL:         sqlFromCtx(ctx),
		DurationMS:  durationMS,
		Err:         err,
	}
	if est != nil {
		entry.OutputDocs = est.OutputDocCount
	}
	s.auditor.Record(ctx, entry)

	if err != nil {
		s.logger.WarnContext(ctx, "estimation failed",
			slog.String("estimate.operator", kind),
			slog.Any("estimate.collections", collections),
			slog.String("error.message", err.Error()),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.inst.IncrementEstimateErrors(ctx)
		return nil, err
	}

	s.inst.IncrementEstimateCount(ctx)
	span.SetAttributes(
		attribute.Int64("estimate.output_docs", est.OutputDocCount),
		attribute.Int64("estimate.output_bytes", est.OutputSizeBytes),
	)
	return est, nil
}
