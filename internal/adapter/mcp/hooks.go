package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/avelarde/sizecast/internal/core/port"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// toolObserver tracks in-flight estimation tool calls so the after/error
// hooks can attach durations and close spans started in the before hook.
type toolObserver struct {
	logger *slog.Logger
	tracer trace.Tracer
	inst   port.Instrumentation
	calls  sync.Map // request id -> *toolCall
}

type toolCall struct {
	start time.Time
	span  trace.Span
}

// ToolCallHooks wires logging, span and duration-metric recording around
// every estimation tool call served by the MCP server.
func ToolCallHooks(logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *server.Hooks {
	obs := &toolObserver{logger: logger, tracer: tracer, inst: inst}

	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(obs.begin)
	hooks.AddAfterCallTool(obs.finish)
	hooks.AddOnError(obs.fail)
	return hooks
}

func (o *toolObserver) begin(ctx context.Context, id any, req *mcp.CallToolRequest) {
	call := &toolCall{start: time.Now()}

	if o.tracer != nil {
		_, span := o.tracer.Start(ctx, "mcp.estimate_tool",
			trace.WithAttributes(
				attribute.String("mcp.tool", req.Params.Name),
			),
		)
		call.span = span
	}

	o.calls.Store(id, call)
}

func (o *toolObserver) finish(ctx context.Context, id any, req *mcp.CallToolRequest, result any) {
	duration, span := o.take(id)

	level := slog.LevelInfo
	isErr := false
	if r, ok := result.(*mcp.CallToolResult); ok && r.IsError {
		level = slog.LevelError
		isErr = true
	}

	o.logger.LogAttrs(ctx, level, "tool call",
		slog.String("rpc.method", "tools/call"),
		slog.String("mcp.tool", req.Params.Name),
		slog.Duration("duration", duration),
		slog.Bool("error", isErr),
	)

	if o.inst != nil {
		o.inst.RecordToolDuration(ctx, float64(duration.Milliseconds()))
	}

	if span != nil {
		if isErr {
			span.SetStatus(codes.Error, "tool returned error")
			span.RecordError(fmt.Errorf("tool %s returned error", req.Params.Name))
		}
		span.End()
	}
}

func (o *toolObserver) fail(ctx context.Context, id any, _ mcp.MCPMethod, message any, err error) {
	duration, span := o.take(id)

	if req, ok := message.(*mcp.CallToolRequest); ok {
		o.logger.LogAttrs(ctx, slog.LevelError, "tool call",
			slog.String("rpc.method", "tools/call"),
			slog.String("mcp.tool", req.Params.Name),
			slog.Duration("duration", duration),
			slog.Bool("error", true),
			slog.String("error.message", err.Error()),
		)
	}

	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
	}
}

// take removes the in-flight record for id and reports how long it ran.
func (o *toolObserver) take(id any) (time.Duration, trace.Span) {
	v, ok := o.calls.LoadAndDelete(id)
	if !ok {
		return 0, nil
	}
	call := v.(*toolCall)
	return time.Since(call.start), call.span
}
