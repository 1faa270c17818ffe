package mcp

import (
	"log/slog"

	"github.com/avelarde/sizecast/internal/core/port"
	"github.com/avelarde/sizecast/internal/core/service"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/trace"
)

// NewServer creates an MCPServer exposing the estimation tools, with logging
// and telemetry hooks around every tool call.
func NewServer(version string, estimator *service.EstimatorService, logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithHooks(ToolCallHooks(logger, tracer, inst)),
	)

	RegisterTools(s, estimator)

	return s
}
