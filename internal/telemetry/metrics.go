package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/avelarde/sizecast"

// Instruments holds pre-created OTel metric instruments.
type Instruments struct {
	EstimateCount    metric.Int64Counter
	EstimateDuration metric.Float64Histogram
	EstimateErrors   metric.Int64Counter
	ToolDuration     metric.Float64Histogram
}

// NewInstruments creates metric instruments from the global MeterProvider.
// Returns nil-safe instruments: if creation fails, noop instruments are used.
func NewInstruments() *Instruments {
	meter := otel.Meter(meterName)
	return newInstrumentsFromMeter(meter)
}

// NoopInstruments returns instruments that record nothing.
func NoopInstruments() *Instruments {
	meter := noop.NewMeterProvider().Meter(meterName)
	return newInstrumentsFromMeter(meter)
}

func newInstrumentsFromMeter(meter metric.Meter) *Instruments {
	// OTel SDK returns noop instruments on error; safe to discard.
	estimateCount, _ := meter.Int64Counter("sizecast.estimate.count",
		metric.WithDescription("Total number of operator estimations produced"),
	)
	estimateDuration, _ := meter.Float64Histogram("sizecast.estimate.duration",
		metric.WithDescription("Operator estimation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	estimateErrors, _ := meter.Int64Counter("sizecast.estimate.errors",
		metric.WithDescription("Total number of failed operator estimations"),
	)
	toolDuration, _ := meter.Float64Histogram("sizecast.tool.duration",
		metric.WithDescription("MCP tool call duration in milliseconds"),
		metric.WithUnit("ms"),
	)

	return &Instruments{
		EstimateCount:    estimateCount,
		EstimateDuration: estimateDuration,
		EstimateErrors:   estimateErrors,
		ToolDuration:     toolDuration,
	}
}

func (i *Instruments) RecordEstimateDuration(ctx context.Context, ms float64) {
	i.EstimateDuration.Record(ctx, ms)
}

func (i *Instruments) IncrementEstimateCount(ctx context.Context) {
	i.EstimateCount.Add(ctx, 1)
}

func (i *Instruments) IncrementEstimateErrors(ctx context.Context) {
	i.EstimateErrors.Add(ctx, 1)
}

func (i *Instruments) RecordToolDuration(ctx context.Context, ms float64) {
	i.ToolDuration.Record(ctx, ms)
}
