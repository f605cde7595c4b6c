package pipeline

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/apptd/internal/pipeline"

// Metrics holds pipeline-level metrics.
type Metrics struct {
	meter         metric.Meter
	logger        *zap.Logger
	stageTotal    metric.Int64Counter
	externalCalls metric.Int64Counter
	guardrailHits metric.Int64Counter
}

// NewMetrics creates a Metrics instance backed by the global meter provider.
func NewMetrics(logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Metrics{
		meter:  otel.Meter(instrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.stageTotal, err = m.meter.Int64Counter(
		"apptd.pipeline.stage_total",
		metric.WithDescription("Stage executions labeled by stage and source (cache, memo, computed)."),
		metric.WithUnit("{stage}"),
	)
	if err != nil {
		m.logger.Warn("failed to create stage counter", zap.Error(err))
	}

	m.externalCalls, err = m.meter.Int64Counter(
		"apptd.pipeline.external_calls_total",
		metric.WithDescription("Calls issued to the external extraction service, labeled by stage and outcome."),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		m.logger.Warn("failed to create external call counter", zap.Error(err))
	}

	m.guardrailHits, err = m.meter.Int64Counter(
		"apptd.pipeline.guardrail_rejections_total",
		metric.WithDescription("Guardrail rejections that produced a needs-clarification outcome, labeled by check."),
		metric.WithUnit("{rejection}"),
	)
	if err != nil {
		m.logger.Warn("failed to create guardrail counter", zap.Error(err))
	}
}

// RecordStage counts one stage execution and where its result came from.
func (m *Metrics) RecordStage(ctx context.Context, stage, source string) {
	if m == nil || m.stageTotal == nil {
		return
	}
	m.stageTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("source", source),
	))
}

// RecordExternalCall counts one extraction service invocation.
func (m *Metrics) RecordExternalCall(ctx context.Context, stage string, failed bool) {
	if m == nil || m.externalCalls == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	m.externalCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("outcome", outcome),
	))
}

// RecordGuardrail counts one guardrail rejection.
func (m *Metrics) RecordGuardrail(ctx context.Context, check string) {
	if m == nil || m.guardrailHits == nil {
		return
	}
	m.guardrailHits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("check", check),
	))
}
