package engine

import (
	"context"
	"time"

	"github.com/kbukum/rendergraph/logger"
	"github.com/kbukum/rendergraph/observability"
)

// WithTracing wraps an Engine with OpenTelemetry span creation.
// Each handoff creates an "engine.accept" span.
func WithTracing(e Engine) Engine {
	return &tracingEngine{inner: e}
}

type tracingEngine struct {
	inner Engine
}

func (t *tracingEngine) Accept(ctx context.Context, snap *Snapshot) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanEngineAccept)
	defer span.End()

	observability.SetSpanAttribute(ctx, observability.AttrGraph, snap.Graph)
	observability.SetSpanAttribute(ctx, observability.AttrSnapshotID, snap.ID.String())
	observability.SetSpanAttribute(ctx, observability.AttrPasses, len(snap.Passes))
	observability.SetSpanAttribute(ctx, observability.AttrEdges, len(snap.Edges))
	observability.SetSpanAttribute(ctx, observability.AttrWarnings, len(snap.Warnings))

	err := t.inner.Accept(ctx, snap)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return err
}

// WithMetrics wraps an Engine with submission count and duration metrics.
func WithMetrics(e Engine, metrics *observability.Metrics) Engine {
	return &metricsEngine{inner: e, metrics: metrics}
}

type metricsEngine struct {
	inner   Engine
	metrics *observability.Metrics
}

func (m *metricsEngine) Accept(ctx context.Context, snap *Snapshot) error {
	start := time.Now()
	err := m.inner.Accept(ctx, snap)
	duration := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
	}
	m.metrics.RecordSubmission(ctx, snap.Graph, status, duration)

	return err
}

// WithLogging wraps an Engine with handoff logging.
// Logs: graph, snapshot id, pass count, duration, and success/error status.
func WithLogging(e Engine, log *logger.Logger) Engine {
	return &loggingEngine{inner: e, log: log}
}

type loggingEngine struct {
	inner Engine
	log   *logger.Logger
}

func (l *loggingEngine) Accept(ctx context.Context, snap *Snapshot) error {
	start := time.Now()
	err := l.inner.Accept(ctx, snap)
	duration := time.Since(start)

	fields := map[string]interface{}{
		logger.FieldGraph:      snap.Graph,
		logger.FieldSnapshotID: snap.ID.String(),
		"passes":               len(snap.Passes),
		"warnings":             len(snap.Warnings),
		logger.FieldDuration:   duration.Milliseconds(),
	}

	if err != nil {
		l.log.Error("engine rejected snapshot", logger.MergeWithError(fields, err))
	} else {
		l.log.Info("snapshot handed to engine", fields)
	}

	return err
}
