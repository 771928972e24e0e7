// Package observability provides OpenTelemetry tracing and metrics for graph
// validation and engine handoff.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, &cfg)
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanGraphValidate)
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, &meterCfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("rendergraph"))
//	metrics.RecordValidation(ctx, "PathTracer", 0, 1, duration)
package observability
