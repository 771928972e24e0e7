// Package engine is the handoff boundary between graph authoring and the
// execution engine that runs passes.
//
// Submit validates a graph, refuses it when the report has errors, and
// otherwise freezes the graph and hands an immutable Snapshot to an Engine.
// The snapshot carries deep copies of every pass, the edges, the marked
// outputs, the validator warnings, and a level plan in which the passes of a
// level do not depend on each other:
//
//	snap, err := engine.Submit(ctx, g, engine.WithLogging(myEngine, log))
//	if err != nil {
//	    return err
//	}
//	for _, level := range snap.Levels {
//	    // passes in level may run in parallel
//	}
//
// WithLogging, WithTracing and WithMetrics decorate any Engine.
package engine
