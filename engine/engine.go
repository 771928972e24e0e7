package engine

import (
	"context"

	"github.com/kbukum/rendergraph/errors"
	"github.com/kbukum/rendergraph/graph"
)

// Engine consumes validated graphs. Implementations own pass execution,
// resource allocation and scheduling; the snapshot they receive is read-only.
type Engine interface {
	Accept(ctx context.Context, snap *Snapshot) error
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, snap *Snapshot) error

// Accept calls f(ctx, snap).
func (f EngineFunc) Accept(ctx context.Context, snap *Snapshot) error {
	return f(ctx, snap)
}

// Submit validates g and hands it to e.
//
// A graph with validation errors is refused with the report's NOT_EXECUTABLE
// error and stays mutable. Otherwise the graph is frozen before e sees the
// snapshot and stays frozen even if e fails. A graph can be submitted once.
func Submit(ctx context.Context, g *graph.Graph, e Engine) (*Snapshot, error) {
	if g.Frozen() {
		return nil, errors.GraphFrozen(g.Name())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := g.Validate()
	if err := report.Err(); err != nil {
		return nil, err
	}

	snap, err := NewSnapshot(g, report)
	if err != nil {
		return nil, err
	}

	g.Freeze()
	if err := e.Accept(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}
