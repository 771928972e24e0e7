package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/rendergraph/errors"
	"github.com/kbukum/rendergraph/graph"
	"github.com/kbukum/rendergraph/pass"
)

// PassSpec is the frozen description of one pass.
type PassSpec struct {
	Name    string
	Kind    string
	Config  pass.Config
	Inputs  []pass.PortDescriptor
	Outputs []pass.PortDescriptor
}

// Snapshot is an immutable copy of a validated graph, independent of any
// later change to the graph it was taken from. Passes is exposed for reading;
// Pass hands out copies that callers may modify.
type Snapshot struct {
	ID        uuid.UUID
	Graph     string
	CreatedAt time.Time
	Passes    []PassSpec
	Edges     []graph.Edge
	Outputs   []pass.PortID
	Warnings  []graph.Diagnostic
	// Levels groups pass names by dependency depth; see BuildLevels.
	Levels [][]string

	index  map[string]int
	inputs map[string]map[string]pass.PortID
}

// NewSnapshot copies g. The report should come from validating g in its
// current state; only its warnings are kept.
func NewSnapshot(g *graph.Graph, report graph.Report) (*Snapshot, error) {
	nodes := g.Nodes()
	edges := g.Edges()

	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name
	}
	levels, err := BuildLevels(names, edges)
	if err != nil {
		return nil, err
	}

	s := &Snapshot{
		ID:        uuid.New(),
		Graph:     g.Name(),
		CreatedAt: time.Now().UTC(),
		Passes:    make([]PassSpec, len(nodes)),
		Edges:     edges,
		Outputs:   g.MarkedOutputs(),
		Warnings:  append([]graph.Diagnostic(nil), report.Warnings...),
		Levels:    levels,
		index:     make(map[string]int, len(nodes)),
		inputs:    make(map[string]map[string]pass.PortID, len(nodes)),
	}
	for i, n := range nodes {
		s.Passes[i] = PassSpec{
			Name:    n.Name,
			Kind:    n.Kind,
			Config:  n.Config,
			Inputs:  n.Inputs,
			Outputs: n.Outputs,
		}
		s.index[n.Name] = i
	}
	for _, e := range edges {
		if s.inputs[e.To.Pass] == nil {
			s.inputs[e.To.Pass] = make(map[string]pass.PortID)
		}
		s.inputs[e.To.Pass][e.To.Port] = e.From
	}
	return s, nil
}

// Order returns the pass names level by level, a valid execution order.
func (s *Snapshot) Order() []string {
	order := make([]string, 0, len(s.Passes))
	for _, level := range s.Levels {
		order = append(order, level...)
	}
	return order
}

// Pass returns a copy of the spec of the named pass.
func (s *Snapshot) Pass(name string) (PassSpec, bool) {
	i, ok := s.index[name]
	if !ok {
		return PassSpec{}, false
	}
	return s.Passes[i].clone(), true
}

func (p PassSpec) clone() PassSpec {
	p.Config = p.Config.Clone()
	p.Inputs = append([]pass.PortDescriptor(nil), p.Inputs...)
	p.Outputs = append([]pass.PortDescriptor(nil), p.Outputs...)
	return p
}

// Inputs maps each connected input port of the named pass to the output
// feeding it.
func (s *Snapshot) Inputs(passName string) map[string]pass.PortID {
	out := make(map[string]pass.PortID, len(s.inputs[passName]))
	for port, from := range s.inputs[passName] {
		out[port] = from
	}
	return out
}

// Instance is a runtime pass created from a snapshot.
type Instance struct {
	Name   string
	Kind   string
	Handle pass.Handle
}

// Instantiate creates one runtime pass per snapshot pass, in execution order.
// It stops at the first failure.
func (s *Snapshot) Instantiate(ctx context.Context, reg pass.Registry) ([]Instance, error) {
	instances := make([]Instance, 0, len(s.Passes))
	for _, name := range s.Order() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		spec := s.Passes[s.index[name]]
		handle, err := reg.Instantiate(ctx, spec.Kind, spec.Config.Clone())
		if err != nil {
			if appErr, ok := errors.AsAppError(err); ok {
				appErr.WithDetail("pass", name)
			}
			return nil, err
		}
		instances = append(instances, Instance{Name: name, Kind: spec.Kind, Handle: handle})
	}
	return instances, nil
}
