package graph

import (
	"fmt"
	"strings"

	"github.com/kbukum/rendergraph/errors"
	"github.com/kbukum/rendergraph/logger"
	"github.com/kbukum/rendergraph/pass"
)

// Graph is a render graph under construction. It is not safe for concurrent
// use; one caller builds it to completion and then hands it off.
type Graph struct {
	name     string
	registry pass.Registry
	log      *logger.Logger

	allowUnknownOptions bool
	maxPasses           int

	nodes    map[string]*Node
	order    []string
	edges    []Edge
	incoming map[pass.PortID]pass.PortID
	outputs  []pass.PortID
	frozen   bool
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger used for mutation events.
func WithLogger(log *logger.Logger) Option {
	return func(g *Graph) {
		if log != nil {
			g.log = log
		}
	}
}

// WithAllowUnknownOptions keeps config keys the pass kind does not declare
// instead of rejecting them. Kept keys are reported as warnings by Validate.
func WithAllowUnknownOptions(allow bool) Option {
	return func(g *Graph) { g.allowUnknownOptions = allow }
}

// WithMaxPasses limits the number of passes. Zero means no limit.
func WithMaxPasses(n int) Option {
	return func(g *Graph) { g.maxPasses = n }
}

// New creates an empty graph whose pass kinds are resolved through registry.
func New(name string, registry pass.Registry, opts ...Option) *Graph {
	g := &Graph{
		name:     name,
		registry: registry,
		log:      logger.GetGlobalLogger(),
		nodes:    make(map[string]*Node),
		incoming: make(map[pass.PortID]pass.PortID),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.WithComponent("graph").WithFields(map[string]interface{}{logger.FieldGraph: name})
	return g
}

// Name returns the graph name.
func (g *Graph) Name() string { return g.name }

// Registry returns the registry the graph resolves pass kinds through.
func (g *Graph) Registry() pass.Registry { return g.registry }

// Frozen reports whether the graph has been handed off.
func (g *Graph) Frozen() bool { return g.frozen }

// Freeze makes the graph read-only. It cannot be undone.
func (g *Graph) Freeze() {
	if !g.frozen {
		g.frozen = true
		g.log.Debug("graph frozen", logger.Fields("passes", len(g.order), "edges", len(g.edges)))
	}
}

// AddPass adds a pass of the given kind. The config is checked against the
// kind's option schema and stored with defaults filled in.
func (g *Graph) AddPass(name, kind string, cfg pass.Config) (*Node, error) {
	const op = "add_pass"
	fields := logger.Fields(logger.FieldPass, name, logger.FieldKind, kind)

	if err := g.checkMutable(); err != nil {
		return nil, g.reject(op, err, fields)
	}
	if name == "" || strings.Contains(name, ".") {
		return nil, g.reject(op, errors.InvalidInput("name", "pass names must be non-empty and must not contain '.'").
			WithDetail("pass", name), fields)
	}
	if _, exists := g.nodes[name]; exists {
		return nil, g.reject(op, errors.DuplicateName(name), fields)
	}

	desc, err := g.registry.Describe(kind)
	if err != nil {
		if !errors.IsAppError(err) {
			err = errors.UnknownKind(kind).WithCause(err)
		}
		return nil, g.reject(op, err, fields)
	}

	if g.maxPasses > 0 && len(g.order) >= g.maxPasses {
		return nil, g.reject(op, errors.LimitExceeded("pass", g.maxPasses), fields)
	}

	resolved, unknown, err := pass.ResolveConfig(desc, cfg, g.allowUnknownOptions)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			appErr.WithDetail("pass", name)
		}
		return nil, g.reject(op, err, fields)
	}
	for _, key := range unknown {
		g.log.Warn("unknown pass option kept", logger.Fields(
			logger.FieldPass, name, logger.FieldKind, kind, "option", key))
	}

	node := &Node{
		Name:           name,
		Kind:           desc.Kind,
		Config:         resolved,
		Inputs:         desc.Inputs,
		Outputs:        desc.Outputs,
		ScratchOnly:    desc.ScratchOnly,
		unknownOptions: unknown,
	}
	g.nodes[name] = node
	g.order = append(g.order, name)

	g.log.Debug("pass added", fields)
	return node.clone(), nil
}

// RemovePass removes a pass together with every edge that touches it and
// every marked output it owns.
func (g *Graph) RemovePass(name string) error {
	const op = "remove_pass"
	fields := logger.Fields(logger.FieldPass, name)

	if err := g.checkMutable(); err != nil {
		return g.reject(op, err, fields)
	}
	if _, ok := g.nodes[name]; !ok {
		return g.reject(op, errors.NotFound("pass", name), fields)
	}

	edges := g.edges[:0:0]
	for _, e := range g.edges {
		if e.From.Pass == name || e.To.Pass == name {
			delete(g.incoming, e.To)
			continue
		}
		edges = append(edges, e)
	}
	g.edges = edges

	outputs := g.outputs[:0:0]
	for _, p := range g.outputs {
		if p.Pass != name {
			outputs = append(outputs, p)
		}
	}
	g.outputs = outputs

	delete(g.nodes, name)
	for i, n := range g.order {
		if n == name {
			g.order = append(g.order[:i:i], g.order[i+1:]...)
			break
		}
	}

	g.log.Debug("pass removed", fields)
	return nil
}

// AddEdge connects the output port from to the input port to. An input accepts
// at most one edge; a second one fails with FAN_IN_CONFLICT and the existing
// edge must be removed first.
func (g *Graph) AddEdge(from, to pass.PortID) error {
	const op = "add_edge"
	fields := logger.Fields(logger.FieldFrom, from.String(), logger.FieldTo, to.String())

	if err := g.checkMutable(); err != nil {
		return g.reject(op, err, fields)
	}
	if _, err := g.resolvePort(from, pass.Output); err != nil {
		return g.reject(op, err.WithDetail("end", "from"), fields)
	}
	if _, err := g.resolvePort(to, pass.Input); err != nil {
		return g.reject(op, err.WithDetail("end", "to"), fields)
	}
	if existing, ok := g.incoming[to]; ok {
		return g.reject(op, errors.FanInConflict(to.String(), existing.String()), fields)
	}

	g.edges = append(g.edges, Edge{From: from, To: to})
	g.incoming[to] = from

	g.log.Debug("edge added", fields)
	return nil
}

// Connect is AddEdge over the "Pass.port" text form.
func (g *Graph) Connect(from, to string) error {
	src, err := pass.ParsePortID(from)
	if err != nil {
		return g.reject("add_edge", err, logger.Fields(logger.FieldFrom, from, logger.FieldTo, to))
	}
	dst, err := pass.ParsePortID(to)
	if err != nil {
		return g.reject("add_edge", err, logger.Fields(logger.FieldFrom, from, logger.FieldTo, to))
	}
	return g.AddEdge(src, dst)
}

// RemoveEdge removes the edge from -> to. Removing an absent edge is a no-op.
func (g *Graph) RemoveEdge(from, to pass.PortID) error {
	if err := g.checkMutable(); err != nil {
		return g.reject("remove_edge", err, logger.Fields(logger.FieldFrom, from.String(), logger.FieldTo, to.String()))
	}
	for i, e := range g.edges {
		if e.From == from && e.To == to {
			g.edges = append(g.edges[:i:i], g.edges[i+1:]...)
			delete(g.incoming, to)
			g.log.Debug("edge removed", logger.Fields(logger.FieldFrom, from.String(), logger.FieldTo, to.String()))
			return nil
		}
	}
	return nil
}

// MarkOutput marks an output port as a graph result. Marking the same port
// twice has no further effect.
func (g *Graph) MarkOutput(port pass.PortID) error {
	const op = "mark_output"
	fields := logger.Fields(logger.FieldPort, port.String())

	if err := g.checkMutable(); err != nil {
		return g.reject(op, err, fields)
	}
	node, err := g.resolvePort(port, pass.Output)
	if err != nil {
		return g.reject(op, err, fields)
	}
	if node.ScratchOnly {
		return g.reject(op, errors.NotMarkable(port.String(), node.Kind), fields)
	}
	for _, p := range g.outputs {
		if p == port {
			return nil
		}
	}
	g.outputs = append(g.outputs, port)

	g.log.Debug("output marked", fields)
	return nil
}

// UnmarkOutput removes port from the marked outputs if present.
func (g *Graph) UnmarkOutput(port pass.PortID) error {
	if err := g.checkMutable(); err != nil {
		return g.reject("unmark_output", err, logger.Fields(logger.FieldPort, port.String()))
	}
	for i, p := range g.outputs {
		if p == port {
			g.outputs = append(g.outputs[:i:i], g.outputs[i+1:]...)
			g.log.Debug("output unmarked", logger.Fields(logger.FieldPort, port.String()))
			return nil
		}
	}
	return nil
}

// Node returns a copy of the named pass.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	if !ok {
		return nil, false
	}
	return n.clone(), true
}

// Nodes returns copies of all passes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.nodes[name].clone())
	}
	return out
}

// Edges returns the edges in insertion order.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// MarkedOutputs returns the marked outputs in marking order.
func (g *Graph) MarkedOutputs() []pass.PortID {
	return append([]pass.PortID(nil), g.outputs...)
}

// Incoming returns the output port feeding the input port to, if any.
func (g *Graph) Incoming(to pass.PortID) (pass.PortID, bool) {
	from, ok := g.incoming[to]
	return from, ok
}

// Validate runs every graph check and returns the diagnostics.
func (g *Graph) Validate() Report {
	return Validate(g)
}

func (g *Graph) checkMutable() *errors.AppError {
	if g.frozen {
		return errors.GraphFrozen(g.name)
	}
	return nil
}

// resolvePort finds the node owning id and checks that the port exists with
// the wanted direction.
func (g *Graph) resolvePort(id pass.PortID, dir pass.Direction) (*Node, *errors.AppError) {
	node, ok := g.nodes[id.Pass]
	if !ok {
		return nil, errors.UnknownPort(id.String(), fmt.Sprintf("no pass named %q", id.Pass))
	}

	want, other := node.Outputs, node.Inputs
	if dir == pass.Input {
		want, other = node.Inputs, node.Outputs
	}
	if _, ok := findPort(want, id.Port); ok {
		return node, nil
	}
	if _, ok := findPort(other, id.Port); ok {
		return nil, errors.UnknownPort(id.String(), fmt.Sprintf("port is not an %s", dir))
	}
	return nil, errors.UnknownPort(id.String(), fmt.Sprintf("%s pass has no %s named %q", node.Kind, dir, id.Port))
}

// reject logs a refused mutation at debug level and returns err unchanged.
func (g *Graph) reject(op string, err error, fields map[string]interface{}) error {
	fields[logger.FieldOperation] = op
	fields[logger.FieldCode] = string(errors.CodeOf(err))
	g.log.Debug("graph mutation rejected", logger.MergeWithError(fields, err))
	return err
}
