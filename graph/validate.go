package graph

import (
	"github.com/kbukum/rendergraph/errors"
	"github.com/kbukum/rendergraph/pass"
)

// Validate checks g and returns every problem found. It never mutates the
// graph. Checks run in a fixed order:
//
//  1. each edge joins compatible resource kinds (TYPE_MISMATCH)
//  2. each required input has an incoming edge (UNCONNECTED_INPUT)
//  3. the pass graph induced by edges is acyclic (CYCLE, once per back edge)
//  4. at least one output is marked (NO_OUTPUT)
//  5. every pass feeds some marked output (UNREACHABLE_NODE warning)
//  6. unknown options kept in lenient mode (UNKNOWN_OPTION warning)
func Validate(g *Graph) Report {
	v := &validator{g: g, report: Report{Graph: g.name}}
	v.checkTypes()
	v.checkRequiredInputs()
	v.checkCycles()
	v.checkOutputs()
	v.checkReachability()
	v.checkUnknownOptions()
	return v.report
}

type validator struct {
	g      *Graph
	report Report
}

func (v *validator) checkTypes() {
	for _, e := range v.g.edges {
		src, _ := v.g.nodes[e.From.Pass].Output(e.From.Port)
		dst, _ := v.g.nodes[e.To.Pass].Input(e.To.Port)
		if src.Kind == dst.Kind || v.g.registry.Compatible(src.Kind, dst.Kind) {
			continue
		}
		v.report.addError(errors.TypeMismatch(e.From.String(), e.To.String(), string(src.Kind), string(dst.Kind)))
	}
}

func (v *validator) checkRequiredInputs() {
	for _, name := range v.g.order {
		for _, in := range v.g.nodes[name].Inputs {
			if !in.Required {
				continue
			}
			id := pass.Port(name, in.Name)
			if _, ok := v.g.incoming[id]; !ok {
				v.report.addError(errors.UnconnectedInput(id.String()).WithDetail("pass", name))
			}
		}
	}
}

// successors returns the pass-level adjacency induced by edges. Parallel edges
// between the same two passes collapse into one.
func (v *validator) successors() map[string][]string {
	succ := make(map[string][]string, len(v.g.order))
	seen := make(map[[2]string]bool, len(v.g.edges))
	for _, e := range v.g.edges {
		key := [2]string{e.From.Pass, e.To.Pass}
		if seen[key] {
			continue
		}
		seen[key] = true
		succ[e.From.Pass] = append(succ[e.From.Pass], e.To.Pass)
	}
	return succ
}

const (
	white = iota
	grey
	black
)

// checkCycles walks passes depth first with three-colour marking. Every edge
// into a grey pass closes a cycle, reported with the passes on the current path
// from that pass onward.
func (v *validator) checkCycles() {
	succ := v.successors()
	color := make(map[string]int, len(v.g.order))
	var path []string

	var visit func(name string)
	visit = func(name string) {
		color[name] = grey
		path = append(path, name)
		for _, next := range succ[name] {
			switch color[next] {
			case white:
				visit(next)
			case grey:
				start := len(path) - 1
				for path[start] != next {
					start--
				}
				cycle := append([]string(nil), path[start:]...)
				v.report.addError(errors.Cycle(cycle))
			}
		}
		path = path[:len(path)-1]
		color[name] = black
	}

	for _, name := range v.g.order {
		if color[name] == white {
			visit(name)
		}
	}
}

func (v *validator) checkOutputs() {
	if len(v.g.outputs) == 0 {
		v.report.addError(errors.NoOutput(v.g.name))
	}
}

// checkReachability walks edges backwards from the passes owning marked
// outputs. Passes never reached do not contribute to any result.
func (v *validator) checkReachability() {
	if len(v.g.outputs) == 0 {
		return
	}

	pred := make(map[string][]string, len(v.g.order))
	for from, tos := range v.successors() {
		for _, to := range tos {
			pred[to] = append(pred[to], from)
		}
	}

	live := make(map[string]bool, len(v.g.order))
	queue := make([]string, 0, len(v.g.outputs))
	for _, p := range v.g.outputs {
		if !live[p.Pass] {
			live[p.Pass] = true
			queue = append(queue, p.Pass)
		}
	}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, p := range pred[name] {
			if !live[p] {
				live[p] = true
				queue = append(queue, p)
			}
		}
	}

	for _, name := range v.g.order {
		if !live[name] {
			v.report.addWarning(errors.UnreachableNode(name))
		}
	}
}

func (v *validator) checkUnknownOptions() {
	for _, name := range v.g.order {
		node := v.g.nodes[name]
		for _, key := range node.unknownOptions {
			v.report.addWarning(errors.UnknownOption(node.Kind, key).WithDetail("pass", name))
		}
	}
}
