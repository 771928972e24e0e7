package engine

import (
	"fmt"
	"sort"

	"github.com/kbukum/rendergraph/errors"
	"github.com/kbukum/rendergraph/graph"
)

// BuildLevels uses Kahn's algorithm to group passes by dependency level.
// Passes within the same level do not depend on each other. Levels list
// passes in the order given, so the plan is deterministic.
// Returns an error if an edge names an unknown pass or a cycle is detected.
func BuildLevels(passes []string, edges []graph.Edge) ([][]string, error) {
	position := make(map[string]int, len(passes))
	inDegree := make(map[string]int, len(passes))
	for i, name := range passes {
		position[name] = i
		inDegree[name] = 0
	}

	dependents := make(map[string][]string) // from -> [to...]
	seen := make(map[[2]string]bool, len(edges))
	for _, e := range edges {
		from, to := e.From.Pass, e.To.Pass
		if _, ok := position[from]; !ok {
			return nil, errors.NotFound("pass", from).WithDetail("edge", e.String())
		}
		if _, ok := position[to]; !ok {
			return nil, errors.NotFound("pass", to).WithDetail("edge", e.String())
		}
		if seen[[2]string{from, to}] {
			continue
		}
		seen[[2]string{from, to}] = true
		inDegree[to]++
		dependents[from] = append(dependents[from], to)
	}

	var queue []string
	for _, name := range passes {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	var levels [][]string
	visited := 0

	for len(queue) > 0 {
		levels = append(levels, queue)
		visited += len(queue)

		var next []string
		for _, name := range queue {
			for _, dep := range dependents[name] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		sort.Slice(next, func(i, j int) bool { return position[next[i]] < position[next[j]] })
		queue = next
	}

	if visited != len(passes) {
		return nil, errors.New(errors.ErrCodeCycle,
			fmt.Sprintf("cycle detected, planned %d of %d passes", visited, len(passes)))
	}

	return levels, nil
}
