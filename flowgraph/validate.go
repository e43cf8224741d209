package flowgraph

import (
	"fmt"

	"github.com/c360/flowbridge/errors"
	"github.com/c360/flowbridge/ir"
)

// Validate checks every structural invariant required before emission:
// exactly one start node (no incoming edge), at least one end node (no
// outgoing edge), full reachability from the start node, no dangling edge
// endpoints, and no cycles. Violations name the offending node or edge.
func (g *FlowGraph) Validate() error {
	if len(g.components) == 0 {
		return invariant("graph has no components")
	}

	incoming := g.incomingCounts()
	outgoing := g.outgoingCounts()

	for _, f := range g.sequenceFlows {
		if _, ok := g.byID[f.SourceRef]; !ok {
			return invariant("sequence flow %s has dangling source %s", f.ID, f.SourceRef)
		}
		if _, ok := g.byID[f.TargetRef]; !ok {
			return invariant("sequence flow %s has dangling target %s", f.ID, f.TargetRef)
		}
		if f.SourceRef == f.TargetRef {
			return invariant("sequence flow %s is a self-loop on %s", f.ID, f.SourceRef)
		}
	}

	var startID string
	starts := 0
	ends := 0
	for _, c := range g.components {
		if incoming[c.ID] == 0 {
			starts++
			startID = c.ID
		}
		if outgoing[c.ID] == 0 {
			ends++
		}

		// Event kinds carry extra positional constraints.
		if c.Kind == ir.KindStartEvent && incoming[c.ID] > 0 {
			return invariant("start event %s has incoming sequence flow", c.ID)
		}
		if c.Kind == ir.KindEndEvent && outgoing[c.ID] > 0 {
			return invariant("end event %s has outgoing sequence flow", c.ID)
		}
	}

	switch {
	case starts == 0:
		return invariant("no start node: every component has an incoming edge")
	case starts > 1:
		return invariant("found %d start nodes, expected exactly one", starts)
	case ends == 0:
		return invariant("no end node: every component has an outgoing edge")
	}

	if unreached := g.unreachableFrom(startID); len(unreached) > 0 {
		return invariant("component %s is not reachable from start node %s", unreached[0], startID)
	}

	if cycleNode := g.findCycle(); cycleNode != "" {
		return invariant("cycle detected through component %s", cycleNode)
	}

	return nil
}

func invariant(format string, args ...any) error {
	return errors.WrapInvalid(
		fmt.Errorf(format+": %w", append(args, errors.ErrSchemaValidation)...),
		"flowgraph", "Validate", "invariant check")
}

// unreachableFrom returns component ids not reachable from start, in
// insertion order for deterministic error messages
func (g *FlowGraph) unreachableFrom(startID string) []string {
	adj := make(map[string][]string, len(g.components))
	for _, f := range g.sequenceFlows {
		adj[f.SourceRef] = append(adj[f.SourceRef], f.TargetRef)
	}

	visited := make(map[string]bool, len(g.components))
	stack := []string{startID}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[node] {
			continue
		}
		visited[node] = true
		stack = append(stack, adj[node]...)
	}

	var unreached []string
	for _, c := range g.components {
		if !visited[c.ID] {
			unreached = append(unreached, c.ID)
		}
	}
	return unreached
}

// findCycle returns the id of a component on a directed cycle, or "" when
// the graph is acyclic. Kahn-style peeling keeps it allocation-light.
func (g *FlowGraph) findCycle() string {
	indegree := g.incomingCounts()
	adj := make(map[string][]string, len(g.components))
	for _, f := range g.sequenceFlows {
		adj[f.SourceRef] = append(adj[f.SourceRef], f.TargetRef)
	}

	var queue []string
	for _, c := range g.components {
		if indegree[c.ID] == 0 {
			queue = append(queue, c.ID)
		}
	}

	processed := 0
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		processed++
		for _, next := range adj[node] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if processed == len(g.components) {
		return ""
	}
	for _, c := range g.components {
		if indegree[c.ID] > 0 {
			return c.ID
		}
	}
	return ""
}
