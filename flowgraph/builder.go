package flowgraph

import (
	"fmt"

	"github.com/c360/flowbridge/errors"
	"github.com/c360/flowbridge/ir"
)

// Build assembles a connected FlowGraph from normalized component specs and
// any explicit sequence flows.
//
// Explicit flows are applied first. Any component then lacking an outgoing
// edge (end events excepted) is connected to the nearest later component in
// declared order that lacks an incoming edge. Ties are broken by the lowest
// declared order, so the closure is deterministic and reproducible for
// identical input. The resulting graph is validated before being returned.
func Build(flowID, name string, specs []ir.ComponentSpec, flows []ir.SequenceFlow) (*FlowGraph, error) {
	if len(specs) == 0 {
		return nil, errors.WrapInvalid(
			errors.ErrEmptyFlow, "flowgraph", "Build", "check component list")
	}

	g := New(flowID, name)
	for _, spec := range specs {
		if err := g.AddComponent(spec); err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%v: %w", err, errors.ErrSchemaValidation),
				"flowgraph", "Build", "add component")
		}
	}
	for _, flow := range flows {
		if err := g.AddSequenceFlow(flow); err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%v: %w", err, errors.ErrSchemaValidation),
				"flowgraph", "Build", "add explicit flow")
		}
	}

	g.closePlaceholderFlows()

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// closePlaceholderFlows resolves connections the upstream analysis left
// unspecified. Components are visited in declared order; a component without
// an outgoing edge is connected to the first later component without an
// incoming edge. Start events never receive a closure edge and end events
// never emit one.
func (g *FlowGraph) closePlaceholderFlows() {
	ordered := g.Components() // already sorted by declared order upstream

	incoming := g.incomingCounts()
	outgoing := g.outgoingCounts()

	for i, source := range ordered {
		if outgoing[source.ID] > 0 || source.Kind == ir.KindEndEvent {
			continue
		}

		for j := i + 1; j < len(ordered); j++ {
			target := ordered[j]
			if incoming[target.ID] > 0 || target.Kind == ir.KindStartEvent {
				continue
			}

			flow := ir.SequenceFlow{
				ID:        fmt.Sprintf("SequenceFlow_%s_%s", source.ID, target.ID),
				SourceRef: source.ID,
				TargetRef: target.ID,
			}
			// Endpoints are known-good here, AddSequenceFlow cannot fail.
			_ = g.AddSequenceFlow(flow)
			outgoing[source.ID]++
			incoming[target.ID]++
			break
		}
	}
}
