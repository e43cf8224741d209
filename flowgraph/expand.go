package flowgraph

import (
	"fmt"

	"github.com/c360/flowbridge/errors"
	"github.com/c360/flowbridge/template"
)

// Triad id derivation. Ids are pure functions of the originating component
// id, so re-running expansion is idempotent and reference-stable.
func participantID(componentID string) string {
	return "Participant_" + componentID
}

func messageFlowID(componentID string) string {
	return "MessageFlow_" + componentID
}

// ExpandAdapters externalizes every adapter boundary component into the
// triad the target format requires: the component itself stays in the
// process as a service task (preserving sequence-flow references), a new
// participant is added at collaboration scope, and a message flow binds the
// two. Direction follows the participant role: sender participants send into
// the process, receiver participants are sent to.
//
// Expansion is idempotent: derived ids are deterministic and existing triad
// artifacts are never duplicated.
func (g *FlowGraph) ExpandAdapters(catalog *template.Catalog) error {
	existing := make(map[string]bool, len(g.participants))
	for _, p := range g.participants {
		existing[p.ID] = true
	}

	for _, spec := range g.components {
		if !spec.Boundary {
			continue
		}

		pid := participantID(spec.ID)
		if existing[pid] {
			continue
		}

		entry, ok := catalog.Entry(string(spec.Kind))
		if !ok {
			return errors.WrapInvalid(
				fmt.Errorf("adapter %s has kind %s with no catalog entry: %w",
					spec.ID, spec.Kind, errors.ErrSchemaValidation),
				"flowgraph", "ExpandAdapters", "lookup catalog entry")
		}
		if missing := entry.MissingConfig(spec.Config); len(missing) > 0 {
			return errors.WrapInvalid(
				fmt.Errorf("adapter %s is missing config %v required for participant attributes: %w",
					spec.ID, missing, errors.ErrSchemaValidation),
				"flowgraph", "ExpandAdapters", "check participant config")
		}

		participant := Participant{
			ID:               pid,
			Name:             spec.Name,
			Role:             spec.Role,
			BoundComponentID: spec.ID,
			Endpoint:         stringConfig(spec.Config, "address"),
			Protocol:         stringConfig(spec.Config, "protocol"),
		}

		flow := MessageFlow{
			ID:   messageFlowID(spec.ID),
			Name: spec.Name,
		}
		if spec.Role == "Sender" {
			flow.SourceRef = pid
			flow.TargetRef = spec.ID
		} else {
			flow.SourceRef = spec.ID
			flow.TargetRef = pid
		}

		g.participants = append(g.participants, participant)
		g.messageFlows = append(g.messageFlows, flow)
		existing[pid] = true
	}

	return nil
}

func stringConfig(config map[string]any, key string) string {
	if v, ok := config[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return ""
}
