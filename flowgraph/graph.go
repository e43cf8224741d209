package flowgraph

import (
	"fmt"

	"github.com/c360/flowbridge/ir"
)

// Participant represents an external system at collaboration scope. Created
// only by triad expansion, never by the IR directly.
type Participant struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Role             string `json:"role"` // Sender or Receiver
	BoundComponentID string `json:"bound_component_id"`
	Endpoint         string `json:"endpoint,omitempty"`
	Protocol         string `json:"protocol,omitempty"`
}

// MessageFlow connects a process-internal service task to a collaboration
// participant. Exactly one endpoint is always a participant.
type MessageFlow struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	SourceRef string `json:"source_ref"`
	TargetRef string `json:"target_ref"`
}

// FlowGraph owns the full set of components, sequence flows, participants,
// and message flows for one generation job
type FlowGraph struct {
	FlowID string
	Name   string

	components    []ir.ComponentSpec
	byID          map[string]int
	sequenceFlows []ir.SequenceFlow
	participants  []Participant
	messageFlows  []MessageFlow
}

// New creates an empty flow graph for one job
func New(flowID, name string) *FlowGraph {
	return &FlowGraph{
		FlowID: flowID,
		Name:   name,
		byID:   make(map[string]int),
	}
}

// AddComponent adds a node to the graph
func (g *FlowGraph) AddComponent(spec ir.ComponentSpec) error {
	if spec.ID == "" {
		return fmt.Errorf("component id cannot be empty")
	}
	if _, exists := g.byID[spec.ID]; exists {
		return fmt.Errorf("component %s already exists in graph", spec.ID)
	}
	g.byID[spec.ID] = len(g.components)
	g.components = append(g.components, spec)
	return nil
}

// AddSequenceFlow adds a directed edge between two existing components
func (g *FlowGraph) AddSequenceFlow(flow ir.SequenceFlow) error {
	if flow.SourceRef == flow.TargetRef {
		return fmt.Errorf("sequence flow %s is a self-loop on %s", flow.ID, flow.SourceRef)
	}
	if _, ok := g.byID[flow.SourceRef]; !ok {
		return fmt.Errorf("sequence flow %s has dangling source %s", flow.ID, flow.SourceRef)
	}
	if _, ok := g.byID[flow.TargetRef]; !ok {
		return fmt.Errorf("sequence flow %s has dangling target %s", flow.ID, flow.TargetRef)
	}
	g.sequenceFlows = append(g.sequenceFlows, flow)
	return nil
}

// AddParticipant adds a collaboration participant. Generation jobs create
// participants through ExpandAdapters; this entry point exists for graphs
// rebuilt from emitted documents during round-trip validation.
func (g *FlowGraph) AddParticipant(p Participant) error {
	if p.ID == "" {
		return fmt.Errorf("participant id cannot be empty")
	}
	for _, existing := range g.participants {
		if existing.ID == p.ID {
			return fmt.Errorf("participant %s already exists in graph", p.ID)
		}
	}
	g.participants = append(g.participants, p)
	return nil
}

// AddMessageFlow adds a message flow. See AddParticipant for intended use.
func (g *FlowGraph) AddMessageFlow(f MessageFlow) error {
	if f.ID == "" {
		return fmt.Errorf("message flow id cannot be empty")
	}
	for _, existing := range g.messageFlows {
		if existing.ID == f.ID {
			return fmt.Errorf("message flow %s already exists in graph", f.ID)
		}
	}
	g.messageFlows = append(g.messageFlows, f)
	return nil
}

// Component returns the component with the given id
func (g *FlowGraph) Component(id string) (ir.ComponentSpec, bool) {
	idx, ok := g.byID[id]
	if !ok {
		return ir.ComponentSpec{}, false
	}
	return g.components[idx], true
}

// Components returns a copy of the components in insertion order
func (g *FlowGraph) Components() []ir.ComponentSpec {
	out := make([]ir.ComponentSpec, len(g.components))
	copy(out, g.components)
	return out
}

// SequenceFlows returns a copy of the sequence flows
func (g *FlowGraph) SequenceFlows() []ir.SequenceFlow {
	out := make([]ir.SequenceFlow, len(g.sequenceFlows))
	copy(out, g.sequenceFlows)
	return out
}

// Participants returns a copy of the collaboration participants
func (g *FlowGraph) Participants() []Participant {
	out := make([]Participant, len(g.participants))
	copy(out, g.participants)
	return out
}

// MessageFlows returns a copy of the message flows
func (g *FlowGraph) MessageFlows() []MessageFlow {
	out := make([]MessageFlow, len(g.messageFlows))
	copy(out, g.messageFlows)
	return out
}

// Outgoing returns the sequence flows leaving the given component
func (g *FlowGraph) Outgoing(id string) []ir.SequenceFlow {
	var out []ir.SequenceFlow
	for _, f := range g.sequenceFlows {
		if f.SourceRef == id {
			out = append(out, f)
		}
	}
	return out
}

// Incoming returns the sequence flows entering the given component
func (g *FlowGraph) Incoming(id string) []ir.SequenceFlow {
	var out []ir.SequenceFlow
	for _, f := range g.sequenceFlows {
		if f.TargetRef == id {
			out = append(out, f)
		}
	}
	return out
}

// StartNode returns the unique component with no incoming sequence flow.
// Valid only after successful validation.
func (g *FlowGraph) StartNode() (ir.ComponentSpec, bool) {
	incoming := g.incomingCounts()
	for _, c := range g.components {
		if incoming[c.ID] == 0 {
			return c, true
		}
	}
	return ir.ComponentSpec{}, false
}

func (g *FlowGraph) incomingCounts() map[string]int {
	counts := make(map[string]int, len(g.components))
	for _, c := range g.components {
		counts[c.ID] = 0
	}
	for _, f := range g.sequenceFlows {
		counts[f.TargetRef]++
	}
	return counts
}

func (g *FlowGraph) outgoingCounts() map[string]int {
	counts := make(map[string]int, len(g.components))
	for _, c := range g.components {
		counts[c.ID] = 0
	}
	for _, f := range g.sequenceFlows {
		counts[f.SourceRef]++
	}
	return counts
}
