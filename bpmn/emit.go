package bpmn

import (
	"encoding/xml"
	"fmt"
	"sort"

	"github.com/c360/flowbridge/errors"
	"github.com/c360/flowbridge/flowgraph"
	"github.com/c360/flowbridge/ir"
	"github.com/c360/flowbridge/layout"
	"github.com/c360/flowbridge/template"
)

// Well-known ids inside the emitted document
const (
	collaborationID      = "Collaboration_1"
	processID            = "Process_1"
	processParticipantID = "Participant_Process"
	diagramID            = "BPMNDiagram_1"
	planeID              = "BPMNPlane_1"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// Emitter serializes flow graphs into target-flow documents. It is stateless
// apart from the shared read-only catalog and safe for concurrent use.
type Emitter struct {
	catalog *template.Catalog
}

// NewEmitter creates an emitter backed by the template catalog
func NewEmitter(catalog *template.Catalog) *Emitter {
	return &Emitter{catalog: catalog}
}

// Emit serializes the graph and layout into the flow document and runs the
// round-trip self-validation before returning the bytes
func (e *Emitter) Emit(g *flowgraph.FlowGraph, sheet *layout.Sheet) ([]byte, error) {
	doc := e.buildDocument(g, sheet)

	body, err := xml.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, errors.WrapFatal(err, "bpmn", "Emit", "marshal document")
	}
	out := append([]byte(xmlHeader), body...)
	out = append(out, '\n')

	if err := e.selfValidate(g, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Emitter) buildDocument(g *flowgraph.FlowGraph, sheet *layout.Sheet) *Definitions {
	doc := &Definitions{
		XMLNSBPMN2:  nsBPMN2,
		XMLNSBPMNDI: nsBPMNDI,
		XMLNSDC:     nsDC,
		XMLNSDI:     nsDI,
		XMLNSIFL:    nsIFL,
		ID:          "Definitions_1",
	}

	doc.Collaboration = Collaboration{
		ID:   collaborationID,
		Name: g.Name,
		Participants: []ParticipantElem{{
			ID:         processParticipantID,
			Name:       "Integration Process",
			IFLType:    "IntegrationProcess",
			ProcessRef: processID,
		}},
	}
	for _, p := range g.Participants() {
		doc.Collaboration.Participants = append(doc.Collaboration.Participants, ParticipantElem{
			ID:      p.ID,
			Name:    p.Name,
			IFLType: "Endpoint" + p.Role,
		})
	}
	for _, f := range g.MessageFlows() {
		elem := MessageFlowElem{
			ID:        f.ID,
			Name:      f.Name,
			SourceRef: f.SourceRef,
			TargetRef: f.TargetRef,
		}
		doc.Collaboration.MessageFlows = append(doc.Collaboration.MessageFlows, elem)
	}

	doc.Process = Process{ID: processID, Name: g.Name}
	for _, c := range g.Components() {
		node := FlowNodeElem{
			ID:        c.ID,
			Name:      c.Name,
			Extension: e.nodeExtension(c),
		}
		for _, f := range g.Incoming(c.ID) {
			node.Incoming = append(node.Incoming, f.ID)
		}
		for _, f := range g.Outgoing(c.ID) {
			node.Outgoing = append(node.Outgoing, f.ID)
		}

		switch {
		case c.Kind == ir.KindStartEvent:
			doc.Process.StartEvents = append(doc.Process.StartEvents, node)
		case c.Kind == ir.KindEndEvent:
			doc.Process.EndEvents = append(doc.Process.EndEvents, node)
		case c.Kind == ir.KindRouter:
			doc.Process.Gateways = append(doc.Process.Gateways, node)
		case c.Boundary:
			doc.Process.ServiceTasks = append(doc.Process.ServiceTasks, node)
		default:
			doc.Process.CallActivites = append(doc.Process.CallActivites, node)
		}
	}
	for _, f := range g.SequenceFlows() {
		doc.Process.SequenceFlows = append(doc.Process.SequenceFlows, SequenceFlowElem{
			ID:        f.ID,
			SourceRef: f.SourceRef,
			TargetRef: f.TargetRef,
		})
	}

	doc.Diagram = Diagram{
		ID:   diagramID,
		Name: g.Name,
		Plane: Plane{
			ID:          planeID,
			BPMNElement: collaborationID,
		},
	}
	for _, entry := range sheet.Entries() {
		if entry.Bounds != nil {
			doc.Diagram.Plane.Shapes = append(doc.Diagram.Plane.Shapes, ShapeElem{
				ID:          "BPMNShape_" + entry.TargetID,
				BPMNElement: entry.TargetID,
				Bounds: BoundsElem{
					X:      entry.Bounds.X,
					Y:      entry.Bounds.Y,
					Width:  entry.Bounds.Width,
					Height: entry.Bounds.Height,
				},
			})
			continue
		}
		edge := EdgeElem{
			ID:          "BPMNEdge_" + entry.TargetID,
			BPMNElement: entry.TargetID,
		}
		for _, wp := range entry.Waypoints {
			edge.Waypoints = append(edge.Waypoints, WaypointElem{X: wp.X, Y: wp.Y})
		}
		doc.Diagram.Plane.Edges = append(doc.Diagram.Plane.Edges, edge)
	}

	return doc
}

// nodeExtension renders a node's activity type and configuration as ifl
// properties, sorted by key so emission is reproducible
func (e *Emitter) nodeExtension(c ir.ComponentSpec) *Extension {
	props := []Property{{Key: "activityType", Value: c.ActivityType}}

	if entry, ok := e.catalog.Entry(string(c.Kind)); ok && entry.ScriptBody != "" {
		props = append(props, Property{Key: "script", Value: scriptFileName(c.ID)})
	}

	keys := make([]string, 0, len(c.Config))
	for k := range c.Config {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		props = append(props, Property{Key: k, Value: fmt.Sprintf("%v", c.Config[k])})
	}

	return &Extension{Properties: props}
}

// selfValidate re-parses the emitted document, rebuilds the graph from it,
// and re-checks the structural invariants plus id cross-references against
// the source graph
func (e *Emitter) selfValidate(g *flowgraph.FlowGraph, emitted []byte) error {
	parsed, err := Parse(emitted)
	if err != nil {
		return errors.WrapFatal(
			fmt.Errorf("emitted document does not re-parse: %v: %w", err, errors.ErrSchemaValidation),
			"bpmn", "Emit", "round-trip parse")
	}

	rebuilt, err := parsed.Graph()
	if err != nil {
		return errors.WrapFatal(
			fmt.Errorf("rebuilt graph invalid: %v: %w", err, errors.ErrSchemaValidation),
			"bpmn", "Emit", "round-trip validation")
	}

	if err := compareGraphs(g, rebuilt); err != nil {
		return errors.WrapFatal(
			fmt.Errorf("%v: %w", err, errors.ErrSchemaValidation),
			"bpmn", "Emit", "round-trip comparison")
	}

	if err := parsed.CheckDiagramRefs(); err != nil {
		return errors.WrapFatal(
			fmt.Errorf("%v: %w", err, errors.ErrSchemaValidation),
			"bpmn", "Emit", "diagram reference check")
	}
	return nil
}

func compareGraphs(want, got *flowgraph.FlowGraph) error {
	if err := compareIDs("component", componentIDs(want), componentIDs(got)); err != nil {
		return err
	}
	if err := compareIDs("sequence flow", sequenceFlowIDs(want), sequenceFlowIDs(got)); err != nil {
		return err
	}
	if err := compareIDs("participant", participantIDs(want), participantIDs(got)); err != nil {
		return err
	}
	return compareIDs("message flow", messageFlowIDs(want), messageFlowIDs(got))
}

func compareIDs(kind string, want, got []string) error {
	if len(want) != len(got) {
		return fmt.Errorf("%s count mismatch after round-trip: emitted %d, re-parsed %d",
			kind, len(want), len(got))
	}
	sort.Strings(want)
	sort.Strings(got)
	for i := range want {
		if want[i] != got[i] {
			return fmt.Errorf("%s id mismatch after round-trip: %q vs %q", kind, want[i], got[i])
		}
	}
	return nil
}

func componentIDs(g *flowgraph.FlowGraph) []string {
	var ids []string
	for _, c := range g.Components() {
		ids = append(ids, c.ID)
	}
	return ids
}

func sequenceFlowIDs(g *flowgraph.FlowGraph) []string {
	var ids []string
	for _, f := range g.SequenceFlows() {
		ids = append(ids, f.ID)
	}
	return ids
}

func participantIDs(g *flowgraph.FlowGraph) []string {
	var ids []string
	for _, p := range g.Participants() {
		ids = append(ids, p.ID)
	}
	return ids
}

func messageFlowIDs(g *flowgraph.FlowGraph) []string {
	var ids []string
	for _, f := range g.MessageFlows() {
		ids = append(ids, f.ID)
	}
	return ids
}

func scriptFileName(componentID string) string {
	return componentID + ".groovy"
}
