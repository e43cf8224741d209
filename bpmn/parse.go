package bpmn

import (
	"encoding/xml"
	"fmt"

	"github.com/c360/flowbridge/flowgraph"
	"github.com/c360/flowbridge/ir"
)

// ParsedDocument is the namespace-agnostic view of an emitted flow document,
// used by the round-trip self-validation and by callers that need to inspect
// generated output.
type ParsedDocument struct {
	XMLName       xml.Name            `xml:"definitions"`
	Collaboration parsedCollaboration `xml:"collaboration"`
	Process       parsedProcess       `xml:"process"`
	Diagram       parsedDiagram       `xml:"BPMNDiagram"`
}

type parsedCollaboration struct {
	ID           string              `xml:"id,attr"`
	Participants []parsedParticipant `xml:"participant"`
	MessageFlows []parsedEdgeRef     `xml:"messageFlow"`
}

type parsedParticipant struct {
	ID         string `xml:"id,attr"`
	Name       string `xml:"name,attr"`
	IFLType    string `xml:"type,attr"`
	ProcessRef string `xml:"processRef,attr"`
}

type parsedProcess struct {
	ID            string          `xml:"id,attr"`
	Name          string          `xml:"name,attr"`
	StartEvents   []parsedNode    `xml:"startEvent"`
	EndEvents     []parsedNode    `xml:"endEvent"`
	ServiceTasks  []parsedNode    `xml:"serviceTask"`
	CallActivites []parsedNode    `xml:"callActivity"`
	Gateways      []parsedNode    `xml:"exclusiveGateway"`
	SequenceFlows []parsedEdgeRef `xml:"sequenceFlow"`
}

type parsedNode struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

type parsedEdgeRef struct {
	ID        string `xml:"id,attr"`
	Name      string `xml:"name,attr"`
	SourceRef string `xml:"sourceRef,attr"`
	TargetRef string `xml:"targetRef,attr"`
}

type parsedDiagram struct {
	Plane parsedPlane `xml:"BPMNPlane"`
}

type parsedPlane struct {
	BPMNElement string        `xml:"bpmnElement,attr"`
	Shapes      []parsedShape `xml:"BPMNShape"`
	Edges       []parsedShape `xml:"BPMNEdge"`
}

type parsedShape struct {
	ID          string `xml:"id,attr"`
	BPMNElement string `xml:"bpmnElement,attr"`
}

// Parse decodes an emitted flow document
func Parse(data []byte) (*ParsedDocument, error) {
	var doc ParsedDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Graph rebuilds a FlowGraph from the parsed document and validates it.
// Kinds are recovered from element names where they matter structurally
// (events, gateways); tasks come back as generic activities.
func (d *ParsedDocument) Graph() (*flowgraph.FlowGraph, error) {
	g := flowgraph.New(d.Process.ID, d.Process.Name)

	addAll := func(nodes []parsedNode, kind ir.Kind) error {
		for _, n := range nodes {
			spec := ir.ComponentSpec{ID: n.ID, Kind: kind, Name: n.Name}
			if err := g.AddComponent(spec); err != nil {
				return err
			}
		}
		return nil
	}

	if err := addAll(d.Process.StartEvents, ir.KindStartEvent); err != nil {
		return nil, err
	}
	if err := addAll(d.Process.EndEvents, ir.KindEndEvent); err != nil {
		return nil, err
	}
	if err := addAll(d.Process.ServiceTasks, ir.KindPassThrough); err != nil {
		return nil, err
	}
	if err := addAll(d.Process.CallActivites, ir.KindPassThrough); err != nil {
		return nil, err
	}
	if err := addAll(d.Process.Gateways, ir.KindRouter); err != nil {
		return nil, err
	}

	for _, f := range d.Process.SequenceFlows {
		err := g.AddSequenceFlow(ir.SequenceFlow{ID: f.ID, SourceRef: f.SourceRef, TargetRef: f.TargetRef})
		if err != nil {
			return nil, err
		}
	}

	for _, p := range d.Collaboration.Participants {
		if p.ProcessRef != "" {
			continue // the integration process participant is not an external system
		}
		role := "Receiver"
		if p.IFLType == "EndpointSender" {
			role = "Sender"
		}
		err := g.AddParticipant(flowgraph.Participant{ID: p.ID, Name: p.Name, Role: role})
		if err != nil {
			return nil, err
		}
	}
	for _, f := range d.Collaboration.MessageFlows {
		err := g.AddMessageFlow(flowgraph.MessageFlow{
			ID: f.ID, Name: f.Name, SourceRef: f.SourceRef, TargetRef: f.TargetRef,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// CheckDiagramRefs verifies that every id referenced by the diagram section
// exists in the process or collaboration sections
func (d *ParsedDocument) CheckDiagramRefs() error {
	known := make(map[string]bool)
	collect := func(nodes []parsedNode) {
		for _, n := range nodes {
			known[n.ID] = true
		}
	}
	collect(d.Process.StartEvents)
	collect(d.Process.EndEvents)
	collect(d.Process.ServiceTasks)
	collect(d.Process.CallActivites)
	collect(d.Process.Gateways)
	for _, f := range d.Process.SequenceFlows {
		known[f.ID] = true
	}
	for _, p := range d.Collaboration.Participants {
		known[p.ID] = true
	}
	for _, f := range d.Collaboration.MessageFlows {
		known[f.ID] = true
	}

	if d.Diagram.Plane.BPMNElement != d.Collaboration.ID {
		return fmt.Errorf("diagram plane references %q, want collaboration %q",
			d.Diagram.Plane.BPMNElement, d.Collaboration.ID)
	}
	for _, s := range d.Diagram.Plane.Shapes {
		if !known[s.BPMNElement] {
			return fmt.Errorf("diagram shape %s references unknown element %q", s.ID, s.BPMNElement)
		}
	}
	for _, e := range d.Diagram.Plane.Edges {
		if !known[e.BPMNElement] {
			return fmt.Errorf("diagram edge %s references unknown element %q", e.ID, e.BPMNElement)
		}
	}
	return nil
}
