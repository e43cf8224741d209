package bpmn

import "encoding/xml"

// Namespace URIs for the emitted document
const (
	nsBPMN2  = "http://www.omg.org/spec/BPMN/20100524/MODEL"
	nsBPMNDI = "http://www.omg.org/spec/BPMN/20100524/DI"
	nsDC     = "http://www.omg.org/spec/DD/20100524/DC"
	nsDI     = "http://www.omg.org/spec/DD/20100524/DI"
	nsIFL    = "http:///com.sap.ifl.model/Ifl.xsd"
)

// Definitions is the document root
type Definitions struct {
	XMLName     xml.Name `xml:"bpmn2:definitions"`
	XMLNSBPMN2  string   `xml:"xmlns:bpmn2,attr"`
	XMLNSBPMNDI string   `xml:"xmlns:bpmndi,attr"`
	XMLNSDC     string   `xml:"xmlns:dc,attr"`
	XMLNSDI     string   `xml:"xmlns:di,attr"`
	XMLNSIFL    string   `xml:"xmlns:ifl,attr"`
	ID          string   `xml:"id,attr"`

	Collaboration Collaboration `xml:"bpmn2:collaboration"`
	Process       Process       `xml:"bpmn2:process"`
	Diagram       Diagram       `xml:"bpmndi:BPMNDiagram"`
}

// Collaboration holds participants and message flows
type Collaboration struct {
	ID           string            `xml:"id,attr"`
	Name         string            `xml:"name,attr"`
	Participants []ParticipantElem `xml:"bpmn2:participant"`
	MessageFlows []MessageFlowElem `xml:"bpmn2:messageFlow"`
}

// ParticipantElem is one collaboration participant. The integration process
// itself is modeled as a participant referencing the process element.
type ParticipantElem struct {
	ID         string `xml:"id,attr"`
	Name       string `xml:"name,attr"`
	IFLType    string `xml:"ifl:type,attr,omitempty"`
	ProcessRef string `xml:"processRef,attr,omitempty"`
}

// MessageFlowElem binds a service task to an external participant
type MessageFlowElem struct {
	ID        string     `xml:"id,attr"`
	Name      string     `xml:"name,attr,omitempty"`
	SourceRef string     `xml:"sourceRef,attr"`
	TargetRef string     `xml:"targetRef,attr"`
	Extension *Extension `xml:"bpmn2:extensionElements,omitempty"`
}

// Process holds the flow nodes and sequence flows
type Process struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`

	StartEvents   []FlowNodeElem     `xml:"bpmn2:startEvent"`
	EndEvents     []FlowNodeElem     `xml:"bpmn2:endEvent"`
	ServiceTasks  []FlowNodeElem     `xml:"bpmn2:serviceTask"`
	CallActivites []FlowNodeElem     `xml:"bpmn2:callActivity"`
	Gateways      []FlowNodeElem     `xml:"bpmn2:exclusiveGateway"`
	SequenceFlows []SequenceFlowElem `xml:"bpmn2:sequenceFlow"`
}

// FlowNodeElem is one process node regardless of element name
type FlowNodeElem struct {
	ID        string     `xml:"id,attr"`
	Name      string     `xml:"name,attr,omitempty"`
	Extension *Extension `xml:"bpmn2:extensionElements,omitempty"`
	Incoming  []string   `xml:"bpmn2:incoming"`
	Outgoing  []string   `xml:"bpmn2:outgoing"`
}

// SequenceFlowElem is an intra-process directed edge
type SequenceFlowElem struct {
	ID        string `xml:"id,attr"`
	SourceRef string `xml:"sourceRef,attr"`
	TargetRef string `xml:"targetRef,attr"`
}

// Extension carries the ifl property list for a node
type Extension struct {
	Properties []Property `xml:"ifl:property"`
}

// Property is one key/value pair in an extension element
type Property struct {
	Key   string `xml:"key"`
	Value string `xml:"value"`
}

// Diagram wraps the BPMN plane
type Diagram struct {
	ID    string `xml:"id,attr"`
	Name  string `xml:"name,attr"`
	Plane Plane  `xml:"bpmndi:BPMNPlane"`
}

// Plane holds the shapes and edges of the diagram
type Plane struct {
	ID          string      `xml:"id,attr"`
	BPMNElement string      `xml:"bpmnElement,attr"`
	Shapes      []ShapeElem `xml:"bpmndi:BPMNShape"`
	Edges       []EdgeElem  `xml:"bpmndi:BPMNEdge"`
}

// ShapeElem places one node or participant on the plane
type ShapeElem struct {
	ID          string     `xml:"id,attr"`
	BPMNElement string     `xml:"bpmnElement,attr"`
	Bounds      BoundsElem `xml:"dc:Bounds"`
}

// BoundsElem is the rectangle of a shape
type BoundsElem struct {
	X      float64 `xml:"x,attr"`
	Y      float64 `xml:"y,attr"`
	Width  float64 `xml:"width,attr"`
	Height float64 `xml:"height,attr"`
}

// EdgeElem routes one sequence or message flow on the plane
type EdgeElem struct {
	ID          string         `xml:"id,attr"`
	BPMNElement string         `xml:"bpmnElement,attr"`
	Waypoints   []WaypointElem `xml:"di:waypoint"`
}

// WaypointElem is one point of an edge
type WaypointElem struct {
	X float64 `xml:"x,attr"`
	Y float64 `xml:"y,attr"`
}
