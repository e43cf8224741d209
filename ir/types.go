package ir

import "encoding/json"

// Kind is the closed enum of canonical component kinds. Unrecognized kinds
// are a hard normalization error, never silently dropped.
type Kind string

// Canonical component kinds
const (
	KindStartEvent          Kind = "StartEvent"
	KindEndEvent            Kind = "EndEvent"
	KindSenderAdapter       Kind = "SenderAdapter"
	KindReceiverAdapter     Kind = "ReceiverAdapter"
	KindODataAdapter        Kind = "ODataAdapter"
	KindRouter              Kind = "Router"
	KindContentModifier     Kind = "ContentModifier"
	KindMapping             Kind = "Mapping"
	KindProcessCall         Kind = "ProcessCall"
	KindLogWriter           Kind = "LogWriter"
	KindExceptionSubprocess Kind = "ExceptionSubprocess"
	KindPassThrough         Kind = "PassThrough"
)

// ComponentSpec is one normalized component of a flow
type ComponentSpec struct {
	ID            string         `json:"id"`
	Kind          Kind           `json:"kind"`
	Name          string         `json:"name"`
	Config        map[string]any `json:"config,omitempty"`
	DeclaredOrder int            `json:"declared_order"`

	// Derived from the template catalog during normalization
	ActivityType string `json:"activity_type,omitempty"`
	Boundary     bool   `json:"boundary,omitempty"`
	Role         string `json:"role,omitempty"`
}

// SequenceFlow is an intra-process directed edge between two components
type SequenceFlow struct {
	ID        string `json:"id"`
	SourceRef string `json:"source_ref"`
	TargetRef string `json:"target_ref"`
}

// Document is the raw IR supplied by the upstream extraction collaborator
type Document struct {
	FlowID        string         `json:"flow_id"`
	Name          string         `json:"name,omitempty"`
	Description   string         `json:"description,omitempty"`
	Components    []RawComponent `json:"components"`
	Flows         []RawFlow      `json:"flows,omitempty"`
	Documentation string         `json:"documentation,omitempty"`
}

// RawComponent is one loosely typed component description from the IR
type RawComponent struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Name   string         `json:"name,omitempty"`
	Config map[string]any `json:"config,omitempty"`
	Order  *int           `json:"order,omitempty"`
}

// RawFlow is an explicit sequence flow from the IR. Flows the analysis step
// could not resolve are simply absent; the graph builder closes the gaps.
type RawFlow struct {
	ID     string `json:"id,omitempty"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// ParseDocument decodes a raw IR document from JSON
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
