package generator

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/c360/flowbridge/errors"
	"github.com/c360/flowbridge/ir"
)

var placeholderSafe = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// deterministicSpecs produces a component list that is guaranteed to pass
// graph validation and adapter expansion, with no external calls. Unknown
// kinds degrade to a generic pass-through step, missing required config is
// externalized as a {{placeholder}} parameter, and connections are left to
// the declared-order closure, yielding a sequential chain.
//
// The output is a pure function of the input document, so repeated runs over
// identical IR produce byte-identical bundles.
func (o *Orchestrator) deterministicSpecs(doc *ir.Document) ([]ir.ComponentSpec, error) {
	if len(doc.Components) == 0 {
		return nil, errors.WrapInvalid(
			errors.ErrEmptyFlow, "generator", "deterministicSpecs", "check component list")
	}

	specs := make([]ir.ComponentSpec, 0, len(doc.Components))
	seen := make(map[string]bool, len(doc.Components))

	for i, raw := range doc.Components {
		kind, ok := o.catalog.Resolve(raw.Type)
		if !ok {
			kind = string(ir.KindPassThrough)
		}
		entry, _ := o.catalog.Entry(kind)

		id := raw.ID
		if id == "" {
			id = fmt.Sprintf("Component_%d", i+1)
		}
		if seen[id] {
			id = fmt.Sprintf("%s_%d", id, i+1)
		}
		seen[id] = true

		name := raw.Name
		if name == "" {
			name = entry.DisplayName
		}

		config := entry.ApplyDefaults(raw.Config)
		for _, key := range entry.MissingConfig(config) {
			config[key] = fmt.Sprintf("{{%s_%s}}", placeholderSafe.ReplaceAllString(id, "_"), key)
		}

		specs = append(specs, ir.ComponentSpec{
			ID:            id,
			Kind:          ir.Kind(kind),
			Name:          name,
			Config:        config,
			DeclaredOrder: i + 1,
			ActivityType:  entry.ActivityType,
			Boundary:      entry.AdapterBoundary,
			Role:          entry.ParticipantRole,
		})
	}

	orderEvents(specs)
	o.demoteMisplacedEvents(specs)
	specs = o.ensureTerminalEvents(specs, seen)
	return specs, nil
}

// ensureTerminalEvents brackets the chain with a start and end event when the
// document supplies none of its own
func (o *Orchestrator) ensureTerminalEvents(specs []ir.ComponentSpec, seen map[string]bool) []ir.ComponentSpec {
	if specs[0].Kind != ir.KindStartEvent {
		specs = append([]ir.ComponentSpec{o.syntheticEvent(ir.KindStartEvent, "StartEvent_1", seen)}, specs...)
	}
	if specs[len(specs)-1].Kind != ir.KindEndEvent {
		specs = append(specs, o.syntheticEvent(ir.KindEndEvent, "EndEvent_1", seen))
	}
	for i := range specs {
		specs[i].DeclaredOrder = i + 1
	}
	return specs
}

func (o *Orchestrator) syntheticEvent(kind ir.Kind, id string, seen map[string]bool) ir.ComponentSpec {
	for n := 2; seen[id]; n++ {
		id = fmt.Sprintf("%s_%d", kind, n)
	}
	seen[id] = true

	entry, _ := o.catalog.Entry(string(kind))
	return ir.ComponentSpec{
		ID:           id,
		Kind:         kind,
		Name:         entry.DisplayName,
		Config:       entry.ApplyDefaults(nil),
		ActivityType: entry.ActivityType,
	}
}

// orderEvents stably moves start events to the front and end events to the
// back so the sequential closure yields a valid chain
func orderEvents(specs []ir.ComponentSpec) {
	sort.SliceStable(specs, func(i, j int) bool {
		return eventRank(specs[i].Kind) < eventRank(specs[j].Kind)
	})
	for i := range specs {
		specs[i].DeclaredOrder = i + 1
	}
}

func eventRank(kind ir.Kind) int {
	switch kind {
	case ir.KindStartEvent:
		return 0
	case ir.KindEndEvent:
		return 2
	default:
		return 1
	}
}

// demoteMisplacedEvents turns surplus start and end events into pass-through
// steps. A start event anywhere but the head would gain an incoming edge in
// the chain; an end event anywhere but the tail would need an outgoing one.
func (o *Orchestrator) demoteMisplacedEvents(specs []ir.ComponentSpec) {
	passThrough, _ := o.catalog.Entry(string(ir.KindPassThrough))
	for i := range specs {
		misplaced := (specs[i].Kind == ir.KindStartEvent && i != 0) ||
			(specs[i].Kind == ir.KindEndEvent && i != len(specs)-1)
		if !misplaced {
			continue
		}
		specs[i].Kind = ir.KindPassThrough
		specs[i].ActivityType = passThrough.ActivityType
		specs[i].Boundary = false
		specs[i].Role = ""
	}
}
