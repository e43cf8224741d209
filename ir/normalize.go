package ir

import (
	"fmt"
	"sort"
	"strings"

	"github.com/c360/flowbridge/errors"
	"github.com/c360/flowbridge/template"
)

// Normalizer coerces raw IR entries into canonical component specs using the
// process-wide template catalog
type Normalizer struct {
	catalog *template.Catalog
}

// NewNormalizer creates a normalizer backed by the given catalog
func NewNormalizer(catalog *template.Catalog) *Normalizer {
	return &Normalizer{catalog: catalog}
}

// Normalize validates and coerces the document's components and explicit
// flows. Components are returned sorted by declared order (input position
// breaks ties). Entries whose type cannot be resolved against the catalog
// fail with ErrUnsupportedComponentKind; entries missing a required config
// key for their kind fail with ErrSchemaValidation.
func (n *Normalizer) Normalize(doc *Document) ([]ComponentSpec, []SequenceFlow, error) {
	if doc == nil || len(doc.Components) == 0 {
		return nil, nil, errors.WrapInvalid(
			errors.ErrEmptyFlow, "ir", "Normalize", "check document")
	}

	specs := make([]ComponentSpec, 0, len(doc.Components))
	seen := make(map[string]bool, len(doc.Components))

	for i, raw := range doc.Components {
		if strings.TrimSpace(raw.ID) == "" {
			return nil, nil, errors.WrapInvalid(
				fmt.Errorf("component at index %d has empty id: %w", i, errors.ErrSchemaValidation),
				"ir", "Normalize", "validate component id")
		}
		if seen[raw.ID] {
			return nil, nil, errors.WrapInvalid(
				fmt.Errorf("duplicate component id %q: %w", raw.ID, errors.ErrSchemaValidation),
				"ir", "Normalize", "validate component id")
		}
		seen[raw.ID] = true

		spec, err := n.normalizeComponent(i, raw)
		if err != nil {
			return nil, nil, err
		}
		specs = append(specs, spec)
	}

	// Stable sort: declared order first, input position breaks ties.
	sort.SliceStable(specs, func(a, b int) bool {
		return specs[a].DeclaredOrder < specs[b].DeclaredOrder
	})

	flows, err := n.normalizeFlows(doc.Flows, seen)
	if err != nil {
		return nil, nil, err
	}

	return specs, flows, nil
}

func (n *Normalizer) normalizeComponent(index int, raw RawComponent) (ComponentSpec, error) {
	kind, ok := n.catalog.Resolve(raw.Type)
	if !ok {
		return ComponentSpec{}, errors.WrapInvalid(
			fmt.Errorf("component %q has type %q: %w",
				raw.ID, raw.Type, errors.ErrUnsupportedComponentKind),
			"ir", "Normalize", "resolve component kind")
	}

	entry, ok := n.catalog.Entry(kind)
	if !ok {
		// Resolve and Entry are built from the same table, so this is a
		// catalog programming error.
		return ComponentSpec{}, errors.WrapFatal(
			fmt.Errorf("kind %q resolved but has no catalog entry", kind),
			"ir", "Normalize", "lookup catalog entry")
	}

	config := entry.ApplyDefaults(raw.Config)
	if missing := entry.MissingConfig(config); len(missing) > 0 {
		return ComponentSpec{}, errors.WrapInvalid(
			fmt.Errorf("component %q of kind %s is missing required config %v: %w",
				raw.ID, kind, missing, errors.ErrSchemaValidation),
			"ir", "Normalize", "validate required config")
	}

	order := index
	if raw.Order != nil {
		order = *raw.Order
	}

	name := raw.Name
	if name == "" {
		name = entry.DisplayName
	}

	return ComponentSpec{
		ID:            raw.ID,
		Kind:          Kind(kind),
		Name:          name,
		Config:        config,
		DeclaredOrder: order,
		ActivityType:  entry.ActivityType,
		Boundary:      entry.AdapterBoundary,
		Role:          entry.ParticipantRole,
	}, nil
}

func (n *Normalizer) normalizeFlows(raw []RawFlow, ids map[string]bool) ([]SequenceFlow, error) {
	flows := make([]SequenceFlow, 0, len(raw))
	for i, rf := range raw {
		if rf.Source == "" || rf.Target == "" {
			return nil, errors.WrapInvalid(
				fmt.Errorf("flow at index %d has empty endpoint: %w", i, errors.ErrSchemaValidation),
				"ir", "Normalize", "validate flow endpoints")
		}
		if rf.Source == rf.Target {
			return nil, errors.WrapInvalid(
				fmt.Errorf("flow at index %d is a self-loop on %q: %w", i, rf.Source, errors.ErrSchemaValidation),
				"ir", "Normalize", "validate flow endpoints")
		}
		if !ids[rf.Source] || !ids[rf.Target] {
			return nil, errors.WrapInvalid(
				fmt.Errorf("flow %s->%s references unknown component: %w",
					rf.Source, rf.Target, errors.ErrSchemaValidation),
				"ir", "Normalize", "resolve flow endpoints")
		}

		id := rf.ID
		if id == "" {
			id = fmt.Sprintf("SequenceFlow_%s_%s", rf.Source, rf.Target)
		}
		flows = append(flows, SequenceFlow{ID: id, SourceRef: rf.Source, TargetRef: rf.Target})
	}
	return flows, nil
}
