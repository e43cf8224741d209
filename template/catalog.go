package template

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360/flowbridge/errors"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// Entry describes one canonical component kind and how the pipeline treats it
type Entry struct {
	Kind            string            `yaml:"kind"`
	DisplayName     string            `yaml:"display_name"`
	Aliases         []string          `yaml:"aliases"`
	ActivityType    string            `yaml:"activity_type"`
	RequiredConfig  []string          `yaml:"required_config"`
	Defaults        map[string]string `yaml:"defaults"`
	AdapterBoundary bool              `yaml:"adapter_boundary"`
	ParticipantRole string            `yaml:"participant_role"`
	ScriptBody      string            `yaml:"script_body"`
	PromptHint      string            `yaml:"prompt_hint"`
}

// Catalog is the immutable template library. Safe for concurrent use once
// loaded.
type Catalog struct {
	entries map[string]Entry
	byAlias map[string]string // lowercased alias -> canonical kind
	kinds   []string          // canonical kinds in catalog order
}

// Load parses the embedded catalog. Call once at startup and share the
// result.
func Load() (*Catalog, error) {
	return Parse(embeddedCatalog)
}

// Parse builds a Catalog from raw YAML. Exposed for tests and for callers
// that override the embedded library.
func Parse(raw []byte) (*Catalog, error) {
	var doc struct {
		Components []Entry `yaml:"components"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.WrapFatal(err, "template", "Parse", "decode catalog yaml")
	}
	if len(doc.Components) == 0 {
		return nil, errors.WrapFatal(
			fmt.Errorf("catalog contains no components"),
			"template", "Parse", "validate catalog")
	}

	c := &Catalog{
		entries: make(map[string]Entry, len(doc.Components)),
		byAlias: make(map[string]string),
	}

	for i, entry := range doc.Components {
		if entry.Kind == "" {
			return nil, errors.WrapFatal(
				fmt.Errorf("component at index %d has empty kind", i),
				"template", "Parse", "validate catalog")
		}
		if _, exists := c.entries[entry.Kind]; exists {
			return nil, errors.WrapFatal(
				fmt.Errorf("duplicate kind %q", entry.Kind),
				"template", "Parse", "validate catalog")
		}
		if entry.AdapterBoundary && entry.ParticipantRole == "" {
			return nil, errors.WrapFatal(
				fmt.Errorf("adapter kind %q missing participant role", entry.Kind),
				"template", "Parse", "validate catalog")
		}

		c.entries[entry.Kind] = entry
		c.kinds = append(c.kinds, entry.Kind)

		// The canonical kind itself always resolves, case-insensitively.
		c.byAlias[strings.ToLower(entry.Kind)] = entry.Kind
		for _, alias := range entry.Aliases {
			key := strings.ToLower(strings.TrimSpace(alias))
			if key == "" {
				continue
			}
			if existing, dup := c.byAlias[key]; dup && existing != entry.Kind {
				return nil, errors.WrapFatal(
					fmt.Errorf("alias %q maps to both %q and %q", alias, existing, entry.Kind),
					"template", "Parse", "validate catalog")
			}
			c.byAlias[key] = entry.Kind
		}
	}

	return c, nil
}

// Resolve maps a free-text component type to its canonical kind
func (c *Catalog) Resolve(typeName string) (string, bool) {
	kind, ok := c.byAlias[strings.ToLower(strings.TrimSpace(typeName))]
	return kind, ok
}

// Entry returns the catalog entry for a canonical kind
func (c *Catalog) Entry(kind string) (Entry, bool) {
	entry, ok := c.entries[kind]
	return entry, ok
}

// Kinds returns the canonical kinds in catalog order
func (c *Catalog) Kinds() []string {
	out := make([]string, len(c.kinds))
	copy(out, c.kinds)
	return out
}

// ApplyDefaults returns config with the entry's defaults filled in for any
// missing keys. The input map is not mutated.
func (e Entry) ApplyDefaults(config map[string]any) map[string]any {
	merged := make(map[string]any, len(config)+len(e.Defaults))
	for k, v := range config {
		merged[k] = v
	}
	for k, v := range e.Defaults {
		if _, present := merged[k]; !present {
			merged[k] = v
		}
	}
	return merged
}

// MissingConfig returns the required keys absent from config, sorted for
// deterministic error messages.
func (e Entry) MissingConfig(config map[string]any) []string {
	var missing []string
	for _, key := range e.RequiredConfig {
		if _, present := config[key]; !present {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

// PromptVocabulary renders the catalog as a prompt fragment listing every
// kind the model is allowed to emit. Order follows the catalog so the prompt
// is stable across runs.
func (c *Catalog) PromptVocabulary() string {
	var b strings.Builder
	b.WriteString("Allowed component kinds:\n")
	for _, kind := range c.kinds {
		entry := c.entries[kind]
		b.WriteString("- ")
		b.WriteString(kind)
		if entry.PromptHint != "" {
			b.WriteString(": ")
			b.WriteString(entry.PromptHint)
		}
		b.WriteString("\n")
	}
	return b.String()
}
