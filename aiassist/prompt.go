package aiassist

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/c360/flowbridge/ir"
	"github.com/c360/flowbridge/template"
)

// structureSystemPrompt frames the structure proposal task. The vocabulary
// section is derived from the catalog so the model can only name kinds the
// emitter renders.
func structureSystemPrompt(catalog *template.Catalog) string {
	var b strings.Builder
	b.WriteString("You convert integration flow descriptions into a JSON structure proposal.\n")
	b.WriteString("Respond with a single JSON object and nothing else. Schema:\n")
	b.WriteString(`{"components":[{"id":"...","type":"...","name":"...","config":{},"order":1}],` +
		`"flows":[{"source":"...","target":"..."}]}` + "\n\n")
	b.WriteString(catalog.PromptVocabulary())
	b.WriteString("\nRules:\n")
	b.WriteString("- Every component type must be one of the allowed kinds.\n")
	b.WriteString("- Component ids must be unique and stable across responses.\n")
	b.WriteString("- Flows reference component ids; omit a flow rather than guess.\n")
	b.WriteString("- Assign order values reflecting execution sequence.\n")
	return b.String()
}

func structureUserPrompt(doc *ir.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Flow id: %s\n", doc.FlowID)
	if doc.Name != "" {
		fmt.Fprintf(&b, "Flow name: %s\n", doc.Name)
	}
	if doc.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", doc.Description)
	}
	if doc.Documentation != "" {
		fmt.Fprintf(&b, "Documentation:\n%s\n", doc.Documentation)
	}
	if len(doc.Components) > 0 {
		b.WriteString("\nExtracted components:\n")
		for _, c := range doc.Components {
			line, _ := json.Marshal(c)
			b.Write(line)
			b.WriteString("\n")
		}
	}
	if len(doc.Flows) > 0 {
		b.WriteString("\nExtracted flows:\n")
		for _, f := range doc.Flows {
			line, _ := json.Marshal(f)
			b.Write(line)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nPropose the complete structure.")
	return b.String()
}

// metadataSystemPrompt frames the enrichment task: names only, no structure
func metadataSystemPrompt() string {
	return "You improve display names for integration flow components.\n" +
		"Respond with a single JSON object mapping component id to a short\n" +
		"descriptive name, and nothing else. Do not add, remove, or rename\n" +
		"ids. Example: {\"step_1\":\"Fetch Orders\"}"
}

func metadataUserPrompt(doc *ir.Document, specs []ir.ComponentSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Flow: %s\n", doc.FlowID)
	if doc.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", doc.Description)
	}
	b.WriteString("\nComponents:\n")
	for _, s := range specs {
		fmt.Fprintf(&b, "- id=%s kind=%s current_name=%q\n", s.ID, s.Kind, s.Name)
	}
	b.WriteString("\nReturn better names for each id.")
	return b.String()
}
