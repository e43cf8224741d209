package bpmn

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/c360/flowbridge/errors"
	"github.com/c360/flowbridge/flowgraph"
	"github.com/c360/flowbridge/layout"
)

// Fixed archive timestamp keeps bundles byte-identical across runs for
// identical input (deterministic-fallback guarantee).
var bundleEpoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

var placeholderPattern = regexp.MustCompile(`\{\{([A-Za-z0-9_.-]+)\}\}`)

// Bundle is the packaged generation output returned to the calling service.
// The engine performs no network or filesystem access itself; persistence
// and deployment are the caller's responsibility.
type Bundle struct {
	FlowID   string
	Document []byte            // the emitted flow document
	Files    map[string][]byte // full file set, keyed by archive path
	Archive  []byte            // zip serialization of Files
}

// Package emits the document and assembles the importable bundle: manifest,
// flow document, externalized parameters, and generated script bodies
func (e *Emitter) Package(g *flowgraph.FlowGraph, sheet *layout.Sheet) (*Bundle, error) {
	document, err := e.Emit(g, sheet)
	if err != nil {
		return nil, err
	}

	files := map[string][]byte{
		"META-INF/MANIFEST.MF": manifest(g),
		documentPath(g.FlowID): document,
	}

	prop, propdef := parameterFiles(g)
	files["src/main/resources/parameters.prop"] = prop
	files["src/main/resources/parameters.propdef"] = propdef

	for _, c := range g.Components() {
		entry, ok := e.catalog.Entry(string(c.Kind))
		if !ok || entry.ScriptBody == "" {
			continue
		}
		files["src/main/resources/script/"+scriptFileName(c.ID)] = []byte(entry.ScriptBody)
	}

	archive, err := zipFiles(files)
	if err != nil {
		return nil, errors.WrapFatal(err, "bpmn", "Package", "write bundle archive")
	}

	return &Bundle{
		FlowID:   g.FlowID,
		Document: document,
		Files:    files,
		Archive:  archive,
	}, nil
}

func documentPath(flowID string) string {
	return "src/main/resources/scenarioflows/integrationflow/" + flowID + ".iflw"
}

func manifest(g *flowgraph.FlowGraph) []byte {
	name := g.Name
	if name == "" {
		name = g.FlowID
	}
	var b strings.Builder
	b.WriteString("Manifest-Version: 1.0\r\n")
	b.WriteString("Bundle-ManifestVersion: 2\r\n")
	fmt.Fprintf(&b, "Bundle-Name: %s\r\n", name)
	fmt.Fprintf(&b, "Bundle-SymbolicName: %s; singleton:=true\r\n", g.FlowID)
	b.WriteString("Bundle-Version: 1.0.0\r\n")
	b.WriteString("SAP-BundleType: IntegrationFlow\r\n")
	b.WriteString("SAP-NodeType: IFLMAP\r\n")
	b.WriteString("Import-Package: com.sap.gateway.ip.core.customdev.util\r\n")
	return []byte(b.String())
}

// parameterFiles collects {{placeholder}} references from component configs
// into the externalized parameter files. Names are sorted so the output is
// stable.
func parameterFiles(g *flowgraph.FlowGraph) (prop, propdef []byte) {
	seen := make(map[string]bool)
	for _, c := range g.Components() {
		for _, v := range c.Config {
			s, ok := v.(string)
			if !ok {
				continue
			}
			for _, m := range placeholderPattern.FindAllStringSubmatch(s, -1) {
				seen[m[1]] = true
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	var p strings.Builder
	p.WriteString("#Externalized parameters\n")
	for _, name := range names {
		fmt.Fprintf(&p, "%s=\n", name)
	}

	var d strings.Builder
	d.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="no"?>` + "\n")
	d.WriteString("<parameters>\n")
	for _, name := range names {
		fmt.Fprintf(&d, "    <param_references><DataType>xsd:string</DataType><Name>%s</Name></param_references>\n", name)
	}
	d.WriteString("</parameters>\n")

	return []byte(p.String()), []byte(d.String())
}

// zipFiles serializes the file set with sorted paths and a fixed timestamp
func zipFiles(files map[string][]byte) ([]byte, error) {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, path := range paths {
		header := &zip.FileHeader{
			Name:     path,
			Method:   zip.Deflate,
			Modified: bundleEpoch,
		}
		f, err := w.CreateHeader(header)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", path, err)
		}
		if _, err := f.Write(files[path]); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}
