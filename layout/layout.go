package layout

import (
	"fmt"
	"sort"

	"github.com/c360/flowbridge/errors"
	"github.com/c360/flowbridge/flowgraph"
	"github.com/c360/flowbridge/ir"
)

// Grid spacing and element sizing constants, in diagram pixel units
const (
	originX = 288.0
	originY = 142.0

	columnSpacing = 150.0
	rowSpacing    = 120.0

	taskWidth     = 100.0
	taskHeight    = 60.0
	eventSize     = 32.0
	gatewaySize   = 40.0
	participantW  = 100.0
	participantH  = 140.0
	senderBandY   = 60.0
	receiverBandV = 80.0 // vertical gap between process area and receiver band
)

// Bounds is the rectangle occupied by a shape
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point is one waypoint of an edge
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Entry is the layout record for one visual element: either shape bounds or
// edge waypoints, keyed by the element id
type Entry struct {
	TargetID  string  `json:"target_id"`
	Bounds    *Bounds `json:"bounds,omitempty"`
	Waypoints []Point `json:"waypoints,omitempty"`
}

// Sheet holds the computed layout for one flow graph
type Sheet struct {
	entries []Entry
	byID    map[string]int
}

// Entry returns the layout record for an element id
func (s *Sheet) Entry(id string) (Entry, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return Entry{}, false
	}
	return s.entries[idx], true
}

// Entries returns all layout records in insertion order
func (s *Sheet) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Sheet) add(e Entry) {
	s.byID[e.TargetID] = len(s.entries)
	s.entries = append(s.entries, e)
}

// Compute assigns bounds to every node and participant and waypoints to
// every sequence and message flow
func Compute(g *flowgraph.FlowGraph) (*Sheet, error) {
	components := g.Components()
	order, err := topoOrder(g)
	if err != nil {
		return nil, err
	}

	cols := assignColumns(g, order)
	rows := assignRows(g, order, cols)

	sheet := &Sheet{byID: make(map[string]int)}

	bounds := make(map[string]Bounds, len(components))
	for _, c := range components {
		b := nodeBounds(c, cols[c.ID], rows[c.ID])
		bounds[c.ID] = b
		sheet.add(Entry{TargetID: c.ID, Bounds: &b})
	}

	maxRow := 0
	for _, r := range rows {
		if r > maxRow {
			maxRow = r
		}
	}

	for _, p := range g.Participants() {
		b := participantBounds(p, bounds, maxRow)
		bounds[p.ID] = b
		sheet.add(Entry{TargetID: p.ID, Bounds: &b})
	}

	for _, f := range g.SequenceFlows() {
		sheet.add(Entry{
			TargetID:  f.ID,
			Waypoints: routeSequenceFlow(bounds[f.SourceRef], bounds[f.TargetRef]),
		})
	}
	for _, f := range g.MessageFlows() {
		sheet.add(Entry{
			TargetID:  f.ID,
			Waypoints: routeMessageFlow(bounds[f.SourceRef], bounds[f.TargetRef]),
		})
	}

	return sheet, nil
}

// topoOrder returns components in topological order. The graph is validated
// acyclic before layout runs, so failure here is a programming defect.
func topoOrder(g *flowgraph.FlowGraph) ([]ir.ComponentSpec, error) {
	components := g.Components()
	indegree := make(map[string]int, len(components))
	for _, c := range components {
		indegree[c.ID] = len(g.Incoming(c.ID))
	}

	var queue []ir.ComponentSpec
	for _, c := range components {
		if indegree[c.ID] == 0 {
			queue = append(queue, c)
		}
	}

	var order []ir.ComponentSpec
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)
		for _, f := range g.Outgoing(node.ID) {
			indegree[f.TargetRef]--
			if indegree[f.TargetRef] == 0 {
				target, ok := g.Component(f.TargetRef)
				if !ok {
					return nil, errors.WrapFatal(
						fmt.Errorf("edge %s targets unknown component %s: %w",
							f.ID, f.TargetRef, errors.ErrLayout),
						"layout", "topoOrder", "resolve edge target")
				}
				queue = append(queue, target)
			}
		}
	}

	if len(order) != len(components) {
		return nil, errors.WrapFatal(
			fmt.Errorf("traversal covered %d of %d components: %w",
				len(order), len(components), errors.ErrLayout),
			"layout", "topoOrder", "topological traversal")
	}
	return order, nil
}

// assignColumns gives each node its longest-path distance from the start
func assignColumns(g *flowgraph.FlowGraph, order []ir.ComponentSpec) map[string]int {
	cols := make(map[string]int, len(order))
	for _, node := range order {
		for _, f := range g.Outgoing(node.ID) {
			if cols[f.TargetRef] < cols[node.ID]+1 {
				cols[f.TargetRef] = cols[node.ID] + 1
			}
		}
	}
	return cols
}

// assignRows places each node vertically. A node inherits its predecessor's
// row; router branches push each outgoing edge beyond the first one row
// further down. Collisions inside a column are resolved by sibling index.
func assignRows(g *flowgraph.FlowGraph, order []ir.ComponentSpec, cols map[string]int) map[string]int {
	proposed := make(map[string]int, len(order))
	assigned := make(map[string]bool, len(order))

	for _, node := range order {
		branching := node.Kind == ir.KindRouter
		for i, f := range g.Outgoing(node.ID) {
			offset := 0
			if branching {
				offset = i
			}
			candidate := proposed[node.ID] + offset
			if !assigned[f.TargetRef] || candidate < proposed[f.TargetRef] {
				proposed[f.TargetRef] = candidate
				assigned[f.TargetRef] = true
			}
		}
	}

	// Resolve per-column collisions: sort by proposed row then traversal
	// position, final row is the sibling index.
	posInOrder := make(map[string]int, len(order))
	for i, node := range order {
		posInOrder[node.ID] = i
	}

	byColumn := make(map[int][]string)
	for _, node := range order {
		byColumn[cols[node.ID]] = append(byColumn[cols[node.ID]], node.ID)
	}

	rows := make(map[string]int, len(order))
	for _, ids := range byColumn {
		sort.SliceStable(ids, func(a, b int) bool {
			if proposed[ids[a]] != proposed[ids[b]] {
				return proposed[ids[a]] < proposed[ids[b]]
			}
			return posInOrder[ids[a]] < posInOrder[ids[b]]
		})
		for i, id := range ids {
			rows[id] = i
		}
	}
	return rows
}

func nodeBounds(c ir.ComponentSpec, col, row int) Bounds {
	cx := originX + float64(col)*columnSpacing
	cy := originY + float64(row)*rowSpacing

	var w, h float64
	switch c.Kind {
	case ir.KindStartEvent, ir.KindEndEvent:
		w, h = eventSize, eventSize
	case ir.KindRouter:
		w, h = gatewaySize, gatewaySize
	default:
		w, h = taskWidth, taskHeight
	}

	// Center every shape on its grid point so edges between differently
	// sized shapes stay aligned.
	return Bounds{X: cx - w/2, Y: cy - h/2, Width: w, Height: h}
}

func participantBounds(p flowgraph.Participant, bounds map[string]Bounds, maxRow int) Bounds {
	x := originX - participantW/2
	if b, ok := bounds[p.BoundComponentID]; ok {
		x = b.X + b.Width/2 - participantW/2
	}

	if p.Role == "Sender" {
		return Bounds{X: x, Y: senderBandY - participantH, Width: participantW, Height: participantH}
	}
	bandY := originY + float64(maxRow)*rowSpacing + taskHeight/2 + receiverBandV
	return Bounds{X: x, Y: bandY, Width: participantW, Height: participantH}
}

// routeSequenceFlow connects the source's right edge midpoint to the
// target's left edge midpoint, with an orthogonal jog when the shapes differ
// in both axes
func routeSequenceFlow(src, dst Bounds) []Point {
	start := Point{X: src.X + src.Width, Y: src.Y + src.Height/2}
	end := Point{X: dst.X, Y: dst.Y + dst.Height/2}

	if start.Y == end.Y {
		return []Point{start, end}
	}

	midX := (start.X + end.X) / 2
	return []Point{
		start,
		{X: midX, Y: start.Y},
		{X: midX, Y: end.Y},
		end,
	}
}

// routeMessageFlow connects a task and a participant vertically
func routeMessageFlow(src, dst Bounds) []Point {
	srcCx := src.X + src.Width/2
	dstCx := dst.X + dst.Width/2

	var start, end Point
	if src.Y < dst.Y {
		start = Point{X: srcCx, Y: src.Y + src.Height}
		end = Point{X: dstCx, Y: dst.Y}
	} else {
		start = Point{X: srcCx, Y: src.Y}
		end = Point{X: dstCx, Y: dst.Y + dst.Height}
	}

	if start.X == end.X {
		return []Point{start, end}
	}
	midY := (start.Y + end.Y) / 2
	return []Point{
		start,
		{X: start.X, Y: midY},
		{X: end.X, Y: midY},
		end,
	}
}
