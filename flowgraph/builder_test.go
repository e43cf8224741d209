package flowgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/flowbridge/errors"
	"github.com/c360/flowbridge/ir"
)

func spec(id string, kind ir.Kind, order int) ir.ComponentSpec {
	return ir.ComponentSpec{ID: id, Kind: kind, Name: id, DeclaredOrder: order}
}

func TestBuildClosureChainsDeclaredOrder(t *testing.T) {
	// Receiver -> modifier -> end with no explicit flows: closure must
	// connect A->B->C.
	specs := []ir.ComponentSpec{
		spec("A", ir.KindReceiverAdapter, 0),
		spec("B", ir.KindContentModifier, 1),
		spec("C", ir.KindEndEvent, 2),
	}

	g, err := Build("flow-1", "Order Sync", specs, nil)
	require.NoError(t, err)

	flows := g.SequenceFlows()
	require.Len(t, flows, 2)
	assert.Equal(t, "SequenceFlow_A_B", flows[0].ID)
	assert.Equal(t, "SequenceFlow_B_C", flows[1].ID)

	start, ok := g.StartNode()
	require.True(t, ok)
	assert.Equal(t, "A", start.ID)
}

func TestBuildClosureIsDeterministic(t *testing.T) {
	specs := []ir.ComponentSpec{
		spec("s", ir.KindStartEvent, 0),
		spec("m1", ir.KindContentModifier, 1),
		spec("m2", ir.KindMapping, 2),
		spec("e", ir.KindEndEvent, 3),
	}

	first, err := Build("f", "f", specs, nil)
	require.NoError(t, err)
	second, err := Build("f", "f", specs, nil)
	require.NoError(t, err)

	assert.Equal(t, first.SequenceFlows(), second.SequenceFlows())
}

func TestBuildRespectsExplicitFlows(t *testing.T) {
	specs := []ir.ComponentSpec{
		spec("s", ir.KindStartEvent, 0),
		spec("r", ir.KindRouter, 1),
		spec("a", ir.KindContentModifier, 2),
		spec("b", ir.KindContentModifier, 3),
		spec("e", ir.KindEndEvent, 4),
	}
	flows := []ir.SequenceFlow{
		{ID: "f1", SourceRef: "s", TargetRef: "r"},
		{ID: "f2", SourceRef: "r", TargetRef: "a"},
		{ID: "f3", SourceRef: "r", TargetRef: "b"},
		{ID: "f4", SourceRef: "a", TargetRef: "e"},
		{ID: "f5", SourceRef: "b", TargetRef: "e"},
	}

	g, err := Build("f", "f", specs, flows)
	require.NoError(t, err)
	// Fully specified graph needs no closure edges.
	assert.Len(t, g.SequenceFlows(), 5)
	assert.Len(t, g.Outgoing("r"), 2)
	assert.Len(t, g.Incoming("e"), 2)
}

func TestBuildClosureBridgesPartialChains(t *testing.T) {
	// Explicit flow covers only s->m1; closure must finish m1->m2->e.
	specs := []ir.ComponentSpec{
		spec("s", ir.KindStartEvent, 0),
		spec("m1", ir.KindContentModifier, 1),
		spec("m2", ir.KindContentModifier, 2),
		spec("e", ir.KindEndEvent, 3),
	}
	flows := []ir.SequenceFlow{{ID: "f1", SourceRef: "s", TargetRef: "m1"}}

	g, err := Build("f", "f", specs, flows)
	require.NoError(t, err)
	require.Len(t, g.SequenceFlows(), 3)

	out := g.Outgoing("m1")
	require.Len(t, out, 1)
	assert.Equal(t, "m2", out[0].TargetRef)
}

func TestBuildClosureNeverTargetsStartEvent(t *testing.T) {
	// m precedes the start event in declared order; closure must skip the
	// start event and connect m to e.
	specs := []ir.ComponentSpec{
		spec("m", ir.KindContentModifier, 0),
		spec("s", ir.KindStartEvent, 1),
		spec("e", ir.KindEndEvent, 2),
	}
	flows := []ir.SequenceFlow{{ID: "f1", SourceRef: "s", TargetRef: "m"}}

	g, err := Build("f", "f", specs, flows)
	require.NoError(t, err)

	out := g.Outgoing("m")
	require.Len(t, out, 1)
	assert.Equal(t, "e", out[0].TargetRef)
}

func TestBuildEmptySpecList(t *testing.T) {
	_, err := Build("f", "f", nil, nil)
	assert.ErrorIs(t, err, errors.ErrEmptyFlow)
}

func TestBuildRejectsDuplicateComponent(t *testing.T) {
	specs := []ir.ComponentSpec{
		spec("A", ir.KindStartEvent, 0),
		spec("A", ir.KindEndEvent, 1),
	}
	_, err := Build("f", "f", specs, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSchemaValidation)
}

func TestBuildRejectsDanglingExplicitFlow(t *testing.T) {
	specs := []ir.ComponentSpec{
		spec("A", ir.KindStartEvent, 0),
		spec("B", ir.KindEndEvent, 1),
	}
	flows := []ir.SequenceFlow{{ID: "f1", SourceRef: "A", TargetRef: "missing"}}

	_, err := Build("f", "f", specs, flows)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSchemaValidation)
	assert.Contains(t, err.Error(), "missing")
}

func TestValidateRejectsCycle(t *testing.T) {
	specs := []ir.ComponentSpec{
		spec("s", ir.KindStartEvent, 0),
		spec("a", ir.KindContentModifier, 1),
		spec("b", ir.KindContentModifier, 2),
		spec("e", ir.KindEndEvent, 3),
	}
	flows := []ir.SequenceFlow{
		{ID: "f1", SourceRef: "s", TargetRef: "a"},
		{ID: "f2", SourceRef: "a", TargetRef: "b"},
		{ID: "f3", SourceRef: "b", TargetRef: "a"},
		{ID: "f4", SourceRef: "a", TargetRef: "e"},
	}

	_, err := Build("f", "f", specs, flows)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSchemaValidation)
	assert.Contains(t, err.Error(), "cycle")
}

func TestValidateRejectsMultipleStarts(t *testing.T) {
	g := New("f", "f")
	require.NoError(t, g.AddComponent(spec("a", ir.KindContentModifier, 0)))
	require.NoError(t, g.AddComponent(spec("b", ir.KindContentModifier, 1)))
	require.NoError(t, g.AddComponent(spec("e", ir.KindEndEvent, 2)))
	require.NoError(t, g.AddSequenceFlow(ir.SequenceFlow{ID: "f1", SourceRef: "a", TargetRef: "e"}))
	require.NoError(t, g.AddSequenceFlow(ir.SequenceFlow{ID: "f2", SourceRef: "b", TargetRef: "e"}))

	err := g.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 start nodes")
}

func TestValidateRejectsEndEventWithOutgoing(t *testing.T) {
	g := New("f", "f")
	require.NoError(t, g.AddComponent(spec("s", ir.KindStartEvent, 0)))
	require.NoError(t, g.AddComponent(spec("e", ir.KindEndEvent, 1)))
	require.NoError(t, g.AddComponent(spec("m", ir.KindContentModifier, 2)))
	require.NoError(t, g.AddSequenceFlow(ir.SequenceFlow{ID: "f1", SourceRef: "s", TargetRef: "e"}))
	require.NoError(t, g.AddSequenceFlow(ir.SequenceFlow{ID: "f2", SourceRef: "e", TargetRef: "m"}))

	err := g.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "end event")
}
