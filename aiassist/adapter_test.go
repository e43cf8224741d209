package aiassist

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fberrors "github.com/c360/flowbridge/errors"
	"github.com/c360/flowbridge/ir"
	"github.com/c360/flowbridge/template"
)

const validCandidate = `{
	"components": [
		{"id": "start", "type": "StartEvent", "order": 1},
		{"id": "map", "type": "Mapping", "order": 2},
		{"id": "end", "type": "EndEvent", "order": 3}
	],
	"flows": [
		{"source": "start", "target": "map"},
		{"source": "map", "target": "end"}
	]
}`

// scriptedProvider returns canned responses in order; errors are interleaved
// by leaving the response empty and setting the error.
type scriptedProvider struct {
	responses []string
	errs      []error
	calls     int
}

func (p *scriptedProvider) Complete(_ context.Context, _ Request) (string, error) {
	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return "", p.errs[i]
	}
	if i < len(p.responses) {
		return p.responses[i], nil
	}
	return "", fmt.Errorf("script exhausted at call %d", i)
}

func newTestAdapter(t *testing.T, provider Provider) *Adapter {
	t.Helper()
	catalog, err := template.Load()
	require.NoError(t, err)

	a := New(provider, catalog, slog.Default())
	a.retryCfg.InitialDelay = time.Microsecond
	a.retryCfg.MaxDelay = time.Millisecond
	a.retryCfg.AddJitter = false
	return a
}

func transientErr() error {
	return fberrors.WrapTransient(
		fmt.Errorf("dial tcp: timeout: %w", fberrors.ErrAIInvocation),
		"aiassist", "Complete", "post chat request")
}

func TestProposeStructureFirstAttempt(t *testing.T) {
	provider := &scriptedProvider{responses: []string{validCandidate}}
	a := newTestAdapter(t, provider)

	doc := &ir.Document{FlowID: "flow_1", Name: "Order Sync"}
	candidate, records, err := a.ProposeStructure(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, 1, provider.calls)
	require.Len(t, records, 1)
	assert.NoError(t, records[0].Err)
	assert.Equal(t, validCandidate, records[0].RawResponse)

	assert.Equal(t, "flow_1", candidate.FlowID)
	assert.Equal(t, "Order Sync", candidate.Name)
	assert.Len(t, candidate.Components, 3)
	assert.Len(t, candidate.Flows, 2)
}

func TestProposeStructureRecoversAfterTransientFailures(t *testing.T) {
	provider := &scriptedProvider{
		responses: []string{"", "", validCandidate},
		errs:      []error{transientErr(), transientErr(), nil},
	}
	a := newTestAdapter(t, provider)

	candidate, records, err := a.ProposeStructure(context.Background(), &ir.Document{FlowID: "f"})
	require.NoError(t, err)
	require.NotNil(t, candidate)

	assert.Equal(t, 3, provider.calls)
	require.Len(t, records, 3)
	assert.Error(t, records[0].Err)
	assert.Error(t, records[1].Err)
	assert.NoError(t, records[2].Err)
}

func TestProposeStructureExhaustsRetryBudget(t *testing.T) {
	provider := &scriptedProvider{
		errs: []error{transientErr(), transientErr(), transientErr(), transientErr(), transientErr()},
	}
	a := newTestAdapter(t, provider)

	candidate, records, err := a.ProposeStructure(context.Background(), &ir.Document{FlowID: "f"})
	require.Error(t, err)
	assert.Nil(t, candidate)

	assert.ErrorIs(t, err, fberrors.ErrAIUnavailable)
	assert.Equal(t, MaxAttempts, provider.calls)
	assert.Len(t, records, MaxAttempts)
	for _, rec := range records {
		assert.Error(t, rec.Err)
	}
}

func TestProposeStructureStopsOnNonTransientError(t *testing.T) {
	invalid := fberrors.WrapInvalid(
		fmt.Errorf("provider status 401 Unauthorized: %w", fberrors.ErrAIInvocation),
		"aiassist", "Complete", "post chat request")
	provider := &scriptedProvider{errs: []error{invalid}}
	a := newTestAdapter(t, provider)

	_, records, err := a.ProposeStructure(context.Background(), &ir.Document{FlowID: "f"})
	require.Error(t, err)

	assert.ErrorIs(t, err, fberrors.ErrAIUnavailable)
	assert.Equal(t, 1, provider.calls, "4xx responses must not be retried")
	assert.Len(t, records, 1)
}

func TestProposeStructureRetriesUnparsableResponses(t *testing.T) {
	provider := &scriptedProvider{
		responses: []string{"I cannot help with that.", validCandidate},
	}
	a := newTestAdapter(t, provider)

	candidate, records, err := a.ProposeStructure(context.Background(), &ir.Document{FlowID: "f"})
	require.NoError(t, err)
	require.NotNil(t, candidate)

	assert.Equal(t, 2, provider.calls)
	require.Len(t, records, 2)
	assert.ErrorIs(t, records[0].Err, fberrors.ErrAIResponseParse)
	assert.Equal(t, "I cannot help with that.", records[0].RawResponse)
}

func TestProposeStructureStripsMarkdownFences(t *testing.T) {
	fenced := "```json\n" + validCandidate + "\n```"
	provider := &scriptedProvider{responses: []string{fenced}}
	a := newTestAdapter(t, provider)

	candidate, _, err := a.ProposeStructure(context.Background(), &ir.Document{FlowID: "f"})
	require.NoError(t, err)
	assert.Len(t, candidate.Components, 3)
}

func TestProposeStructureRejectsEmptyCandidate(t *testing.T) {
	provider := &scriptedProvider{
		responses: []string{`{"components": []}`, `{"components": [{"id": "", "type": "Mapping"}]}`},
	}
	a := newTestAdapter(t, provider)
	a.retryCfg.MaxAttempts = 2

	_, records, err := a.ProposeStructure(context.Background(), &ir.Document{FlowID: "f"})
	require.Error(t, err)
	assert.ErrorIs(t, err, fberrors.ErrAIUnavailable)
	require.Len(t, records, 2)
	assert.ErrorIs(t, records[1].Err, fberrors.ErrAIResponseParse)
}

func TestEnrichMetadataReturnsNameMap(t *testing.T) {
	provider := &scriptedProvider{
		responses: []string{`{"step_1": "Fetch Orders", "step_2": "Map To Target"}`},
	}
	a := newTestAdapter(t, provider)

	specs := []ir.ComponentSpec{
		{ID: "step_1", Kind: ir.KindContentModifier},
		{ID: "step_2", Kind: ir.KindMapping},
	}
	names, records, err := a.EnrichMetadata(context.Background(), &ir.Document{FlowID: "f"}, specs)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "Fetch Orders", names["step_1"])
	assert.Equal(t, "Map To Target", names["step_2"])
}

func TestEnrichMetadataUnavailableIsSentinel(t *testing.T) {
	provider := &scriptedProvider{
		errs: []error{transientErr(), transientErr(), transientErr(), transientErr(), transientErr()},
	}
	a := newTestAdapter(t, provider)

	names, _, err := a.EnrichMetadata(context.Background(), &ir.Document{FlowID: "f"}, nil)
	require.Error(t, err)
	assert.Nil(t, names)
	assert.ErrorIs(t, err, fberrors.ErrAIUnavailable)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, stripFences("  {\"a\":1}  \n"))
}
