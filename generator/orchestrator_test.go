package generator

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/flowbridge/aiassist"
	"github.com/c360/flowbridge/bpmn"
	fberrors "github.com/c360/flowbridge/errors"
	"github.com/c360/flowbridge/ir"
	"github.com/c360/flowbridge/metric"
	"github.com/c360/flowbridge/pkg/retry"
	"github.com/c360/flowbridge/status"
	"github.com/c360/flowbridge/template"
)

const proposedStructure = `{
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

type fakeProvider struct {
	responses []string
	errs      []error
	calls     int
}

func (p *fakeProvider) Complete(_ context.Context, _ aiassist.Request) (string, error) {
	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return "", p.errs[i]
	}
	if i < len(p.responses) {
		return p.responses[i], nil
	}
	return "", fmt.Errorf("fake provider exhausted at call %d", i)
}

type captureReporter struct {
	events []status.Event
}

func (r *captureReporter) Report(e status.Event) { r.events = append(r.events, e) }

func (r *captureReporter) stages() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Stage
	}
	return out
}

func timeoutErr() error {
	return fberrors.WrapTransient(
		fmt.Errorf("request timeout: %w", fberrors.ErrAIInvocation),
		"aiassist", "Complete", "post chat request")
}

func testCatalog(t *testing.T) *template.Catalog {
	t.Helper()
	catalog, err := template.Load()
	require.NoError(t, err)
	return catalog
}

func fastAdapter(t *testing.T, provider aiassist.Provider) *aiassist.Adapter {
	t.Helper()
	return aiassist.New(provider, testCatalog(t), slog.Default(),
		aiassist.WithRetryConfig(retry.Config{
			MaxAttempts:  aiassist.MaxAttempts,
			InitialDelay: time.Microsecond,
			MaxDelay:     time.Millisecond,
			Multiplier:   2.0,
		}))
}

func newOrchestrator(t *testing.T, p Params) *Orchestrator {
	t.Helper()
	if p.Catalog == nil {
		p.Catalog = testCatalog(t)
	}
	o, err := New(p)
	require.NoError(t, err)
	return o
}

func sampleDoc() *ir.Document {
	return &ir.Document{
		FlowID: "flow_orders",
		Name:   "Order Sync",
		Components: []ir.RawComponent{
			{ID: "sender", Type: "https_sender", Order: intPtr(1)},
			{ID: "modify", Type: "content_modifier", Order: intPtr(2)},
			{ID: "receiver", Type: "http_receiver", Order: intPtr(3),
				Config: map[string]any{"address": "https://erp.example.com/orders"}},
		},
	}
}

func intPtr(v int) *int { return &v }

func TestGenerateTemplateTierWithoutAdapter(t *testing.T) {
	o := newOrchestrator(t, Params{})

	result, err := o.Generate(context.Background(), sampleDoc())
	require.NoError(t, err)

	assert.Equal(t, TierEnhancedTemplate, result.Tier)
	require.Len(t, result.Attempts, 1)
	assert.True(t, result.Attempts[0].Succeeded)
	assert.NotEmpty(t, result.JobID)

	require.NotNil(t, result.Bundle)
	assert.Contains(t, result.Bundle.Files, "META-INF/MANIFEST.MF")
	doc := string(result.Bundle.Document)
	assert.Contains(t, doc, `id="sender"`)
	assert.Contains(t, doc, "Participant_sender")
	assert.Contains(t, doc, "MessageFlow_receiver")
}

func TestGenerateFullAISuccess(t *testing.T) {
	provider := &fakeProvider{responses: []string{proposedStructure}}
	o := newOrchestrator(t, Params{Adapter: fastAdapter(t, provider)})

	result, err := o.Generate(context.Background(), sampleDoc())
	require.NoError(t, err)

	assert.Equal(t, TierFullAI, result.Tier)
	require.Len(t, result.Attempts, 1)
	assert.Equal(t, 1, provider.calls, "structure accepted on first call, no enrichment")
	require.Len(t, result.Attempts[0].AICalls, 1)

	doc := string(result.Bundle.Document)
	assert.Contains(t, doc, `id="map"`)
}

func TestGenerateAIExhaustionDowngradesOnce(t *testing.T) {
	// Structure proposal burns the full retry budget; the job must move to
	// the template tier without revisiting the AI tier.
	provider := &fakeProvider{
		errs: []error{
			timeoutErr(), timeoutErr(), timeoutErr(), timeoutErr(), timeoutErr(), // tier 1
			timeoutErr(), timeoutErr(), timeoutErr(), timeoutErr(), timeoutErr(), // enrichment
		},
	}
	reporter := &captureReporter{}
	registry := metric.NewRegistry()
	o := newOrchestrator(t, Params{
		Adapter:  fastAdapter(t, provider),
		Reporter: reporter,
		Metrics:  registry,
	})

	result, err := o.Generate(context.Background(), sampleDoc())
	require.NoError(t, err)

	assert.Equal(t, TierEnhancedTemplate, result.Tier)
	require.Len(t, result.Attempts, 2)

	first := result.Attempts[0]
	assert.Equal(t, TierFullAI, first.Tier)
	assert.False(t, first.Succeeded)
	assert.ErrorIs(t, first.Err, fberrors.ErrAIUnavailable)
	assert.Len(t, first.AICalls, aiassist.MaxAttempts)

	assert.Equal(t, 10, provider.calls, "5 structure attempts plus 5 advisory enrichment attempts")
	assert.Contains(t, reporter.stages(), "tier_downgrade")

	assert.Equal(t, 10.0, testutil.ToFloat64(registry.Generation.AIRetriesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		registry.Generation.TierSelected.WithLabelValues("enhanced_template")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		registry.Generation.JobsTotal.WithLabelValues("success")))
}

func TestGenerateRejectedProposalDowngrades(t *testing.T) {
	// The proposal parses but names a kind the catalog cannot resolve, so
	// strict normalization rejects the tier.
	provider := &fakeProvider{
		responses: []string{`{"components": [{"id": "x", "type": "UnknownWidget"}]}`},
	}
	o := newOrchestrator(t, Params{Adapter: fastAdapter(t, provider)})

	result, err := o.Generate(context.Background(), sampleDoc())
	require.NoError(t, err)

	assert.Equal(t, TierEnhancedTemplate, result.Tier)
	require.Len(t, result.Attempts, 2)
	assert.ErrorIs(t, result.Attempts[0].Err, fberrors.ErrUnsupportedComponentKind)
}

func TestGenerateUnknownKindFallsToDeterministic(t *testing.T) {
	doc := &ir.Document{
		FlowID: "flow_widgets",
		Components: []ir.RawComponent{
			{ID: "widget", Type: "UnknownWidget", Order: intPtr(1)},
			{ID: "log", Type: "log_writer", Order: intPtr(2)},
		},
	}
	o := newOrchestrator(t, Params{})

	result, err := o.Generate(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, TierDeterministicFallback, result.Tier)
	require.Len(t, result.Attempts, 2)
	assert.ErrorIs(t, result.Attempts[0].Err, fberrors.ErrUnsupportedComponentKind)

	out := string(result.Bundle.Document)
	assert.Contains(t, out, `id="widget"`, "unresolvable components render as generic steps")
}

func TestGenerateReceiverTriadAtTemplateTier(t *testing.T) {
	// A bare receiver adapter with no config still expands at the template
	// tier: the triad needs only name and role, endpoint attributes stay
	// empty until configured.
	doc := &ir.Document{
		FlowID: "flow_triad",
		Components: []ir.RawComponent{
			{ID: "A", Type: "ReceiverAdapter"},
			{ID: "B", Type: "ContentModifier"},
			{ID: "C", Type: "EndEvent"},
		},
	}
	o := newOrchestrator(t, Params{})

	result, err := o.Generate(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, TierEnhancedTemplate, result.Tier)
	require.Len(t, result.Attempts, 1)

	parsed, err := bpmn.Parse(result.Bundle.Document)
	require.NoError(t, err)
	g, err := parsed.Graph()
	require.NoError(t, err)

	assert.Len(t, g.Components(), 3, "A, B, C stay in the process")
	assert.Len(t, g.SequenceFlows(), 2, "closure connects A->B->C")
	assert.Len(t, g.Participants(), 1)
	assert.Len(t, g.MessageFlows(), 1)
}

func TestGenerateDeterministicOutputIsByteIdentical(t *testing.T) {
	doc := &ir.Document{
		FlowID: "flow_stable",
		Components: []ir.RawComponent{
			{ID: "widget", Type: "UnknownWidget", Order: intPtr(1)},
			{ID: "target", Type: "odata_receiver", Order: intPtr(2)},
		},
	}
	o := newOrchestrator(t, Params{})

	first, err := o.Generate(context.Background(), doc)
	require.NoError(t, err)
	second, err := o.Generate(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, TierDeterministicFallback, first.Tier)
	assert.Equal(t, first.Bundle.Archive, second.Bundle.Archive)

	prop := string(first.Bundle.Files["src/main/resources/parameters.prop"])
	assert.Contains(t, prop, "target_address=", "missing required config is externalized")
}

func TestGenerateEmptyDocumentExhaustsTiers(t *testing.T) {
	o := newOrchestrator(t, Params{})

	result, err := o.Generate(context.Background(), &ir.Document{FlowID: "flow_empty"})
	require.Error(t, err)

	assert.ErrorIs(t, err, fberrors.ErrGenerationExhausted)
	assert.True(t, fberrors.IsFatal(err))
	require.Len(t, result.Attempts, 2)
	for _, attempt := range result.Attempts {
		assert.ErrorIs(t, attempt.Err, fberrors.ErrEmptyFlow)
	}
}

func TestGenerateCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := newOrchestrator(t, Params{})
	result, err := o.Generate(ctx, sampleDoc())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, result.Attempts)
}

func TestGenerateNilDocument(t *testing.T) {
	o := newOrchestrator(t, Params{})
	_, err := o.Generate(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, fberrors.IsInvalid(err))
}

func TestNewRequiresCatalog(t *testing.T) {
	_, err := New(Params{})
	require.Error(t, err)
	assert.True(t, fberrors.IsFatal(err))
}

func TestGenerateReportsStages(t *testing.T) {
	reporter := &captureReporter{}
	o := newOrchestrator(t, Params{Reporter: reporter})

	_, err := o.Generate(context.Background(), sampleDoc())
	require.NoError(t, err)

	stages := reporter.stages()
	assert.Contains(t, stages, "tier_start")
	assert.Contains(t, stages, "normalize")
	assert.Contains(t, stages, "graph_build")
	assert.Contains(t, stages, "layout")
	assert.Contains(t, stages, "package")
	assert.Contains(t, stages, "complete")
	assert.Equal(t, "flow_orders", reporter.events[0].FlowID)
}
