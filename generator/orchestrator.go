package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/c360/flowbridge/aiassist"
	"github.com/c360/flowbridge/bpmn"
	"github.com/c360/flowbridge/errors"
	"github.com/c360/flowbridge/flowgraph"
	"github.com/c360/flowbridge/ir"
	"github.com/c360/flowbridge/layout"
	"github.com/c360/flowbridge/metric"
	"github.com/c360/flowbridge/status"
	"github.com/c360/flowbridge/template"
)

// Attempt records one tier execution within a job
type Attempt struct {
	Tier      Tier
	Succeeded bool
	Err       error
	AICalls   []aiassist.CallRecord
}

// Result is the outcome of one generation job. Attempts always covers every
// tier that ran, including the job's failures, so callers can report why a
// lower tier was selected.
type Result struct {
	JobID    string
	FlowID   string
	Tier     Tier
	Bundle   *bpmn.Bundle
	Attempts []Attempt
}

// Params configures an Orchestrator. Catalog is required; everything else
// has a working zero value.
type Params struct {
	Catalog  *template.Catalog
	Adapter  *aiassist.Adapter // nil disables the AI tiers' provider calls
	Reporter status.Reporter   // nil defaults to a no-op reporter
	Metrics  *metric.Registry  // nil disables instrumentation
	Logger   *slog.Logger      // nil defaults to slog.Default
}

// Orchestrator runs generation jobs through the tier ladder
type Orchestrator struct {
	catalog    *template.Catalog
	normalizer *ir.Normalizer
	emitter    *bpmn.Emitter
	adapter    *aiassist.Adapter
	reporter   status.Reporter
	metrics    *metric.GenerationMetrics
	logger     *slog.Logger
}

// New creates an orchestrator
func New(p Params) (*Orchestrator, error) {
	if p.Catalog == nil {
		return nil, errors.WrapFatal(
			fmt.Errorf("catalog is required"), "generator", "New", "check params")
	}

	reporter := p.Reporter
	if reporter == nil {
		reporter = status.NopReporter{}
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var gen *metric.GenerationMetrics
	if p.Metrics != nil {
		gen = p.Metrics.Generation
	}

	return &Orchestrator{
		catalog:    p.Catalog,
		normalizer: ir.NewNormalizer(p.Catalog),
		emitter:    bpmn.NewEmitter(p.Catalog),
		adapter:    p.Adapter,
		reporter:   reporter,
		metrics:    gen,
		logger:     logger,
	}, nil
}

// Generate runs one job down the tier ladder. On success the result carries
// the bundle and the tier that produced it. On failure the result still
// carries the attempt trail alongside the error.
func (o *Orchestrator) Generate(ctx context.Context, doc *ir.Document) (*Result, error) {
	if doc == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("document is nil"), "generator", "Generate", "check input")
	}

	result := &Result{
		JobID:  uuid.NewString(),
		FlowID: doc.FlowID,
	}
	log := o.logger.With("job_id", result.JobID, "flow_id", doc.FlowID)
	log.Info("generation job started", "components", len(doc.Components))

	for _, tier := range o.ladder() {
		if err := ctx.Err(); err != nil {
			o.countJob("cancelled")
			return result, errors.Wrap(err, "generator", "Generate", "check cancellation")
		}

		o.report(result.JobID, doc.FlowID, "tier_start", tier, "")
		bundle, calls, err := o.runTier(ctx, result.JobID, tier, doc)
		result.Attempts = append(result.Attempts, Attempt{
			Tier:      tier,
			Succeeded: err == nil,
			Err:       err,
			AICalls:   calls,
		})
		o.observeAttempt(tier, err, calls)

		if err == nil {
			result.Tier = tier
			result.Bundle = bundle
			o.countJob("success")
			if o.metrics != nil {
				o.metrics.TierSelected.WithLabelValues(tier.String()).Inc()
			}
			o.report(result.JobID, doc.FlowID, "complete", tier, "")
			log.Info("generation job complete", "tier", tier.String(), "attempts", len(result.Attempts))
			return result, nil
		}

		if errors.IsFatal(err) || ctx.Err() != nil {
			o.countJob("failure")
			log.Error("generation job aborted", "tier", tier.String(), "error", err)
			return result, err
		}

		log.Warn("generation tier failed, downgrading",
			"tier", tier.String(), "class", errors.Classify(err).String(), "error", err)
		o.report(result.JobID, doc.FlowID, "tier_downgrade", tier, err.Error())
	}

	o.countJob("failure")
	last := result.Attempts[len(result.Attempts)-1].Err
	return result, errors.WrapFatal(
		fmt.Errorf("%v: %w", last, errors.ErrGenerationExhausted),
		"generator", "Generate", "exhaust tiers")
}

// ladder returns the tiers to attempt, in order. Without an AI adapter the
// ladder starts at the template tier.
func (o *Orchestrator) ladder() []Tier {
	if o.adapter == nil {
		return []Tier{TierEnhancedTemplate, TierDeterministicFallback}
	}
	return []Tier{TierFullAI, TierEnhancedTemplate, TierDeterministicFallback}
}

func (o *Orchestrator) runTier(ctx context.Context, jobID string, tier Tier, doc *ir.Document) (*bpmn.Bundle, []aiassist.CallRecord, error) {
	switch tier {
	case TierFullAI:
		return o.runFullAI(ctx, jobID, doc)
	case TierEnhancedTemplate:
		return o.runEnhancedTemplate(ctx, jobID, doc)
	case TierDeterministicFallback:
		bundle, err := o.runDeterministic(ctx, jobID, doc)
		return bundle, nil, err
	default:
		return nil, nil, errors.WrapFatal(
			fmt.Errorf("unknown tier %d", tier), "generator", "runTier", "dispatch tier")
	}
}

// runFullAI asks the provider for a complete structure proposal and runs it
// through the strict pipeline. A proposal that fails normalization or
// validation rejects the tier; the original document is left untouched for
// the tiers below.
func (o *Orchestrator) runFullAI(ctx context.Context, jobID string, doc *ir.Document) (*bpmn.Bundle, []aiassist.CallRecord, error) {
	var candidate *ir.Document
	var calls []aiassist.CallRecord
	err := o.stage(jobID, doc.FlowID, "ai_propose", TierFullAI, func() error {
		var err error
		candidate, calls, err = o.adapter.ProposeStructure(ctx, doc)
		return err
	})
	if err != nil {
		return nil, calls, err
	}

	var specs []ir.ComponentSpec
	var flows []ir.SequenceFlow
	err = o.stage(jobID, doc.FlowID, "normalize", TierFullAI, func() error {
		var err error
		specs, flows, err = o.normalizer.Normalize(candidate)
		return err
	})
	if err != nil {
		return nil, calls, err
	}

	bundle, err := o.assemble(ctx, jobID, TierFullAI, candidate.FlowID, candidate.Name, specs, flows)
	return bundle, calls, err
}

// runEnhancedTemplate normalizes the document strictly and optionally asks
// the provider for better display names. Enrichment failures are advisory;
// the tier proceeds with catalog names.
func (o *Orchestrator) runEnhancedTemplate(ctx context.Context, jobID string, doc *ir.Document) (*bpmn.Bundle, []aiassist.CallRecord, error) {
	var specs []ir.ComponentSpec
	var flows []ir.SequenceFlow
	err := o.stage(jobID, doc.FlowID, "normalize", TierEnhancedTemplate, func() error {
		var err error
		specs, flows, err = o.normalizer.Normalize(doc)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	var calls []aiassist.CallRecord
	if o.adapter != nil {
		var names map[string]string
		enrichErr := o.stage(jobID, doc.FlowID, "ai_enrich", TierEnhancedTemplate, func() error {
			var err error
			names, calls, err = o.adapter.EnrichMetadata(ctx, doc, specs)
			return err
		})
		if enrichErr != nil {
			o.logger.Warn("metadata enrichment skipped",
				"job_id", jobID, "flow_id", doc.FlowID, "error", enrichErr)
		} else {
			applyNames(specs, names)
		}
		if ctx.Err() != nil {
			return nil, calls, errors.Wrap(ctx.Err(), "generator", "runEnhancedTemplate", "check cancellation")
		}
	}

	bundle, err := o.assemble(ctx, jobID, TierEnhancedTemplate, doc.FlowID, doc.Name, specs, flows)
	return bundle, calls, err
}

// runDeterministic renders whatever the document contains with no external
// calls. For identical input its output is byte-identical across runs.
func (o *Orchestrator) runDeterministic(ctx context.Context, jobID string, doc *ir.Document) (*bpmn.Bundle, error) {
	var specs []ir.ComponentSpec
	err := o.stage(jobID, doc.FlowID, "normalize", TierDeterministicFallback, func() error {
		var err error
		specs, err = o.deterministicSpecs(doc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return o.assemble(ctx, jobID, TierDeterministicFallback, doc.FlowID, doc.Name, specs, nil)
}

// assemble runs the shared back half of the pipeline: graph construction,
// adapter expansion, layout, and packaging
func (o *Orchestrator) assemble(
	ctx context.Context,
	jobID string,
	tier Tier,
	flowID, name string,
	specs []ir.ComponentSpec,
	flows []ir.SequenceFlow,
) (*bpmn.Bundle, error) {
	var g *flowgraph.FlowGraph
	err := o.stage(jobID, flowID, "graph_build", tier, func() error {
		var err error
		g, err = flowgraph.Build(flowID, name, specs, flows)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "generator", "assemble", "check cancellation")
	}

	if err := o.stage(jobID, flowID, "expand", tier, func() error {
		return g.ExpandAdapters(o.catalog)
	}); err != nil {
		return nil, err
	}

	var sheet *layout.Sheet
	err = o.stage(jobID, flowID, "layout", tier, func() error {
		var err error
		sheet, err = layout.Compute(g)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "generator", "assemble", "check cancellation")
	}

	var bundle *bpmn.Bundle
	err = o.stage(jobID, flowID, "package", tier, func() error {
		var err error
		bundle, err = o.emitter.Package(g, sheet)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bundle, nil
}

// stage reports the stage start, runs fn, and records its duration
func (o *Orchestrator) stage(jobID, flowID, name string, tier Tier, fn func() error) error {
	o.report(jobID, flowID, name, tier, "")
	start := time.Now()
	err := fn()
	if o.metrics != nil {
		o.metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
	return err
}

func (o *Orchestrator) report(jobID, flowID, stage string, tier Tier, message string) {
	o.reporter.Report(status.Event{
		JobID:     jobID,
		FlowID:    flowID,
		Stage:     stage,
		Tier:      tier.String(),
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

func (o *Orchestrator) countJob(outcome string) {
	if o.metrics != nil {
		o.metrics.JobsTotal.WithLabelValues(outcome).Inc()
	}
}

func (o *Orchestrator) observeAttempt(tier Tier, err error, calls []aiassist.CallRecord) {
	if o.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	o.metrics.AttemptsTotal.WithLabelValues(tier.String(), outcome).Inc()

	retries := 0
	for _, call := range calls {
		if call.Err != nil {
			retries++
		}
	}
	if retries > 0 {
		o.metrics.AIRetriesTotal.Add(float64(retries))
	}
}

func applyNames(specs []ir.ComponentSpec, names map[string]string) {
	for i := range specs {
		if name, ok := names[specs[i].ID]; ok && name != "" {
			specs[i].Name = name
		}
	}
}
