package aiassist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/c360/flowbridge/errors"
	"github.com/c360/flowbridge/ir"
	"github.com/c360/flowbridge/pkg/retry"
	"github.com/c360/flowbridge/template"
)

// MaxAttempts is the hard cap on provider calls per adapter invocation
const MaxAttempts = 5

// CallRecord captures one provider call for the orchestrator's attempt
// trail
type CallRecord struct {
	RawResponse string
	Err         error
}

// Adapter wraps the provider with prompt construction, bounded retries, and
// candidate parsing
type Adapter struct {
	provider Provider
	catalog  *template.Catalog
	logger   *slog.Logger
	retryCfg retry.Config
}

// Option customizes an Adapter
type Option func(*Adapter)

// WithRetryConfig overrides the retry policy. MaxAttempts is capped at the
// package limit.
func WithRetryConfig(cfg retry.Config) Option {
	return func(a *Adapter) {
		if cfg.MaxAttempts <= 0 || cfg.MaxAttempts > MaxAttempts {
			cfg.MaxAttempts = MaxAttempts
		}
		a.retryCfg = cfg
	}
}

// New creates an analysis adapter
func New(provider Provider, catalog *template.Catalog, logger *slog.Logger, opts ...Option) *Adapter {
	a := &Adapter{
		provider: provider,
		catalog:  catalog,
		logger:   logger,
		retryCfg: retry.Config{
			MaxAttempts:  MaxAttempts,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     8 * time.Second,
			Multiplier:   2.0,
			AddJitter:    true,
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ProposeStructure asks the provider for a complete component and flow
// structure for the document. The candidate is returned as a raw IR
// document for normalization; the caller owns validation. After MaxAttempts
// failures the sentinel ErrAIUnavailable is returned together with the call
// records rather than an unhandled provider error.
func (a *Adapter) ProposeStructure(ctx context.Context, doc *ir.Document) (*ir.Document, []CallRecord, error) {
	req := Request{
		System: structureSystemPrompt(a.catalog),
		User:   structureUserPrompt(doc),
	}

	var records []CallRecord
	candidate, err := complete(ctx, a, req, &records, parseCandidate)
	if err != nil {
		a.logger.Warn("AI structure proposal unavailable",
			"flow_id", doc.FlowID, "attempts", len(records), "error", err)
		return nil, records, errors.Wrap(errors.ErrAIUnavailable, "aiassist", "ProposeStructure", "exhaust retries")
	}

	candidate.FlowID = doc.FlowID
	if candidate.Name == "" {
		candidate.Name = doc.Name
	}
	return candidate, records, nil
}

// EnrichMetadata asks the provider for descriptive names only; structure is
// untouched. The returned map is keyed by component id. Unavailability is
// reported the same way as ProposeStructure and is non-fatal for tier 2.
func (a *Adapter) EnrichMetadata(ctx context.Context, doc *ir.Document, specs []ir.ComponentSpec) (map[string]string, []CallRecord, error) {
	req := Request{
		System: metadataSystemPrompt(),
		User:   metadataUserPrompt(doc, specs),
	}

	var records []CallRecord
	names, err := complete(ctx, a, req, &records, parseNameMap)
	if err != nil {
		a.logger.Warn("AI metadata enrichment unavailable",
			"flow_id", doc.FlowID, "attempts", len(records), "error", err)
		return nil, records, errors.Wrap(errors.ErrAIUnavailable, "aiassist", "EnrichMetadata", "exhaust retries")
	}
	return names, records, nil
}

// complete runs one retried provider interaction, parsing each raw response
// with parse. Parse failures count as attempts and are retried like
// invocation failures.
func complete[T any](ctx context.Context, a *Adapter, req Request, records *[]CallRecord, parse func(string) (T, error)) (T, error) {
	cfg := a.retryCfg
	var lastRaw string
	cfg.Notify = func(attempt int, err error) {
		*records = append(*records, CallRecord{RawResponse: lastRaw, Err: err})
		lastRaw = ""
	}

	return retry.DoWithResult(ctx, cfg, func() (T, error) {
		var zero T
		raw, err := a.provider.Complete(ctx, req)
		if err != nil {
			if !errors.IsTransient(err) {
				return zero, retry.Stop(err)
			}
			return zero, err
		}
		lastRaw = raw

		parsed, err := parse(raw)
		if err != nil {
			return zero, errors.WrapTransient(
				fmt.Errorf("%v: %w", err, errors.ErrAIResponseParse),
				"aiassist", "complete", "parse candidate")
		}

		// Successful call: record it too, so the trail covers every
		// provider interaction.
		*records = append(*records, CallRecord{RawResponse: raw})
		return parsed, nil
	})
}

// parseCandidate decodes a structure proposal, tolerating markdown fences
func parseCandidate(raw string) (*ir.Document, error) {
	cleaned := stripFences(raw)

	var doc ir.Document
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, fmt.Errorf("candidate is not valid JSON: %w", err)
	}
	if len(doc.Components) == 0 {
		return nil, fmt.Errorf("candidate has no components")
	}
	for i, c := range doc.Components {
		if c.ID == "" || c.Type == "" {
			return nil, fmt.Errorf("candidate component at index %d missing id or type", i)
		}
	}
	return &doc, nil
}

func parseNameMap(raw string) (map[string]string, error) {
	cleaned := stripFences(raw)

	var names map[string]string
	if err := json.Unmarshal([]byte(cleaned), &names); err != nil {
		return nil, fmt.Errorf("name map is not valid JSON: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("name map is empty")
	}
	return names, nil
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
