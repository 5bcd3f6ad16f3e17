// Package llm defines the extraction adapter port: given a chunk
// of text and recent concept context, return structured concepts,
// relationships, and evidence. Concrete providers live in the anthropic
// and openai subpackages; this package also hosts the
// retry/circuit-breaker wrapper shared by both.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/kgraph/engine/internal/retrypolicy"
)

// ConceptContext is one entry of the recent-concept-context list passed to
// the extractor so cross-chunk relationships can be recovered without
// post-processing.
type ConceptContext struct {
	ConceptID   string   `json:"concept_id"`
	Label       string   `json:"label"`
	SearchTerms []string `json:"search_terms"`
}

// ExtractionRequest is the input to one extraction call.
type ExtractionRequest struct {
	ChunkText      string
	RecentConcepts []ConceptContext
}

// ExtractedConcept is one concept surfaced by the LLM, not yet resolved
// against the graph.
type ExtractedConcept struct {
	LocalID     string   `json:"local_id"`
	Label       string   `json:"label"`
	SearchTerms []string `json:"search_terms"`
	QuoteIDs    []string `json:"quote_ids"`
}

// ExtractedRelationship is one relationship surfaced by the LLM, endpoints
// referring either to a LocalID in this chunk or an existing concept_id.
type ExtractedRelationship struct {
	From       string  `json:"from_local_or_existing"`
	To         string  `json:"to_local_or_existing"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// ExtractedEvidence binds a verbatim quote to the concept it supports.
type ExtractedEvidence struct {
	QuoteID         string `json:"quote_id"`
	Quote           string `json:"quote"`
	ConceptLocalID  string `json:"concept_local_id"`
}

// ExtractionResult is the structured output contract of one extraction call.
type ExtractionResult struct {
	Concepts      []ExtractedConcept       `json:"concepts"`
	Relationships []ExtractedRelationship  `json:"relationships"`
	Evidence      []ExtractedEvidence      `json:"evidence"`
}

// Validate checks the schema invariants the adapter must enforce before
// handing a result to the ingestion engine: every quote_id/local_id
// reference must resolve within the same result.
func (r ExtractionResult) Validate() error {
	concepts := make(map[string]bool, len(r.Concepts))
	for _, c := range r.Concepts {
		if c.LocalID == "" {
			return fmt.Errorf("llm: concept missing local_id")
		}
		if c.Label == "" {
			return fmt.Errorf("llm: concept %s missing label", c.LocalID)
		}
		concepts[c.LocalID] = true
	}
	for _, e := range r.Evidence {
		if e.Quote == "" {
			return fmt.Errorf("llm: evidence %s has empty quote", e.QuoteID)
		}
	}
	for _, rel := range r.Relationships {
		if rel.Type == "" {
			return fmt.Errorf("llm: relationship missing type")
		}
	}
	return nil
}

// Client is the raw per-provider capability: issue one structured
// extraction call. Providers are expected to force JSON-shaped output
// (tool-use for Anthropic, JSON mode for OpenAI).
type Client interface {
	Extract(ctx context.Context, req ExtractionRequest) (ExtractionResult, error)
}

// Extractor is the extraction port as consumed by the ingestion engine:
// retries malformed output and network failures by re-sending the same
// request (the prompt does not change between attempts), and wraps
// the whole call in a circuit breaker so a dead provider fails fast instead
// of blocking the chunk loop.
type Extractor struct {
	client  Client
	policy  retrypolicy.Policy
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// MaxParseRetries bounds schema-validation attempts; each attempt re-sends
// the identical request.
const MaxParseRetries = 3

// NewExtractor wraps a provider Client with the shared retry/circuit
// breaker policy, the same pattern applied to HTTP handlers in
// internal/middleware/circuit_breaker.go via sony/gobreaker.
func NewExtractor(client Client, logger *zap.Logger) *Extractor {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm-extractor",
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("llm circuit breaker state change", zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
	return &Extractor{client: client, policy: retrypolicy.Default(), breaker: breaker, logger: logger}
}

// Extract runs one chunk through the provider, retrying malformed JSON
// output and network failures, failing the chunk with a recoverable error
// on exhaustion.
func (e *Extractor) Extract(ctx context.Context, req ExtractionRequest) (ExtractionResult, error) {
	var result ExtractionResult
	var parseAttempt int

	op := func() error {
		raw, err := e.breaker.Execute(func() (any, error) {
			return e.client.Extract(ctx, req)
		})
		if err != nil {
			return fmt.Errorf("llm: provider call: %w", err)
		}
		result = raw.(ExtractionResult)

		if err := result.Validate(); err != nil {
			parseAttempt++
			if parseAttempt >= MaxParseRetries {
				return retrypolicy.Retryable{Err: fmt.Errorf("llm: schema invalid after %d attempts: %w", parseAttempt, err), Retryable: false}
			}
			e.logger.Warn("llm extraction schema invalid, retrying", zap.Int("attempt", parseAttempt), zap.Error(err))
			return fmt.Errorf("llm: schema invalid: %w", err)
		}
		return nil
	}

	if err := retrypolicy.Run(ctx, e.policy, isRetryableLLMError, op); err != nil {
		return ExtractionResult{}, err
	}
	return result, nil
}

func isRetryableLLMError(err error) bool {
	return err != nil
}
