package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kgraph/engine/internal/retrypolicy"
)

type fakeClient struct {
	results []ExtractionResult
	errs    []error
	calls   int
}

func (f *fakeClient) Extract(ctx context.Context, req ExtractionRequest) (ExtractionResult, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return ExtractionResult{}, f.errs[i]
	}
	if i < len(f.results) {
		return f.results[i], nil
	}
	return f.results[len(f.results)-1], nil
}

func fastBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "test",
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
	})
}

func fastPolicy(maxAttempts int) retrypolicy.Policy {
	return retrypolicy.Policy{
		MaxAttempts:   maxAttempts,
		BaseDelay:     time.Millisecond,
		MaxDelay:      2 * time.Millisecond,
		BackoffFactor: 1.0,
		JitterFactor:  0,
	}
}

func validResult() ExtractionResult {
	return ExtractionResult{
		Concepts: []ExtractedConcept{{LocalID: "c1", Label: "entropy"}},
	}
}

func TestExtractReturnsResultOnFirstSuccess(t *testing.T) {
	client := &fakeClient{results: []ExtractionResult{validResult()}}
	e := &Extractor{client: client, policy: fastPolicy(3), breaker: fastBreaker(), logger: zap.NewNop()}

	got, err := e.Extract(context.Background(), ExtractionRequest{ChunkText: "x"})
	require.NoError(t, err)
	assert.Equal(t, "c1", got.Concepts[0].LocalID)
	assert.Equal(t, 1, client.calls)
}

func TestExtractRetriesOnMalformedSchemaThenSucceeds(t *testing.T) {
	client := &fakeClient{results: []ExtractionResult{
		{Concepts: []ExtractedConcept{{LocalID: "", Label: "missing-id"}}},
		validResult(),
	}}
	e := &Extractor{client: client, policy: fastPolicy(3), breaker: fastBreaker(), logger: zap.NewNop()}

	got, err := e.Extract(context.Background(), ExtractionRequest{ChunkText: "x"})
	require.NoError(t, err)
	assert.Equal(t, "c1", got.Concepts[0].LocalID)
	assert.Equal(t, 2, client.calls)
}

func TestExtractFailsAfterMaxParseRetriesRegardlessOfPolicyBudget(t *testing.T) {
	invalid := ExtractionResult{Concepts: []ExtractedConcept{{LocalID: "", Label: "bad"}}}
	client := &fakeClient{results: []ExtractionResult{invalid, invalid, invalid, invalid, invalid}}
	e := &Extractor{client: client, policy: fastPolicy(5), breaker: fastBreaker(), logger: zap.NewNop()}

	_, err := e.Extract(context.Background(), ExtractionRequest{ChunkText: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("schema invalid after %d attempts", MaxParseRetries))
	assert.Equal(t, MaxParseRetries, client.calls)
}

func TestExtractRetriesProviderErrorsPerPolicy(t *testing.T) {
	client := &fakeClient{errs: []error{errors.New("timeout"), errors.New("timeout")}, results: []ExtractionResult{{}, {}}}
	e := &Extractor{client: client, policy: fastPolicy(2), breaker: fastBreaker(), logger: zap.NewNop()}

	_, err := e.Extract(context.Background(), ExtractionRequest{ChunkText: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operation failed after 2 attempts")
	assert.Equal(t, 2, client.calls)
}

func TestExtractPropagatesContextCancellation(t *testing.T) {
	client := &fakeClient{results: []ExtractionResult{validResult()}}
	e := &Extractor{client: client, policy: fastPolicy(3), breaker: fastBreaker(), logger: zap.NewNop()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Extract(ctx, ExtractionRequest{ChunkText: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, client.calls)
}

func TestExtractCircuitBreakerOpensAfterRepeatedFailures(t *testing.T) {
	client := &fakeClient{errs: []error{
		errors.New("boom"), errors.New("boom"), errors.New("boom"), errors.New("boom"), errors.New("boom"),
	}}
	breaker := fastBreaker()
	e := &Extractor{client: client, policy: fastPolicy(1), breaker: breaker, logger: zap.NewNop()}

	for i := 0; i < 5; i++ {
		_, err := e.Extract(context.Background(), ExtractionRequest{ChunkText: "x"})
		require.Error(t, err)
	}

	_, err := e.Extract(context.Background(), ExtractionRequest{ChunkText: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, 5, client.calls)
}

func TestValidateRejectsConceptMissingLocalID(t *testing.T) {
	r := ExtractionResult{Concepts: []ExtractedConcept{{Label: "x"}}}
	assert.Error(t, r.Validate())
}

func TestValidateRejectsConceptMissingLabel(t *testing.T) {
	r := ExtractionResult{Concepts: []ExtractedConcept{{LocalID: "c1"}}}
	assert.Error(t, r.Validate())
}

func TestValidateRejectsEvidenceWithEmptyQuote(t *testing.T) {
	r := ExtractionResult{Evidence: []ExtractedEvidence{{QuoteID: "q1"}}}
	assert.Error(t, r.Validate())
}

func TestValidateRejectsRelationshipMissingType(t *testing.T) {
	r := ExtractionResult{Relationships: []ExtractedRelationship{{From: "a", To: "b"}}}
	assert.Error(t, r.Validate())
}

func TestValidateAcceptsWellFormedResult(t *testing.T) {
	r := validResult()
	assert.NoError(t, r.Validate())
}
