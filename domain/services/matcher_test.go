package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgraph/engine/application/ports"
	"github.com/kgraph/engine/domain/valueobjects"
)

type fakeVectorIndex struct {
	hits []ports.VectorSearchHit
	err  error
}

func (f *fakeVectorIndex) Search(ctx context.Context, embedding valueobjects.Embedding, topK int, threshold float64, strategy ports.VectorSearchStrategy, degreePercentile float64) ([]ports.VectorSearchHit, error) {
	return f.hits, f.err
}
func (f *fakeVectorIndex) Upsert(ctx context.Context, slug string, embedding valueobjects.Embedding, degree int) error {
	return nil
}
func (f *fakeVectorIndex) Delete(ctx context.Context, slug string) error { return nil }

func testEmb(t *testing.T) valueobjects.Embedding {
	t.Helper()
	e, err := valueobjects.NewEmbedding([]float32{0.1, 0.2}, 0)
	require.NoError(t, err)
	return e
}

func TestConceptMatcherMatchHit(t *testing.T) {
	idx := &fakeVectorIndex{hits: []ports.VectorSearchHit{{ConceptSlug: "machine-learning", Similarity: 0.92}}}
	matcher := NewConceptMatcher(idx, nil)

	outcome, err := matcher.Match(context.Background(), ExtractedConcept{
		Label:       "ML",
		SearchTerms: []string{"machine learning"},
	}, testEmb(t), DefaultMatchConfig())

	require.NoError(t, err)
	assert.True(t, outcome.Matched)
	assert.Equal(t, "machine-learning", outcome.Slug)
	assert.Nil(t, outcome.Concept)
	assert.Contains(t, outcome.Terms, "ML")
	assert.Contains(t, outcome.Terms, "machine learning")
}

func TestConceptMatcherMatchMiss(t *testing.T) {
	idx := &fakeVectorIndex{hits: nil}
	matcher := NewConceptMatcher(idx, nil)

	outcome, err := matcher.Match(context.Background(), ExtractedConcept{
		Label:       "Quantum Computing",
		SearchTerms: []string{"qubit"},
	}, testEmb(t), DefaultMatchConfig())

	require.NoError(t, err)
	assert.False(t, outcome.Matched)
	require.NotNil(t, outcome.Concept)
	assert.Equal(t, "Quantum Computing", outcome.Concept.Label())
	assert.Contains(t, outcome.Concept.SearchTerms(), "qubit")
}

func TestConceptMatcherSearchError(t *testing.T) {
	idx := &fakeVectorIndex{err: assertErr}
	matcher := NewConceptMatcher(idx, nil)

	_, err := matcher.Match(context.Background(), ExtractedConcept{Label: "X"}, testEmb(t), DefaultMatchConfig())
	assert.Error(t, err)
}

var assertErr = errDummy{}

type errDummy struct{}

func (errDummy) Error() string { return "index unavailable" }
