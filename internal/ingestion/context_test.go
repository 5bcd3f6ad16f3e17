package ingestion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgraph/engine/domain/entities"
	"github.com/kgraph/engine/domain/valueobjects"
)

func TestRecentConceptContextMapsConceptsToContextEntries(t *testing.T) {
	emb, err := valueobjects.NewEmbedding([]float32{0.1, 0.2}, 2)
	require.NoError(t, err)
	concept, err := entities.NewConcept("entropy", emb)
	require.NoError(t, err)
	concept.AddSearchTerm("disorder")

	graph := &fakeGraphStore{recentConcepts: []*entities.Concept{concept}}

	out, err := RecentConceptContext(context.Background(), graph, "physics")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, concept.ConceptSlug(), out[0].ConceptID)
	assert.Equal(t, "entropy", out[0].Label)
	assert.Contains(t, out[0].SearchTerms, "disorder")
}

func TestRecentConceptContextHandlesEmptyResult(t *testing.T) {
	graph := &fakeGraphStore{}
	out, err := RecentConceptContext(context.Background(), graph, "physics")
	require.NoError(t, err)
	assert.Empty(t, out)
}
