package ingestion

import (
	"context"

	"github.com/kgraph/engine/application/ports"
	"github.com/kgraph/engine/internal/llm"
)

// maxRecentConcepts bounds the context window handed to the extractor.
const maxRecentConcepts = 50

// RecentConceptContext fetches the N most-recently-touched concepts in an
// ontology for cross-chunk linking. It is recomputed fresh at the start of
// every chunk rather than threaded as mutable shared state across workers.
func RecentConceptContext(ctx context.Context, store ports.GraphStore, ontology string) ([]llm.ConceptContext, error) {
	concepts, err := store.RecentConcepts(ctx, ontology, maxRecentConcepts)
	if err != nil {
		return nil, err
	}
	out := make([]llm.ConceptContext, len(concepts))
	for i, c := range concepts {
		out[i] = llm.ConceptContext{
			ConceptID:   c.ConceptSlug(),
			Label:       c.Label(),
			SearchTerms: c.SearchTerms(),
		}
	}
	return out, nil
}
