package vectorindex

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/kgraph/engine/application/ports"
	"github.com/kgraph/engine/domain/valueobjects"
)

// InMemoryIndex is a brute-force ports.VectorIndex backed by a plain map,
// an in-memory vector store shape (no ANN
// structure, linear scan per search). It exists for unit tests and small
// deployments that don't warrant a live Qdrant instance; production wiring
// uses QdrantIndex instead.
type InMemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]inMemoryEntry
	rng     *rand.Rand
}

type inMemoryEntry struct {
	embedding valueobjects.Embedding
	degree    int
}

// NewInMemoryIndex builds an empty brute-force index.
func NewInMemoryIndex() *InMemoryIndex {
	return &InMemoryIndex{
		entries: make(map[string]inMemoryEntry),
		rng:     rand.New(rand.NewSource(1)),
	}
}

func (idx *InMemoryIndex) Upsert(ctx context.Context, slug string, embedding valueobjects.Embedding, degree int) error {
	if slug == "" {
		return fmt.Errorf("vectorindex: slug must not be empty")
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries[slug] = inMemoryEntry{embedding: embedding, degree: degree}
	return nil
}

func (idx *InMemoryIndex) Delete(ctx context.Context, slug string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.entries, slug)
	return nil
}

func (idx *InMemoryIndex) Search(ctx context.Context, embedding valueobjects.Embedding, topK int, threshold float64, strategy ports.VectorSearchStrategy, degreePercentile float64) ([]ports.VectorSearchHit, error) {
	idx.mu.RLock()
	all := make([]candidate, 0, len(idx.entries))
	for slug, e := range idx.entries {
		all = append(all, candidate{
			Slug:       slug,
			Similarity: embedding.CosineSimilarity(e.embedding),
			Degree:     e.degree,
		})
	}
	idx.mu.RUnlock()

	ranked := applyStrategy(all, strategy, degreePercentile, topK, threshold, idx.rng)

	hits := make([]ports.VectorSearchHit, len(ranked))
	for i, c := range ranked {
		hits[i] = ports.VectorSearchHit{ConceptSlug: c.Slug, Similarity: c.Similarity, Degree: c.Degree}
	}
	return hits, nil
}

var _ ports.VectorIndex = (*InMemoryIndex)(nil)
