package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgraph/engine/application/ports"
	"github.com/kgraph/engine/domain/valueobjects"
)

func emb(t *testing.T, vs ...float32) valueobjects.Embedding {
	t.Helper()
	e, err := valueobjects.NewEmbedding(vs, 0)
	require.NoError(t, err)
	return e
}

func TestInMemoryIndexUpsertAndSearch(t *testing.T) {
	idx := NewInMemoryIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "ai", emb(t, 1, 0), 5))
	require.NoError(t, idx.Upsert(ctx, "ml", emb(t, 0.9, 0.1), 3))
	require.NoError(t, idx.Upsert(ctx, "cooking", emb(t, 0, 1), 1))

	hits, err := idx.Search(ctx, emb(t, 1, 0), 5, 0.5, ports.StrategyExhaustive, 0)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "ai", hits[0].ConceptSlug)
	for _, h := range hits {
		assert.NotEqual(t, "cooking", h.ConceptSlug)
	}
}

func TestInMemoryIndexUpsertRejectsEmptySlug(t *testing.T) {
	idx := NewInMemoryIndex()
	err := idx.Upsert(context.Background(), "", emb(t, 1, 0), 0)
	assert.Error(t, err)
}

func TestInMemoryIndexDelete(t *testing.T) {
	idx := NewInMemoryIndex()
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, "ai", emb(t, 1, 0), 5))
	require.NoError(t, idx.Delete(ctx, "ai"))

	hits, err := idx.Search(ctx, emb(t, 1, 0), 5, 0.0, ports.StrategyExhaustive, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestInMemoryIndexRespectsTopK(t *testing.T) {
	idx := NewInMemoryIndex()
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		require.NoError(t, idx.Upsert(ctx, string(rune('a'+i)), emb(t, 1, 0), i))
	}

	hits, err := idx.Search(ctx, emb(t, 1, 0), 3, 0.0, ports.StrategyExhaustive, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}
