package valueobjects

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbeddingValidation(t *testing.T) {
	_, err := NewEmbedding(nil, 0)
	assert.Error(t, err)

	_, err = NewEmbedding([]float32{1, 2, 3}, 4)
	assert.Error(t, err)

	_, err = NewEmbedding([]float32{1, float32(math.NaN())}, 0)
	assert.Error(t, err)

	e, err := NewEmbedding([]float32{1, 2, 3}, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, e.Dim())
}

func TestEmbeddingIsDefensiveCopy(t *testing.T) {
	src := []float32{1, 2, 3}
	e, err := NewEmbedding(src, 0)
	require.NoError(t, err)
	src[0] = 99
	assert.Equal(t, float32(1), e.Values()[0])
}

func TestCosineSimilarity(t *testing.T) {
	a, _ := NewEmbedding([]float32{1, 0}, 0)
	b, _ := NewEmbedding([]float32{1, 0}, 0)
	c, _ := NewEmbedding([]float32{0, 1}, 0)

	assert.InDelta(t, 1.0, a.CosineSimilarity(b), 1e-9)
	assert.InDelta(t, 0.0, a.CosineSimilarity(c), 1e-9)
	assert.InDelta(t, 0.0, a.CosineDistance(b), 1e-9)
}

func TestCosineSimilarityDimensionMismatch(t *testing.T) {
	a, _ := NewEmbedding([]float32{1, 0}, 0)
	b, _ := NewEmbedding([]float32{1, 0, 0}, 0)
	assert.Equal(t, 0.0, a.CosineSimilarity(b))
}

func TestEmbeddingEquals(t *testing.T) {
	a, _ := NewEmbedding([]float32{1, 2}, 0)
	b, _ := NewEmbedding([]float32{1, 2}, 0)
	c, _ := NewEmbedding([]float32{1, 2, 3}, 0)
	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
}

func TestNewConfidence(t *testing.T) {
	_, err := NewConfidence(-0.1)
	assert.Error(t, err)
	_, err = NewConfidence(1.1)
	assert.Error(t, err)

	c, err := NewConfidence(0.75)
	require.NoError(t, err)
	assert.True(t, c.MeetsThreshold(0.5))
	assert.False(t, c.MeetsThreshold(0.9))
}

func TestMustConfidenceClamps(t *testing.T) {
	assert.Equal(t, 0.0, MustConfidence(-5).Value())
	assert.Equal(t, 1.0, MustConfidence(5).Value())
	assert.Equal(t, 0.5, MustConfidence(0.5).Value())
}
