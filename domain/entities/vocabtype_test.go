package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgraph/engine/domain/valueobjects"
)

func TestNormalizeVocabName(t *testing.T) {
	assert.Equal(t, "IMPLIES", NormalizeVocabName("implies"))
	assert.Equal(t, "IS_A", NormalizeVocabName("is-a"))
	assert.Equal(t, "SUPPORTS_STRONGLY", NormalizeVocabName("  supports   strongly "))
}

func TestNewVocabTypeValidation(t *testing.T) {
	_, err := NewVocabType("   ", valueobjects.Embedding{}, nil)
	assert.Error(t, err)

	v, err := NewVocabType("contradicts", valueobjects.Embedding{}, []string{"opposes"})
	require.NoError(t, err)
	assert.Equal(t, "CONTRADICTS", v.Name())
	assert.Equal(t, []string{"opposes"}, v.Synonyms())
}

func TestVocabTypeAddSynonym(t *testing.T) {
	v, err := NewVocabType("implies", valueobjects.Embedding{}, nil)
	require.NoError(t, err)

	v.AddSynonym("entails")
	assert.Contains(t, v.Synonyms(), "ENTAILS")

	v.AddSynonym("entails") // duplicate, no-op
	assert.Len(t, v.Synonyms(), 1)

	v.AddSynonym("implies") // same as canonical name, no-op
	assert.Len(t, v.Synonyms(), 1)

	v.AddSynonym("   ")
	assert.Len(t, v.Synonyms(), 1)
}

func TestVocabTypeCachedStats(t *testing.T) {
	v, err := NewVocabType("supports", valueobjects.Embedding{}, nil)
	require.NoError(t, err)

	_, _, ok := v.CachedStats()
	assert.False(t, ok)

	v.RefreshCachedStats(42, 0.91)
	count, avg, ok := v.CachedStats()
	assert.True(t, ok)
	assert.Equal(t, 42, count)
	assert.Equal(t, 0.91, avg)
}
