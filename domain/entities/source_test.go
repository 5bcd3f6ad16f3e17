package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgraph/engine/domain/valueobjects"
)

func TestSourceIDFor(t *testing.T) {
	assert.Equal(t, "notes.txt_chunk0", SourceIDFor("notes.txt", 0))
	assert.Equal(t, "notes.txt_chunk3", SourceIDFor("notes.txt", 3))
}

func TestNewSourceValidation(t *testing.T) {
	_, err := NewSource(NewSourceParams{Filename: "f.txt", FullText: "   "})
	assert.Error(t, err)

	_, err = NewSource(NewSourceParams{Filename: "f.txt", FullText: "hello", ChunkIndex: -1})
	assert.Error(t, err)

	_, err = NewSource(NewSourceParams{Filename: "f.txt", FullText: "hello", CharOffsetStart: 10, CharOffsetEnd: 5})
	assert.Error(t, err)

	s, err := NewSource(NewSourceParams{
		Filename:    "notes.txt",
		FullText:    "the quick brown fox",
		ChunkIndex:  2,
		ChunkMethod: ChunkMethodParagraph,
	})
	require.NoError(t, err)
	assert.Equal(t, "notes.txt_chunk2", s.ID().String())
	assert.Equal(t, ChunkMethodParagraph, s.ChunkMethod())
}

func TestSourceContainsQuote(t *testing.T) {
	s, err := NewSource(NewSourceParams{Filename: "f.txt", FullText: "the quick brown fox"})
	require.NoError(t, err)

	assert.True(t, s.ContainsQuote("quick brown"))
	assert.False(t, s.ContainsQuote("slow turtle"))
	assert.False(t, s.ContainsQuote(""))
}

func TestNewInstanceRequiresVerbatimQuote(t *testing.T) {
	s, err := NewSource(NewSourceParams{Filename: "f.txt", FullText: "the quick brown fox"})
	require.NoError(t, err)

	_, err = NewInstance(nil, "quick")
	assert.Error(t, err)

	_, err = NewInstance(s, "")
	assert.Error(t, err)

	_, err = NewInstance(s, "slow turtle")
	assert.Error(t, err)

	inst, err := NewInstance(s, "quick brown")
	require.NoError(t, err)
	assert.Equal(t, s.ID(), inst.SourceID())
	assert.Equal(t, "quick brown", inst.Quote())
}

func TestReconstructInstance(t *testing.T) {
	sid, _ := valueobjects.ParseSourceID("f.txt_chunk0")
	iid := valueobjects.NewInstanceID()
	inst := ReconstructInstance(iid, sid, "quote", time.Now())
	assert.Equal(t, iid, inst.ID())
	assert.Equal(t, sid, inst.SourceID())
}
