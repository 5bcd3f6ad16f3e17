package valueobjects

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConceptID(t *testing.T) {
	id, err := ParseConceptID("  machine-learning  ")
	require.NoError(t, err)
	assert.Equal(t, "machine-learning", id.String())

	_, err = ParseConceptID("   ")
	assert.Error(t, err)
}

func TestConceptIDEquals(t *testing.T) {
	a, _ := ParseConceptID("ai")
	b, _ := ParseConceptID("ai")
	c, _ := ParseConceptID("ml")
	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
}

func TestParseSourceID(t *testing.T) {
	_, err := ParseSourceID("")
	assert.Error(t, err)

	id, err := ParseSourceID("doc.txt_chunk0")
	require.NoError(t, err)
	assert.False(t, id.IsEmpty())
}

func TestInstanceIDRoundtrip(t *testing.T) {
	id := NewInstanceID()
	parsed, err := ParseInstanceID(id.String())
	require.NoError(t, err)
	assert.True(t, id.Equals(parsed))

	_, err = ParseInstanceID("not-a-uuid")
	assert.Error(t, err)
}

func TestParseDocumentID(t *testing.T) {
	id, err := ParseDocumentID("deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", id.String())

	_, err = ParseDocumentID("")
	assert.Error(t, err)
}

func TestJobIDRoundtrip(t *testing.T) {
	id := NewJobID()
	_, err := uuid.Parse(id.String())
	require.NoError(t, err)

	_, err = ParseJobID("garbage")
	assert.Error(t, err)
}
