package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgraph/engine/domain/valueobjects"
)

func TestNewSemanticEdgeValidation(t *testing.T) {
	conf := valueobjects.MustConfidence(0.9)
	iid := valueobjects.NewInstanceID()

	_, err := NewSemanticEdge("", "target", "IMPLIES", conf, iid)
	assert.Error(t, err)

	_, err = NewSemanticEdge("source", "target", "", conf, iid)
	assert.Error(t, err)

	edge, err := NewSemanticEdge("ai", "ml", "implies", conf, iid)
	require.NoError(t, err)
	assert.Equal(t, "IMPLIES", edge.RelationType)
	assert.Equal(t, "ai", edge.SourceConceptID)
	assert.Equal(t, "ml", edge.TargetConceptID)
	assert.Equal(t, iid, edge.InstanceID)
}
