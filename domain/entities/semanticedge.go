package entities

import (
	kgerrors "github.com/kgraph/engine/internal/errors"
	"github.com/kgraph/engine/domain/valueobjects"
)

// SemanticEdge is a labelled relationship between two Concepts, labelled
// with a VocabType name and carrying extraction confidence. Structural
// edges (APPEARS_IN, EVIDENCED_BY, FROM_SOURCE, HAS_SOURCE) are plain
// graph-store relationships with no attributes of their own and so have no
// corresponding entity type.
type SemanticEdge struct {
	SourceConceptID string
	TargetConceptID string
	RelationType    string // a VocabType.name
	Confidence      valueobjects.Confidence
	Category        string // optional
	InstanceID      valueobjects.InstanceID
}

// NewSemanticEdge validates and constructs a semantic edge between two
// already-resolved concepts.
func NewSemanticEdge(sourceConceptID, targetConceptID, relationType string, confidence valueobjects.Confidence, instanceID valueobjects.InstanceID) (SemanticEdge, error) {
	if sourceConceptID == "" || targetConceptID == "" {
		return SemanticEdge{}, kgerrors.Validation("DANGLING_EDGE_ENDPOINT", "semantic edge endpoints must reference existing concepts").Build()
	}
	if relationType == "" {
		return SemanticEdge{}, kgerrors.Validation("EMPTY_RELATION_TYPE", "semantic edge relation_type cannot be empty").Build()
	}
	return SemanticEdge{
		SourceConceptID: sourceConceptID,
		TargetConceptID: targetConceptID,
		RelationType:    NormalizeVocabName(relationType),
		Confidence:      confidence,
		InstanceID:      instanceID,
	}, nil
}
