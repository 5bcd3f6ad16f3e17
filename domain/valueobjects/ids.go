// Package valueobjects holds the immutable value types shared across the
// ingestion and query domain: identifiers, embeddings, and scalar scores.
package valueobjects

import (
	"strings"

	"github.com/google/uuid"

	kgerrors "github.com/kgraph/engine/internal/errors"
)

// ConceptID identifies a Concept node in the knowledge graph. Unlike the
// other identifiers here it is not a random uuid: it is the stable,
// kebab-cased slug derived from the concept's label (see
// entities.ConceptIDFromLabel), so construction only trims and validates
// non-emptiness.
type ConceptID struct {
	value string
}

// ParseConceptID validates and wraps an existing slug string.
func ParseConceptID(id string) (ConceptID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ConceptID{}, kgerrors.Validation("EMPTY_CONCEPT_ID", "concept id must not be empty").Build()
	}
	return ConceptID{value: id}, nil
}

func (id ConceptID) String() string          { return id.value }
func (id ConceptID) Equals(o ConceptID) bool  { return id.value == o.value }
func (id ConceptID) IsEmpty() bool           { return id.value == "" }
func (id ConceptID) MarshalText() ([]byte, error) { return []byte(id.value), nil }
func (id *ConceptID) UnmarshalText(b []byte) error {
	v, err := ParseConceptID(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// SourceID identifies one chunk of a document. It is not a random uuid: it
// is deterministically formatted as "{filename}_chunk{N}" by the chunker
// (see ingestion.SourceIDFor), so construction here only validates
// non-emptiness.
type SourceID struct{ value string }

func ParseSourceID(id string) (SourceID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return SourceID{}, kgerrors.Validation("EMPTY_SOURCE_ID", "source id must not be empty").Build()
	}
	return SourceID{value: id}, nil
}

func (id SourceID) String() string         { return id.value }
func (id SourceID) Equals(o SourceID) bool  { return id.value == o.value }
func (id SourceID) IsEmpty() bool          { return id.value == "" }

// InstanceID identifies a single extracted mention (an Instance edge/fact).
type InstanceID struct{ value string }

func NewInstanceID() InstanceID { return InstanceID{value: uuid.New().String()} }

func ParseInstanceID(id string) (InstanceID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return InstanceID{}, kgerrors.Validation("EMPTY_INSTANCE_ID", "instance id must not be empty").Build()
	}
	if _, err := uuid.Parse(id); err != nil {
		return InstanceID{}, kgerrors.Validation("INVALID_INSTANCE_ID", "instance id must be a valid uuid").WithCause(err).Build()
	}
	return InstanceID{value: id}, nil
}

func (id InstanceID) String() string         { return id.value }
func (id InstanceID) Equals(o InstanceID) bool { return id.value == o.value }
func (id InstanceID) IsEmpty() bool          { return id.value == "" }

// DocumentID identifies a DocumentMeta row. Per the data model, document_id
// equals the document's content_hash, so it is produced by hashing content
// rather than generated here.
type DocumentID struct{ value string }

func ParseDocumentID(id string) (DocumentID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return DocumentID{}, kgerrors.Validation("EMPTY_DOCUMENT_ID", "document id must not be empty").Build()
	}
	return DocumentID{value: id}, nil
}

func (id DocumentID) String() string          { return id.value }
func (id DocumentID) Equals(o DocumentID) bool { return id.value == o.value }
func (id DocumentID) IsEmpty() bool           { return id.value == "" }

// JobID identifies an ingestion job.
type JobID struct{ value string }

func NewJobID() JobID { return JobID{value: uuid.New().String()} }

func ParseJobID(id string) (JobID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return JobID{}, kgerrors.Validation("EMPTY_JOB_ID", "job id must not be empty").Build()
	}
	if _, err := uuid.Parse(id); err != nil {
		return JobID{}, kgerrors.Validation("INVALID_JOB_ID", "job id must be a valid uuid").WithCause(err).Build()
	}
	return JobID{value: id}, nil
}

func (id JobID) String() string        { return id.value }
func (id JobID) Equals(o JobID) bool   { return id.value == o.value }
func (id JobID) IsEmpty() bool        { return id.value == "" }
