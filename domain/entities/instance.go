package entities

import (
	"time"

	kgerrors "github.com/kgraph/engine/internal/errors"
	"github.com/kgraph/engine/domain/valueobjects"
)

// Instance is a verbatim quote linking a Concept to the Source it was
// extracted from. Instances are immutable and owned by their Source:
// deleting the Source cascades to its Instances.
type Instance struct {
	id        valueobjects.InstanceID
	sourceID  valueobjects.SourceID
	quote     string
	createdAt time.Time
}

// NewInstance validates that the quote is verbatim in its source before
// constructing the Instance, so evidence can never be fabricated.
func NewInstance(source *Source, quote string) (*Instance, error) {
	if source == nil {
		return nil, kgerrors.Validation("NIL_SOURCE", "instance requires a source").Build()
	}
	if quote == "" {
		return nil, kgerrors.Validation("EMPTY_QUOTE", "instance quote cannot be empty").Build()
	}
	if !source.ContainsQuote(quote) {
		return nil, kgerrors.Validation("QUOTE_NOT_VERBATIM", "instance quote must be a verbatim substring of its source").
			WithResource(source.ID().String()).Build()
	}
	return &Instance{
		id:        valueobjects.NewInstanceID(),
		sourceID:  source.ID(),
		quote:     quote,
		createdAt: time.Now(),
	}, nil
}

// ReconstructInstance rebuilds an Instance from storage, skipping the
// verbatim check since it was already enforced at write time.
func ReconstructInstance(id valueobjects.InstanceID, sourceID valueobjects.SourceID, quote string, createdAt time.Time) *Instance {
	return &Instance{id: id, sourceID: sourceID, quote: quote, createdAt: createdAt}
}

func (i *Instance) ID() valueobjects.InstanceID       { return i.id }
func (i *Instance) SourceID() valueobjects.SourceID   { return i.sourceID }
func (i *Instance) Quote() string                     { return i.quote }
func (i *Instance) CreatedAt() time.Time              { return i.createdAt }
