package entities

import (
	"regexp"
	"strings"
	"time"

	kgerrors "github.com/kgraph/engine/internal/errors"
	"github.com/kgraph/engine/domain/events"
	"github.com/kgraph/engine/domain/valueobjects"
)

var kebabNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// ConceptIDFromLabel derives the stable concept_id by kebab-casing a label.
// Two labels that normalize to the same slug collide by design: that
// collision is exactly what the matcher's exact-slug lookup relies on.
func ConceptIDFromLabel(label string) string {
	slug := kebabNonAlnum.ReplaceAllString(strings.ToLower(strings.TrimSpace(label)), "-")
	return strings.Trim(slug, "-")
}

// Concept is the rich aggregate for a unique idea in the graph. It is
// created once on a match-miss and thereafter only grows by accretion
// (new search terms, new evidence) or by an explicit curator merge; it is
// never mutated in ways that would invalidate previously committed
// Instances.
type Concept struct {
	label             string
	searchTerms       []string // ordered, de-duplicated
	embedding         valueobjects.Embedding
	groundingStrength *float64 // optional, in [-1,1]
	createdAt         time.Time
	updatedAt         time.Time
	version           int
	slugOverride      string // set by ReconstructConcept since concept_id is derived, not random

	events []events.DomainEvent
}

// NewConcept creates a brand new Concept on a match-miss.
func NewConcept(label string, embedding valueobjects.Embedding) (*Concept, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, kgerrors.Validation("EMPTY_CONCEPT_LABEL", "concept label cannot be empty").Build()
	}
	if embedding.IsEmpty() {
		return nil, kgerrors.Validation("EMPTY_CONCEPT_EMBEDDING", "concept embedding cannot be empty").Build()
	}
	now := time.Now()
	c := &Concept{
		label:       label,
		searchTerms: []string{label},
		embedding:   embedding,
		createdAt:   now,
		updatedAt:   now,
		version:     1,
	}
	c.addEvent(events.NewConceptCreated(c.ConceptSlug(), label))
	return c, nil
}

// ReconstructConcept rebuilds a Concept from persisted storage without
// raising creation events.
func ReconstructConcept(
	slug, label string,
	searchTerms []string,
	embedding valueobjects.Embedding,
	groundingStrength *float64,
	createdAt, updatedAt time.Time,
	version int,
) (*Concept, error) {
	if label == "" {
		return nil, kgerrors.Validation("EMPTY_CONCEPT_LABEL", "concept label cannot be empty").Build()
	}
	terms := make([]string, len(searchTerms))
	copy(terms, searchTerms)
	return &Concept{
		label:             label,
		searchTerms:       terms,
		embedding:         embedding,
		groundingStrength: groundingStrength,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
		version:           version,
		slugOverride:      slug,
	}, nil
}

func (c *Concept) ConceptSlug() string {
	if c.slugOverride != "" {
		return c.slugOverride
	}
	return ConceptIDFromLabel(c.label)
}

func (c *Concept) Label() string                  { return c.label }
func (c *Concept) Embedding() valueobjects.Embedding { return c.embedding }
func (c *Concept) Version() int                   { return c.version }
func (c *Concept) CreatedAt() time.Time           { return c.createdAt }
func (c *Concept) UpdatedAt() time.Time           { return c.updatedAt }

func (c *Concept) GroundingStrength() (float64, bool) {
	if c.groundingStrength == nil {
		return 0, false
	}
	return *c.groundingStrength, true
}

// SearchTerms returns a defensive copy of the ordered term set.
func (c *Concept) SearchTerms() []string {
	terms := make([]string, len(c.searchTerms))
	copy(terms, c.searchTerms)
	return terms
}

// AddSearchTerm accretes a new alias onto the concept if not already
// present, case-insensitively.
func (c *Concept) AddSearchTerm(term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return false
	}
	lower := strings.ToLower(term)
	for _, t := range c.searchTerms {
		if strings.ToLower(t) == lower {
			return false
		}
	}
	c.searchTerms = append(c.searchTerms, term)
	c.updatedAt = time.Now()
	c.version++
	return true
}

// SetGroundingStrength records an epistemic score in [-1,1].
func (c *Concept) SetGroundingStrength(strength float64) error {
	if strength < -1 || strength > 1 {
		return kgerrors.Validation("INVALID_GROUNDING_STRENGTH", "grounding_strength must be within [-1,1]").Build()
	}
	c.groundingStrength = &strength
	c.updatedAt = time.Now()
	return nil
}

// MergeFrom folds another concept's search terms into this one as part of
// an explicit curator merge. The caller is responsible for repointing the
// merged concept's Instances and deleting it from the graph store.
func (c *Concept) MergeFrom(other *Concept) {
	if other == nil {
		return
	}
	for _, term := range other.searchTerms {
		c.AddSearchTerm(term)
	}
}

func (c *Concept) GetUncommittedEvents() []events.DomainEvent { return c.events }
func (c *Concept) MarkEventsAsCommitted()                     { c.events = nil }
func (c *Concept) addEvent(e events.DomainEvent)              { c.events = append(c.events, e) }
