package services

import (
	"context"
	"fmt"

	"github.com/kgraph/engine/application/ports"
	"github.com/kgraph/engine/domain/entities"
	"github.com/kgraph/engine/domain/valueobjects"
)

// Default concept-match thresholds. No persisted configuration row is
// read: internal/app builds the engine's MatchConfig once at startup from
// these defaults and internal/config's Domain.MatchAutoAcceptScore.
const (
	DefaultSimilarityThreshold = 0.85
	DefaultTopK                = 5
	DefaultDegreePercentile    = 0.75
)

// MatchConfig carries the concept-match thresholds. It is a plain value
// passed to ingestion.NewEngine and used unchanged for every job; it is not
// loaded from a durable configuration table.
type MatchConfig struct {
	SimilarityThreshold float64
	TopK                int
	DegreePercentile    float64
	Strategy            ports.VectorSearchStrategy
}

// DefaultMatchConfig returns the documented default thresholds.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		SimilarityThreshold: DefaultSimilarityThreshold,
		TopK:                DefaultTopK,
		DegreePercentile:    DefaultDegreePercentile,
		Strategy:            ports.StrategyDegreeBiased,
	}
}

// MatchOutcome is the result of resolving one extracted concept against
// the graph: either it links to an existing Concept or a fresh one needs
// to be created.
type MatchOutcome struct {
	Matched  bool
	Slug     string   // existing concept's slug, set iff Matched
	Concept  *entities.Concept // freshly constructed concept, set iff !Matched
	Terms    []string // search terms to merge into the matched concept
}

// ConceptMatcher implements embedding-driven match-or-create against the
// vector index, one extracted concept at a time.
type ConceptMatcher struct {
	index ports.VectorIndex
	store ports.GraphStore
}

func NewConceptMatcher(index ports.VectorIndex, store ports.GraphStore) *ConceptMatcher {
	return &ConceptMatcher{index: index, store: store}
}

// ExtractedConcept is the LLM extraction adapter's per-concept output
// before it has been resolved against the graph.
type ExtractedConcept struct {
	LocalID     string
	Label       string
	SearchTerms []string
}

// Match runs match-or-create for a single extracted concept: the caller
// supplies the already-computed embedding (label + " " + join(search_terms)),
// since embedding computation is an adapter concern, not a domain one.
func (m *ConceptMatcher) Match(ctx context.Context, extracted ExtractedConcept, embedding valueobjects.Embedding, cfg MatchConfig) (MatchOutcome, error) {
	hits, err := m.index.Search(ctx, embedding, cfg.TopK, cfg.SimilarityThreshold, cfg.Strategy, cfg.DegreePercentile)
	if err != nil {
		return MatchOutcome{}, fmt.Errorf("vector index search: %w", err)
	}

	if len(hits) > 0 {
		top := hits[0]
		return MatchOutcome{Matched: true, Slug: top.ConceptSlug, Terms: mergeSearchTerms(extracted)}, nil
	}

	concept, err := entities.NewConcept(extracted.Label, embedding)
	if err != nil {
		return MatchOutcome{}, err
	}
	for _, term := range extracted.SearchTerms {
		concept.AddSearchTerm(term)
	}
	return MatchOutcome{Matched: false, Concept: concept}, nil
}

func mergeSearchTerms(extracted ExtractedConcept) []string {
	terms := make([]string, 0, len(extracted.SearchTerms)+1)
	terms = append(terms, extracted.Label)
	terms = append(terms, extracted.SearchTerms...)
	return terms
}
