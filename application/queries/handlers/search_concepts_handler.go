package handlers

import (
	"context"
	"fmt"

	"github.com/kgraph/engine/application/mediator"
	"github.com/kgraph/engine/application/queries"
	"github.com/kgraph/engine/application/queries/models"
	"github.com/kgraph/engine/internal/query"
)

// SearchConceptsHandler wires search_concepts to the query facade.
type SearchConceptsHandler struct {
	facade *query.Facade
}

func NewSearchConceptsHandler(facade *query.Facade) *SearchConceptsHandler {
	return &SearchConceptsHandler{facade: facade}
}

func (h *SearchConceptsHandler) Handle(ctx context.Context, q mediator.Query) (interface{}, error) {
	query, ok := q.(queries.SearchConceptsQuery)
	if !ok {
		return nil, fmt.Errorf("search_concepts: unexpected query type %T", q)
	}

	hits, err := h.facade.SearchConcepts(ctx, query.QueryText, query.EffectiveLimit(), query.MinSimilarity)
	if err != nil {
		return nil, err
	}

	out := make([]models.ConceptHit, 0, len(hits))
	for _, hit := range hits {
		out = append(out, models.ConceptHit{ConceptID: hit.ConceptID, Label: hit.Label, Similarity: hit.Similarity})
	}
	return out, nil
}

// SubstringMatchHandler wires the substring_match query.
type SubstringMatchHandler struct {
	facade *query.Facade
}

func NewSubstringMatchHandler(facade *query.Facade) *SubstringMatchHandler {
	return &SubstringMatchHandler{facade: facade}
}

func (h *SubstringMatchHandler) Handle(ctx context.Context, q mediator.Query) (interface{}, error) {
	query, ok := q.(queries.SubstringMatchQuery)
	if !ok {
		return nil, fmt.Errorf("substring_match: unexpected query type %T", q)
	}

	concepts, err := h.facade.SubstringMatch(ctx, query.Pattern, query.CaseInsensitive, query.EffectiveLimit())
	if err != nil {
		return nil, err
	}

	out := make([]models.ConceptHit, 0, len(concepts))
	for _, c := range concepts {
		out = append(out, models.ConceptHit{ConceptID: c.ConceptID, Label: c.Label})
	}
	return out, nil
}
