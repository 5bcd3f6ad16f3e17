package handlers

import (
	"context"
	"fmt"

	"github.com/kgraph/engine/application/mediator"
	"github.com/kgraph/engine/application/queries"
	"github.com/kgraph/engine/application/queries/models"
	"github.com/kgraph/engine/internal/query"
)

// ConceptDetailsHandler wires concept_details to the query facade.
type ConceptDetailsHandler struct {
	facade *query.Facade
}

func NewConceptDetailsHandler(facade *query.Facade) *ConceptDetailsHandler {
	return &ConceptDetailsHandler{facade: facade}
}

func (h *ConceptDetailsHandler) Handle(ctx context.Context, q mediator.Query) (interface{}, error) {
	query, ok := q.(queries.ConceptDetailsQuery)
	if !ok {
		return nil, fmt.Errorf("concept_details: unexpected query type %T", q)
	}

	detail, err := h.facade.ConceptDetails(ctx, query.ConceptID)
	if err != nil {
		return nil, err
	}

	evidence := make([]models.EvidenceRef, 0, len(detail.Evidence))
	for _, e := range detail.Evidence {
		evidence = append(evidence, models.EvidenceRef{
			Quote: e.Quote, SourceID: e.SourceID, Filename: e.Filename, ChunkIndex: e.ChunkIndex,
		})
	}

	return models.ConceptDetail{
		ConceptID:   detail.ConceptID,
		Label:       detail.Label,
		SearchTerms: detail.SearchTerms,
		Edges:       detail.Edges,
		Evidence:    evidence,
	}, nil
}

// RelatedConceptsHandler wires related_concepts to the query facade.
type RelatedConceptsHandler struct {
	facade *query.Facade
}

func NewRelatedConceptsHandler(facade *query.Facade) *RelatedConceptsHandler {
	return &RelatedConceptsHandler{facade: facade}
}

func (h *RelatedConceptsHandler) Handle(ctx context.Context, q mediator.Query) (interface{}, error) {
	query, ok := q.(queries.RelatedConceptsQuery)
	if !ok {
		return nil, fmt.Errorf("related_concepts: unexpected query type %T", q)
	}

	related, err := h.facade.RelatedConcepts(ctx, query.ConceptID, query.EffectiveMaxDepth())
	if err != nil {
		return nil, err
	}

	out := make([]models.RelatedConcept, 0, len(related))
	for _, r := range related {
		out = append(out, models.RelatedConcept{ConceptID: r.ConceptID, Label: r.Label, Distance: r.Distance})
	}
	return out, nil
}
