package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kgraph/engine/application/mediator"
	"github.com/kgraph/engine/application/queries"
	"github.com/kgraph/engine/application/queries/models"
	kgerrors "github.com/kgraph/engine/internal/errors"
	"github.com/kgraph/engine/pkg/api"
)

// ConceptHandler handles concept search and traversal requests.
type ConceptHandler struct {
	mediator mediator.IMediator
	logger   *zap.Logger
}

func NewConceptHandler(med mediator.IMediator, logger *zap.Logger) *ConceptHandler {
	return &ConceptHandler{mediator: med, logger: logger}
}

// Search handles GET /api/v1/concepts/search?q=...&limit=...&min_similarity=...
func (h *ConceptHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := queries.SearchConceptsQuery{
		QueryText:     q.Get("q"),
		Limit:         atoi(q.Get("limit")),
		MinSimilarity: atof(q.Get("min_similarity")),
	}
	if err := query.Validate(); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.mediator.Query(r.Context(), query)
	if err != nil {
		kgerrors.WriteHTTPError(w, err, h.logger)
		return
	}
	api.WriteJSON(w, http.StatusOK, toConceptResponses(result.([]models.ConceptHit)))
}

// SubstringMatch handles GET /api/v1/concepts/match?pattern=...
func (h *ConceptHandler) SubstringMatch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := queries.SubstringMatchQuery{
		Pattern:         q.Get("pattern"),
		CaseInsensitive: q.Get("case_insensitive") == "true",
		Limit:           atoi(q.Get("limit")),
	}
	if err := query.Validate(); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.mediator.Query(r.Context(), query)
	if err != nil {
		kgerrors.WriteHTTPError(w, err, h.logger)
		return
	}
	api.WriteJSON(w, http.StatusOK, toConceptResponses(result.([]models.ConceptHit)))
}

// Details handles GET /api/v1/concepts/{conceptID}.
func (h *ConceptHandler) Details(w http.ResponseWriter, r *http.Request) {
	query := queries.ConceptDetailsQuery{ConceptID: chi.URLParam(r, "conceptID")}
	if err := query.Validate(); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.mediator.Query(r.Context(), query)
	if err != nil {
		kgerrors.WriteHTTPError(w, err, h.logger)
		return
	}
	detail := result.(models.ConceptDetail)

	neighbors := make([]api.NeighborResponse, 0, len(detail.Edges))
	for _, edge := range detail.Edges {
		neighbors = append(neighbors, api.NeighborResponse{
			Slug:         edge.TargetConceptID,
			RelationType: edge.RelationType,
			Confidence:   edge.Confidence.Value(),
		})
	}
	instances := make([]api.InstanceResponse, 0, len(detail.Evidence))
	for _, e := range detail.Evidence {
		instances = append(instances, api.InstanceResponse{
			ConceptSlug: detail.ConceptID,
			Surface:     e.Quote,
			SourceID:    e.SourceID,
			Context:     e.Filename,
		})
	}

	api.WriteJSON(w, http.StatusOK, api.ConceptDetailsResponse{
		ConceptResponse: api.ConceptResponse{Slug: detail.ConceptID, Label: detail.Label},
		Neighbors:       neighbors,
		Instances:       instances,
	})
}

// Related handles GET /api/v1/concepts/{conceptID}/related?max_depth=...
func (h *ConceptHandler) Related(w http.ResponseWriter, r *http.Request) {
	query := queries.RelatedConceptsQuery{
		ConceptID: chi.URLParam(r, "conceptID"),
		MaxDepth:  atoi(r.URL.Query().Get("max_depth")),
	}
	if err := query.Validate(); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.mediator.Query(r.Context(), query)
	if err != nil {
		kgerrors.WriteHTTPError(w, err, h.logger)
		return
	}

	related := result.([]models.RelatedConcept)
	out := make([]api.NeighborResponse, 0, len(related))
	for _, rc := range related {
		out = append(out, api.NeighborResponse{Slug: rc.ConceptID, Label: rc.Label})
	}
	api.WriteJSON(w, http.StatusOK, out)
}

// FindConnection handles GET /api/v1/connections?from_slug=...&to_slug=...&max_hops=...
// (or from_text/to_text in place of the slugs).
func (h *ConceptHandler) FindConnection(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := queries.FindConnectionQuery{
		FromSlug: q.Get("from_slug"),
		ToSlug:   q.Get("to_slug"),
		FromText: q.Get("from_text"),
		ToText:   q.Get("to_text"),
		MaxHops:  atoi(q.Get("max_hops")),
	}
	if err := query.Validate(); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.mediator.Query(r.Context(), query)
	if err != nil {
		kgerrors.WriteHTTPError(w, err, h.logger)
		return
	}

	path := result.(models.Path)
	hops := 0
	if len(path.Slugs) > 0 {
		hops = len(path.Slugs) - 1
	}
	neighbors := make([]api.NeighborResponse, 0, len(path.Slugs))
	for i, slug := range path.Slugs {
		n := api.NeighborResponse{Slug: slug}
		if i < len(path.EdgeTypes) {
			n.RelationType = path.EdgeTypes[i]
		}
		neighbors = append(neighbors, n)
	}
	api.WriteJSON(w, http.StatusOK, api.ConnectionPathResponse{Found: path.Found, Hops: hops, Path: neighbors})
}

func toConceptResponses(hits []models.ConceptHit) []api.NeighborResponse {
	out := make([]api.NeighborResponse, 0, len(hits))
	for _, hit := range hits {
		out = append(out, api.NeighborResponse{Slug: hit.ConceptID, Label: hit.Label, Confidence: hit.Similarity})
	}
	return out
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func atof(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
