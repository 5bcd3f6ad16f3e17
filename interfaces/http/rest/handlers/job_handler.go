package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kgraph/engine/application/commands"
	"github.com/kgraph/engine/application/mediator"
	"github.com/kgraph/engine/application/queries"
	"github.com/kgraph/engine/application/queries/models"
	kgerrors "github.com/kgraph/engine/internal/errors"
	"github.com/kgraph/engine/pkg/api"
)

// JobHandler handles job lifecycle requests: status, approval, cancellation.
type JobHandler struct {
	mediator mediator.IMediator
	logger   *zap.Logger
}

func NewJobHandler(med mediator.IMediator, logger *zap.Logger) *JobHandler {
	return &JobHandler{mediator: med, logger: logger}
}

// Status handles GET /api/v1/jobs/{jobID}.
func (h *JobHandler) Status(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	q := queries.JobStatusQuery{JobID: jobID}
	if err := q.Validate(); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.mediator.Query(r.Context(), q)
	if err != nil {
		kgerrors.WriteHTTPError(w, err, h.logger)
		return
	}

	status := result.(models.JobStatus)
	api.WriteJSON(w, http.StatusOK, api.JobResponse{
		JobID:            status.JobID,
		Status:           status.Status,
		Type:             status.Type,
		Ontology:         status.Ontology,
		ChunksTotal:      status.ChunksTotal,
		ResumeFromChunk:  status.ResumeFromChunk,
		AccumulatedStats: status.AccumulatedStats,
		Error:            status.Error,
	})
}

// Approve handles POST /api/v1/jobs/{jobID}/approve.
func (h *JobHandler) Approve(w http.ResponseWriter, r *http.Request) {
	cmd := commands.ApproveJobCommand{JobID: chi.URLParam(r, "jobID")}
	if err := cmd.Validate(); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.mediator.Send(r.Context(), cmd); err != nil {
		kgerrors.WriteHTTPError(w, err, h.logger)
		return
	}
	api.WriteJSON(w, http.StatusOK, nil)
}

// Cancel handles POST /api/v1/jobs/{jobID}/cancel.
func (h *JobHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	cmd := commands.CancelJobCommand{JobID: chi.URLParam(r, "jobID"), Reason: body.Reason}
	if err := cmd.Validate(); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.mediator.Send(r.Context(), cmd); err != nil {
		kgerrors.WriteHTTPError(w, err, h.logger)
		return
	}
	api.WriteJSON(w, http.StatusOK, nil)
}
