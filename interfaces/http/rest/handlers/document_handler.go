package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/kgraph/engine/application/commands"
	"github.com/kgraph/engine/application/mediator"
	kgerrors "github.com/kgraph/engine/internal/errors"
	"github.com/kgraph/engine/pkg/api"
)

// DocumentHandler handles document submission requests.
type DocumentHandler struct {
	mediator mediator.IMediator
	logger   *zap.Logger
}

func NewDocumentHandler(med mediator.IMediator, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{mediator: med, logger: logger}
}

// Submit handles POST /api/v1/documents. The document body is carried
// inline in the request (already staged by the caller, e.g. from an S3
// event or direct upload) rather than re-fetched from source_path here.
func (h *DocumentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req api.SubmitDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result := &commands.SubmitDocumentResult{}
	cmd := commands.SubmitDocumentCommand{
		Ontology:    req.Ontology,
		Filename:    req.Filename,
		SourceType:  req.SourceType,
		SourcePath:  req.SourcePath,
		Content:     []byte(req.Content),
		AutoApprove: req.AutoApprove,
		Result:      result,
	}
	if err := cmd.Validate(); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.mediator.Send(r.Context(), cmd); err != nil {
		kgerrors.WriteHTTPError(w, err, h.logger)
		return
	}

	api.WriteJSON(w, http.StatusAccepted, api.JobResponse{
		JobID:           result.JobID,
		Status:          result.Status,
		Type:            cmd.SourceType,
		Ontology:        cmd.Ontology,
		ChunksTotal:     result.ChunksTotal,
		ResumeFromChunk: result.ResumeFromChunk,
	})
}
