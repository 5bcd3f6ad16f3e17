package handlers

import (
	"context"
	"fmt"

	"github.com/kgraph/engine/application/mediator"
	"github.com/kgraph/engine/application/ports"
	"github.com/kgraph/engine/application/queries"
	"github.com/kgraph/engine/application/queries/models"
)

// JobStatusHandler reads a job's current persisted state.
type JobStatusHandler struct {
	store ports.JobStore
}

func NewJobStatusHandler(store ports.JobStore) *JobStatusHandler {
	return &JobStatusHandler{store: store}
}

func (h *JobStatusHandler) Handle(ctx context.Context, q mediator.Query) (interface{}, error) {
	jsq, ok := q.(queries.JobStatusQuery)
	if !ok {
		return nil, fmt.Errorf("job_status: unexpected query type %T", q)
	}

	record, err := h.store.Get(ctx, jsq.JobID)
	if err != nil {
		return nil, err
	}

	return models.JobStatus{
		JobID:            record.JobID,
		Status:           record.Status,
		Type:             record.Type,
		Ontology:         record.Ontology,
		ChunksTotal:      record.ChunksTotal,
		ResumeFromChunk:  record.ResumeFromChunk,
		AccumulatedStats: record.AccumulatedStats,
		Error:            record.Error,
	}, nil
}
