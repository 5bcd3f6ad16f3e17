package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kgraph/engine/application/commands"
	"github.com/kgraph/engine/application/mediator"
	"github.com/kgraph/engine/internal/jobs"
)

// ApproveJobHandler approves a job awaiting manual review.
type ApproveJobHandler struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

func NewApproveJobHandler(queue *jobs.Queue, logger *zap.Logger) *ApproveJobHandler {
	return &ApproveJobHandler{queue: queue, logger: logger}
}

func (h *ApproveJobHandler) Handle(ctx context.Context, command mediator.Command) error {
	cmd, ok := command.(commands.ApproveJobCommand)
	if !ok {
		return fmt.Errorf("approve_job: unexpected command type %T", command)
	}
	if err := h.queue.Approve(ctx, cmd.JobID); err != nil {
		return err
	}
	h.logger.Info("job approved", zap.String("job_id", cmd.JobID))
	return nil
}

// CancelJobHandler cancels a job in any non-terminal state.
type CancelJobHandler struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

func NewCancelJobHandler(queue *jobs.Queue, logger *zap.Logger) *CancelJobHandler {
	return &CancelJobHandler{queue: queue, logger: logger}
}

func (h *CancelJobHandler) Handle(ctx context.Context, command mediator.Command) error {
	cmd, ok := command.(commands.CancelJobCommand)
	if !ok {
		return fmt.Errorf("cancel_job: unexpected command type %T", command)
	}
	if err := h.queue.Cancel(ctx, cmd.JobID, cmd.Reason); err != nil {
		return err
	}
	h.logger.Info("job cancelled", zap.String("job_id", cmd.JobID), zap.String("reason", cmd.Reason))
	return nil
}
