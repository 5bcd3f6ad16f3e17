package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kgraph/engine/application/commands"
	"github.com/kgraph/engine/application/mediator"
	"github.com/kgraph/engine/application/ports"
	"github.com/kgraph/engine/domain/entities"
	"github.com/kgraph/engine/internal/jobs"
)

// SubmitDocumentHandler stores the raw document and enqueues an ingestion
// job.
type SubmitDocumentHandler struct {
	content ports.ContentStore
	queue   *jobs.Queue
	logger  *zap.Logger
}

func NewSubmitDocumentHandler(content ports.ContentStore, queue *jobs.Queue, logger *zap.Logger) *SubmitDocumentHandler {
	return &SubmitDocumentHandler{content: content, queue: queue, logger: logger}
}

// Handle implements mediator.CommandHandler.
func (h *SubmitDocumentHandler) Handle(ctx context.Context, command mediator.Command) error {
	cmd, ok := command.(commands.SubmitDocumentCommand)
	if !ok {
		return fmt.Errorf("submit_document: unexpected command type %T", command)
	}

	contentHash := hashContent(cmd.Content)
	if err := h.content.Put(ctx, contentHash, cmd.Content); err != nil {
		return fmt.Errorf("submit_document: store content: %w", err)
	}

	jobType := jobs.TypeIngest
	if cmd.Force {
		jobType = jobs.TypeForceIngest
	}

	record, err := h.queue.Submit(ctx, jobs.SubmitParams{
		ContentHash:    contentHash,
		Ontology:       cmd.Ontology,
		WordCount:      countWords(cmd.Content),
		Type:           jobType,
		AutoApprove:    cmd.AutoApprove,
		Force:          cmd.Force,
		Filename:       cmd.Filename,
		SourceType:     entities.SourceType(cmd.SourceType),
		SourcePath:     cmd.SourcePath,
		SourceHostname: cmd.SourceHostname,

		TargetWords:        cmd.TargetWords,
		MinWords:           cmd.MinWords,
		MaxWords:           cmd.MaxWords,
		OverlapWords:       cmd.OverlapWords,
		CheckpointInterval: cmd.CheckpointInterval,
		ProcessingMode:     jobs.ProcessingMode(cmd.ProcessingMode),
	})
	if err != nil {
		return err
	}

	if cmd.Result != nil {
		*cmd.Result = commands.SubmitDocumentResult{
			JobID:           record.JobID,
			Status:          record.Status,
			ChunksTotal:     record.ChunksTotal,
			ResumeFromChunk: record.ResumeFromChunk,
		}
	}
	h.logger.Info("document submitted",
		zap.String("job_id", record.JobID),
		zap.String("ontology", cmd.Ontology),
		zap.String("content_hash", contentHash))
	return nil
}

func hashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func countWords(data []byte) int {
	return len(strings.Fields(string(data)))
}
