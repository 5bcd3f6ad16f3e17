// Package jobs implements the Job Queue: the durable FIFO ingestion
// job state machine, its worker pool, and supporting lifecycle services
// (analyzer, dedup, scheduler), following the node/edge
// command handling into long-running, resumable document ingestion.
package jobs

import (
	"time"

	"github.com/kgraph/engine/domain/entities"
	kgerrors "github.com/kgraph/engine/internal/errors"
)

// Status is one state in the job state machine.
type Status string

const (
	StatusPending           Status = "pending"
	StatusAwaitingApproval  Status = "awaiting_approval"
	StatusApproved          Status = "approved"
	StatusProcessing        Status = "processing"
	StatusCompleted         Status = "completed"
	StatusFailed            Status = "failed"
	StatusCancelled         Status = "cancelled"
)

// terminal reports whether a status has no further transitions.
func (s Status) terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// validTransitions enumerates the state machine's allowed edges.
var validTransitions = map[Status][]Status{
	StatusPending:          {StatusAwaitingApproval},
	StatusAwaitingApproval: {StatusApproved, StatusCancelled},
	StatusApproved:         {StatusProcessing, StatusCancelled},
	StatusProcessing:       {StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled},
}

// CanTransition reports whether from -> to is a legal edge in the job
// state machine.
func CanTransition(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Type distinguishes a fresh ingest from a force re-ingest.
type Type string

const (
	TypeIngest      Type = "ingest"
	TypeForceIngest Type = "force_ingest"
)

// ProcessingMode selects whether a job's chunks run strictly one at a time
// or with bounded fan-out within the job (spec.md §6's processing_mode).
type ProcessingMode string

const (
	ProcessingModeSerial   ProcessingMode = "serial"
	ProcessingModeParallel ProcessingMode = "parallel"
)

// Job is the in-process view of a JobRecord, adding the state-machine
// behavior ports.JobRecord (a plain persistence DTO) deliberately omits.
type Job struct {
	JobID            string
	Status           Status
	Type             Type
	ContentHash      string
	Ontology         string
	Filename         string
	SourceType       entities.SourceType
	SourcePath       string
	SourceHostname   string
	ResumeFromChunk  int
	ChunksTotal      int
	AccumulatedStats map[string]int
	RecentConceptIDs []string
	Analysis         map[string]interface{}
	AutoApprove      bool

	TargetWords        int
	MinWords           int
	MaxWords           int
	OverlapWords       int
	CheckpointInterval int
	ProcessingMode     ProcessingMode

	CreatedAt   time.Time
	ApprovedAt  *time.Time
	ExpiresAt   *time.Time
	CompletedAt *time.Time
	Error       string
	Version     int
}

// Transition moves the job to `to`, returning a validation error if the
// edge is not legal. Terminal states never transition further.
func (j *Job) Transition(to Status) error {
	if j.Status.terminal() {
		return kgerrors.Validation("JOB_TERMINAL", "job is already in a terminal state").
			WithResource(j.JobID).Build()
	}
	if !CanTransition(j.Status, to) {
		return kgerrors.Validation("INVALID_JOB_TRANSITION", "illegal job state transition").
			WithResource(j.JobID).Build()
	}
	j.Status = to
	now := time.Now()
	switch to {
	case StatusApproved:
		j.ApprovedAt = &now
	case StatusCompleted, StatusFailed, StatusCancelled:
		j.CompletedAt = &now
	}
	return nil
}
