// Package events defines the domain events raised by ingestion and job
// lifecycle aggregates.
package events

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent represents a business occurrence raised by an aggregate.
type DomainEvent interface {
	EventID() string
	EventType() string
	AggregateID() string
	Timestamp() time.Time
	Version() int
}

// BaseEvent carries the fields common to every domain event.
type BaseEvent struct {
	eventID     string
	eventType   string
	aggregateID string
	timestamp   time.Time
	version     int
}

// NewBaseEvent builds a BaseEvent with a fresh event ID and current timestamp.
func NewBaseEvent(eventType, aggregateID string, version int) BaseEvent {
	return BaseEvent{
		eventID:     uuid.New().String(),
		eventType:   eventType,
		aggregateID: aggregateID,
		timestamp:   time.Now(),
		version:     version,
	}
}

func (e BaseEvent) EventID() string        { return e.eventID }
func (e BaseEvent) EventType() string       { return e.eventType }
func (e BaseEvent) AggregateID() string     { return e.aggregateID }
func (e BaseEvent) Timestamp() time.Time    { return e.timestamp }
func (e BaseEvent) Version() int            { return e.version }

// Event type constants, mirrored by the EventBridge publisher's detail-type
// field and used as subscription keys by the in-process eventbridge.Bus.
const (
	TypeJobCreated         = "job.created"
	TypeJobApprovalPending = "job.approval_pending"
	TypeJobApproved        = "job.approved"
	TypeJobStarted         = "job.started"
	TypeJobCheckpointed    = "job.checkpointed"
	TypeJobCompleted       = "job.completed"
	TypeJobFailed          = "job.failed"
	TypeJobCancelled       = "job.cancelled"

	TypeConceptCreated = "concept.created"
	TypeConceptMerged  = "concept.merged"
	TypeInstanceLinked = "instance.linked"

	TypeDocumentSuperseded = "document.superseded"

	TypeSagaStarted   = "saga.started"
	TypeSagaCompleted = "saga.completed"
	TypeSagaFailed    = "saga.failed"
	TypeSagaCompensated = "saga.compensated"
)

// JobCreated is raised when a job is first enqueued.
type JobCreated struct {
	BaseEvent
	JobID      string `json:"job_id"`
	SourceID   string `json:"source_id"`
	DocumentID string `json:"document_id"`
}

func NewJobCreated(jobID, sourceID, documentID string) JobCreated {
	return JobCreated{
		BaseEvent:  NewBaseEvent(TypeJobCreated, jobID, 1),
		JobID:      jobID,
		SourceID:   sourceID,
		DocumentID: documentID,
	}
}

// JobApprovalPending is raised when a low-confidence extraction requires a
// human reviewer before graph commit.
type JobApprovalPending struct {
	BaseEvent
	JobID  string `json:"job_id"`
	Reason string `json:"reason"`
}

func NewJobApprovalPending(jobID, reason string, version int) JobApprovalPending {
	return JobApprovalPending{
		BaseEvent: NewBaseEvent(TypeJobApprovalPending, jobID, version),
		JobID:     jobID,
		Reason:    reason,
	}
}

// JobApproved is raised when a pending job is approved by a reviewer.
type JobApproved struct {
	BaseEvent
	JobID      string `json:"job_id"`
	ApprovedBy string `json:"approved_by"`
}

func NewJobApproved(jobID, approvedBy string, version int) JobApproved {
	return JobApproved{
		BaseEvent:  NewBaseEvent(TypeJobApproved, jobID, version),
		JobID:      jobID,
		ApprovedBy: approvedBy,
	}
}

// JobStarted is raised when a worker begins processing a job.
type JobStarted struct {
	BaseEvent
	JobID string `json:"job_id"`
}

func NewJobStarted(jobID string, version int) JobStarted {
	return JobStarted{BaseEvent: NewBaseEvent(TypeJobStarted, jobID, version), JobID: jobID}
}

// JobCheckpointed is raised after each chunk's saga commits, recording
// resumable progress.
type JobCheckpointed struct {
	BaseEvent
	JobID        string `json:"job_id"`
	ChunksDone   int    `json:"chunks_done"`
	ChunksTotal  int    `json:"chunks_total"`
}

func NewJobCheckpointed(jobID string, done, total, version int) JobCheckpointed {
	return JobCheckpointed{
		BaseEvent:   NewBaseEvent(TypeJobCheckpointed, jobID, version),
		JobID:       jobID,
		ChunksDone:  done,
		ChunksTotal: total,
	}
}

// JobCompleted is raised when every chunk has been committed successfully.
type JobCompleted struct {
	BaseEvent
	JobID           string `json:"job_id"`
	ConceptsCreated int    `json:"concepts_created"`
	InstancesLinked int    `json:"instances_linked"`
}

func NewJobCompleted(jobID string, conceptsCreated, instancesLinked, version int) JobCompleted {
	return JobCompleted{
		BaseEvent:       NewBaseEvent(TypeJobCompleted, jobID, version),
		JobID:           jobID,
		ConceptsCreated: conceptsCreated,
		InstancesLinked: instancesLinked,
	}
}

// JobFailed is raised when a job exhausts retries or hits a non-retryable
// error.
type JobFailed struct {
	BaseEvent
	JobID  string `json:"job_id"`
	Reason string `json:"reason"`
}

func NewJobFailed(jobID, reason string, version int) JobFailed {
	return JobFailed{BaseEvent: NewBaseEvent(TypeJobFailed, jobID, version), JobID: jobID, Reason: reason}
}

// JobCancelled is raised when an operator cancels a job before completion.
type JobCancelled struct {
	BaseEvent
	JobID      string `json:"job_id"`
	CancelledBy string `json:"cancelled_by"`
}

func NewJobCancelled(jobID, cancelledBy string, version int) JobCancelled {
	return JobCancelled{
		BaseEvent:   NewBaseEvent(TypeJobCancelled, jobID, version),
		JobID:       jobID,
		CancelledBy: cancelledBy,
	}
}

// ConceptCreated is raised the first time a concept is inserted into the
// graph (as opposed to matched against an existing one).
type ConceptCreated struct {
	BaseEvent
	ConceptID string `json:"concept_id"`
	Label     string `json:"label"`
}

func NewConceptCreated(conceptID, label string) ConceptCreated {
	return ConceptCreated{
		BaseEvent: NewBaseEvent(TypeConceptCreated, conceptID, 1),
		ConceptID: conceptID,
		Label:     label,
	}
}

// InstanceLinked is raised when a new Instance edge is written between two
// concepts.
type InstanceLinked struct {
	BaseEvent
	InstanceID     string `json:"instance_id"`
	SourceConceptID string `json:"source_concept_id"`
	TargetConceptID string `json:"target_concept_id"`
	RelationType   string `json:"relation_type"`
}

func NewInstanceLinked(instanceID, sourceConceptID, targetConceptID, relationType string) InstanceLinked {
	return InstanceLinked{
		BaseEvent:       NewBaseEvent(TypeInstanceLinked, instanceID, 1),
		InstanceID:      instanceID,
		SourceConceptID: sourceConceptID,
		TargetConceptID: targetConceptID,
		RelationType:    relationType,
	}
}

// DocumentSuperseded is raised when a force-ingest supersedes a prior
// version of a source document.
type DocumentSuperseded struct {
	BaseEvent
	DocumentID    string `json:"document_id"`
	SupersededByID string `json:"superseded_by_id"`
}

func NewDocumentSuperseded(documentID, supersededByID string, version int) DocumentSuperseded {
	return DocumentSuperseded{
		BaseEvent:      NewBaseEvent(TypeDocumentSuperseded, documentID, version),
		DocumentID:     documentID,
		SupersededByID: supersededByID,
	}
}
