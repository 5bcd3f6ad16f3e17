// Package ports defines the hexagonal-architecture boundaries between the
// application layer and infrastructure: the domain and application code
// depend only on these interfaces, never on a concrete DynamoDB, Qdrant, or
// S3 client.
package ports

import (
	"context"
	"time"

	"github.com/kgraph/engine/domain/entities"
	"github.com/kgraph/engine/domain/events"
	"github.com/kgraph/engine/domain/valueobjects"
)

// ChunkCommit bundles everything the Ingestion Engine writes
// atomically for one chunk: the Source, any newly created or matched
// Concepts, new Instances, and new/merged semantic edges. Outside
// GraphStore.CommitChunk, only SaveDocument and SaveVocabType write to the
// graph.
type ChunkCommit struct {
	Source        *entities.Source
	NewConcepts   []*entities.Concept
	MatchedLinks  []ConceptSourceLink
	Instances     []*entities.Instance
	InstanceLinks []InstanceLink
	SemanticEdges []entities.SemanticEdge

	// Document is set only on the chunk that first registers a document's
	// content_hash (normally chunk 0). CommitChunk writes it in the same
	// transaction as the rest of the chunk so dedup lookups and the
	// DocumentMeta-owns-Sources cascade are never missing their anchor row.
	Document *entities.DocumentMeta
}

// ConceptSourceLink records an APPEARS_IN edge between an existing (not
// newly created) Concept and the Source being committed. Terms carries the
// search-terms accretion from matcher.Match's set union: CommitChunk folds
// each term into the matched Concept's search_terms via AddSearchTerm.
type ConceptSourceLink struct {
	ConceptSlug string
	Terms       []string
}

// InstanceLink records the EVIDENCED_BY edge from an Instance to the
// Concept it supports.
type InstanceLink struct {
	InstanceID  valueobjects.InstanceID
	ConceptSlug string
}

// GraphStore is the port onto the property graph: ACID multi-statement
// writes, parameterized traversal, and substring matching on Concept.label.
type GraphStore interface {
	// CommitChunk writes an entire chunk's concepts, instances, and edges
	// atomically. It must be all-or-nothing: a failure leaves no partial
	// chunk state (per its failure semantics).
	CommitChunk(ctx context.Context, commit ChunkCommit) error

	// GetConceptBySlug fetches one Concept by its derived concept_id.
	GetConceptBySlug(ctx context.Context, slug string) (*entities.Concept, error)

	// RecentConcepts returns the N most-recently-touched concepts in an
	// ontology, ordered by last-update timestamp descending, for cross-chunk
	// linking context.
	RecentConcepts(ctx context.Context, ontology string, limit int) ([]*entities.Concept, error)

	// ConceptDegree returns the count of semantic edges adjacent to a
	// Concept (outgoing and incoming), used by the degree-aware vector
	// strategies. Structural APPEARS_IN and EVIDENCED_BY links are not
	// counted.
	ConceptDegree(ctx context.Context, slug string) (int, error)

	// SemanticEdgesOf returns every semantic edge incident to a Concept,
	// for concept_details.
	SemanticEdgesOf(ctx context.Context, slug string) ([]entities.SemanticEdge, error)

	// InstancesOf returns every Instance evidencing a Concept.
	InstancesOf(ctx context.Context, slug string) ([]*entities.Instance, error)

	// SourceByID fetches a Source by its deterministic id.
	SourceByID(ctx context.Context, id valueobjects.SourceID) (*entities.Source, error)

	// Neighbors returns the concept slugs directly reachable from slug via
	// a semantic edge in either direction, with the traversed edge type,
	// for find_connection/related_concepts BFS.
	Neighbors(ctx context.Context, slug string) ([]Neighbor, error)

	// SubstringMatch returns concepts whose label contains pattern.
	SubstringMatch(ctx context.Context, pattern string, caseInsensitive bool, limit int) ([]*entities.Concept, error)

	// DocumentByHash fetches a DocumentMeta by (content_hash, ontology).
	DocumentByHash(ctx context.Context, contentHash, ontology string) (*entities.DocumentMeta, error)

	// SaveDocument persists a new or updated DocumentMeta.
	SaveDocument(ctx context.Context, doc *entities.DocumentMeta) error

	// VocabTypeByName fetches a registered relationship type.
	VocabTypeByName(ctx context.Context, name string) (*entities.VocabType, error)

	// AllVocabTypes returns the full registered vocabulary, for the
	// relationship-type normalization cascade.
	AllVocabTypes(ctx context.Context) ([]*entities.VocabType, error)

	// SaveVocabType registers or updates a relationship type.
	SaveVocabType(ctx context.Context, vt *entities.VocabType) error
}

// Neighbor is one edge-traversal step returned by GraphStore.Neighbors.
type Neighbor struct {
	ConceptSlug  string
	RelationType string
	Confidence   float64
}

// ContentStore is the port onto raw document bytes, backing
// re-chunking and re-embedding without re-fetching from the original
// source.
type ContentStore interface {
	Put(ctx context.Context, contentHash string, data []byte) error
	Get(ctx context.Context, contentHash string) ([]byte, error)
	Exists(ctx context.Context, contentHash string) (bool, error)
	Delete(ctx context.Context, contentHash string) error
}

// VectorSearchStrategy selects how the vector index filters candidates
// before ranking.
type VectorSearchStrategy string

const (
	StrategyExhaustive  VectorSearchStrategy = "exhaustive"
	StrategyDegreeOnly  VectorSearchStrategy = "degree_only"
	StrategyDegreeBiased VectorSearchStrategy = "degree_biased"
)

// VectorSearchHit is one ranked result from VectorIndex.Search.
type VectorSearchHit struct {
	ConceptSlug string
	Similarity  float64
	Degree      int
}

// VectorIndex is the port onto the concept similarity index.
type VectorIndex interface {
	// Search returns concepts ranked by cosine similarity descending,
	// filtered to similarity >= threshold, using the given strategy.
	Search(ctx context.Context, embedding valueobjects.Embedding, topK int, threshold float64, strategy VectorSearchStrategy, degreePercentile float64) ([]VectorSearchHit, error)

	// Upsert indexes or re-indexes a concept's embedding and current
	// degree (degree is stored as a payload field, not recomputed by the
	// index itself).
	Upsert(ctx context.Context, slug string, embedding valueobjects.Embedding, degree int) error

	// Delete removes a concept from the index, used by the deletion
	// cascade and curator merges.
	Delete(ctx context.Context, slug string) error
}

// JobRecord is the persisted representation of an ingestion job.
type JobRecord struct {
	JobID            string
	Status           string
	Type             string
	ContentHash      string
	Ontology         string
	Filename         string
	SourceType       string
	SourcePath       string
	SourceHostname   string
	ResumeFromChunk  int
	ChunksTotal      int
	AccumulatedStats map[string]int
	RecentConceptIDs []string
	Analysis         map[string]interface{}
	AutoApprove      bool

	// Chunking and processing parameters captured at submission time
	// (spec.md §6); zero values fall back to chunker.DefaultParams() and
	// serial processing.
	TargetWords        int
	MinWords           int
	MaxWords           int
	OverlapWords       int
	CheckpointInterval int
	ProcessingMode     string

	CreatedAt   time.Time
	ApprovedAt  *time.Time
	ExpiresAt   *time.Time
	CompletedAt *time.Time
	Error       string
	Progress    []ProgressSnapshot
	Version     int
}

// ProgressSnapshot is one checkpoint appended to a job's progress history,
// in place of a live progress-streaming mechanism.
type ProgressSnapshot struct {
	ChunkIndex int
	At         time.Time
}

// JobStore is the port onto the job queue's persisted state.
type JobStore interface {
	Save(ctx context.Context, job *JobRecord) error
	Get(ctx context.Context, jobID string) (*JobRecord, error)
	ListByStatus(ctx context.Context, status string) ([]*JobRecord, error)
	FindActiveByContentHash(ctx context.Context, contentHash, ontology string) ([]*JobRecord, error)
	Delete(ctx context.Context, jobID string) error
}

// EventPublisher publishes domain events to the outside world
// (EventBridge).
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, evts []events.DomainEvent) error
}

// EventHandler reacts to one domain event locally (in-process dispatch).
type EventHandler interface {
	Handle(ctx context.Context, event events.DomainEvent) error
	CanHandle(eventType string) bool
}

// EventBus dispatches events to locally registered handlers, used by the
// in-process EventBridge dispatcher.
type EventBus interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	Subscribe(eventType string, handler EventHandler) error
}

// Cache is a generic read-through cache port. No component in this module
// takes a ports.Cache.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
