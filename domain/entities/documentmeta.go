package entities

import (
	"strings"
	"time"

	kgerrors "github.com/kgraph/engine/internal/errors"
	"github.com/kgraph/engine/domain/events"
	"github.com/kgraph/engine/domain/valueobjects"
)

// SourceType names where an ingested document's bytes originated.
type SourceType string

const (
	SourceTypeFile  SourceType = "file"
	SourceTypeStdin SourceType = "stdin"
	SourceTypeMCP   SourceType = "mcp"
	SourceTypeAPI   SourceType = "api"
)

// DocumentMeta tracks one ingested (content_hash, ontology) pair. It owns
// its Sources: deleting a DocumentMeta cascades to every Source (and, in
// turn, every Instance) it introduced.
type DocumentMeta struct {
	id           valueobjects.DocumentID // == content_hash
	ontology     string
	filename     string
	sourceType   SourceType
	sourcePath   string
	hostname     string
	ingestedAt   time.Time
	ingestedBy   string
	jobID        valueobjects.JobID
	sourceCount  int
	version      int
	supersedes   *string
	supersededBy *string

	events []events.DomainEvent
}

// NewDocumentMetaParams bundles the fields required to register a new
// ingested document.
type NewDocumentMetaParams struct {
	ContentHash string
	Ontology    string
	Filename    string
	SourceType  SourceType
	SourcePath  string
	Hostname    string
	IngestedBy  string
	JobID       valueobjects.JobID
}

// NewDocumentMeta registers a freshly ingested document.
func NewDocumentMeta(p NewDocumentMetaParams) (*DocumentMeta, error) {
	if strings.TrimSpace(p.ContentHash) == "" {
		return nil, kgerrors.Validation("EMPTY_CONTENT_HASH", "content_hash cannot be empty").Build()
	}
	if strings.TrimSpace(p.Ontology) == "" {
		return nil, kgerrors.Validation("EMPTY_ONTOLOGY", "ontology cannot be empty").Build()
	}
	id, err := valueobjects.ParseDocumentID(p.ContentHash)
	if err != nil {
		return nil, err
	}
	d := &DocumentMeta{
		id:         id,
		ontology:   p.Ontology,
		filename:   p.Filename,
		sourceType: p.SourceType,
		sourcePath: p.SourcePath,
		hostname:   p.Hostname,
		ingestedAt: time.Now(),
		ingestedBy: p.IngestedBy,
		jobID:      p.JobID,
		version:    1,
	}
	return d, nil
}

// ReconstructDocumentMeta rebuilds a DocumentMeta from persisted storage
// without raising creation events.
func ReconstructDocumentMeta(
	contentHash, ontology, filename string,
	sourceType SourceType,
	sourcePath, hostname string,
	ingestedAt time.Time,
	ingestedBy string,
	jobID valueobjects.JobID,
	sourceCount, version int,
	supersedes, supersededBy *string,
) (*DocumentMeta, error) {
	id, err := valueobjects.ParseDocumentID(contentHash)
	if err != nil {
		return nil, err
	}
	return &DocumentMeta{
		id:           id,
		ontology:     ontology,
		filename:     filename,
		sourceType:   sourceType,
		sourcePath:   sourcePath,
		hostname:     hostname,
		ingestedAt:   ingestedAt,
		ingestedBy:   ingestedBy,
		jobID:        jobID,
		sourceCount:  sourceCount,
		version:      version,
		supersedes:   supersedes,
		supersededBy: supersededBy,
	}, nil
}

func (d *DocumentMeta) ID() valueobjects.DocumentID { return d.id }
func (d *DocumentMeta) Ontology() string            { return d.ontology }
func (d *DocumentMeta) Filename() string            { return d.filename }
func (d *DocumentMeta) SourceType() SourceType       { return d.sourceType }
func (d *DocumentMeta) SourcePath() string          { return d.sourcePath }
func (d *DocumentMeta) Hostname() string            { return d.hostname }
func (d *DocumentMeta) IngestedAt() time.Time       { return d.ingestedAt }
func (d *DocumentMeta) IngestedBy() string          { return d.ingestedBy }
func (d *DocumentMeta) JobID() valueobjects.JobID   { return d.jobID }
func (d *DocumentMeta) SourceCount() int            { return d.sourceCount }
func (d *DocumentMeta) Version() int                { return d.version }
func (d *DocumentMeta) Supersedes() (string, bool) {
	if d.supersedes == nil {
		return "", false
	}
	return *d.supersedes, true
}
func (d *DocumentMeta) SupersededBy() (string, bool) {
	if d.supersededBy == nil {
		return "", false
	}
	return *d.supersededBy, true
}

// RecordSourceCount sets the number of Sources produced by chunking, once
// known at the end of ingestion.
func (d *DocumentMeta) RecordSourceCount(count int) {
	d.sourceCount = count
	d.version++
}

// MarkSupersedes links this document to the content_hash of the version it
// replaces, as part of a force-ingest re-ingestion.
func (d *DocumentMeta) MarkSupersedes(priorContentHash string) {
	d.supersedes = &priorContentHash
	d.version++
}

// MarkSupersededBy links this document forward to the document that
// replaced it, and raises DocumentSuperseded.
func (d *DocumentMeta) MarkSupersededBy(newContentHash string) {
	d.supersededBy = &newContentHash
	d.version++
	d.addEvent(events.NewDocumentSuperseded(d.id.String(), newContentHash, d.version))
}

func (d *DocumentMeta) GetUncommittedEvents() []events.DomainEvent { return d.events }
func (d *DocumentMeta) MarkEventsAsCommitted()                     { d.events = nil }
func (d *DocumentMeta) addEvent(e events.DomainEvent)              { d.events = append(d.events, e) }
