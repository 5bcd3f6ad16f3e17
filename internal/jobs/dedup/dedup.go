// Package dedup implements content-hash deduplication, applying an
// idempotency-lookup pattern to document-content hashes instead of
// request idempotency keys.
package dedup

import (
	"context"
	"fmt"

	"github.com/kgraph/engine/application/ports"
)

// Source names where a duplicate was found.
const (
	SourceGraph = "graph"
	SourceJobs  = "jobs"
)

// activeJobStatuses are the statuses that count as "in flight" for dedup
// purposes.
var activeJobStatuses = []string{"pending", "awaiting_approval", "approved", "processing"}

// Result is the outcome of a duplicate-content check.
type Result struct {
	Duplicate bool
	Source    string
	JobID     string // set iff Source == SourceJobs
}

// Checker runs the two-stage lookup: DocumentMeta first, then active jobs.
type Checker struct {
	jobs  ports.JobStore
	graph ports.GraphStore
}

func NewChecker(jobs ports.JobStore, graph ports.GraphStore) *Checker {
	return &Checker{jobs: jobs, graph: graph}
}

// CheckDuplicate looks up the content hash against committed documents
// first, then against jobs still in flight for the same content.
func (c *Checker) CheckDuplicate(ctx context.Context, contentHash, ontology string) (Result, error) {
	doc, err := c.graph.DocumentByHash(ctx, contentHash, ontology)
	if err != nil {
		return Result{}, fmt.Errorf("dedup: document lookup: %w", err)
	}
	if doc != nil {
		return Result{Duplicate: true, Source: SourceGraph}, nil
	}

	jobs, err := c.jobs.FindActiveByContentHash(ctx, contentHash, ontology)
	if err != nil {
		return Result{}, fmt.Errorf("dedup: job lookup: %w", err)
	}
	for _, j := range jobs {
		if isActiveStatus(j.Status) {
			return Result{Duplicate: true, Source: SourceJobs, JobID: j.JobID}, nil
		}
	}

	return Result{Duplicate: false}, nil
}

func isActiveStatus(status string) bool {
	for _, s := range activeJobStatuses {
		if s == status {
			return true
		}
	}
	return false
}
