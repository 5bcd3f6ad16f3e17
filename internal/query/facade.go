// Package query implements the read side of the knowledge graph: the six
// query operations (search_concepts, concept_details, related_concepts,
// find_connection, find_connection_by_query, substring_match), each
// returning structured results rather than raw storage representations,
// following a CQRS query-handler style.
package query

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kgraph/engine/application/loaders"
	"github.com/kgraph/engine/application/ports"
	"github.com/kgraph/engine/domain/entities"
	kgerrors "github.com/kgraph/engine/internal/errors"
	"github.com/kgraph/engine/internal/embedding"
)

// DefaultResolveThreshold is the minimum similarity required to resolve a
// free-text endpoint to a concept in find_connection_by_query before it is
// treated as not resolvable.
const DefaultResolveThreshold = 0.75

// Facade implements the query-side operations against the graph store,
// vector index, and active embedder.
type Facade struct {
	graph          ports.GraphStore
	vectorIndex    ports.VectorIndex
	embedGuard     *embedding.ConfigGuard
	instanceLoader *loaders.InstanceLoader
	sourceLoader   *loaders.SourceLoader
}

func NewFacade(graph ports.GraphStore, vectorIndex ports.VectorIndex, embedGuard *embedding.ConfigGuard, logger *zap.Logger) *Facade {
	return &Facade{
		graph:          graph,
		vectorIndex:    vectorIndex,
		embedGuard:     embedGuard,
		instanceLoader: loaders.NewInstanceLoader(graph, logger),
		sourceLoader:   loaders.NewSourceLoader(graph, logger),
	}
}

// ConceptHit is one search_concepts result.
type ConceptHit struct {
	ConceptID  string
	Label      string
	Similarity float64
}

// SearchConcepts embeds query_text and vector-searches for the top
// matches at or above min_similarity.
func (f *Facade) SearchConcepts(ctx context.Context, queryText string, limit int, minSimilarity float64) ([]ConceptHit, error) {
	embedder := f.embedGuard.Active(ctx)
	vec, err := embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("query: embed search text: %w", err)
	}
	hits, err := f.vectorIndex.Search(ctx, vec, limit, minSimilarity, ports.StrategyDegreeBiased, 0.75)
	if err != nil {
		return nil, fmt.Errorf("query: vector search: %w", err)
	}
	out := make([]ConceptHit, 0, len(hits))
	for _, h := range hits {
		concept, err := f.graph.GetConceptBySlug(ctx, h.ConceptSlug)
		if err != nil || concept == nil {
			continue
		}
		out = append(out, ConceptHit{ConceptID: h.ConceptSlug, Label: concept.Label(), Similarity: h.Similarity})
	}
	return out, nil
}

// EvidenceRef is one Instance's quote plus the Source it came from.
type EvidenceRef struct {
	Quote      string
	SourceID   string
	Filename   string
	ChunkIndex int
}

// ConceptDetail is concept_details' full result contract.
type ConceptDetail struct {
	ConceptID   string
	Label       string
	SearchTerms []string
	Edges       []entities.SemanticEdge
	Evidence    []EvidenceRef
}

// ConceptDetails returns a concept's label, search terms, every semantic
// edge incident to it, and every Instance evidencing it with its Source.
func (f *Facade) ConceptDetails(ctx context.Context, conceptID string) (ConceptDetail, error) {
	concept, err := f.graph.GetConceptBySlug(ctx, conceptID)
	if err != nil {
		return ConceptDetail{}, err
	}
	if concept == nil {
		return ConceptDetail{}, kgerrors.NotFound("CONCEPT_NOT_FOUND", "concept not found").WithResource(conceptID).Build()
	}

	edges, err := f.graph.SemanticEdgesOf(ctx, conceptID)
	if err != nil {
		return ConceptDetail{}, fmt.Errorf("query: semantic edges of %s: %w", conceptID, err)
	}

	instances, err := f.instanceLoader.Load(ctx, conceptID)
	if err != nil {
		return ConceptDetail{}, fmt.Errorf("query: instances of %s: %w", conceptID, err)
	}
	evidence := make([]EvidenceRef, 0, len(instances))
	for _, inst := range instances {
		source, err := f.sourceLoader.Load(ctx, inst.SourceID().String())
		if err != nil || source == nil {
			continue
		}
		evidence = append(evidence, EvidenceRef{
			Quote:      inst.Quote(),
			SourceID:   source.ID().String(),
			Filename:   source.FilePath(),
			ChunkIndex: source.ChunkIndex(),
		})
	}

	return ConceptDetail{
		ConceptID:   concept.ConceptSlug(),
		Label:       concept.Label(),
		SearchTerms: concept.SearchTerms(),
		Edges:       edges,
		Evidence:    evidence,
	}, nil
}

// FindConnection returns the shortest path (tie-broken by confidence)
// between two already-resolved concepts, or an empty, non-error result if
// none exists within max_hops.
func (f *Facade) FindConnection(ctx context.Context, fromID, toID string, maxHops int) (Path, bool, error) {
	if _, err := f.mustExist(ctx, fromID); err != nil {
		return Path{}, false, err
	}
	if _, err := f.mustExist(ctx, toID); err != nil {
		return Path{}, false, err
	}
	return bfs(ctx, f.graph, fromID, toID, maxHops)
}

// FindConnectionByQuery resolves each endpoint to its best matching
// concept (similarity >= DefaultResolveThreshold) then delegates to
// FindConnection.
func (f *Facade) FindConnectionByQuery(ctx context.Context, fromText, toText string, maxHops int) (Path, bool, error) {
	fromID, err := f.resolveBestMatch(ctx, fromText)
	if err != nil {
		return Path{}, false, err
	}
	toID, err := f.resolveBestMatch(ctx, toText)
	if err != nil {
		return Path{}, false, err
	}
	return f.FindConnection(ctx, fromID, toID, maxHops)
}

func (f *Facade) resolveBestMatch(ctx context.Context, text string) (string, error) {
	hits, err := f.SearchConcepts(ctx, text, 1, DefaultResolveThreshold)
	if err != nil {
		return "", err
	}
	if len(hits) == 0 {
		return "", kgerrors.NotFound("NOT_RESOLVABLE", "query text did not resolve to any concept above the similarity threshold").
			WithResource(text).Build()
	}
	return hits[0].ConceptID, nil
}

// RelatedConcept is one related_concepts result, grouped by its minimum
// BFS distance from the origin concept.
type RelatedConcept struct {
	ConceptID string
	Label     string
	Distance  int
}

// RelatedConcepts runs a deduplicated BFS out to max_depth, grouped by
// minimum distance.
func (f *Facade) RelatedConcepts(ctx context.Context, conceptID string, maxDepth int) ([]RelatedConcept, error) {
	if _, err := f.mustExist(ctx, conceptID); err != nil {
		return nil, err
	}
	byDepth, err := relatedBFS(ctx, f.graph, conceptID, maxDepth)
	if err != nil {
		return nil, err
	}

	var out []RelatedConcept
	for depth := 1; depth <= maxDepth; depth++ {
		for _, slug := range byDepth[depth] {
			concept, err := f.graph.GetConceptBySlug(ctx, slug)
			if err != nil || concept == nil {
				continue
			}
			out = append(out, RelatedConcept{ConceptID: slug, Label: concept.Label(), Distance: depth})
		}
	}
	return out, nil
}

// SubstringMatch runs a property-level string match on Concept.label.
func (f *Facade) SubstringMatch(ctx context.Context, pattern string, caseInsensitive bool, limit int) ([]ConceptHit, error) {
	concepts, err := f.graph.SubstringMatch(ctx, pattern, caseInsensitive, limit)
	if err != nil {
		return nil, fmt.Errorf("query: substring match: %w", err)
	}
	out := make([]ConceptHit, 0, len(concepts))
	for _, c := range concepts {
		out = append(out, ConceptHit{ConceptID: c.ConceptSlug(), Label: c.Label()})
	}
	return out, nil
}

func (f *Facade) mustExist(ctx context.Context, conceptID string) (*entities.Concept, error) {
	concept, err := f.graph.GetConceptBySlug(ctx, conceptID)
	if err != nil {
		return nil, err
	}
	if concept == nil {
		return nil, kgerrors.NotFound("CONCEPT_NOT_FOUND", "concept not found").WithResource(conceptID).Build()
	}
	return concept, nil
}
