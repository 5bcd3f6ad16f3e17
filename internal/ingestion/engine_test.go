package ingestion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kgraph/engine/application/ports"
	"github.com/kgraph/engine/domain/entities"
	"github.com/kgraph/engine/domain/services"
	"github.com/kgraph/engine/domain/valueobjects"
	"github.com/kgraph/engine/internal/embedding"
	"github.com/kgraph/engine/internal/ingestion/chunker"
	"github.com/kgraph/engine/internal/llm"
)

// --- fakes ---

type fakeGraphStore struct {
	sourcesByID    map[string]*entities.Source
	vocab          []*entities.VocabType
	committed      []ports.ChunkCommit
	commitErr      error
	recentConcepts []*entities.Concept
}

func (f *fakeGraphStore) CommitChunk(ctx context.Context, commit ports.ChunkCommit) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = append(f.committed, commit)
	return nil
}
func (f *fakeGraphStore) GetConceptBySlug(ctx context.Context, slug string) (*entities.Concept, error) {
	return nil, nil
}
func (f *fakeGraphStore) RecentConcepts(ctx context.Context, ontology string, limit int) ([]*entities.Concept, error) {
	return f.recentConcepts, nil
}
func (f *fakeGraphStore) ConceptDegree(ctx context.Context, slug string) (int, error) { return 0, nil }
func (f *fakeGraphStore) SemanticEdgesOf(ctx context.Context, slug string) ([]entities.SemanticEdge, error) {
	return nil, nil
}
func (f *fakeGraphStore) InstancesOf(ctx context.Context, slug string) ([]*entities.Instance, error) {
	return nil, nil
}
func (f *fakeGraphStore) SourceByID(ctx context.Context, id valueobjects.SourceID) (*entities.Source, error) {
	if s, ok := f.sourcesByID[id.String()]; ok {
		return s, nil
	}
	return nil, nil
}
func (f *fakeGraphStore) Neighbors(ctx context.Context, slug string) ([]ports.Neighbor, error) {
	return nil, nil
}
func (f *fakeGraphStore) SubstringMatch(ctx context.Context, pattern string, caseInsensitive bool, limit int) ([]*entities.Concept, error) {
	return nil, nil
}
func (f *fakeGraphStore) DocumentByHash(ctx context.Context, contentHash, ontology string) (*entities.DocumentMeta, error) {
	return nil, nil
}
func (f *fakeGraphStore) SaveDocument(ctx context.Context, doc *entities.DocumentMeta) error {
	return nil
}
func (f *fakeGraphStore) VocabTypeByName(ctx context.Context, name string) (*entities.VocabType, error) {
	return nil, nil
}
func (f *fakeGraphStore) AllVocabTypes(ctx context.Context) ([]*entities.VocabType, error) {
	return f.vocab, nil
}
func (f *fakeGraphStore) SaveVocabType(ctx context.Context, vt *entities.VocabType) error { return nil }

type fakeJobStore struct {
	saved []*ports.JobRecord
}

func (f *fakeJobStore) Save(ctx context.Context, job *ports.JobRecord) error {
	f.saved = append(f.saved, job)
	return nil
}
func (f *fakeJobStore) Get(ctx context.Context, jobID string) (*ports.JobRecord, error) {
	return nil, nil
}
func (f *fakeJobStore) ListByStatus(ctx context.Context, status string) ([]*ports.JobRecord, error) {
	return nil, nil
}
func (f *fakeJobStore) FindActiveByContentHash(ctx context.Context, contentHash, ontology string) ([]*ports.JobRecord, error) {
	return nil, nil
}
func (f *fakeJobStore) Delete(ctx context.Context, jobID string) error { return nil }

type fakeVectorIndex struct {
	hits []ports.VectorSearchHit
}

func (f *fakeVectorIndex) Search(ctx context.Context, embedding valueobjects.Embedding, topK int, threshold float64, strategy ports.VectorSearchStrategy, degreePercentile float64) ([]ports.VectorSearchHit, error) {
	return f.hits, nil
}
func (f *fakeVectorIndex) Upsert(ctx context.Context, slug string, embedding valueobjects.Embedding, degree int) error {
	return nil
}
func (f *fakeVectorIndex) Delete(ctx context.Context, slug string) error { return nil }

type fakeEmbedder struct {
	dim int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) (valueobjects.Embedding, error) {
	values := make([]float32, f.dim)
	for i := range values {
		values[i] = 0.1
	}
	return valueobjects.NewEmbedding(values, f.dim)
}
func (f *fakeEmbedder) Config() embedding.Config {
	return embedding.Config{Provider: "fake", Model: "fake-model", Dimension: f.dim}
}

type fakeLLMClient struct {
	result llm.ExtractionResult
	err    error
}

func (f *fakeLLMClient) Extract(ctx context.Context, req llm.ExtractionRequest) (llm.ExtractionResult, error) {
	return f.result, f.err
}

// --- pure helper tests ---

func TestResolveEndpointPrefersLocalMapping(t *testing.T) {
	localToSlug := map[string]string{"c1": "machine-learning"}
	assert.Equal(t, "machine-learning", resolveEndpoint("c1", localToSlug))
}

func TestResolveEndpointFallsBackToRawReference(t *testing.T) {
	localToSlug := map[string]string{"c1": "machine-learning"}
	assert.Equal(t, "deep-learning", resolveEndpoint("deep-learning", localToSlug))
}

func TestNewSlugsCombinesCreatedAndMatched(t *testing.T) {
	emb, err := valueobjects.NewEmbedding([]float32{0.1, 0.2}, 2)
	require.NoError(t, err)
	concept, err := entities.NewConcept("neural network", emb)
	require.NoError(t, err)

	commit := ports.ChunkCommit{
		NewConcepts:  []*entities.Concept{concept},
		MatchedLinks: []ports.ConceptSourceLink{{ConceptSlug: "deep-learning"}},
	}
	slugs := newSlugs(commit)
	assert.ElementsMatch(t, []string{concept.ConceptSlug(), "deep-learning"}, slugs)
}

func TestLastNTrimsToBound(t *testing.T) {
	slugs := []string{"a", "b", "c", "d", "e"}
	assert.Equal(t, []string{"c", "d", "e"}, lastN(slugs, 3))
}

func TestLastNReturnsAllWhenUnderBound(t *testing.T) {
	slugs := []string{"a", "b"}
	assert.Equal(t, slugs, lastN(slugs, 10))
}

// --- step-level tests ---

func TestLoadSourceStepReusesExistingSource(t *testing.T) {
	in := ChunkInput{
		Filename: "doc.txt",
		Ontology: "physics",
		Chunk:    chunker.Chunk{Text: "hello world", ChunkIndex: 0, CharOffsetEnd: 11},
	}
	existingID, err := valueobjects.ParseSourceID(entities.SourceIDFor(in.Filename, in.Chunk.ChunkIndex))
	require.NoError(t, err)
	existing, err := entities.NewSource(entities.NewSourceParams{
		Filename: "doc.txt", Document: "physics", FullText: "hello world", ChunkIndex: 0, CharOffsetEnd: 11,
	})
	require.NoError(t, err)

	graph := &fakeGraphStore{sourcesByID: map[string]*entities.Source{existingID.String(): existing}}
	engine := &Engine{graphStore: graph, logger: zap.NewNop()}
	work := &chunkWork{}
	step := &loadSourceStep{engine: engine, in: in, work: work}

	require.NoError(t, step.Execute(context.Background()))
	assert.Same(t, existing, work.source)
}

func TestLoadSourceStepCreatesWhenMissing(t *testing.T) {
	in := ChunkInput{
		Filename: "doc.txt",
		Ontology: "physics",
		Chunk:    chunker.Chunk{Text: "hello world", ChunkIndex: 0, CharOffsetEnd: 11},
	}
	graph := &fakeGraphStore{sourcesByID: map[string]*entities.Source{}}
	engine := &Engine{graphStore: graph, logger: zap.NewNop()}
	work := &chunkWork{}
	step := &loadSourceStep{engine: engine, in: in, work: work}

	require.NoError(t, step.Execute(context.Background()))
	require.NotNil(t, work.source)
	assert.Equal(t, "hello world", work.source.FullText())
}

func TestCheckpointStepAccumulatesStatsAndBumpsVersion(t *testing.T) {
	emb, err := valueobjects.NewEmbedding([]float32{0.1, 0.2}, 2)
	require.NoError(t, err)
	concept, err := entities.NewConcept("gravity", emb)
	require.NoError(t, err)

	jobStore := &fakeJobStore{}
	engine := &Engine{jobStore: jobStore, logger: zap.NewNop()}
	job := &ports.JobRecord{JobID: "job-1", Version: 3}
	work := &chunkWork{commit: ports.ChunkCommit{NewConcepts: []*entities.Concept{concept}}, droppedCount: 2}
	in := ChunkInput{Chunk: chunker.Chunk{ChunkIndex: 4}, Job: job}
	step := &checkpointStep{engine: engine, in: in, work: work}

	require.NoError(t, step.Execute(context.Background()))
	assert.Equal(t, 4, job.ResumeFromChunk)
	assert.Equal(t, 1, job.AccumulatedStats["concepts_created"])
	assert.Equal(t, 2, job.AccumulatedStats["dropped"])
	assert.Equal(t, 4, job.Version)
	assert.Len(t, jobStore.saved, 1)
	assert.Same(t, job, jobStore.saved[0])
}

// --- full ProcessChunk happy path ---

func TestProcessChunkCommitsNewConceptAndCheckpoints(t *testing.T) {
	graph := &fakeGraphStore{sourcesByID: map[string]*entities.Source{}}
	jobStore := &fakeJobStore{}
	vectorIndex := &fakeVectorIndex{} // no hits: every concept is new

	client := &fakeLLMClient{result: llm.ExtractionResult{
		Concepts: []llm.ExtractedConcept{
			{LocalID: "c1", Label: "gravity", SearchTerms: []string{"gravitation"}},
		},
	}}
	extractor := llm.NewExtractor(client, zap.NewNop())
	embedder := &fakeEmbedder{dim: 3}
	guard := embedding.NewConfigGuard(embedder)
	matcher := services.NewConceptMatcher(vectorIndex, graph)

	engine := NewEngine(graph, jobStore, extractor, guard, matcher, services.DefaultMatchConfig(), zap.NewNop())

	job := &ports.JobRecord{JobID: "job-1"}
	in := ChunkInput{
		Job:         job,
		Chunk:       chunker.Chunk{Text: "gravity pulls objects together", ChunkIndex: 0, CharOffsetEnd: 31},
		Filename:    "physics.txt",
		Ontology:    "physics",
		ContentHash: "hash-1",
	}

	err := engine.ProcessChunk(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, graph.committed, 1)
	assert.Len(t, graph.committed[0].NewConcepts, 1)
	assert.Equal(t, "gravity", graph.committed[0].NewConcepts[0].Label())
	assert.Equal(t, 1, job.AccumulatedStats["concepts_created"])
	assert.Equal(t, 0, job.ResumeFromChunk)
	assert.Len(t, jobStore.saved, 1)
}

func TestProcessChunkMatchesExistingConceptViaVectorHit(t *testing.T) {
	graph := &fakeGraphStore{sourcesByID: map[string]*entities.Source{}}
	jobStore := &fakeJobStore{}
	vectorIndex := &fakeVectorIndex{hits: []ports.VectorSearchHit{{ConceptSlug: "gravity", Similarity: 0.9}}}

	client := &fakeLLMClient{result: llm.ExtractionResult{
		Concepts: []llm.ExtractedConcept{
			{LocalID: "c1", Label: "gravity", SearchTerms: nil},
		},
	}}
	extractor := llm.NewExtractor(client, zap.NewNop())
	embedder := &fakeEmbedder{dim: 3}
	guard := embedding.NewConfigGuard(embedder)
	matcher := services.NewConceptMatcher(vectorIndex, graph)

	engine := NewEngine(graph, jobStore, extractor, guard, matcher, services.DefaultMatchConfig(), zap.NewNop())

	job := &ports.JobRecord{JobID: "job-1"}
	in := ChunkInput{
		Job:      job,
		Chunk:    chunker.Chunk{Text: "gravity pulls objects together", ChunkIndex: 1},
		Filename: "physics.txt",
		Ontology: "physics",
	}

	require.NoError(t, engine.ProcessChunk(context.Background(), in))
	require.Len(t, graph.committed, 1)
	assert.Empty(t, graph.committed[0].NewConcepts)
	require.Len(t, graph.committed[0].MatchedLinks, 1)
	assert.Equal(t, "gravity", graph.committed[0].MatchedLinks[0].ConceptSlug)
	assert.Equal(t, 1, job.AccumulatedStats["concepts_matched"])
}

func TestProcessChunkFailsWhenExtractionErrors(t *testing.T) {
	graph := &fakeGraphStore{sourcesByID: map[string]*entities.Source{}}
	jobStore := &fakeJobStore{}
	vectorIndex := &fakeVectorIndex{}

	client := &fakeLLMClient{err: assertErr("provider down")}
	extractor := llm.NewExtractor(client, zap.NewNop())
	embedder := &fakeEmbedder{dim: 3}
	guard := embedding.NewConfigGuard(embedder)
	matcher := services.NewConceptMatcher(vectorIndex, graph)

	engine := NewEngine(graph, jobStore, extractor, guard, matcher, services.DefaultMatchConfig(), zap.NewNop())

	job := &ports.JobRecord{JobID: "job-1"}
	in := ChunkInput{
		Job:      job,
		Chunk:    chunker.Chunk{Text: "gravity pulls objects together", ChunkIndex: 0},
		Filename: "physics.txt",
		Ontology: "physics",
	}

	err := engine.ProcessChunk(context.Background(), in)
	assert.Error(t, err)
	assert.Empty(t, graph.committed, "a failed extraction must never reach the commit step")
	assert.Empty(t, jobStore.saved, "a failed extraction must never reach the checkpoint step")
}

type assertErrT string

func (e assertErrT) Error() string { return string(e) }

func assertErr(msg string) error { return assertErrT(msg) }
