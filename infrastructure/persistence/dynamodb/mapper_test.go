package dynamodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgraph/engine/application/ports"
	"github.com/kgraph/engine/domain/entities"
	"github.com/kgraph/engine/domain/valueobjects"
)

func testEmbedding(t *testing.T) valueobjects.Embedding {
	t.Helper()
	emb, err := valueobjects.NewEmbedding([]float32{0.1, 0.2, 0.3}, 3)
	require.NoError(t, err)
	return emb
}

func TestConceptRoundTripsThroughDDBItem(t *testing.T) {
	emb := testEmbedding(t)
	concept, err := entities.NewConcept("entropy", emb)
	require.NoError(t, err)
	concept.AddSearchTerm("disorder")
	require.NoError(t, concept.SetGroundingStrength(0.75))

	item := toDDBConcept(concept, "physics")
	assert.Equal(t, "CONCEPT", item.EntityType)
	assert.Equal(t, concept.ConceptSlug(), item.Slug)
	assert.Equal(t, "ONTOLOGY#physics", item.GSI1PK)
	require.NotNil(t, item.GroundingStrength)
	assert.Equal(t, 0.75, *item.GroundingStrength)

	back, err := fromDDBConcept(item)
	require.NoError(t, err)
	assert.Equal(t, concept.ConceptSlug(), back.ConceptSlug())
	assert.Equal(t, concept.Label(), back.Label())
	assert.Contains(t, back.SearchTerms(), "disorder")
	strength, ok := back.GroundingStrength()
	require.True(t, ok)
	assert.Equal(t, 0.75, strength)
}

func TestConceptWithoutGroundingStrengthOmitsPointer(t *testing.T) {
	concept, err := entities.NewConcept("gravity", testEmbedding(t))
	require.NoError(t, err)

	item := toDDBConcept(concept, "")
	assert.Nil(t, item.GroundingStrength)
	assert.Empty(t, item.GSI1PK)

	back, err := fromDDBConcept(item)
	require.NoError(t, err)
	_, ok := back.GroundingStrength()
	assert.False(t, ok)
}

func TestSourceRoundTripsThroughDDBItem(t *testing.T) {
	src, err := entities.NewSource(entities.NewSourceParams{
		Filename:        "notes.md_chunk0",
		Document:        "physics",
		FilePath:        "/docs/notes.md",
		FullText:        "entropy always increases",
		CharOffsetStart: 0,
		CharOffsetEnd:   25,
		ChunkIndex:      0,
		ChunkMethod:     entities.ChunkMethodParagraph,
		ContentHash:     "abc123",
		DocumentID:      valueobjects.DocumentID{},
	})
	require.NoError(t, err)

	item := toDDBSource(src)
	assert.Equal(t, "SOURCE", item.EntityType)
	assert.Equal(t, src.FullText(), item.FullText)

	back, err := fromDDBSource(item)
	require.NoError(t, err)
	assert.Equal(t, src.FullText(), back.FullText())
	assert.Equal(t, src.ChunkMethod(), back.ChunkMethod())
	assert.Equal(t, src.Document(), back.Document())
}

func TestInstanceRoundTripsThroughDDBItem(t *testing.T) {
	src, err := entities.NewSource(entities.NewSourceParams{
		Filename: "notes.md_chunk0",
		FullText: "entropy always increases",
	})
	require.NoError(t, err)
	inst, err := entities.NewInstance(src, "entropy always increases")
	require.NoError(t, err)

	item := toDDBInstance(inst, "entropy")
	assert.Equal(t, "entropy", item.ConceptSlug)
	assert.Equal(t, inst.Quote(), item.Quote)

	back := fromDDBInstance(item)
	assert.Equal(t, inst.Quote(), back.Quote())
	assert.Equal(t, inst.ID(), back.ID())
}

func TestEdgePairProducesOutAndInKeysForBothDirections(t *testing.T) {
	conf, err := valueobjects.NewConfidence(0.9)
	require.NoError(t, err)
	edge, err := entities.NewSemanticEdge("entropy", "disorder", "relates_to", conf, valueobjects.NewInstanceID())
	require.NoError(t, err)

	out, in := toDDBEdgePair(edge)
	assert.Equal(t, "CONCEPT#entropy", out.PK)
	assert.Contains(t, out.SK, "EDGE#OUT#")
	assert.Equal(t, "CONCEPT#disorder", in.PK)
	assert.Contains(t, in.SK, "EDGE#IN#")

	back, err := fromDDBEdge(out)
	require.NoError(t, err)
	assert.Equal(t, edge.SourceConceptID, back.SourceConceptID)
	assert.Equal(t, edge.TargetConceptID, back.TargetConceptID)
	assert.Equal(t, edge.RelationType, back.RelationType)
	assert.InDelta(t, edge.Confidence.Value(), back.Confidence.Value(), 0.0001)
}

func TestDocumentRoundTripsThroughDDBItemWithSupersession(t *testing.T) {
	doc, err := entities.NewDocumentMeta(entities.NewDocumentMetaParams{
		ContentHash: "hash-new",
		Ontology:    "physics",
		Filename:    "notes.md",
		SourceType:  entities.SourceTypeFile,
		IngestedBy:  "tester",
		JobID:       valueobjects.NewJobID(),
	})
	require.NoError(t, err)
	doc.MarkSupersedes("hash-old")

	item := toDDBDocument(doc)
	assert.Equal(t, "hash-old", item.Supersedes)
	assert.Empty(t, item.SupersededBy)

	back, err := fromDDBDocumentMeta(item)
	require.NoError(t, err)
	supersedes, ok := back.Supersedes()
	require.True(t, ok)
	assert.Equal(t, "hash-old", supersedes)
	_, ok = back.SupersededBy()
	assert.False(t, ok)
}

func TestVocabTypeRoundTripsCachedStats(t *testing.T) {
	vt, err := entities.NewVocabType("relates_to", testEmbedding(t), []string{"connects_to"})
	require.NoError(t, err)
	vt.RefreshCachedStats(5, 0.8)

	item := toDDBVocabType(vt)
	assert.True(t, item.HasStats)
	assert.Equal(t, 5, item.UsageCount)

	back, err := fromDDBVocabType(item)
	require.NoError(t, err)
	usage, avg, ok := back.CachedStats()
	require.True(t, ok)
	assert.Equal(t, 5, usage)
	assert.InDelta(t, 0.8, avg, 0.0001)
}

func TestVocabTypeWithoutStatsRoundTrips(t *testing.T) {
	vt, err := entities.NewVocabType("relates_to", testEmbedding(t), nil)
	require.NoError(t, err)

	item := toDDBVocabType(vt)
	assert.False(t, item.HasStats)

	back, err := fromDDBVocabType(item)
	require.NoError(t, err)
	_, _, ok := back.CachedStats()
	assert.False(t, ok)
}

func TestJobRoundTripsThroughDDBItem(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	completedAt := now.Add(time.Hour)
	job := &ports.JobRecord{
		JobID:            "job-1",
		Status:           "completed",
		Type:             "ingest",
		ContentHash:      "hash-1",
		Ontology:         "physics",
		ResumeFromChunk:  3,
		ChunksTotal:      10,
		AccumulatedStats: map[string]int{"concepts_created": 2},
		RecentConceptIDs: []string{"entropy"},
		Analysis:         map[string]interface{}{"summary": "ok"},
		Progress:         []ports.ProgressSnapshot{{ChunkIndex: 2, At: now}},
		CreatedAt:        now,
		CompletedAt:      &completedAt,
		Version:          4,
	}

	item := toDDBJob(job)
	assert.Equal(t, "STATUS#completed", item.GSI1PK)
	assert.Equal(t, "CONTENTHASH#hash-1#physics", item.GSI2PK)
	assert.Equal(t, "JOB#job-1", item.GSI2SK)

	back := fromDDBJob(item)
	assert.Equal(t, job.JobID, back.JobID)
	assert.Equal(t, job.Status, back.Status)
	assert.Equal(t, job.AccumulatedStats, back.AccumulatedStats)
	assert.Equal(t, job.RecentConceptIDs, back.RecentConceptIDs)
	assert.Equal(t, job.Version, back.Version)
	require.NotNil(t, back.CompletedAt)
	assert.True(t, completedAt.Equal(*back.CompletedAt))
	require.Len(t, back.Progress, 1)
	assert.Equal(t, 2, back.Progress[0].ChunkIndex)
}

func TestJobWithoutOptionalTimestampsRoundTrips(t *testing.T) {
	job := &ports.JobRecord{
		JobID:     "job-2",
		Status:    "awaiting_approval",
		CreatedAt: time.Now().Truncate(time.Second),
	}
	item := toDDBJob(job)
	assert.Empty(t, item.ApprovedAt)
	assert.Empty(t, item.CompletedAt)

	back := fromDDBJob(item)
	assert.Nil(t, back.ApprovedAt)
	assert.Nil(t, back.CompletedAt)
	assert.Nil(t, back.ExpiresAt)
}
