package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgraph/engine/application/ports"
)

type fakeGraph struct {
	ports.GraphStore
	edges map[string][]ports.Neighbor
}

func (f *fakeGraph) Neighbors(ctx context.Context, slug string) ([]ports.Neighbor, error) {
	return f.edges[slug], nil
}

func TestBFSSameStartAndGoal(t *testing.T) {
	g := &fakeGraph{edges: map[string][]ports.Neighbor{}}
	path, found, err := bfs(context.Background(), g, "ai", "ai", 5)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"ai"}, path.Slugs)
}

func TestBFSDirectEdge(t *testing.T) {
	g := &fakeGraph{edges: map[string][]ports.Neighbor{
		"ai": {{ConceptSlug: "ml", RelationType: "IMPLIES", Confidence: 0.9}},
	}}
	path, found, err := bfs(context.Background(), g, "ai", "ml", 5)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"ai", "ml"}, path.Slugs)
	assert.Equal(t, []string{"IMPLIES"}, path.EdgeTypes)
}

func TestBFSMultiHop(t *testing.T) {
	g := &fakeGraph{edges: map[string][]ports.Neighbor{
		"ai":  {{ConceptSlug: "ml", RelationType: "IMPLIES", Confidence: 0.9}},
		"ml":  {{ConceptSlug: "dl", RelationType: "IMPLIES", Confidence: 0.8}},
	}}
	path, found, err := bfs(context.Background(), g, "ai", "dl", 5)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"ai", "ml", "dl"}, path.Slugs)
}

func TestBFSUnreachable(t *testing.T) {
	g := &fakeGraph{edges: map[string][]ports.Neighbor{
		"ai": {{ConceptSlug: "ml", RelationType: "IMPLIES", Confidence: 0.9}},
	}}
	_, found, err := bfs(context.Background(), g, "ai", "cooking", 5)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBFSRespectsMaxHops(t *testing.T) {
	g := &fakeGraph{edges: map[string][]ports.Neighbor{
		"a": {{ConceptSlug: "b", RelationType: "IMPLIES", Confidence: 0.5}},
		"b": {{ConceptSlug: "c", RelationType: "IMPLIES", Confidence: 0.5}},
	}}
	_, found, err := bfs(context.Background(), g, "a", "c", 1)
	require.NoError(t, err)
	assert.False(t, found, "goal is two hops away but maxHops is 1")
}

func TestBFSPrefersHigherConfidenceOnTie(t *testing.T) {
	g := &fakeGraph{edges: map[string][]ports.Neighbor{
		"start": {
			{ConceptSlug: "via-low", RelationType: "IMPLIES", Confidence: 0.1},
			{ConceptSlug: "via-high", RelationType: "IMPLIES", Confidence: 0.9},
		},
		"via-low":  {{ConceptSlug: "goal", RelationType: "IMPLIES", Confidence: 0.9}},
		"via-high": {{ConceptSlug: "goal", RelationType: "IMPLIES", Confidence: 0.9}},
	}}
	path, found, err := bfs(context.Background(), g, "start", "goal", 5)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"start", "via-high", "goal"}, path.Slugs)
}

func TestRelatedBFSGroupsByDepth(t *testing.T) {
	g := &fakeGraph{edges: map[string][]ports.Neighbor{
		"ai": {{ConceptSlug: "ml", RelationType: "IMPLIES"}, {ConceptSlug: "nlp", RelationType: "IMPLIES"}},
		"ml": {{ConceptSlug: "dl", RelationType: "IMPLIES"}},
	}}
	byDepth, err := relatedBFS(context.Background(), g, "ai", 2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ml", "nlp"}, byDepth[1])
	assert.ElementsMatch(t, []string{"dl"}, byDepth[2])
}

func TestRelatedBFSRespectsMaxDepth(t *testing.T) {
	g := &fakeGraph{edges: map[string][]ports.Neighbor{
		"ai": {{ConceptSlug: "ml", RelationType: "IMPLIES"}},
		"ml": {{ConceptSlug: "dl", RelationType: "IMPLIES"}},
	}}
	byDepth, err := relatedBFS(context.Background(), g, "ai", 1)
	require.NoError(t, err)
	assert.Contains(t, byDepth, 1)
	assert.NotContains(t, byDepth, 2)
}
