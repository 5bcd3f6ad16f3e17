package query

import (
	"context"
	"fmt"

	"github.com/kgraph/engine/application/ports"
)

// Path is a connection between two concepts: a sequence of concept slugs
// and the relation type traversed for each hop (len(EdgeTypes) ==
// len(Slugs)-1).
type Path struct {
	Slugs     []string
	EdgeTypes []string
}

// bfs finds the shortest path by edge count from start to goal, breaking
// ties by the path with the higher total confidence.
// It processes the frontier one full level at a time so that, among
// several equal-depth routes to the same node, the highest-confidence one
// wins before the next level expands from it.
func bfs(ctx context.Context, graph ports.GraphStore, start, goal string, maxHops int) (Path, bool, error) {
	if start == goal {
		return Path{Slugs: []string{start}}, true, nil
	}

	parent := map[string]string{}
	parentEdge := map[string]string{}
	bestConfidence := map[string]float64{start: 0}
	frontier := []string{start}

	for depth := 0; depth < maxHops && len(frontier) > 0; depth++ {
		type candidate struct {
			from, to, edgeType string
			confidence         float64
		}
		var candidates []candidate

		for _, cur := range frontier {
			neighbors, err := graph.Neighbors(ctx, cur)
			if err != nil {
				return Path{}, false, fmt.Errorf("query: neighbors of %s: %w", cur, err)
			}
			for _, n := range neighbors {
				if _, already := bestConfidence[n.ConceptSlug]; already {
					continue
				}
				candidates = append(candidates, candidate{from: cur, to: n.ConceptSlug, edgeType: n.RelationType, confidence: bestConfidence[cur] + n.Confidence})
			}
		}

		bestThisLevel := map[string]candidate{}
		for _, c := range candidates {
			if existing, ok := bestThisLevel[c.to]; !ok || c.confidence > existing.confidence {
				bestThisLevel[c.to] = c
			}
		}

		var nextFrontier []string
		for slug, c := range bestThisLevel {
			parent[slug] = c.from
			parentEdge[slug] = c.edgeType
			bestConfidence[slug] = c.confidence
			nextFrontier = append(nextFrontier, slug)
		}
		if _, reached := bestThisLevel[goal]; reached {
			return reconstructPath(start, goal, parent, parentEdge), true, nil
		}
		frontier = nextFrontier
	}

	return Path{}, false, nil
}

func reconstructPath(start, goal string, parent, parentEdge map[string]string) Path {
	var slugs []string
	var edgeTypes []string
	cursor := goal
	for cursor != start {
		slugs = append([]string{cursor}, slugs...)
		edgeTypes = append([]string{parentEdge[cursor]}, edgeTypes...)
		cursor = parent[cursor]
	}
	slugs = append([]string{start}, slugs...)
	return Path{Slugs: slugs, EdgeTypes: edgeTypes}
}

// relatedBFS implements related_concepts: BFS from start up to maxDepth,
// grouping every reached concept by its minimum distance.
func relatedBFS(ctx context.Context, graph ports.GraphStore, start string, maxDepth int) (map[int][]string, error) {
	visited := map[string]int{start: 0}
	byDepth := map[int][]string{}
	queue := []string{start}
	depth := map[string]int{start: 0}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		curDepth := depth[cur]
		if curDepth >= maxDepth {
			continue
		}

		neighbors, err := graph.Neighbors(ctx, cur)
		if err != nil {
			return nil, fmt.Errorf("query: neighbors of %s: %w", cur, err)
		}
		for _, n := range neighbors {
			if _, seen := visited[n.ConceptSlug]; seen {
				continue
			}
			visited[n.ConceptSlug] = curDepth + 1
			depth[n.ConceptSlug] = curDepth + 1
			byDepth[curDepth+1] = append(byDepth[curDepth+1], n.ConceptSlug)
			queue = append(queue, n.ConceptSlug)
		}
	}

	return byDepth, nil
}
