package vectorindex

import (
	"math/rand"
	"sort"

	"github.com/kgraph/engine/application/ports"
)

// candidate is the pre-ranking view of one indexed concept: its embedding
// similarity is computed by the caller (Qdrant for the real backend, the
// brute-force loop for the in-memory one); degree is carried alongside so
// the degree-aware strategies can filter/rank without a second round trip.
type candidate struct {
	Slug       string
	Similarity float64
	Degree     int
}

// applyStrategy filters and ranks a full candidate set according to the
// selected search strategy. Degree-aware filtering and the
// epsilon-greedy blend both happen here in Go, never inside the index's
// own scoring, keeping degree computation inline rather than precomputed.
func applyStrategy(all []candidate, strategy ports.VectorSearchStrategy, degreePercentile float64, topK int, threshold float64, rng *rand.Rand) []candidate {
	switch strategy {
	case ports.StrategyDegreeOnly:
		filtered := filterByDegreePercentile(all, degreePercentile)
		return rankAndTrim(filtered, topK, threshold)

	case ports.StrategyDegreeBiased:
		filtered := filterByDegreePercentile(all, degreePercentile)
		highDegree := rankAndTrim(filtered, topK, threshold)
		full := rankAndTrim(all, topK, threshold)
		return epsilonGreedyMerge(highDegree, full, topK, rng)

	default: // exhaustive
		return rankAndTrim(all, topK, threshold)
	}
}

// filterByDegreePercentile keeps candidates whose degree is in the top
// (1 - degreePercentile) * 100% by degree.
func filterByDegreePercentile(all []candidate, degreePercentile float64) []candidate {
	if len(all) == 0 {
		return all
	}
	degrees := make([]int, len(all))
	for i, c := range all {
		degrees[i] = c.Degree
	}
	sort.Ints(degrees)

	cutoffIdx := int(degreePercentile * float64(len(degrees)))
	if cutoffIdx >= len(degrees) {
		cutoffIdx = len(degrees) - 1
	}
	if cutoffIdx < 0 {
		cutoffIdx = 0
	}
	cutoff := degrees[cutoffIdx]

	out := make([]candidate, 0, len(all))
	for _, c := range all {
		if c.Degree >= cutoff {
			out = append(out, c)
		}
	}
	return out
}

// rankAndTrim sorts by similarity desc, then degree desc, then concept_id
// lexicographic as the tie-break, filters below threshold, and trims to
// topK.
func rankAndTrim(all []candidate, topK int, threshold float64) []candidate {
	filtered := make([]candidate, 0, len(all))
	for _, c := range all {
		if c.Similarity >= threshold {
			filtered = append(filtered, c)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].Similarity != filtered[j].Similarity {
			return filtered[i].Similarity > filtered[j].Similarity
		}
		if filtered[i].Degree != filtered[j].Degree {
			return filtered[i].Degree > filtered[j].Degree
		}
		return filtered[i].Slug < filtered[j].Slug
	})
	if len(filtered) > topK {
		filtered = filtered[:topK]
	}
	return filtered
}

// epsilonGreedyMerge implements degree_biased's 80/20 split: each of the
// topK slots independently probes the high-degree-filtered pool with
// probability 0.8 and the full unfiltered pool otherwise (an epsilon-greedy
// pick per slot, not a fixed head-slice of either pool), falling back to
// whichever pool still has unseen candidates when the chosen one is
// exhausted. Candidates are deduplicated by slug and the result is
// re-ranked by the same tie-break order as rankAndTrim.
func epsilonGreedyMerge(highDegree, full []candidate, topK int, rng *rand.Rand) []candidate {
	seen := make(map[string]bool, topK)
	merged := make([]candidate, 0, topK)
	hi, lo := 0, 0

	nextUnseen := func(pool []candidate, idx *int) (candidate, bool) {
		for *idx < len(pool) {
			c := pool[*idx]
			*idx++
			if !seen[c.Slug] {
				return c, true
			}
		}
		return candidate{}, false
	}

	for len(merged) < topK && (hi < len(highDegree) || lo < len(full)) {
		probeHigh := hi < len(highDegree)
		probeFull := lo < len(full)
		if probeHigh && probeFull {
			probeHigh = rng.Float64() < 0.8
		}

		var c candidate
		var ok bool
		if probeHigh {
			c, ok = nextUnseen(highDegree, &hi)
			if !ok && probeFull {
				c, ok = nextUnseen(full, &lo)
			}
		} else {
			c, ok = nextUnseen(full, &lo)
			if !ok && probeHigh {
				c, ok = nextUnseen(highDegree, &hi)
			}
		}
		if !ok {
			continue
		}
		seen[c.Slug] = true
		merged = append(merged, c)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Similarity != merged[j].Similarity {
			return merged[i].Similarity > merged[j].Similarity
		}
		if merged[i].Degree != merged[j].Degree {
			return merged[i].Degree > merged[j].Degree
		}
		return merged[i].Slug < merged[j].Slug
	})
	return merged
}
