// Package services holds domain services: pure functions and small stateless
// orchestrators that operate purely on domain/entities and
// domain/valueobjects, with no I/O of their own.
package services

import (
	"strings"

	"github.com/agnivade/levenshtein"
	porterstemmer "github.com/blevesearch/go-porterstemmer"

	"github.com/kgraph/engine/domain/entities"
)

// relationMatchThreshold is the minimum normalized Levenshtein similarity
// required to accept a match in the cascade's fuzzy stage.
const relationMatchThreshold = 0.8

// RelationMatch is the accepted result of normalizing an extracted
// relationship-type string against the registered vocabulary.
type RelationMatch struct {
	VocabType  *entities.VocabType
	Confidence float64
	Stage      string
}

// NormalizeRelationType runs the four-stage cascade (exact, prefix, Porter
// stem, fuzzy Levenshtein) against the registered vocabulary and returns
// the first stage's match (exact and prefix at 1.0, stem at 0.67, fuzzy
// only at or above relationMatchThreshold), or ok=false if the extracted
// string does not resolve to any registered VocabType.
func NormalizeRelationType(extracted string, vocabulary []*entities.VocabType) (RelationMatch, bool) {
	normalized := entities.NormalizeVocabName(extracted)
	if normalized == "" {
		return RelationMatch{}, false
	}

	// Stage 1: exact match (including synonyms), confidence 1.0.
	for _, vt := range vocabulary {
		if vt.Name() == normalized || containsSynonym(vt, normalized) {
			return RelationMatch{VocabType: vt, Confidence: 1.0, Stage: "exact"}, true
		}
	}

	// Stage 2: prefix match in either direction, confidence 1.0.
	for _, vt := range vocabulary {
		if strings.HasPrefix(vt.Name(), normalized) || strings.HasPrefix(normalized, vt.Name()) {
			return RelationMatch{VocabType: vt, Confidence: 1.0, Stage: "prefix"}, true
		}
	}

	// Stage 3: Porter-stem equality, confidence ~0.67.
	extractedStem := stemWord(normalized)
	for _, vt := range vocabulary {
		if stemWord(vt.Name()) == extractedStem {
			return RelationMatch{VocabType: vt, Confidence: 0.67, Stage: "stem"}, true
		}
	}

	// Stage 4: normalized Levenshtein similarity.
	var best RelationMatch
	bestSim := 0.0
	for _, vt := range vocabulary {
		sim := normalizedLevenshteinSimilarity(normalized, vt.Name())
		if sim > bestSim {
			bestSim = sim
			best = RelationMatch{VocabType: vt, Confidence: sim, Stage: "fuzzy"}
		}
	}
	if bestSim >= relationMatchThreshold {
		return best, true
	}

	return RelationMatch{}, false
}

func containsSynonym(vt *entities.VocabType, normalized string) bool {
	for _, s := range vt.Synonyms() {
		if s == normalized {
			return true
		}
	}
	return false
}

// stemWord applies the Porter stemming algorithm word-by-word, since
// go-porterstemmer operates on single tokens; multi-word relation names
// (already underscore-joined) are stemmed token-wise and rejoined.
func stemWord(name string) string {
	parts := strings.Split(strings.ToLower(name), "_")
	for i, p := range parts {
		parts[i] = porterstemmer.StemString(p)
	}
	return strings.Join(parts, "_")
}

// normalizedLevenshteinSimilarity converts raw edit distance into a
// similarity in [0,1] normalized by the longer string's length.
func normalizedLevenshteinSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(maxLen)
}
