package entities

import (
	"strings"

	kgerrors "github.com/kgraph/engine/internal/errors"
	"github.com/kgraph/engine/domain/valueobjects"
)

// VocabType is a registered relationship type usable as a semantic edge
// label (e.g. IMPLIES, SUPPORTS, CONTRADICTS).
type VocabType struct {
	name      string // uppercase snake_case, unique
	synonyms  []string
	embedding valueobjects.Embedding

	// Cached epistemic statistics, refreshed out of band by curation
	// tooling rather than by the ingestion path.
	usageCount       int
	avgConfidence    float64
	hasCachedStats   bool
}

// NormalizeVocabName upper-snake-cases an arbitrary relation string so
// registrations are comparable byte-for-byte.
func NormalizeVocabName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ToUpper(name)
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.Join(strings.Fields(name), "_")
	return name
}

// NewVocabType registers a relationship type.
func NewVocabType(name string, embedding valueobjects.Embedding, synonyms []string) (*VocabType, error) {
	name = NormalizeVocabName(name)
	if name == "" {
		return nil, kgerrors.Validation("EMPTY_VOCAB_NAME", "vocab type name cannot be empty").Build()
	}
	syn := make([]string, len(synonyms))
	copy(syn, synonyms)
	return &VocabType{name: name, embedding: embedding, synonyms: syn}, nil
}

func (v *VocabType) Name() string                    { return v.name }
func (v *VocabType) Embedding() valueobjects.Embedding { return v.embedding }
func (v *VocabType) Synonyms() []string {
	out := make([]string, len(v.synonyms))
	copy(out, v.synonyms)
	return out
}

// AddSynonym registers an additional alias for this relationship type.
func (v *VocabType) AddSynonym(synonym string) {
	synonym = NormalizeVocabName(synonym)
	if synonym == "" || synonym == v.name {
		return
	}
	for _, s := range v.synonyms {
		if s == synonym {
			return
		}
	}
	v.synonyms = append(v.synonyms, synonym)
}

// CachedStats returns the cached usage count and average confidence, and
// whether any stats have been recorded yet.
func (v *VocabType) CachedStats() (usageCount int, avgConfidence float64, ok bool) {
	return v.usageCount, v.avgConfidence, v.hasCachedStats
}

// RefreshCachedStats overwrites the cached epistemic statistics.
func (v *VocabType) RefreshCachedStats(usageCount int, avgConfidence float64) {
	v.usageCount = usageCount
	v.avgConfidence = avgConfidence
	v.hasCachedStats = true
}
