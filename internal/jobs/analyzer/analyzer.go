// Package analyzer implements the Job Analyzer: a pure, offline
// function estimating cost and size before a job is approved, deriving
// statistics from an in-memory snapshot rather than live I/O.
package analyzer

import (
	"fmt"
	"math"
	"time"
)

// Cost-model constants. Words-per-token factors bracket tokenizer variance
// across providers (the low estimate uses highWordsPerToken, which gives
// fewer tokens); per-million rates are the configured
// extraction/embedding provider's list price.
const (
	lowWordsPerToken  = 0.70
	highWordsPerToken = 1.00
	extractionRatePerMillion = 3.00
	embeddingRatePerMillion  = 0.13
	embeddingTokensPerConcept = 24

	targetWordsPerChunk = 500
	largeFileChunks     = 200 // warn above this many estimated chunks
	minutesPerChunk     = 0.5
)

// Input is the job_data snapshot the analyzer runs over.
type Input struct {
	WordCount             int
	ContentHash           string
	Ontology              string
	ExistingCheckpointJob string // non-empty if another active job shares this content_hash/ontology
	UnknownEncoding       bool
}

// CostEstimate brackets extraction and embedding spend for the document.
type CostEstimate struct {
	ExtractionUSDLow  float64
	ExtractionUSDHigh float64
	EmbeddingUSD      float64
	TotalUSDLow       float64
	TotalUSDHigh      float64
}

// Result is the analyzer's full output contract.
type Result struct {
	EstimatedChunks    int
	EstimatedConcepts  int
	Cost               CostEstimate
	Warnings           []string
	AnalyzedAt         time.Time
}

// AsMap flattens the result into the loosely-typed shape persisted on
// JobRecord.Analysis as a generic document rather than a typed column.
func (r Result) AsMap() map[string]interface{} {
	return map[string]interface{}{
		"estimated_chunks":   r.EstimatedChunks,
		"estimated_concepts": r.EstimatedConcepts,
		"cost_extraction_low":  r.Cost.ExtractionUSDLow,
		"cost_extraction_high": r.Cost.ExtractionUSDHigh,
		"cost_embedding":       r.Cost.EmbeddingUSD,
		"cost_total_low":       r.Cost.TotalUSDLow,
		"cost_total_high":      r.Cost.TotalUSDHigh,
		"warnings":             r.Warnings,
		"analyzed_at":          r.AnalyzedAt,
	}
}

// Analyzer holds no state: every call is a pure function of its Input.
type Analyzer struct{}

func New() *Analyzer { return &Analyzer{} }

// Analyze estimates chunks, concepts, and cost without ever calling an
// LLM, so approval can happen before any billable work runs.
func (a *Analyzer) Analyze(in Input) Result {
	chunks := int(math.Ceil(float64(in.WordCount) / float64(targetWordsPerChunk)))
	if chunks < 1 {
		chunks = 1
	}
	// A rough concepts-per-chunk heuristic: dense technical prose yields
	// roughly one concept per 80 words.
	concepts := int(math.Ceil(float64(in.WordCount) / 80.0))

	extractionLowTokens := float64(in.WordCount) / highWordsPerToken
	extractionHighTokens := float64(in.WordCount) / lowWordsPerToken
	extractionLow := extractionLowTokens / 1_000_000 * extractionRatePerMillion
	extractionHigh := extractionHighTokens / 1_000_000 * extractionRatePerMillion
	embeddingCost := float64(concepts) * embeddingTokensPerConcept / 1_000_000 * embeddingRatePerMillion

	var warnings []string
	if chunks > largeFileChunks {
		estMinutes := float64(chunks) * minutesPerChunk
		warnings = append(warnings, formatLargeFileWarning(chunks, estMinutes))
	}
	if in.ExistingCheckpointJob != "" {
		warnings = append(warnings, "an active job already holds a checkpoint for this content_hash/ontology: "+in.ExistingCheckpointJob)
	}
	if in.UnknownEncoding {
		warnings = append(warnings, "file encoding could not be determined; extraction quality may suffer")
	}

	return Result{
		EstimatedChunks:   chunks,
		EstimatedConcepts: concepts,
		Cost: CostEstimate{
			ExtractionUSDLow:  extractionLow,
			ExtractionUSDHigh: extractionHigh,
			EmbeddingUSD:      embeddingCost,
			TotalUSDLow:       extractionLow + embeddingCost,
			TotalUSDHigh:      extractionHigh + embeddingCost,
		},
		Warnings:   warnings,
		AnalyzedAt: time.Now(),
	}
}

func formatLargeFileWarning(chunks int, minutes float64) string {
	return fmt.Sprintf("large file: %d estimated chunks, ~%.1f minutes to ingest", chunks, minutes)
}
