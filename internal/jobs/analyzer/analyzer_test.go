package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeBasicEstimate(t *testing.T) {
	a := New()
	result := a.Analyze(Input{WordCount: 1000})

	assert.Equal(t, 2, result.EstimatedChunks)
	assert.Equal(t, 13, result.EstimatedConcepts)
	assert.Greater(t, result.Cost.ExtractionUSDLow, 0.0)
	assert.Greater(t, result.Cost.ExtractionUSDHigh, result.Cost.ExtractionUSDLow)
	assert.Empty(t, result.Warnings)
}

func TestAnalyzeLargeFileWarning(t *testing.T) {
	a := New()
	result := a.Analyze(Input{WordCount: 150000})

	assert.Greater(t, result.EstimatedChunks, largeFileChunks)
	require.NotEmpty(t, result.Warnings)
}

func TestAnalyzeExistingCheckpointWarning(t *testing.T) {
	a := New()
	result := a.Analyze(Input{WordCount: 500, ExistingCheckpointJob: "job-123"})

	found := false
	for _, w := range result.Warnings {
		if w == "an active job already holds a checkpoint for this content_hash/ontology: job-123" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyzeUnknownEncodingWarning(t *testing.T) {
	a := New()
	result := a.Analyze(Input{WordCount: 500, UnknownEncoding: true})
	assert.Contains(t, result.Warnings, "file encoding could not be determined; extraction quality may suffer")
}

func TestAnalyzeZeroWordCountStillYieldsOneChunk(t *testing.T) {
	a := New()
	result := a.Analyze(Input{WordCount: 0})
	assert.Equal(t, 1, result.EstimatedChunks)
}

func TestResultAsMap(t *testing.T) {
	a := New()
	result := a.Analyze(Input{WordCount: 500})
	m := result.AsMap()
	assert.Equal(t, result.EstimatedChunks, m["estimated_chunks"])
	assert.Equal(t, result.EstimatedConcepts, m["estimated_concepts"])
}
