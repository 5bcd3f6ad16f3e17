// Package models defines the result shapes returned through the mediator
// for every query, decoupling the REST layer from internal/query's own
// result types.
package models

import "github.com/kgraph/engine/domain/entities"

// ConceptHit is one search_concepts or substring_match result.
type ConceptHit struct {
	ConceptID  string  `json:"concept_id"`
	Label      string  `json:"label"`
	Similarity float64 `json:"similarity,omitempty"`
}

// EvidenceRef is one instance's quote plus the source it came from.
type EvidenceRef struct {
	Quote      string `json:"quote"`
	SourceID   string `json:"source_id"`
	Filename   string `json:"filename"`
	ChunkIndex int    `json:"chunk_index"`
}

// ConceptDetail is concept_details' result.
type ConceptDetail struct {
	ConceptID   string                  `json:"concept_id"`
	Label       string                  `json:"label"`
	SearchTerms []string                `json:"search_terms"`
	Edges       []entities.SemanticEdge `json:"edges"`
	Evidence    []EvidenceRef           `json:"evidence"`
}

// RelatedConcept is one related_concepts result.
type RelatedConcept struct {
	ConceptID string `json:"concept_id"`
	Label     string `json:"label"`
	Distance  int    `json:"distance"`
}

// Path is find_connection's result.
type Path struct {
	Found     bool     `json:"found"`
	Slugs     []string `json:"slugs"`
	EdgeTypes []string `json:"edge_types"`
}

// JobStatus mirrors a job's current persisted state.
type JobStatus struct {
	JobID            string         `json:"job_id"`
	Status           string         `json:"status"`
	Type             string         `json:"type"`
	Ontology         string         `json:"ontology"`
	ChunksTotal      int            `json:"chunks_total"`
	ResumeFromChunk  int            `json:"resume_from_chunk"`
	AccumulatedStats map[string]int `json:"accumulated_stats,omitempty"`
	Error            string         `json:"error,omitempty"`
}
