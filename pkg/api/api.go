// Package api defines the HTTP request/response contracts for the REST
// surface and the Lambda-proxy response helpers used by the chi router
// mounted behind API Gateway.
package api

import (
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
)

// ConceptResponse is the API representation of a Concept.
type ConceptResponse struct {
	Slug       string   `json:"slug"`
	Label      string   `json:"label"`
	Ontology   string   `json:"ontology"`
	Definition string   `json:"definition,omitempty"`
	VocabType  string   `json:"vocab_type"`
	SourceIDs  []string `json:"source_ids"`
	Degree     int      `json:"degree"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
}

// ConceptDetailsResponse extends ConceptResponse with its neighborhood and
// the instances attached to it.
type ConceptDetailsResponse struct {
	ConceptResponse
	Neighbors []NeighborResponse `json:"neighbors"`
	Instances []InstanceResponse `json:"instances"`
}

// NeighborResponse is one edge-reachable concept plus the edge connecting it.
type NeighborResponse struct {
	Slug         string  `json:"slug"`
	Label        string  `json:"label"`
	RelationType string  `json:"relation_type"`
	Direction    string  `json:"direction"`
	Confidence   float64 `json:"confidence"`
}

// InstanceResponse is the API representation of an Instance.
type InstanceResponse struct {
	ID          string `json:"id"`
	ConceptSlug string `json:"concept_slug"`
	Surface     string `json:"surface"`
	SourceID    string `json:"source_id"`
	Context     string `json:"context,omitempty"`
}

// SourceResponse is the API representation of a Source excerpt.
type SourceResponse struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
}

// JobResponse is the API representation of an ingestion job.
type JobResponse struct {
	JobID            string         `json:"job_id"`
	Status           string         `json:"status"`
	Type             string         `json:"type"`
	Ontology         string         `json:"ontology"`
	ChunksTotal      int            `json:"chunks_total"`
	ResumeFromChunk  int            `json:"resume_from_chunk"`
	AccumulatedStats map[string]int `json:"accumulated_stats,omitempty"`
	Error            string         `json:"error,omitempty"`
	CreatedAt        string         `json:"created_at"`
	CompletedAt      string         `json:"completed_at,omitempty"`
}

// SubmitDocumentRequest is the body of a POST /documents request.
type SubmitDocumentRequest struct {
	Ontology    string `json:"ontology"`
	Filename    string `json:"filename"`
	SourceType  string `json:"source_type"`
	SourcePath  string `json:"source_path,omitempty"`
	Content     string `json:"content"`
	AutoApprove bool   `json:"auto_approve"`
}

// ApproveJobRequest is the body of a POST /jobs/{id}/approve request.
type ApproveJobRequest struct {
	Approve bool `json:"approve"`
}

// FindConnectionRequest names the two endpoint slugs and an optional hop
// limit of a connection lookup. The router serves that lookup at
// GET /api/v1/connections from query parameters; no handler decodes this type.
type FindConnectionRequest struct {
	FromSlug string `json:"from_slug"`
	ToSlug   string `json:"to_slug"`
	MaxHops  int    `json:"max_hops,omitempty"`
}

// ConnectionPathResponse is a path of concepts connecting two slugs.
type ConnectionPathResponse struct {
	Found bool               `json:"found"`
	Hops  int                `json:"hops"`
	Path  []NeighborResponse `json:"path"`
}

// ErrorResponse is the standard error body returned by every handler.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// GatewayResponse builds a valid APIGatewayProxyResponse from a status code
// and a pre-serialized body.
func GatewayResponse(statusCode int, body string) (events.APIGatewayProxyResponse, error) {
	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}, nil
}

// Success formats a successful JSON response.
func Success(statusCode int, data interface{}) (events.APIGatewayProxyResponse, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return Error(500, "internal server error"), err
	}
	return GatewayResponse(statusCode, string(body))
}

// Error formats a JSON error response.
func Error(statusCode int, message string) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(ErrorResponse{Error: message})
	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}
