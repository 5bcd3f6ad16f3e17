package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kgraph/engine/application/commands"
	"github.com/kgraph/engine/application/mediator"
	"github.com/kgraph/engine/application/queries/models"
)

type fakeMediator struct {
	queryResult interface{}
	queryErr    error
	sendErr     error
	lastCommand mediator.Command
	lastQuery   mediator.Query
}

func (m *fakeMediator) Send(ctx context.Context, command mediator.Command) error {
	m.lastCommand = command
	return m.sendErr
}

func (m *fakeMediator) Query(ctx context.Context, query mediator.Query) (interface{}, error) {
	m.lastQuery = query
	return m.queryResult, m.queryErr
}

func TestConceptHandlerSearch(t *testing.T) {
	med := &fakeMediator{queryResult: []models.ConceptHit{{ConceptID: "ai", Label: "AI", Similarity: 0.9}}}
	h := NewConceptHandler(med, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/concepts/search?q=ai", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out, 1)
}

func TestConceptHandlerSearchRejectsEmptyQuery(t *testing.T) {
	med := &fakeMediator{}
	h := NewConceptHandler(med, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/concepts/search", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConceptHandlerDetails(t *testing.T) {
	med := &fakeMediator{queryResult: models.ConceptDetail{ConceptID: "ai", Label: "AI"}}
	h := NewConceptHandler(med, zap.NewNop())

	r := chi.NewRouter()
	r.Get("/concepts/{conceptID}", h.Details)

	req := httptest.NewRequest(http.MethodGet, "/concepts/ai", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestConceptHandlerDetailsPropagatesNotFound(t *testing.T) {
	med := &fakeMediator{queryErr: errors.New("not found")}
	h := NewConceptHandler(med, zap.NewNop())

	r := chi.NewRouter()
	r.Get("/concepts/{conceptID}", h.Details)

	req := httptest.NewRequest(http.MethodGet, "/concepts/missing", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.NotEqual(t, http.StatusOK, rec.Code)
}

func TestConceptHandlerFindConnection(t *testing.T) {
	med := &fakeMediator{queryResult: models.Path{Found: true, Slugs: []string{"a", "b"}, EdgeTypes: []string{"related_to"}}}
	h := NewConceptHandler(med, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/connections?from_slug=a&to_slug=b", nil)
	rec := httptest.NewRecorder()
	h.FindConnection(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDocumentHandlerSubmit(t *testing.T) {
	med := &fakeMediator{}
	h := NewDocumentHandler(med, zap.NewNop())

	body, _ := json.Marshal(map[string]string{
		"ontology": "general", "filename": "doc.txt", "content": "hello",
	})
	req := httptest.NewRequest(http.MethodPost, "/documents", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	cmd, ok := med.lastCommand.(commands.SubmitDocumentCommand)
	require.True(t, ok)
	assert.Equal(t, "general", cmd.Ontology)
}

func TestDocumentHandlerSubmitRejectsInvalidBody(t *testing.T) {
	med := &fakeMediator{}
	h := NewDocumentHandler(med, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/documents", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobHandlerStatus(t *testing.T) {
	med := &fakeMediator{queryResult: models.JobStatus{JobID: "job-1", Status: "processing"}}
	h := NewJobHandler(med, zap.NewNop())

	r := chi.NewRouter()
	r.Get("/jobs/{jobID}", h.Status)

	req := httptest.NewRequest(http.MethodGet, "/jobs/job-1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestJobHandlerApprove(t *testing.T) {
	med := &fakeMediator{}
	h := NewJobHandler(med, zap.NewNop())

	r := chi.NewRouter()
	r.Post("/jobs/{jobID}/approve", h.Approve)

	req := httptest.NewRequest(http.MethodPost, "/jobs/job-1/approve", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cmd, ok := med.lastCommand.(commands.ApproveJobCommand)
	require.True(t, ok)
	assert.Equal(t, "job-1", cmd.JobID)
}

func TestJobHandlerCancel(t *testing.T) {
	med := &fakeMediator{}
	h := NewJobHandler(med, zap.NewNop())

	r := chi.NewRouter()
	r.Post("/jobs/{jobID}/cancel", h.Cancel)

	body, _ := json.Marshal(map[string]string{"reason": "duplicate"})
	req := httptest.NewRequest(http.MethodPost, "/jobs/job-1/cancel", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cmd, ok := med.lastCommand.(commands.CancelJobCommand)
	require.True(t, ok)
	assert.Equal(t, "duplicate", cmd.Reason)
}
