package errors

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestWriteHTTPErrorMapsValidationToBadRequest(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteHTTPError(rec, Validation("BAD_INPUT", "ontology is required").Build(), zap.NewNop())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWriteHTTPErrorMapsNotFoundToNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteHTTPError(rec, NotFound("CONCEPT_NOT_FOUND", "missing").Build(), zap.NewNop())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWriteHTTPErrorMapsConflictToConflict(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteHTTPError(rec, Conflict("DUPLICATE_CONTENT", "dup").Build(), zap.NewNop())
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestWriteHTTPErrorFallsBackToInternalForPlainError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteHTTPError(rec, errors.New("unexpected"), zap.NewNop())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWriteHTTPErrorNilIsNoop(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteHTTPError(rec, nil, zap.NewNop())
	assert.Equal(t, 200, rec.Code)
}

func TestErrorEnrichmentMiddlewareRecoversPanic(t *testing.T) {
	handler := ErrorEnrichmentMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	assert.NotPanics(t, func() { handler.ServeHTTP(rec, req) })
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
