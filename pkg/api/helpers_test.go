package api

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSONSetsStatusAndBody(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, 200, ConceptResponse{Slug: "entropy"})

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got ConceptResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "entropy", got.Slug)
}

func TestWriteJSONWithNilDataWritesNoBody(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, 204, nil)

	assert.Equal(t, 204, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestWriteErrorSetsStatusAndErrorBody(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, 400, "bad request")

	assert.Equal(t, 400, rec.Code)
	var got ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "bad request", got.Error)
}
