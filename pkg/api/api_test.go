package api

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessMarshalsDataIntoBody(t *testing.T) {
	resp, err := Success(200, ConceptResponse{Slug: "entropy", Label: "Entropy"})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])

	var got ConceptResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &got))
	assert.Equal(t, "entropy", got.Slug)
	assert.Equal(t, "Entropy", got.Label)
}

func TestSuccessFallsBackToErrorResponseOnMarshalFailure(t *testing.T) {
	resp, err := Success(200, math.Inf(1))
	assert.Error(t, err)
	assert.Equal(t, 500, resp.StatusCode)
}

func TestErrorFormatsJSONErrorResponse(t *testing.T) {
	resp := Error(404, "concept not found")
	assert.Equal(t, 404, resp.StatusCode)

	var got ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &got))
	assert.Equal(t, "concept not found", got.Error)
}

func TestGatewayResponsePassesThroughStatusAndBody(t *testing.T) {
	resp, err := GatewayResponse(201, `{"ok":true}`)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, `{"ok":true}`, resp.Body)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
}
