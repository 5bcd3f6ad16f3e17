package acl

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgraph/engine/application/commands"
)

func TestWebContentAdapterTranslatesValidPage(t *testing.T) {
	adapter := NewWebContentAdapter("physics")
	page := &WebContent{URL: "https://example.com/a", Title: "Entropy", Content: "entropy always increases", ExtractedAt: time.Now()}

	cmd, err := adapter.TranslateToSubmission(page)
	require.NoError(t, err)
	assert.Equal(t, "physics", cmd.Ontology)
	assert.Equal(t, "Entropy", cmd.Filename)
	assert.Equal(t, "web", cmd.SourceType)
	assert.Equal(t, "https://example.com/a", cmd.SourcePath)
	assert.Equal(t, []byte("entropy always increases"), cmd.Content)
}

func TestWebContentAdapterRejectsWrongType(t *testing.T) {
	adapter := NewWebContentAdapter("physics")
	_, err := adapter.TranslateToSubmission("not a web content")
	assert.Error(t, err)
}

func TestWebContentAdapterRejectsEmptyTitle(t *testing.T) {
	adapter := NewWebContentAdapter("physics")
	err := adapter.ValidateExternalData(&WebContent{Content: "x"})
	assert.Error(t, err)
}

func TestWebContentAdapterRejectsOverlongTitle(t *testing.T) {
	adapter := NewWebContentAdapter("physics")
	err := adapter.ValidateExternalData(&WebContent{Title: strings.Repeat("a", 501), Content: "x"})
	assert.Error(t, err)
}

func TestWebContentAdapterRejectsEmptyContent(t *testing.T) {
	adapter := NewWebContentAdapter("physics")
	err := adapter.ValidateExternalData(&WebContent{Title: "t"})
	assert.Error(t, err)
}

func TestWebContentAdapterRejectsOversizedContent(t *testing.T) {
	adapter := NewWebContentAdapter("physics")
	err := adapter.ValidateExternalData(&WebContent{Title: "t", Content: strings.Repeat("a", commands.MaxDocumentBytes+1)})
	assert.Error(t, err)
}

func TestAIServiceAdapterTruncatesLongPromptForFilename(t *testing.T) {
	adapter := NewAIServiceAdapter("physics", 1000)
	resp := &AIResponse{Prompt: strings.Repeat("p", 150), Response: "the answer", Model: "gpt-4o", Tokens: 10}

	cmd, err := adapter.TranslateToSubmission(resp)
	require.NoError(t, err)
	assert.Len(t, cmd.Filename, 100)
	assert.True(t, strings.HasSuffix(cmd.Filename, "..."))
	assert.Equal(t, "ai_response", cmd.SourceType)
	assert.Equal(t, "gpt-4o", cmd.SourcePath)
}

func TestAIServiceAdapterRejectsEmptyResponse(t *testing.T) {
	adapter := NewAIServiceAdapter("physics", 1000)
	err := adapter.ValidateExternalData(&AIResponse{Prompt: "p"})
	assert.Error(t, err)
}

func TestAIServiceAdapterRejectsExceedingMaxTokens(t *testing.T) {
	adapter := NewAIServiceAdapter("physics", 100)
	err := adapter.ValidateExternalData(&AIResponse{Response: "x", Tokens: 101})
	assert.Error(t, err)
}

func TestDatabaseImportAdapterMapsConfiguredFieldNames(t *testing.T) {
	adapter := NewDatabaseImportAdapter("physics", map[string]string{"title": "subject", "content": "body"})
	record := &ExternalRecord{
		ID:     "rec-1",
		Source: "legacy-db",
		Fields: map[string]interface{}{"subject": "Entropy", "body": "disorder increases"},
	}

	cmd, err := adapter.TranslateToSubmission(record)
	require.NoError(t, err)
	assert.Equal(t, "Entropy", cmd.Filename)
	assert.Equal(t, []byte("disorder increases"), cmd.Content)
	assert.Equal(t, "legacy-db", cmd.SourcePath)
}

func TestDatabaseImportAdapterFallsBackToInternalFieldNames(t *testing.T) {
	adapter := NewDatabaseImportAdapter("physics", nil)
	record := &ExternalRecord{ID: "rec-2", Fields: map[string]interface{}{"title": "Gravity", "content": "things fall"}}

	cmd, err := adapter.TranslateToSubmission(record)
	require.NoError(t, err)
	assert.Equal(t, "Gravity", cmd.Filename)
	assert.Equal(t, []byte("things fall"), cmd.Content)
}

func TestDatabaseImportAdapterSynthesizesFilenameWhenTitleMissing(t *testing.T) {
	adapter := NewDatabaseImportAdapter("physics", nil)
	record := &ExternalRecord{ID: "rec-3", Fields: map[string]interface{}{"content": "x"}}

	cmd, err := adapter.TranslateToSubmission(record)
	require.NoError(t, err)
	assert.Equal(t, "imported-record-rec-3", cmd.Filename)
}

func TestDatabaseImportAdapterRejectsEmptyID(t *testing.T) {
	adapter := NewDatabaseImportAdapter("physics", nil)
	err := adapter.ValidateExternalData(&ExternalRecord{Fields: map[string]interface{}{"a": 1}})
	assert.Error(t, err)
}

func TestDatabaseImportAdapterRejectsEmptyFields(t *testing.T) {
	adapter := NewDatabaseImportAdapter("physics", nil)
	err := adapter.ValidateExternalData(&ExternalRecord{ID: "rec-4"})
	assert.Error(t, err)
}

func TestFacadeDispatchesToRegisteredAdapter(t *testing.T) {
	facade := NewFacade()
	facade.RegisterAdapter("web", NewWebContentAdapter("physics"))

	cmd, err := facade.Submit(context.Background(), "web", &WebContent{Title: "Entropy", Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, "Entropy", cmd.Filename)
}

func TestFacadeRejectsUnregisteredSystem(t *testing.T) {
	facade := NewFacade()
	_, err := facade.Submit(context.Background(), "unknown", nil)
	assert.Error(t, err)
}
