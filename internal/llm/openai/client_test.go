package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseSchemaRequiresConceptsRelationshipsEvidence(t *testing.T) {
	schema := responseSchema()
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)

	for _, key := range []string{"concepts", "relationships", "evidence"} {
		assert.Contains(t, props, key)
	}
	assert.ElementsMatch(t, []string{"concepts", "relationships", "evidence"}, schema["required"])
}

func TestResponseSchemaConceptItemsRequireAllFields(t *testing.T) {
	schema := responseSchema()
	props := schema["properties"].(map[string]any)
	concepts := props["concepts"].(map[string]any)
	items := concepts["items"].(map[string]any)
	required := items["required"].([]string)
	assert.ElementsMatch(t, []string{"local_id", "label", "search_terms", "quote_ids"}, required)
}

func TestResponseSchemaRelationshipItemsRequireConfidence(t *testing.T) {
	schema := responseSchema()
	props := schema["properties"].(map[string]any)
	rels := props["relationships"].(map[string]any)
	items := rels["items"].(map[string]any)
	required := items["required"].([]string)
	assert.Contains(t, required, "confidence")
}

func TestResponseSchemaEvidenceItemsRequireQuoteID(t *testing.T) {
	schema := responseSchema()
	props := schema["properties"].(map[string]any)
	evidence := props["evidence"].(map[string]any)
	items := evidence["items"].(map[string]any)
	required := items["required"].([]string)
	assert.ElementsMatch(t, []string{"quote_id", "quote", "concept_local_id"}, required)
}

func TestNewDefaultsModelWhenUnset(t *testing.T) {
	c := New(Config{APIKey: "test-key"})
	assert.NotEmpty(t, c.model)
}

func TestNewUsesConfiguredModel(t *testing.T) {
	c := New(Config{APIKey: "test-key", Model: "gpt-4o-custom"})
	assert.Equal(t, "gpt-4o-custom", c.model)
}
