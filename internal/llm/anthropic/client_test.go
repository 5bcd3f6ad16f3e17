package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractionSchemaRequiresConceptsRelationshipsEvidence(t *testing.T) {
	schema := extractionSchema()
	props, ok := schema.ExtraFields["properties"].(map[string]any)
	require.True(t, ok)

	for _, key := range []string{"concepts", "relationships", "evidence"} {
		assert.Contains(t, props, key)
	}

	required, ok := schema.ExtraFields["required"].([]string)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"concepts", "relationships", "evidence"}, required)
}

func TestExtractionSchemaConceptItemsRequireLocalIDAndLabel(t *testing.T) {
	schema := extractionSchema()
	props := schema.ExtraFields["properties"].(map[string]any)
	concepts := props["concepts"].(map[string]any)
	items := concepts["items"].(map[string]any)
	required := items["required"].([]string)
	assert.ElementsMatch(t, []string{"local_id", "label"}, required)
}

func TestExtractionSchemaEvidenceItemsRequireQuoteAndConceptLocalID(t *testing.T) {
	schema := extractionSchema()
	props := schema.ExtraFields["properties"].(map[string]any)
	evidence := props["evidence"].(map[string]any)
	items := evidence["items"].(map[string]any)
	required := items["required"].([]string)
	assert.ElementsMatch(t, []string{"quote", "concept_local_id"}, required)
}

func TestExtractionSchemaRelationshipItemsRequireEndpointsAndType(t *testing.T) {
	schema := extractionSchema()
	props := schema.ExtraFields["properties"].(map[string]any)
	rels := props["relationships"].(map[string]any)
	items := rels["items"].(map[string]any)
	required := items["required"].([]string)
	assert.ElementsMatch(t, []string{"from_local_or_existing", "to_local_or_existing", "type"}, required)
}

func TestNewDefaultsModelWhenUnset(t *testing.T) {
	c := New(Config{APIKey: "test-key"})
	assert.NotEmpty(t, c.model)
	assert.Equal(t, int64(4096), c.maxTokens)
}

func TestNewUsesConfiguredModel(t *testing.T) {
	c := New(Config{APIKey: "test-key", Model: "claude-custom"})
	assert.Equal(t, "claude-custom", c.model)
}
