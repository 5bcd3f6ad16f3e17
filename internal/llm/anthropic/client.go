// Package anthropic implements the llm.Client port against the Anthropic
// Messages API, forcing structured output via a single tool-use call so
// the response is always schema-validated JSON rather than free text.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kgraph/engine/internal/llm"
)

const extractionToolName = "emit_extraction"

const systemPrompt = `You read one chunk of a document and extract concepts, relationships between concepts, and verbatim evidence quotes. Always call emit_extraction exactly once with your full result.`

// Client implements llm.Client against the Anthropic API.
type Client struct {
	sdk       anthropic.Client
	model     string
	maxTokens int64
}

// Config is the subset of Anthropic configuration the extractor needs.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// New builds an Anthropic-backed extraction client.
func New(cfg Config) *Client {
	opts := []option.RequestOption{option.WithAPIKey(strings.TrimSpace(cfg.APIKey))}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(base, "/")))
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = string(anthropic.ModelClaude3_7SonnetLatest)
	}
	return &Client{sdk: anthropic.NewClient(opts...), model: model, maxTokens: 4096}
}

func extractionSchema() anthropic.ToolInputSchemaParam {
	return anthropic.ToolInputSchemaParam{
		ExtraFields: map[string]any{
			"properties": map[string]any{
				"concepts": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"local_id":     map[string]any{"type": "string"},
							"label":        map[string]any{"type": "string"},
							"search_terms": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
							"quote_ids":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						},
						"required": []string{"local_id", "label"},
					},
				},
				"relationships": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"from_local_or_existing": map[string]any{"type": "string"},
							"to_local_or_existing":   map[string]any{"type": "string"},
							"type":                   map[string]any{"type": "string"},
							"confidence":             map[string]any{"type": "number"},
						},
						"required": []string{"from_local_or_existing", "to_local_or_existing", "type"},
					},
				},
				"evidence": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"quote_id":         map[string]any{"type": "string"},
							"quote":            map[string]any{"type": "string"},
							"concept_local_id": map[string]any{"type": "string"},
						},
						"required": []string{"quote", "concept_local_id"},
					},
				},
			},
			"required": []string{"concepts", "relationships", "evidence"},
		},
	}
}

func (c *Client) Extract(ctx context.Context, req llm.ExtractionRequest) (llm.ExtractionResult, error) {
	contextJSON, err := json.Marshal(req.RecentConcepts)
	if err != nil {
		return llm.ExtractionResult{}, fmt.Errorf("anthropic: marshal recent concepts: %w", err)
	}

	userMsg := fmt.Sprintf("Recent concepts in this ontology (for cross-chunk linking):\n%s\n\nChunk text:\n%s", contextJSON, req.ChunkText)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg))},
		Tools: []anthropic.ToolUnionParam{
			{OfTool: &anthropic.ToolParam{Name: extractionToolName, InputSchema: extractionSchema()}},
		},
		ToolChoice: anthropic.ToolChoiceParamOfTool(extractionToolName),
	}

	resp, err := c.sdk.Messages.New(ctx, params)
	if err != nil {
		return llm.ExtractionResult{}, fmt.Errorf("anthropic: messages.new: %w", err)
	}

	for _, block := range resp.Content {
		if tu, ok := block.AsAny().(anthropic.ToolUseBlock); ok && tu.Name == extractionToolName {
			var result llm.ExtractionResult
			if err := json.Unmarshal(tu.Input, &result); err != nil {
				return llm.ExtractionResult{}, fmt.Errorf("anthropic: unmarshal tool input: %w", err)
			}
			return result, nil
		}
	}
	return llm.ExtractionResult{}, fmt.Errorf("anthropic: no %s tool call in response", extractionToolName)
}

var _ llm.Client = (*Client)(nil)
