// Package openai implements the llm.Client port against the OpenAI Chat
// Completions API using strict JSON-schema response formatting, the
// alternate provider to internal/llm/anthropic behind the same port.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"github.com/kgraph/engine/internal/llm"
)

const systemPrompt = `You read one chunk of a document and extract concepts, relationships between concepts, and verbatim evidence quotes. Respond with JSON matching the provided schema only.`

// Client implements llm.Client against the OpenAI Chat Completions API.
type Client struct {
	sdk   sdk.Client
	model string
}

// Config is the subset of OpenAI configuration the extractor needs.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// New builds an OpenAI-backed extraction client.
func New(cfg Config) *Client {
	opts := []option.RequestOption{option.WithAPIKey(strings.TrimSpace(cfg.APIKey))}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(base, "/")))
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = sdk.ChatModelGPT4o
	}
	return &Client{sdk: sdk.NewClient(opts...), model: model}
}

func responseSchema() map[string]any {
	return map[string]any{
		"type": "object",
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
					"required": []string{"local_id", "label", "search_terms", "quote_ids"},
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
					"required": []string{"from_local_or_existing", "to_local_or_existing", "type", "confidence"},
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
					"required": []string{"quote_id", "quote", "concept_local_id"},
				},
			},
		},
		"required": []string{"concepts", "relationships", "evidence"},
	}
}

func (c *Client) Extract(ctx context.Context, req llm.ExtractionRequest) (llm.ExtractionResult, error) {
	contextJSON, err := json.Marshal(req.RecentConcepts)
	if err != nil {
		return llm.ExtractionResult{}, fmt.Errorf("openai: marshal recent concepts: %w", err)
	}
	userMsg := fmt.Sprintf("Recent concepts in this ontology (for cross-chunk linking):\n%s\n\nChunk text:\n%s", contextJSON, req.ChunkText)

	resp, err := c.sdk.Chat.Completions.New(ctx, sdk.ChatCompletionNewParams{
		Model: c.model,
		Messages: []sdk.ChatCompletionMessageParamUnion{
			sdk.SystemMessage(systemPrompt),
			sdk.UserMessage(userMsg),
		},
		ResponseFormat: sdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "extraction",
					Schema: responseSchema(),
					Strict: sdk.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return llm.ExtractionResult{}, fmt.Errorf("openai: chat.completions.new: %w", err)
	}
	if len(resp.Choices) == 0 {
		return llm.ExtractionResult{}, fmt.Errorf("openai: no choices in response")
	}

	var result llm.ExtractionResult
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &result); err != nil {
		return llm.ExtractionResult{}, fmt.Errorf("openai: unmarshal response content: %w", err)
	}
	return result, nil
}

var _ llm.Client = (*Client)(nil)
