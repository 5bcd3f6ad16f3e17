package embedding

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/kgraph/engine/domain/valueobjects"
)

// OpenAIEmbedder implements Embedder against the OpenAI embeddings
// endpoint.
type OpenAIEmbedder struct {
	sdk    sdk.Client
	config Config
}

// NewOpenAIEmbedder builds an embedder bound to one active Config. A
// dimension change requires constructing a new OpenAIEmbedder and swapping
// it in via ConfigGuard, never mutating this instance in place.
func NewOpenAIEmbedder(apiKey string, cfg Config) *OpenAIEmbedder {
	opts := []option.RequestOption{option.WithAPIKey(strings.TrimSpace(apiKey))}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = string(sdk.EmbeddingModelTextEmbedding3Small)
		cfg.Model = model
	}
	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}
	return &OpenAIEmbedder{sdk: sdk.NewClient(opts...), config: cfg}
}

func (e *OpenAIEmbedder) Config() Config { return e.config }

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) (valueobjects.Embedding, error) {
	resp, err := e.sdk.Embeddings.New(ctx, sdk.EmbeddingNewParams{
		Model: e.config.Model,
		Input: sdk.EmbeddingNewParamsInputUnion{OfString: sdk.String(text)},
		Dimensions: sdk.Int(int64(e.config.Dimension)),
	})
	if err != nil {
		return valueobjects.Embedding{}, fmt.Errorf("embedding: openai embeddings.new: %w", err)
	}
	if len(resp.Data) == 0 {
		return valueobjects.Embedding{}, fmt.Errorf("embedding: no data in openai response")
	}

	raw := resp.Data[0].Embedding
	values := make([]float32, len(raw))
	for i, v := range raw {
		values[i] = float32(v)
	}
	return valueobjects.NewEmbedding(values, e.config.Dimension)
}

var _ Embedder = (*OpenAIEmbedder)(nil)
