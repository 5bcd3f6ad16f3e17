package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kgraph/engine/internal/config"
	"github.com/kgraph/engine/internal/vectorindex"
)

func testConfig() *config.Config {
	return &config.Config{
		AWS: config.AWS{Region: "us-east-1"},
		Database: config.Database{
			TableName: "kgraph-test",
			IndexName: "KeywordIndex",
		},
		Domain: config.Domain{
			MatchAutoAcceptScore: 0.92,
			JobWorkerPoolSize:    4,
		},
		Providers: config.Providers{
			LLM:       config.LLMProvider{Provider: "anthropic", APIKey: "test-key"},
			Embedding: config.EmbeddingProvider{Provider: "openai", APIKey: "test-key", Dimension: 1536},
			Vector:    config.VectorProvider{Provider: "memory"},
			Content:   config.ContentProvider{Bucket: "kgraph-content"},
		},
		Events:  config.Events{EventBusName: "KGraphEventBus"},
		Metrics: config.Metrics{Namespace: "kgraph"},
	}
}

func TestNewContainerWiresEveryComponent(t *testing.T) {
	c, err := NewContainer(context.Background(), testConfig(), zap.NewNop())
	require.NoError(t, err)

	assert.NotNil(t, c.DynamoDBClient)
	assert.NotNil(t, c.S3Client)
	assert.NotNil(t, c.EventBridgeClient)
	assert.NotNil(t, c.GraphStore)
	assert.NotNil(t, c.JobStore)
	assert.NotNil(t, c.ContentStore)
	assert.NotNil(t, c.VectorIndex)
	assert.NotNil(t, c.EmbedGuard)
	assert.NotNil(t, c.Extractor)
	assert.NotNil(t, c.Matcher)
	assert.NotNil(t, c.Engine)
	assert.NotNil(t, c.Queue)
	assert.NotNil(t, c.Scheduler)
	assert.NotNil(t, c.Facade)
	assert.NotNil(t, c.InstanceLoader)
	assert.NotNil(t, c.SourceLoader)
	assert.NotNil(t, c.EventPublisher)
	assert.NotNil(t, c.EventBus)
	assert.NotNil(t, c.Metrics)
	assert.NotNil(t, c.Mediator)
	assert.IsType(t, &vectorindex.InMemoryIndex{}, c.VectorIndex)
}

func TestNewContainerRejectsUnknownVectorProvider(t *testing.T) {
	cfg := testConfig()
	cfg.Providers.Vector.Provider = "pinecone"

	_, err := NewContainer(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNewContainerRejectsUnknownEmbeddingProvider(t *testing.T) {
	cfg := testConfig()
	cfg.Providers.Embedding.Provider = "cohere"

	_, err := NewContainer(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNewContainerRejectsUnknownLLMProvider(t *testing.T) {
	cfg := testConfig()
	cfg.Providers.LLM.Provider = "mistral"

	_, err := NewContainer(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNewContainerDefaultsLLMProviderToAnthropicWhenUnset(t *testing.T) {
	cfg := testConfig()
	cfg.Providers.LLM.Provider = ""

	c, err := NewContainer(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, c.Extractor)
}

func TestShutdownOnInMemoryVectorIndexIsNoop(t *testing.T) {
	c, err := NewContainer(context.Background(), testConfig(), zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, c.Shutdown(ctx))
}
