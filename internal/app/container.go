// Package app wires every adapter and domain service into one dependency
// container, the composition root every cmd/ entrypoint constructs once at
// startup.
package app

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/kgraph/engine/application/commands"
	cmdhandlers "github.com/kgraph/engine/application/commands/handlers"
	"github.com/kgraph/engine/application/loaders"
	"github.com/kgraph/engine/application/mediator"
	"github.com/kgraph/engine/application/ports"
	"github.com/kgraph/engine/application/queries"
	queryhandlers "github.com/kgraph/engine/application/queries/handlers"
	"github.com/kgraph/engine/domain/services"
	eventbridgeadapter "github.com/kgraph/engine/infrastructure/messaging/eventbridge"
	"github.com/kgraph/engine/infrastructure/persistence/dynamodb"
	"github.com/kgraph/engine/infrastructure/persistence/s3contentstore"
	"github.com/kgraph/engine/internal/config"
	"github.com/kgraph/engine/internal/embedding"
	"github.com/kgraph/engine/internal/ingestion"
	"github.com/kgraph/engine/internal/jobs"
	"github.com/kgraph/engine/internal/jobs/lifecycle"
	"github.com/kgraph/engine/internal/llm"
	"github.com/kgraph/engine/internal/llm/anthropic"
	"github.com/kgraph/engine/internal/llm/openai"
	"github.com/kgraph/engine/internal/observability"
	"github.com/kgraph/engine/internal/query"
	"github.com/kgraph/engine/internal/vectorindex"
)

// Container holds every wired component of the running engine.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	DynamoDBClient    *ddb.Client
	S3Client          *s3.Client
	EventBridgeClient *eventbridge.Client

	GraphStore   ports.GraphStore
	JobStore     ports.JobStore
	ContentStore ports.ContentStore
	VectorIndex  ports.VectorIndex

	EmbedGuard *embedding.ConfigGuard
	Extractor  *llm.Extractor
	Matcher    *services.ConceptMatcher

	Engine    *ingestion.Engine
	Queue     *jobs.Queue
	Scheduler *lifecycle.Scheduler
	Facade    *query.Facade

	InstanceLoader *loaders.InstanceLoader
	SourceLoader   *loaders.SourceLoader

	EventPublisher *eventbridgeadapter.Publisher
	EventBus       *eventbridgeadapter.Bus

	Metrics  *observability.Metrics
	Mediator *mediator.Mediator
}

// NewContainer builds and wires every dependency from cfg. AWS clients are
// constructed once and shared across every adapter that touches DynamoDB,
// S3, or EventBridge.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("app: load aws config: %w", err)
	}

	dynamoClient := ddb.NewFromConfig(awsCfg, func(o *ddb.Options) {
		if cfg.Database.Region != "" {
			o.Region = cfg.Database.Region
		}
	})
	s3Client := s3.NewFromConfig(awsCfg)
	ebClient := eventbridge.NewFromConfig(awsCfg)

	graphStore := dynamodb.NewGraphStore(dynamoClient, cfg.Database.TableName, cfg.Database.IndexName, logger)
	jobStore := dynamodb.NewJobStore(dynamoClient, cfg.Database.TableName, cfg.Database.IndexName, "GSI2", logger)
	contentStore := s3contentstore.New(s3Client, cfg.Providers.Content.Bucket, cfg.Providers.Content.Prefix)

	vectorIndex, err := newVectorIndex(ctx, cfg.Providers.Vector, cfg.Providers.Embedding.Dimension)
	if err != nil {
		return nil, fmt.Errorf("app: build vector index: %w", err)
	}

	embedder, err := newEmbedder(cfg.Providers.Embedding)
	if err != nil {
		return nil, fmt.Errorf("app: build embedder: %w", err)
	}
	embedGuard := embedding.NewConfigGuard(embedder)

	llmClient, err := newLLMClient(cfg.Providers.LLM)
	if err != nil {
		return nil, fmt.Errorf("app: build llm client: %w", err)
	}
	extractor := llm.NewExtractor(llmClient, logger)

	matcher := services.NewConceptMatcher(vectorIndex, graphStore)
	defaults := services.DefaultMatchConfig()
	matchCfg := services.MatchConfig{
		SimilarityThreshold: cfg.Domain.MatchAutoAcceptScore,
		TopK:                defaults.TopK,
		DegreePercentile:    defaults.DegreePercentile,
		Strategy:            defaults.Strategy,
	}

	engine := ingestion.NewEngine(graphStore, jobStore, extractor, embedGuard, matcher, matchCfg, logger)
	queue := jobs.NewQueue(jobStore, contentStore, graphStore, engine, cfg.Domain.JobWorkerPoolSize, logger)
	scheduler := lifecycle.NewScheduler(jobStore, lifecycle.DefaultConfig(), logger)
	facade := query.NewFacade(graphStore, vectorIndex, embedGuard, logger)

	instanceLoader := loaders.NewInstanceLoader(graphStore, logger)
	sourceLoader := loaders.NewSourceLoader(graphStore, logger)

	publisher := eventbridgeadapter.NewPublisher(ebClient, cfg.Events.EventBusName, logger)
	bus := eventbridgeadapter.NewBus(logger)

	metrics := observability.NewMetrics(cfg.Metrics.Namespace)
	observability.NewTracerProvider(cfg.Metrics.Namespace)
	med := newMediator(jobStore, contentStore, queue, facade, logger, metrics)

	return &Container{
		Config:            cfg,
		Logger:            logger,
		DynamoDBClient:    dynamoClient,
		S3Client:          s3Client,
		EventBridgeClient: ebClient,
		GraphStore:        graphStore,
		JobStore:          jobStore,
		ContentStore:      contentStore,
		VectorIndex:       vectorIndex,
		EmbedGuard:        embedGuard,
		Extractor:         extractor,
		Matcher:           matcher,
		Engine:            engine,
		Queue:             queue,
		Scheduler:         scheduler,
		Facade:            facade,
		InstanceLoader:    instanceLoader,
		SourceLoader:      sourceLoader,
		EventPublisher:    publisher,
		EventBus:          bus,
		Metrics:           metrics,
		Mediator:          med,
	}, nil
}

// newMediator registers every command and query handler and wires the
// standard logging/validation/metrics/performance behavior pipeline,
// wiring the mediator and its behavior chain.
func newMediator(jobStore ports.JobStore, contentStore ports.ContentStore, queue *jobs.Queue, facade *query.Facade, logger *zap.Logger, metrics *observability.Metrics) *mediator.Mediator {
	med := mediator.NewMediator(logger)
	med.AddBehavior(mediator.NewLoggingBehavior(logger))
	med.AddBehavior(mediator.NewValidationBehavior(logger))
	med.AddBehavior(mediator.NewMetricsBehavior(metrics))
	med.AddBehavior(mediator.NewTracingBehavior("github.com/kgraph/engine/application/mediator"))
	med.AddBehavior(mediator.NewPerformanceBehavior(logger, 2*time.Second, 500*time.Millisecond))

	med.RegisterCommandHandler(commands.SubmitDocumentCommand{}, cmdhandlers.NewSubmitDocumentHandler(contentStore, queue, logger))
	med.RegisterCommandHandler(commands.ApproveJobCommand{}, cmdhandlers.NewApproveJobHandler(queue, logger))
	med.RegisterCommandHandler(commands.CancelJobCommand{}, cmdhandlers.NewCancelJobHandler(queue, logger))

	med.RegisterQueryHandler(queries.SearchConceptsQuery{}, queryhandlers.NewSearchConceptsHandler(facade))
	med.RegisterQueryHandler(queries.SubstringMatchQuery{}, queryhandlers.NewSubstringMatchHandler(facade))
	med.RegisterQueryHandler(queries.ConceptDetailsQuery{}, queryhandlers.NewConceptDetailsHandler(facade))
	med.RegisterQueryHandler(queries.RelatedConceptsQuery{}, queryhandlers.NewRelatedConceptsHandler(facade))
	med.RegisterQueryHandler(queries.FindConnectionQuery{}, queryhandlers.NewFindConnectionHandler(facade))
	med.RegisterQueryHandler(queries.JobStatusQuery{}, queryhandlers.NewJobStatusHandler(jobStore))

	return med
}

func newVectorIndex(ctx context.Context, cfg config.VectorProvider, dimension int) (ports.VectorIndex, error) {
	switch cfg.Provider {
	case "qdrant":
		return vectorindex.NewQdrantIndex(ctx, cfg.DSN, cfg.Collection, dimension)
	case "memory", "":
		return vectorindex.NewInMemoryIndex(), nil
	default:
		return nil, fmt.Errorf("app: unknown vector provider %q", cfg.Provider)
	}
}

func newEmbedder(cfg config.EmbeddingProvider) (embedding.Embedder, error) {
	switch cfg.Provider {
	case "openai", "":
		return embedding.NewOpenAIEmbedder(cfg.APIKey, embedding.Config{
			Provider:  "openai",
			Model:     cfg.Model,
			Dimension: cfg.Dimension,
		}), nil
	default:
		return nil, fmt.Errorf("app: unknown embedding provider %q", cfg.Provider)
	}
}

func newLLMClient(cfg config.LLMProvider) (llm.Client, error) {
	switch cfg.Provider {
	case "anthropic", "":
		return anthropic.New(anthropic.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model}), nil
	case "openai":
		return openai.New(openai.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model}), nil
	default:
		return nil, fmt.Errorf("app: unknown llm provider %q", cfg.Provider)
	}
}

// Shutdown releases resources held by the container, such as an open
// Qdrant connection.
func (c *Container) Shutdown(ctx context.Context) error {
	if closer, ok := c.VectorIndex.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
