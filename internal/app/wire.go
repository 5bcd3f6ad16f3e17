//go:build wireinject

package app

// This file is never compiled by a normal build: the wireinject tag keeps
// it out of `go build`/`go test`, exactly like the teacher's own
// internal/di/wire.go. It exists so `wire` (the code generator) can read it
// and produce a wire_gen.go implementing InitializeContainer. Until that
// generation step runs, container.go's NewContainer is the hand-maintained
// equivalent of what wire_gen.go would contain — every provider below
// forwards straight to the same construction code NewContainer calls, so
// the two stay in sync by inspection.

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/kgraph/engine/application/loaders"
	"github.com/kgraph/engine/application/mediator"
	"github.com/kgraph/engine/application/ports"
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
	"github.com/kgraph/engine/internal/observability"
	"github.com/kgraph/engine/internal/query"
)

// ProvideAWSConfig loads the shared AWS SDK config once.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
}

// ProvideDynamoDBClient provides the shared DynamoDB client.
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *ddb.Client {
	return ddb.NewFromConfig(awsCfg, func(o *ddb.Options) {
		if cfg.Database.Region != "" {
			o.Region = cfg.Database.Region
		}
	})
}

// ProvideS3Client provides the shared S3 client.
func ProvideS3Client(awsCfg aws.Config) *s3.Client { return s3.NewFromConfig(awsCfg) }

// ProvideEventBridgeClient provides the shared EventBridge client.
func ProvideEventBridgeClient(awsCfg aws.Config) *eventbridge.Client {
	return eventbridge.NewFromConfig(awsCfg)
}

// ProvideGraphStore provides the DynamoDB-backed GraphStore.
func ProvideGraphStore(client *ddb.Client, cfg *config.Config, logger *zap.Logger) ports.GraphStore {
	return dynamodb.NewGraphStore(client, cfg.Database.TableName, cfg.Database.IndexName, logger)
}

// ProvideJobStore provides the DynamoDB-backed JobStore.
func ProvideJobStore(client *ddb.Client, cfg *config.Config, logger *zap.Logger) ports.JobStore {
	return dynamodb.NewJobStore(client, cfg.Database.TableName, cfg.Database.IndexName, "GSI2", logger)
}

// ProvideContentStore provides the S3-backed ContentStore.
func ProvideContentStore(client *s3.Client, cfg *config.Config) ports.ContentStore {
	return s3contentstore.New(client, cfg.Providers.Content.Bucket, cfg.Providers.Content.Prefix)
}

// ProvideVectorIndex provides the configured VectorIndex (qdrant or
// in-memory), per config.VectorProvider.
func ProvideVectorIndex(ctx context.Context, cfg *config.Config) (ports.VectorIndex, error) {
	return newVectorIndex(ctx, cfg.Providers.Vector, cfg.Providers.Embedding.Dimension)
}

// ProvideEmbedGuard provides the embedding config guard around the
// configured embedder.
func ProvideEmbedGuard(cfg *config.Config) (*embedding.ConfigGuard, error) {
	embedder, err := newEmbedder(cfg.Providers.Embedding)
	if err != nil {
		return nil, err
	}
	return embedding.NewConfigGuard(embedder), nil
}

// ProvideExtractor provides the LLM concept/relation extractor.
func ProvideExtractor(cfg *config.Config, logger *zap.Logger) (*llm.Extractor, error) {
	client, err := newLLMClient(cfg.Providers.LLM)
	if err != nil {
		return nil, err
	}
	return llm.NewExtractor(client, logger), nil
}

// ProvideMatcher provides the concept matcher. Its match-acceptance
// thresholds are built in ProvideEngine.
func ProvideMatcher(graphStore ports.GraphStore, vectorIndex ports.VectorIndex, cfg *config.Config) *services.ConceptMatcher {
	return services.NewConceptMatcher(vectorIndex, graphStore)
}

// ProvideEngine provides the per-chunk ingestion saga.
func ProvideEngine(graphStore ports.GraphStore, jobStore ports.JobStore, extractor *llm.Extractor, embedGuard *embedding.ConfigGuard, matcher *services.ConceptMatcher, cfg *config.Config, logger *zap.Logger) *ingestion.Engine {
	defaults := services.DefaultMatchConfig()
	matchCfg := services.MatchConfig{
		SimilarityThreshold: cfg.Domain.MatchAutoAcceptScore,
		TopK:                defaults.TopK,
		DegreePercentile:    defaults.DegreePercentile,
		Strategy:            defaults.Strategy,
	}
	return ingestion.NewEngine(graphStore, jobStore, extractor, embedGuard, matcher, matchCfg, logger)
}

// ProvideQueue provides the job queue bound to its worker pool size.
func ProvideQueue(jobStore ports.JobStore, contentStore ports.ContentStore, graphStore ports.GraphStore, engine *ingestion.Engine, cfg *config.Config, logger *zap.Logger) *jobs.Queue {
	return jobs.NewQueue(jobStore, contentStore, graphStore, engine, cfg.Domain.JobWorkerPoolSize, logger)
}

// ProvideScheduler provides the job-lifecycle retention/expiry scheduler.
func ProvideScheduler(jobStore ports.JobStore, logger *zap.Logger) *lifecycle.Scheduler {
	return lifecycle.NewScheduler(jobStore, lifecycle.DefaultConfig(), logger)
}

// ProvideFacade provides the read-side query facade.
func ProvideFacade(graphStore ports.GraphStore, vectorIndex ports.VectorIndex, embedGuard *embedding.ConfigGuard, logger *zap.Logger) *query.Facade {
	return query.NewFacade(graphStore, vectorIndex, embedGuard, logger)
}

// ProvideInstanceLoader provides the Instance batch loader.
func ProvideInstanceLoader(graphStore ports.GraphStore, logger *zap.Logger) *loaders.InstanceLoader {
	return loaders.NewInstanceLoader(graphStore, logger)
}

// ProvideSourceLoader provides the Source batch loader.
func ProvideSourceLoader(graphStore ports.GraphStore, logger *zap.Logger) *loaders.SourceLoader {
	return loaders.NewSourceLoader(graphStore, logger)
}

// ProvideEventPublisher provides the EventBridge domain-event publisher.
func ProvideEventPublisher(client *eventbridge.Client, cfg *config.Config, logger *zap.Logger) *eventbridgeadapter.Publisher {
	return eventbridgeadapter.NewPublisher(client, cfg.Events.EventBusName, logger)
}

// ProvideEventBus provides the in-process domain-event dispatcher.
func ProvideEventBus(logger *zap.Logger) *eventbridgeadapter.Bus {
	return eventbridgeadapter.NewBus(logger)
}

// ProvideMetrics provides the Prometheus metrics registry.
func ProvideMetrics(cfg *config.Config) *observability.Metrics {
	observability.NewTracerProvider(cfg.Metrics.Namespace)
	return observability.NewMetrics(cfg.Metrics.Namespace)
}

// ProvideMediator provides the fully-registered command/query mediator.
func ProvideMediator(jobStore ports.JobStore, contentStore ports.ContentStore, queue *jobs.Queue, facade *query.Facade, logger *zap.Logger, metrics *observability.Metrics) *mediator.Mediator {
	return newMediator(jobStore, contentStore, queue, facade, logger, metrics)
}

// ProvideContainer assembles every provider above into one Container,
// mirroring NewContainer's struct literal exactly.
func ProvideContainer(
	cfg *config.Config,
	logger *zap.Logger,
	dynamoClient *ddb.Client,
	s3Client *s3.Client,
	ebClient *eventbridge.Client,
	graphStore ports.GraphStore,
	jobStore ports.JobStore,
	contentStore ports.ContentStore,
	vectorIndex ports.VectorIndex,
	embedGuard *embedding.ConfigGuard,
	extractor *llm.Extractor,
	matcher *services.ConceptMatcher,
	engine *ingestion.Engine,
	queue *jobs.Queue,
	scheduler *lifecycle.Scheduler,
	facade *query.Facade,
	instanceLoader *loaders.InstanceLoader,
	sourceLoader *loaders.SourceLoader,
	publisher *eventbridgeadapter.Publisher,
	bus *eventbridgeadapter.Bus,
	metrics *observability.Metrics,
	med *mediator.Mediator,
) *Container {
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
	}
}

// InitializeContainer is what `wire` would generate a wire_gen.go
// implementation of: the composition root built from SuperSet instead of
// NewContainer's imperative body.
func InitializeContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil
}
