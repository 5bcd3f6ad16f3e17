//go:build wireinject

package app

import "github.com/google/wire"

// SuperSet combines every provider set into the one graph InitializeContainer
// builds from, mirroring the teacher's di.SuperSet composition.
var SuperSet = wire.NewSet(
	ConfigProviders,
	InfrastructureProviders,
	DomainProviders,
	ApplicationProviders,
	ProvideContainer,
)

// ConfigProviders provides the foundational, dependency-free values every
// other layer is built from.
var ConfigProviders = wire.NewSet()

// InfrastructureProviders provides every adapter implementing a
// domain/application port: AWS clients, the DynamoDB-backed stores, the S3
// content store, and the configured vector index.
var InfrastructureProviders = wire.NewSet(
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideS3Client,
	ProvideEventBridgeClient,
	ProvideGraphStore,
	ProvideJobStore,
	ProvideContentStore,
	ProvideVectorIndex,
	ProvideEventPublisher,
	ProvideEventBus,
	ProvideMetrics,
)

// DomainProviders provides pure domain/embedding/extraction services with
// no knowledge of the job queue or mediator above them.
var DomainProviders = wire.NewSet(
	ProvideEmbedGuard,
	ProvideExtractor,
	ProvideMatcher,
)

// ApplicationProviders provides the application-layer orchestration built
// on top of the domain and infrastructure layers: the ingestion saga, the
// job queue and its lifecycle scheduler, the query facade, the loaders,
// and the fully-registered mediator.
var ApplicationProviders = wire.NewSet(
	ProvideEngine,
	ProvideQueue,
	ProvideScheduler,
	ProvideFacade,
	ProvideInstanceLoader,
	ProvideSourceLoader,
	ProvideMediator,
)
