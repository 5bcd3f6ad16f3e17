package loaders

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kgraph/engine/application/ports"
	"github.com/kgraph/engine/domain/entities"
	"github.com/kgraph/engine/domain/valueobjects"
)

// InstanceLoader batches per-concept Instance lookups so that concurrent
// loads within one batch window are collected into a single batch call,
// the dataloader shape commonly used for node/edge batching. The batch
// call still queries GraphStore.InstancesOf once per distinct concept.
type InstanceLoader struct {
	batcher *Batcher[string, []*entities.Instance]
}

// NewInstanceLoader wraps a GraphStore behind a request-scoped batcher.
func NewInstanceLoader(store ports.GraphStore, logger *zap.Logger) *InstanceLoader {
	fn := func(ctx context.Context, slugs []string) (map[string][]*entities.Instance, error) {
		out := make(map[string][]*entities.Instance, len(slugs))
		for _, slug := range slugs {
			instances, err := store.InstancesOf(ctx, slug)
			if err != nil {
				return nil, err
			}
			out[slug] = instances
		}
		return out, nil
	}
	return &InstanceLoader{batcher: NewBatcher(fn, 10*time.Millisecond, 25, logger)}
}

// Load fetches the Instances evidencing one concept, batched with any
// concurrent calls for other concepts.
func (l *InstanceLoader) Load(ctx context.Context, conceptSlug string) ([]*entities.Instance, error) {
	return l.batcher.Load(ctx, conceptSlug)
}

// SourceLoader batches Source lookups by id, used when resolving the
// Source behind each Instance returned by concept_details.
type SourceLoader struct {
	batcher *Batcher[string, *entities.Source]
}

func NewSourceLoader(store ports.GraphStore, logger *zap.Logger) *SourceLoader {
	fn := func(ctx context.Context, ids []string) (map[string]*entities.Source, error) {
		out := make(map[string]*entities.Source, len(ids))
		for _, id := range ids {
			sourceID, err := valueobjects.ParseSourceID(id)
			if err != nil {
				continue
			}
			source, err := store.SourceByID(ctx, sourceID)
			if err != nil {
				continue
			}
			out[id] = source
		}
		return out, nil
	}
	return &SourceLoader{batcher: NewBatcher(fn, 10*time.Millisecond, 25, logger)}
}

func (l *SourceLoader) Load(ctx context.Context, sourceID string) (*entities.Source, error) {
	return l.batcher.Load(ctx, sourceID)
}
