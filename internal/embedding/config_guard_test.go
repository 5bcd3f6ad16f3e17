package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgraph/engine/domain/valueobjects"
)

type fakeEmbedder struct {
	cfg Config
}

func (f fakeEmbedder) Embed(ctx context.Context, text string) (valueobjects.Embedding, error) {
	return valueobjects.NewEmbedding(make([]float32, f.cfg.Dimension), 0)
}
func (f fakeEmbedder) Config() Config { return f.cfg }

func TestConfigGuardActiveReturnsInitial(t *testing.T) {
	initial := fakeEmbedder{cfg: Config{Provider: "openai", Dimension: 1536}}
	guard := NewConfigGuard(initial)

	active := guard.Active(context.Background())
	assert.Equal(t, 1536, active.Config().Dimension)
}

func TestConfigGuardSwapRequiresUnprotect(t *testing.T) {
	initial := fakeEmbedder{cfg: Config{Dimension: 1536}}
	guard := NewConfigGuard(initial)

	next := fakeEmbedder{cfg: Config{Dimension: 768}}
	err := guard.Swap(next)
	assert.Error(t, err, "swap must be refused while the configuration is still protected")
}

func TestConfigGuardSwapSucceedsAfterUnprotect(t *testing.T) {
	initial := fakeEmbedder{cfg: Config{Dimension: 1536}}
	guard := NewConfigGuard(initial)

	next := fakeEmbedder{cfg: Config{Dimension: 768}}
	guard.Unprotect()
	require.NoError(t, guard.Swap(next))

	active := guard.Active(context.Background())
	assert.Equal(t, 768, active.Config().Dimension)

	// the guard re-protects itself immediately after a successful swap.
	err := guard.Swap(fakeEmbedder{cfg: Config{Dimension: 512}})
	assert.Error(t, err)
}

func TestConfigGuardDimensionChanged(t *testing.T) {
	initial := fakeEmbedder{cfg: Config{Dimension: 1536}}
	guard := NewConfigGuard(initial)

	assert.True(t, guard.DimensionChanged(fakeEmbedder{cfg: Config{Dimension: 768}}))
	assert.False(t, guard.DimensionChanged(fakeEmbedder{cfg: Config{Dimension: 1536}}))
}
