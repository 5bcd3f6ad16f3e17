package loaders

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBatcherLoadSingleKey(t *testing.T) {
	var calls int32
	fn := func(ctx context.Context, keys []string) (map[string]int, error) {
		atomic.AddInt32(&calls, 1)
		out := make(map[string]int, len(keys))
		for _, k := range keys {
			out[k] = len(k)
		}
		return out, nil
	}
	b := NewBatcher(fn, 5*time.Millisecond, 25, zap.NewNop())

	v, err := b.Load(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestBatcherCoalescesConcurrentLoads(t *testing.T) {
	var calls int32
	fn := func(ctx context.Context, keys []string) (map[string]int, error) {
		atomic.AddInt32(&calls, 1)
		out := make(map[string]int, len(keys))
		for _, k := range keys {
			out[k] = len(k)
		}
		return out, nil
	}
	b := NewBatcher(fn, 20*time.Millisecond, 25, zap.NewNop())

	results, err := b.LoadMany(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	assert.Equal(t, 1, results["a"])
	assert.Equal(t, 2, results["bb"])
	assert.Equal(t, 3, results["ccc"])
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "concurrent loads within the batch window should dispatch once")
}

func TestBatcherPropagatesBatchFunctionError(t *testing.T) {
	fn := func(ctx context.Context, keys []string) (map[string]int, error) {
		return nil, fmt.Errorf("boom")
	}
	b := NewBatcher(fn, 5*time.Millisecond, 25, zap.NewNop())

	_, err := b.Load(context.Background(), "x")
	assert.Error(t, err)
}

func TestBatcherMissingKeyIsAnError(t *testing.T) {
	fn := func(ctx context.Context, keys []string) (map[string]int, error) {
		return map[string]int{}, nil
	}
	b := NewBatcher(fn, 5*time.Millisecond, 25, zap.NewNop())

	_, err := b.Load(context.Background(), "missing")
	assert.Error(t, err)
}

func TestBatcherMetricsTrackRequestsAndBatches(t *testing.T) {
	fn := func(ctx context.Context, keys []string) (map[string]int, error) {
		out := make(map[string]int, len(keys))
		for _, k := range keys {
			out[k] = 1
		}
		return out, nil
	}
	b := NewBatcher(fn, 5*time.Millisecond, 25, zap.NewNop())

	_, err := b.Load(context.Background(), "a")
	require.NoError(t, err)

	metrics := b.GetMetrics()
	assert.Equal(t, int64(1), metrics.TotalRequests)
	assert.Equal(t, int64(1), metrics.TotalBatches)
}

func TestBatcherRespectsContextCancellation(t *testing.T) {
	fn := func(ctx context.Context, keys []string) (map[string]int, error) {
		time.Sleep(50 * time.Millisecond)
		return map[string]int{}, nil
	}
	b := NewBatcher(fn, 5*time.Millisecond, 25, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := b.Load(ctx, "x")
	assert.Error(t, err)
}
