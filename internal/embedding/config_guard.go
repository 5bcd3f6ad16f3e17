package embedding

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// swapWaitTimeout bounds how long a new operation waits for an in-flight
// configuration swap to finish before proceeding against the (possibly
// stale) previously-active embedder.
const swapWaitTimeout = 2 * time.Second

// ConfigGuard holds the single active Embedder behind an atomic pointer,
// deliberately avoiding a package-level singleton: the guard itself is
// constructed once in internal/app and threaded down the call graph
// rather than reached via a global.
type ConfigGuard struct {
	active    atomic.Pointer[Embedder]
	protected atomic.Bool
	swapping  atomic.Bool
	mu        sync.Mutex
}

// NewConfigGuard constructs a guard around an initial embedder, protected
// by default: the active configuration is auto-protected after change.
func NewConfigGuard(initial Embedder) *ConfigGuard {
	g := &ConfigGuard{}
	g.active.Store(&initial)
	g.protected.Store(true)
	return g
}

// Active returns the current embedder, waiting briefly if a swap is in
// flight so a caller that arrives mid-swap sees the new configuration
// rather than racing the old one.
func (g *ConfigGuard) Active(ctx context.Context) Embedder {
	if g.swapping.Load() {
		deadline := time.Now().Add(swapWaitTimeout)
		for g.swapping.Load() && time.Now().Before(deadline) {
			select {
			case <-ctx.Done():
				goto done
			case <-time.After(10 * time.Millisecond):
			}
		}
	}
done:
	return *g.active.Load()
}

// Unprotect must be called before Swap; it is the explicit-unprotect step
// required before a configuration change is accepted.
func (g *ConfigGuard) Unprotect() {
	g.protected.Store(false)
}

// Swap installs a new embedder. If the new embedder's dimension differs
// from the current one, the caller is responsible for surfacing a
// re-embedding task; the system does not automatically re-embed. Swap
// itself only refuses to proceed while protected.
func (g *ConfigGuard) Swap(next Embedder) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.protected.Load() {
		return fmt.Errorf("embedding: active configuration is protected, call Unprotect first")
	}

	g.swapping.Store(true)
	defer g.swapping.Store(false)

	g.active.Store(&next)
	g.protected.Store(true)
	return nil
}

// DimensionChanged reports whether swapping to next would change the
// active vector space, signalling the matcher boundary must refuse mixed
// spaces.
func (g *ConfigGuard) DimensionChanged(next Embedder) bool {
	return (*g.active.Load()).Config().Dimension != next.Config().Dimension
}
