// Package embedding implements the Embedding Adapter: deterministic
// text-to-vector conversion with a hot-reloadable, change-protected active
// configuration.
package embedding

import (
	"context"

	"github.com/kgraph/engine/domain/valueobjects"
)

// Config describes one Embedder's provider, model and dimension. The single
// active Embedder, and with it the active Config, is held by ConfigGuard,
// which refuses a change until Unprotect is called.
type Config struct {
	Provider    string
	Model       string
	Dimension   int
	ExtraParams map[string]string
}

// Embedder computes a fixed-dimension embedding for one text,
// deterministic per (model, text).
type Embedder interface {
	Embed(ctx context.Context, text string) (valueobjects.Embedding, error)
	Config() Config
}
