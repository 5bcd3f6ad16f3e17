// Package retrypolicy holds an exponential-backoff-with-jitter retry
// policy for outbound adapter calls. In this module its only caller is the
// LLM Extractor (internal/llm); internal/repository has its own
// RetryWithBackoff.
package retrypolicy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Policy configures exponential backoff with jitter.
type Policy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterFactor  float64
}

// Default is the policy for network-bound adapters (LLM/embedding HTTP
// calls): three attempts, like internal/repository's DefaultRetryConfig,
// but with a longer base delay (500ms against 100ms) since LLM calls are
// comparatively expensive.
func Default() Policy {
	return Policy{
		MaxAttempts:   3,
		BaseDelay:     500 * time.Millisecond,
		MaxDelay:      20 * time.Second,
		BackoffFactor: 2.0,
		JitterFactor:  0.2,
	}
}

// Classifier decides whether a given error should be retried.
type Classifier func(err error) bool

// Retryable is a sentinel wrapper an adapter can use to mark an error
// explicitly retryable/non-retryable regardless of the Classifier.
type Retryable struct {
	Err       error
	Retryable bool
}

func (r Retryable) Error() string { return r.Err.Error() }
func (r Retryable) Unwrap() error { return r.Err }

// Run executes op, retrying per policy while classify(err) reports true.
// A nil classify treats every error as retryable.
func Run(ctx context.Context, p Policy, classify Classifier, op func() error) error {
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		var r Retryable
		if errors.As(err, &r) {
			if !r.Retryable {
				return err
			}
		} else if classify != nil && !classify(err) {
			return err
		}

		if attempt == p.MaxAttempts-1 {
			break
		}

		delay := p.delayFor(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return fmt.Errorf("operation failed after %d attempts: %w", p.MaxAttempts, lastErr)
}

func (p Policy) delayFor(attempt int) time.Duration {
	backoff := float64(p.BaseDelay) * math.Pow(p.BackoffFactor, float64(attempt))
	jitter := backoff * p.JitterFactor * (rand.Float64() - 0.5) * 2
	delay := time.Duration(backoff + jitter)
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}
