// Package lifecycle implements the Lifecycle Scheduler: periodic
// cancellation of expired approvals and deletion of aged terminal jobs.
package lifecycle

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kgraph/engine/application/ports"
)

// Default cleanup intervals and retention windows.
const (
	DefaultCleanupInterval   = time.Hour
	DefaultApprovalTimeout   = 24 * time.Hour
	DefaultCompletedRetention = 48 * time.Hour
	DefaultFailedRetention   = 7 * 24 * time.Hour
)

// Config overrides the package defaults, sourced from internal/config.
type Config struct {
	CleanupInterval    time.Duration
	ApprovalTimeout    time.Duration
	CompletedRetention time.Duration
	FailedRetention    time.Duration
}

func DefaultConfig() Config {
	return Config{
		CleanupInterval:    DefaultCleanupInterval,
		ApprovalTimeout:    DefaultApprovalTimeout,
		CompletedRetention: DefaultCompletedRetention,
		FailedRetention:    DefaultFailedRetention,
	}
}

// Scheduler runs the cleanup sweep on a ticker until its context is
// cancelled, via the same periodic-sweep shape as a cleanup cron handler.
type Scheduler struct {
	store  ports.JobStore
	cfg    Config
	logger *zap.Logger
}

func NewScheduler(store ports.JobStore, cfg Config, logger *zap.Logger) *Scheduler {
	return &Scheduler{store: store, cfg: cfg, logger: logger}
}

// Run blocks, sweeping every cfg.CleanupInterval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error("lifecycle: sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep runs one cleanup pass: expire stale approvals, then hard-delete
// aged terminal jobs.
func (s *Scheduler) Sweep(ctx context.Context) error {
	now := time.Now()

	awaiting, err := s.store.ListByStatus(ctx, "awaiting_approval")
	if err != nil {
		return err
	}
	for _, job := range awaiting {
		if now.Sub(job.CreatedAt) > s.cfg.ApprovalTimeout {
			job.Status = "cancelled"
			job.Error = "expired"
			if err := s.store.Save(ctx, job); err != nil {
				s.logger.Error("lifecycle: expire approval failed", zap.String("job_id", job.JobID), zap.Error(err))
			}
		}
	}

	for _, status := range []string{"completed", "cancelled"} {
		s.deleteOlderThan(ctx, status, s.cfg.CompletedRetention, now)
	}
	s.deleteOlderThan(ctx, "failed", s.cfg.FailedRetention, now)

	return nil
}

func (s *Scheduler) deleteOlderThan(ctx context.Context, status string, retention time.Duration, now time.Time) {
	jobs, err := s.store.ListByStatus(ctx, status)
	if err != nil {
		s.logger.Error("lifecycle: list for deletion failed", zap.String("status", status), zap.Error(err))
		return
	}
	for _, job := range jobs {
		reference := job.CreatedAt
		if job.CompletedAt != nil {
			reference = *job.CompletedAt
		}
		if now.Sub(reference) > retention {
			if err := s.store.Delete(ctx, job.JobID); err != nil {
				s.logger.Error("lifecycle: delete aged job failed", zap.String("job_id", job.JobID), zap.Error(err))
			}
		}
	}
}
