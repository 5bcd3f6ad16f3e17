// Package ingestion implements the ingestion engine: a per-chunk
// saga-orchestrated loop (context retrieval -> extraction -> matcher ->
// graph upsert -> checkpoint), adapting a saga-per-command pattern to a
// saga-per-chunk.
package ingestion

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Step is one compensable unit of work in a chunk saga.
type Step interface {
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
	Name() string
}

// State is a saga state machine.
type State string

const (
	StatePending      State = "PENDING"
	StateRunning      State = "RUNNING"
	StateCompleted    State = "COMPLETED"
	StateFailed       State = "FAILED"
	StateCompensating State = "COMPENSATING"
	StateCompensated  State = "COMPENSATED"
)

// stepTimeout bounds each step's execution. Every step runs under this same
// limit; the saga sets no step-kind-specific timeout.
const stepTimeout = 30 * time.Second

// Saga runs an ordered list of Steps, compensating completed steps in
// reverse order on failure. In a chunk saga, resume_from_chunk advances only
// in the checkpoint step, which is added last, so it never moves past a
// chunk whose graph commit failed. A successful graph commit is not undone:
// a chunk whose commit succeeded but whose checkpoint failed stays committed
// and is processed again on resume.
type Saga struct {
	Name   string
	logger *zap.Logger
	steps  []Step
	done   []Step
	state  State
}

func NewSaga(name string, logger *zap.Logger) *Saga {
	return &Saga{Name: name, logger: logger, state: StatePending}
}

func (s *Saga) AddStep(step Step) {
	s.steps = append(s.steps, step)
}

func (s *Saga) State() State { return s.state }

func (s *Saga) Execute(ctx context.Context) error {
	s.state = StateRunning
	for _, step := range s.steps {
		stepCtx, cancel := context.WithTimeout(ctx, stepTimeout)
		err := step.Execute(stepCtx)
		cancel()
		if err != nil {
			s.state = StateFailed
			s.logger.Error("saga step failed", zap.String("saga", s.Name), zap.String("step", step.Name()), zap.Error(err))
			if compErr := s.compensate(ctx); compErr != nil {
				s.logger.Error("saga compensation failed", zap.String("saga", s.Name), zap.Error(compErr))
			}
			return fmt.Errorf("ingestion: saga %s step %s: %w", s.Name, step.Name(), err)
		}
		s.done = append(s.done, step)
	}
	s.state = StateCompleted
	return nil
}

func (s *Saga) compensate(ctx context.Context) error {
	s.state = StateCompensating
	var firstErr error
	for i := len(s.done) - 1; i >= 0; i-- {
		step := s.done[i]
		stepCtx, cancel := context.WithTimeout(ctx, stepTimeout)
		err := step.Compensate(stepCtx)
		cancel()
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.state = StateCompensated
	return firstErr
}
