package mediator

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/kgraph/engine/internal/observability"
)

func TestValidationBehaviorRejectsInvalidCommand(t *testing.T) {
	b := NewValidationBehavior(zap.NewNop())
	err := b.PreProcess(context.Background(), invalidCommand{})
	assert.Error(t, err)
}

func TestValidationBehaviorAllowsValidCommand(t *testing.T) {
	b := NewValidationBehavior(zap.NewNop())
	err := b.PreProcess(context.Background(), pingCommand{})
	assert.NoError(t, err)
}

func TestValidationBehaviorQuery(t *testing.T) {
	b := NewValidationBehavior(zap.NewNop())
	assert.NoError(t, b.PreProcessQuery(context.Background(), pingQuery{}))
}

func TestLoggingBehaviorDoesNotErrorOnFailure(t *testing.T) {
	b := NewLoggingBehavior(zap.NewNop())
	assert.NoError(t, b.PreProcess(context.Background(), pingCommand{}))
	assert.NotPanics(t, func() {
		b.PostProcess(context.Background(), pingCommand{}, errors.New("boom"))
	})
}

func TestMetricsBehaviorRecordsCommandExecution(t *testing.T) {
	metrics := observability.NewMetrics("test")
	b := NewMetricsBehavior(metrics)
	cmd := pingCommand{}

	assert.NoError(t, b.PreProcess(context.Background(), cmd))
	b.PostProcess(context.Background(), cmd, nil)

	count := testutil.ToFloat64(metrics.CommandExecutions.WithLabelValues("mediator.pingCommand", "success"))
	assert.Equal(t, float64(1), count)
}

func TestMetricsBehaviorRecordsQueryExecution(t *testing.T) {
	metrics := observability.NewMetrics("test2")
	b := NewMetricsBehavior(metrics)
	q := pingQuery{}

	assert.NoError(t, b.PreProcessQuery(context.Background(), q))
	b.PostProcessQuery(context.Background(), q, "pong", errors.New("boom"))

	count := testutil.ToFloat64(metrics.QueryExecutions.WithLabelValues("mediator.pingQuery", "failure"))
	assert.Equal(t, float64(1), count)
}

func TestPerformanceBehaviorDoesNotPanicOnFastCommand(t *testing.T) {
	b := NewPerformanceBehavior(zap.NewNop(), 0, 0)
	cmd := pingCommand{}
	assert.NoError(t, b.PreProcess(context.Background(), cmd))
	assert.NotPanics(t, func() { b.PostProcess(context.Background(), cmd, nil) })
}
