package mediator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pingCommand struct{ Fail bool }

func (c pingCommand) Validate() error { return nil }

type pingHandler struct{ calls int }

func (h *pingHandler) Handle(ctx context.Context, command Command) error {
	h.calls++
	if command.(pingCommand).Fail {
		return errors.New("boom")
	}
	return nil
}

type pingQuery struct{}

func (pingQuery) Validate() error { return nil }

type pingQueryHandler struct{}

func (pingQueryHandler) Handle(ctx context.Context, query Query) (interface{}, error) {
	return "pong", nil
}

type invalidCommand struct{}

func (invalidCommand) Validate() error { return errors.New("always invalid") }

func TestMediatorSendDispatchesToRegisteredHandler(t *testing.T) {
	m := NewMediator(zap.NewNop())
	handler := &pingHandler{}
	m.RegisterCommandHandler(pingCommand{}, handler)

	err := m.Send(context.Background(), pingCommand{})
	require.NoError(t, err)
	assert.Equal(t, 1, handler.calls)
}

func TestMediatorSendPropagatesHandlerError(t *testing.T) {
	m := NewMediator(zap.NewNop())
	m.RegisterCommandHandler(pingCommand{}, &pingHandler{})

	err := m.Send(context.Background(), pingCommand{Fail: true})
	assert.Error(t, err)
}

func TestMediatorSendUnregisteredCommand(t *testing.T) {
	m := NewMediator(zap.NewNop())
	err := m.Send(context.Background(), pingCommand{})
	assert.Error(t, err)
}

func TestMediatorSendRunsValidationBehavior(t *testing.T) {
	m := NewMediator(zap.NewNop())
	m.AddBehavior(NewValidationBehavior(zap.NewNop()))
	handler := &pingHandler{}
	m.RegisterCommandHandler(invalidCommand{}, handler)

	err := m.Send(context.Background(), invalidCommand{})
	assert.Error(t, err)
	assert.Equal(t, 0, handler.calls, "handler must not run when ValidationBehavior rejects the command")
}

func TestMediatorQueryDispatchesToRegisteredHandler(t *testing.T) {
	m := NewMediator(zap.NewNop())
	m.RegisterQueryHandler(pingQuery{}, pingQueryHandler{})

	result, err := m.Query(context.Background(), pingQuery{})
	require.NoError(t, err)
	assert.Equal(t, "pong", result)
}

func TestMediatorQueryUnregistered(t *testing.T) {
	m := NewMediator(zap.NewNop())
	_, err := m.Query(context.Background(), pingQuery{})
	assert.Error(t, err)
}

func TestMediatorBehaviorsRunInOrder(t *testing.T) {
	m := NewMediator(zap.NewNop())
	var order []string
	m.AddBehavior(&recordingBehavior{name: "first", order: &order})
	m.AddBehavior(&recordingBehavior{name: "second", order: &order})
	m.RegisterCommandHandler(pingCommand{}, &pingHandler{})

	require.NoError(t, m.Send(context.Background(), pingCommand{}))
	assert.Equal(t, []string{"first-pre", "second-pre", "first-post", "second-post"}, order)
}

type recordingBehavior struct {
	name  string
	order *[]string
}

func (b *recordingBehavior) PreProcess(ctx context.Context, command Command) error {
	*b.order = append(*b.order, b.name+"-pre")
	return nil
}
func (b *recordingBehavior) PostProcess(ctx context.Context, command Command, err error) {
	*b.order = append(*b.order, b.name+"-post")
}
func (b *recordingBehavior) PreProcessQuery(ctx context.Context, query Query) error { return nil }
func (b *recordingBehavior) PostProcessQuery(ctx context.Context, query Query, result interface{}, err error) {
}
