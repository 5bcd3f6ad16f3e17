package eventbridge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kgraph/engine/domain/events"
)

type fakeHandler struct {
	canHandleType string
	handleErr     error
	handled       []events.DomainEvent
}

func (h *fakeHandler) CanHandle(eventType string) bool { return eventType == h.canHandleType }
func (h *fakeHandler) Handle(ctx context.Context, event events.DomainEvent) error {
	h.handled = append(h.handled, event)
	return h.handleErr
}

func TestBusDispatchesToSubscribedHandler(t *testing.T) {
	bus := NewBus(zap.NewNop())
	handler := &fakeHandler{canHandleType: events.TypeConceptCreated}
	require.NoError(t, bus.Subscribe(events.TypeConceptCreated, handler))

	event := events.NewConceptCreated("entropy", "entropy")
	err := bus.Publish(context.Background(), event)
	require.NoError(t, err)
	require.Len(t, handler.handled, 1)
	assert.Equal(t, event.EventID(), handler.handled[0].EventID())
}

func TestBusSkipsHandlersThatCannotHandleEventType(t *testing.T) {
	bus := NewBus(zap.NewNop())
	handler := &fakeHandler{canHandleType: events.TypeJobFailed}
	require.NoError(t, bus.Subscribe(events.TypeConceptCreated, handler))

	err := bus.Publish(context.Background(), events.NewConceptCreated("entropy", "entropy"))
	require.NoError(t, err)
	assert.Empty(t, handler.handled)
}

func TestBusReturnsFirstHandlerErrorButRunsAll(t *testing.T) {
	bus := NewBus(zap.NewNop())
	failing := &fakeHandler{canHandleType: events.TypeConceptCreated, handleErr: errors.New("boom")}
	passing := &fakeHandler{canHandleType: events.TypeConceptCreated}
	require.NoError(t, bus.Subscribe(events.TypeConceptCreated, failing))
	require.NoError(t, bus.Subscribe(events.TypeConceptCreated, passing))

	err := bus.Publish(context.Background(), events.NewConceptCreated("entropy", "entropy"))
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
	assert.Len(t, passing.handled, 1)
}

func TestBusWithNoSubscribersReturnsNil(t *testing.T) {
	bus := NewBus(zap.NewNop())
	err := bus.Publish(context.Background(), events.NewConceptCreated("entropy", "entropy"))
	assert.NoError(t, err)
}
