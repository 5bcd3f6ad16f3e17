// Package mediator implements the CQRS dispatch pattern used by the HTTP
// interface: every submission, approval, and query request flows through a
// single entry point that decouples transport from application logic.
package mediator

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"

	kgerrors "github.com/kgraph/engine/internal/errors"
)

// Command represents a write operation. Commands return no data, only an
// error, keeping the command/query split strict.
type Command interface {
	Validate() error
}

// Query represents a read operation. Queries return a result value and
// never mutate state.
type Query interface {
	Validate() error
}

// CommandHandler executes exactly one concrete Command type.
type CommandHandler interface {
	Handle(ctx context.Context, command Command) error
}

// QueryHandler executes exactly one concrete Query type and returns a
// result.
type QueryHandler interface {
	Handle(ctx context.Context, query Query) (interface{}, error)
}

// IMediator is the single entry point the HTTP layer depends on.
type IMediator interface {
	Send(ctx context.Context, command Command) error
	Query(ctx context.Context, query Query) (interface{}, error)
}

// Mediator routes commands and queries to their registered handler by
// concrete type, running a chain of cross-cutting Behaviors around each
// dispatch.
type Mediator struct {
	commandHandlers map[reflect.Type]CommandHandler
	queryHandlers   map[reflect.Type]QueryHandler
	logger          *zap.Logger
	behaviors       []Behavior
}

// NewMediator constructs an empty mediator; handlers are registered with
// RegisterCommandHandler/RegisterQueryHandler during container wiring.
func NewMediator(logger *zap.Logger) *Mediator {
	return &Mediator{
		commandHandlers: make(map[reflect.Type]CommandHandler),
		queryHandlers:   make(map[reflect.Type]QueryHandler),
		logger:          logger,
	}
}

// RegisterCommandHandler binds a handler to the concrete type of the
// command it accepts.
func (m *Mediator) RegisterCommandHandler(command Command, handler CommandHandler) {
	m.commandHandlers[reflect.TypeOf(command)] = handler
}

// RegisterQueryHandler binds a handler to the concrete type of the query it
// accepts.
func (m *Mediator) RegisterQueryHandler(query Query, handler QueryHandler) {
	m.queryHandlers[reflect.TypeOf(query)] = handler
}

// AddBehavior appends a cross-cutting behavior to the dispatch pipeline.
func (m *Mediator) AddBehavior(behavior Behavior) {
	m.behaviors = append(m.behaviors, behavior)
}

// Send dispatches a command through the registered behaviors to its
// handler.
func (m *Mediator) Send(ctx context.Context, command Command) error {
	start := time.Now()

	for _, behavior := range m.behaviors {
		if err := behavior.PreProcess(ctx, command); err != nil {
			return err
		}
	}

	handler, ok := m.commandHandlers[reflect.TypeOf(command)]
	if !ok {
		err := kgerrors.NewError(kgerrors.ErrorTypeInternal, "NO_COMMAND_HANDLER",
			fmt.Sprintf("no handler registered for command %T", command)).Build()
		for _, behavior := range m.behaviors {
			behavior.PostProcess(ctx, command, err)
		}
		return err
	}

	err := handler.Handle(ctx, command)

	for _, behavior := range m.behaviors {
		behavior.PostProcess(ctx, command, err)
	}

	if err != nil {
		m.logger.Error("command execution failed",
			zap.String("command", fmt.Sprintf("%T", command)),
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return err
	}
	return nil
}

// Query dispatches a query through the registered behaviors to its handler.
func (m *Mediator) Query(ctx context.Context, query Query) (interface{}, error) {
	start := time.Now()

	for _, behavior := range m.behaviors {
		if err := behavior.PreProcessQuery(ctx, query); err != nil {
			return nil, err
		}
	}

	handler, ok := m.queryHandlers[reflect.TypeOf(query)]
	if !ok {
		err := kgerrors.NewError(kgerrors.ErrorTypeInternal, "NO_QUERY_HANDLER",
			fmt.Sprintf("no handler registered for query %T", query)).Build()
		for _, behavior := range m.behaviors {
			behavior.PostProcessQuery(ctx, query, nil, err)
		}
		return nil, err
	}

	result, err := handler.Handle(ctx, query)

	for _, behavior := range m.behaviors {
		behavior.PostProcessQuery(ctx, query, result, err)
	}

	if err != nil {
		m.logger.Error("query execution failed",
			zap.String("query", fmt.Sprintf("%T", query)),
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return nil, err
	}
	return result, nil
}
