package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"github.com/kgraph/engine/application/ports"
	"github.com/kgraph/engine/domain/events"
)

const eventSource = "kgraph.engine"

// Publisher implements ports.EventPublisher against AWS EventBridge.
// Domain events raised by Concept/DocumentMeta aggregates (concept created,
// document superseded) go out as EventBridge entries for downstream
// consumers rather than a live WebSocket push.
type Publisher struct {
	client       *eventbridge.Client
	eventBusName string
	logger       *zap.Logger
}

func NewPublisher(client *eventbridge.Client, eventBusName string, logger *zap.Logger) *Publisher {
	return &Publisher{client: client, eventBusName: eventBusName, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch sends events to EventBridge in batches of 10, the API's
// per-call limit.
func (p *Publisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	const batchSize = 10
	for i := 0; i < len(evts); i += batchSize {
		end := i + batchSize
		if end > len(evts) {
			end = len(evts)
		}
		if err := p.publishBatch(ctx, evts[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) publishBatch(ctx context.Context, evts []events.DomainEvent) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(evts))
	for _, event := range evts {
		detail, err := json.Marshal(event)
		if err != nil {
			p.logger.Error("marshal domain event failed", zap.Error(err), zap.String("event_type", event.EventType()))
			continue
		}
		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.eventBusName),
			Source:       aws.String(eventSource),
			DetailType:   aws.String(event.EventType()),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(event.Timestamp()),
			Resources:    []string{fmt.Sprintf("kgraph:%s", event.AggregateID())},
		})
	}
	if len(entries) == 0 {
		return nil
	}

	result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		return fmt.Errorf("eventbridge: publish events: %w", err)
	}
	if result.FailedEntryCount > 0 {
		for i, entry := range result.Entries {
			if entry.ErrorCode != nil {
				p.logger.Error("event publish failed",
					zap.String("event_type", evts[i].EventType()),
					zap.String("error_code", *entry.ErrorCode),
					zap.String("error_message", aws.ToString(entry.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("eventbridge: %d events failed to publish", result.FailedEntryCount)
	}
	return nil
}

// Bus dispatches events to in-process handlers registered for an event
// type, used alongside Publisher where a local reaction (e.g. refreshing
// a vector index payload) does not need to round-trip through EventBridge.
type Bus struct {
	handlers map[string][]ports.EventHandler
	logger   *zap.Logger
}

func NewBus(logger *zap.Logger) *Bus {
	return &Bus{handlers: make(map[string][]ports.EventHandler), logger: logger}
}

func (b *Bus) Subscribe(eventType string, handler ports.EventHandler) error {
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

func (b *Bus) Publish(ctx context.Context, event events.DomainEvent) error {
	var firstErr error
	for _, handler := range b.handlers[event.EventType()] {
		if !handler.CanHandle(event.EventType()) {
			continue
		}
		if err := handler.Handle(ctx, event); err != nil {
			b.logger.Error("event handler failed", zap.Error(err), zap.String("event_type", event.EventType()))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
