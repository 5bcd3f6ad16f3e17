package mediator

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kgraph/engine/internal/observability"
)

// Behavior is a cross-cutting concern applied around every command/query
// dispatch (logging, validation, metrics, slow-call detection).
type Behavior interface {
	PreProcess(ctx context.Context, command Command) error
	PostProcess(ctx context.Context, command Command, err error)
	PreProcessQuery(ctx context.Context, query Query) error
	PostProcessQuery(ctx context.Context, query Query, result interface{}, err error)
}

// LoggingBehavior logs every dispatch at debug/error level.
type LoggingBehavior struct {
	logger *zap.Logger
}

func NewLoggingBehavior(logger *zap.Logger) *LoggingBehavior {
	return &LoggingBehavior{logger: logger}
}

func (b *LoggingBehavior) PreProcess(ctx context.Context, command Command) error {
	b.logger.Debug("dispatching command", zap.String("type", fmt.Sprintf("%T", command)))
	return nil
}

func (b *LoggingBehavior) PostProcess(ctx context.Context, command Command, err error) {
	if err != nil {
		b.logger.Error("command failed", zap.String("type", fmt.Sprintf("%T", command)), zap.Error(err))
		return
	}
	b.logger.Debug("command succeeded", zap.String("type", fmt.Sprintf("%T", command)))
}

func (b *LoggingBehavior) PreProcessQuery(ctx context.Context, query Query) error {
	b.logger.Debug("dispatching query", zap.String("type", fmt.Sprintf("%T", query)))
	return nil
}

func (b *LoggingBehavior) PostProcessQuery(ctx context.Context, query Query, result interface{}, err error) {
	if err != nil {
		b.logger.Error("query failed", zap.String("type", fmt.Sprintf("%T", query)), zap.Error(err))
	}
}

// ValidationBehavior runs Validate() ahead of dispatch.
type ValidationBehavior struct {
	logger *zap.Logger
}

func NewValidationBehavior(logger *zap.Logger) *ValidationBehavior {
	return &ValidationBehavior{logger: logger}
}

func (b *ValidationBehavior) PreProcess(ctx context.Context, command Command) error {
	if err := command.Validate(); err != nil {
		b.logger.Warn("command validation failed", zap.String("type", fmt.Sprintf("%T", command)), zap.Error(err))
		return fmt.Errorf("command validation failed: %w", err)
	}
	return nil
}

func (b *ValidationBehavior) PostProcess(ctx context.Context, command Command, err error) {}

func (b *ValidationBehavior) PreProcessQuery(ctx context.Context, query Query) error {
	if err := query.Validate(); err != nil {
		b.logger.Warn("query validation failed", zap.String("type", fmt.Sprintf("%T", query)), zap.Error(err))
		return fmt.Errorf("query validation failed: %w", err)
	}
	return nil
}

func (b *ValidationBehavior) PostProcessQuery(ctx context.Context, query Query, result interface{}, err error) {
}

// MetricsBehavior records dispatch latency and error counts to Prometheus.
type MetricsBehavior struct {
	metrics   *observability.Metrics
	startTime map[string]time.Time
}

func NewMetricsBehavior(metrics *observability.Metrics) *MetricsBehavior {
	return &MetricsBehavior{metrics: metrics, startTime: make(map[string]time.Time)}
}

func (b *MetricsBehavior) PreProcess(ctx context.Context, command Command) error {
	b.startTime[fmt.Sprintf("%p", command)] = time.Now()
	return nil
}

func (b *MetricsBehavior) PostProcess(ctx context.Context, command Command, err error) {
	key := fmt.Sprintf("%p", command)
	if start, ok := b.startTime[key]; ok {
		delete(b.startTime, key)
		if b.metrics != nil {
			b.metrics.RecordCommandExecution(fmt.Sprintf("%T", command), time.Since(start), err)
		}
	}
}

func (b *MetricsBehavior) PreProcessQuery(ctx context.Context, query Query) error {
	b.startTime[fmt.Sprintf("%p", query)] = time.Now()
	return nil
}

func (b *MetricsBehavior) PostProcessQuery(ctx context.Context, query Query, result interface{}, err error) {
	key := fmt.Sprintf("%p", query)
	if start, ok := b.startTime[key]; ok {
		delete(b.startTime, key)
		if b.metrics != nil {
			b.metrics.RecordQueryExecution(fmt.Sprintf("%T", query), time.Since(start), err)
		}
	}
}

// TracingBehavior opens an OpenTelemetry span around each dispatch, tagging
// it with the outcome so a trace backend can surface failed commands/queries
// alongside their latency.
type TracingBehavior struct {
	tracerName string
	spans      map[string]trace.Span
}

func NewTracingBehavior(tracerName string) *TracingBehavior {
	return &TracingBehavior{tracerName: tracerName, spans: make(map[string]trace.Span)}
}

func (b *TracingBehavior) PreProcess(ctx context.Context, command Command) error {
	_, span := observability.StartSpan(ctx, b.tracerName, fmt.Sprintf("command.%T", command))
	b.spans[fmt.Sprintf("%p", command)] = span
	return nil
}

func (b *TracingBehavior) PostProcess(ctx context.Context, command Command, err error) {
	key := fmt.Sprintf("%p", command)
	span, ok := b.spans[key]
	if !ok {
		return
	}
	delete(b.spans, key)
	finishSpan(span, err)
}

func (b *TracingBehavior) PreProcessQuery(ctx context.Context, query Query) error {
	_, span := observability.StartSpan(ctx, b.tracerName, fmt.Sprintf("query.%T", query))
	b.spans[fmt.Sprintf("%p", query)] = span
	return nil
}

func (b *TracingBehavior) PostProcessQuery(ctx context.Context, query Query, result interface{}, err error) {
	key := fmt.Sprintf("%p", query)
	span, ok := b.spans[key]
	if !ok {
		return
	}
	delete(b.spans, key)
	finishSpan(span, err)
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.SetAttributes(attribute.Bool("error", true))
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// PerformanceBehavior logs dispatches that exceed a threshold.
type PerformanceBehavior struct {
	logger           *zap.Logger
	commandThreshold time.Duration
	queryThreshold   time.Duration
	startTime        map[string]time.Time
}

func NewPerformanceBehavior(logger *zap.Logger, commandThreshold, queryThreshold time.Duration) *PerformanceBehavior {
	return &PerformanceBehavior{
		logger:           logger,
		commandThreshold: commandThreshold,
		queryThreshold:   queryThreshold,
		startTime:        make(map[string]time.Time),
	}
}

func (b *PerformanceBehavior) PreProcess(ctx context.Context, command Command) error {
	b.startTime[fmt.Sprintf("%p", command)] = time.Now()
	return nil
}

func (b *PerformanceBehavior) PostProcess(ctx context.Context, command Command, err error) {
	key := fmt.Sprintf("%p", command)
	if start, ok := b.startTime[key]; ok {
		delete(b.startTime, key)
		if d := time.Since(start); d > b.commandThreshold {
			b.logger.Warn("slow command", zap.String("type", fmt.Sprintf("%T", command)), zap.Duration("duration", d))
		}
	}
}

func (b *PerformanceBehavior) PreProcessQuery(ctx context.Context, query Query) error {
	b.startTime[fmt.Sprintf("%p", query)] = time.Now()
	return nil
}

func (b *PerformanceBehavior) PostProcessQuery(ctx context.Context, query Query, result interface{}, err error) {
	key := fmt.Sprintf("%p", query)
	if start, ok := b.startTime[key]; ok {
		delete(b.startTime, key)
		if d := time.Since(start); d > b.queryThreshold {
			b.logger.Warn("slow query", zap.String("type", fmt.Sprintf("%T", query)), zap.Duration("duration", d))
		}
	}
}
