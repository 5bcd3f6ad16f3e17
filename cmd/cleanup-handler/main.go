// Package main implements the Lambda handler for async cleanup of
// superseded document content. It is triggered by EventBridge when a
// document.superseded event is published by the ingestion engine.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/kgraph/engine/domain/events"
	"github.com/kgraph/engine/internal/app"
	"github.com/kgraph/engine/internal/config"
	kgerrors "github.com/kgraph/engine/internal/errors"
)

var (
	container *app.Container
	logger    *zap.Logger
)

func init() {
	cfg := config.LoadConfig()

	structuredLogger, err := kgerrors.NewStructuredLogger(string(cfg.Environment))
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	logger = structuredLogger.Logger

	container, err = app.NewContainer(context.Background(), &cfg, logger)
	if err != nil {
		log.Fatalf("failed to initialize dependency container: %v", err)
	}

	logger.Info("cleanup handler initialized")
}

// handleDocumentSuperseded deletes the content blob of a document that a
// force-ingest has just superseded. The new version was stored under its
// own content hash, so the old blob is pure waste.
func handleDocumentSuperseded(ctx context.Context, event awsevents.CloudWatchEvent) error {
	var superseded events.DocumentSuperseded
	if err := json.Unmarshal(event.Detail, &superseded); err != nil {
		return fmt.Errorf("unmarshal document.superseded detail: %w", err)
	}

	logger.Info("cleaning up superseded document content",
		zap.String("document_id", superseded.DocumentID),
		zap.String("superseded_by", superseded.SupersededByID),
	)

	if err := container.ContentStore.Delete(ctx, superseded.DocumentID); err != nil {
		logger.Error("failed to delete superseded content", zap.String("document_id", superseded.DocumentID), zap.Error(err))
		return err
	}

	logger.Info("superseded content deleted", zap.String("document_id", superseded.DocumentID))
	return nil
}

// handler routes an EventBridge event to its cleanup action by detail-type.
func handler(ctx context.Context, event awsevents.CloudWatchEvent) error {
	logger.Info("received event", zap.String("id", event.ID), zap.String("detail_type", event.DetailType))

	switch event.DetailType {
	case events.TypeDocumentSuperseded:
		return handleDocumentSuperseded(ctx, event)
	default:
		logger.Warn("unhandled event type, acknowledging to avoid retry loops", zap.String("detail_type", event.DetailType))
		return nil
	}
}

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(handler)
		return
	}

	logger.Info("running in local test mode")
	testEvent := awsevents.CloudWatchEvent{
		ID:         "test-event-1",
		DetailType: events.TypeDocumentSuperseded,
		Detail: json.RawMessage(`{
			"document_id": "test-content-hash-old",
			"superseded_by_id": "test-content-hash-new"
		}`),
	}
	if err := handler(context.Background(), testEvent); err != nil {
		log.Fatalf("test event processing failed: %v", err)
	}
	log.Println("test event processed successfully")
}
