package errors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testLogger() (*StructuredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return &StructuredLogger{zap.New(core)}, logs
}

func TestNewStructuredLoggerBuildsForDevelopment(t *testing.T) {
	logger, err := NewStructuredLogger("development")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestLogServiceCallLogsFailureOnError(t *testing.T) {
	logger, logs := testLogger()
	cause := errors.New("boom")

	err := LogServiceCall(context.Background(), logger, "submit_document", func() error {
		return cause
	})

	assert.Equal(t, cause, err)
	found := false
	for _, entry := range logs.All() {
		if entry.Message == "Service operation failed" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLogServiceCallReturnsNilOnSuccess(t *testing.T) {
	logger, _ := testLogger()
	err := LogServiceCall(context.Background(), logger, "submit_document", func() error {
		return nil
	})
	assert.NoError(t, err)
}

func TestLogRepositoryCallLogsResource(t *testing.T) {
	logger, logs := testLogger()
	err := LogRepositoryCall(context.Background(), logger, "save", "job-1", func() error {
		return nil
	})
	require.NoError(t, err)

	found := false
	for _, entry := range logs.All() {
		if entry.Message == "Repository operation completed" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAuditLogIncludesEventName(t *testing.T) {
	logger, logs := testLogger()
	AuditLog(context.Background(), logger, "job_approved", map[string]interface{}{"job_id": "job-1"})

	require.Len(t, logs.All(), 1)
	assert.Equal(t, "Audit event", logs.All()[0].Message)
}
