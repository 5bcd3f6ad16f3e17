package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApproveJobCommandValidate(t *testing.T) {
	assert.NoError(t, ApproveJobCommand{JobID: "job-1"}.Validate())
	assert.Error(t, ApproveJobCommand{}.Validate())
}

func TestCancelJobCommandValidate(t *testing.T) {
	assert.NoError(t, CancelJobCommand{JobID: "job-1", Reason: "dup"}.Validate())
	assert.Error(t, CancelJobCommand{}.Validate())
}
