// Package jobs wires background processing through Asynq.
package jobs

import (
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name.
	QueueDefault = "default"

	// TaskTypeTokenSweep is the task type for clearing expired side-channel
	// token pairs from user records.
	TaskTypeTokenSweep = "auth:token_sweep"
)

// NewTokenSweepTask constructs an Asynq task for the periodic token sweep.
func NewTokenSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeTokenSweep, nil)
}
