// Package scheduler runs background jobs on asynq: the periodic Gmail inbox
// poll and any on-demand enqueues.
package scheduler

import (
	"github.com/hibiken/asynq"
)

// TaskProcessInbox polls the Gmail inbox for unread messages.
const TaskProcessInbox = "inbox:process"

// NewProcessInboxTask creates an inbox poll task. The task carries no
// payload; the poll always covers everything unread.
func NewProcessInboxTask() *asynq.Task {
	return asynq.NewTask(TaskProcessInbox, nil)
}
