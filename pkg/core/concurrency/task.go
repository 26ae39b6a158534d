package concurrency

import (
	"time"

	"github.com/fluxorio/workpool/pkg/core"
)

// Task is a unit of work submitted to a Pool.
// It runs exactly once on one worker goroutine. The pool never observes a
// result; a task that needs to report something must capture its own sink.
type Task func()

const defaultTaskName = "task"

// envelope carries a Task through the mailbox together with the
// bookkeeping used for logs, spans and metrics
type envelope struct {
	id         string
	name       string
	fn         Task
	enqueuedAt time.Time
}

func newEnvelope(name string, fn Task) envelope {
	if name == "" {
		name = defaultTaskName
	}
	return envelope{
		id:         core.NewID(),
		name:       name,
		fn:         fn,
		enqueuedAt: time.Now(),
	}
}
