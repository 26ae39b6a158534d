package concurrency

import (
	"context"
	"errors"
)

var (
	// ErrPoolClosed is returned by TrySubmit once teardown has begun
	ErrPoolClosed = errors.New("worker pool is closed")

	// ErrNilTask is returned by TrySubmit for a nil task
	ErrNilTask = errors.New("task cannot be nil")

	// ErrNoWorkers is returned by TrySubmit once every worker has retired
	// after a task panic; nothing is left to run new tasks
	ErrNoWorkers = errors.New("worker pool has no live workers")
)

// WorkerPool is the contract a fixed-size pool satisfies.
// *Pool implements it; depend on this interface where a fake is useful.
type WorkerPool interface {
	// Submit queues a task for execution
	// Panics if the task is nil or the pool is closed
	Submit(task Task)

	// SubmitNamed is Submit with a name for logs, spans and metrics
	SubmitNamed(name string, task Task)

	// TrySubmit queues a task, returning ErrNilTask, ErrPoolClosed or
	// ErrNoWorkers instead of panicking
	TrySubmit(task Task) error

	// Close stops submission, runs every queued task and waits for all
	// workers to exit
	Close()

	// Shutdown is Close bounded by ctx
	// Returns error if ctx ends before the workers exit
	Shutdown(ctx context.Context) error

	// Workers returns the number of workers the pool was built with
	Workers() int

	// IsRunning returns true while the pool accepts submissions.
	// It turns false when teardown begins or the last worker retires
	IsRunning() bool

	// Stats returns a point-in-time snapshot
	Stats() PoolStats
}

// PoolState is the pool's macro-state.
type PoolState int

const (
	// StateActive accepts submissions; workers are polling
	StateActive PoolState = iota
	// StateTerminated means the queue is closed and every worker joined
	StateTerminated
)

func (s PoolState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// PoolStats provides statistics about pool activity
type PoolStats struct {
	Workers        int       // Workers the pool was built with
	LiveWorkers    int       // Worker goroutines still running
	QueuedTasks    int       // Tasks waiting in the queue
	SubmittedTasks int64     // Total accepted submissions
	CompletedTasks int64     // Total tasks that returned normally
	PanickedTasks  int64     // Total tasks that panicked (each retired a worker)
	State          PoolState // Active or Terminated
}
