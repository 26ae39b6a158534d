package concurrency

import (
	"time"
)

// Observer receives pool lifecycle events.
// Calls are made synchronously on the submitting goroutine (TaskSubmitted,
// TaskRejected) or on the worker goroutine (everything else), so
// implementations must be cheap and safe for concurrent use.
//
// TaskSubmitted fires before the task becomes visible to workers. If the
// pool then refuses the task, TaskRejected follows on the same goroutine.
type Observer interface {
	TaskSubmitted(name string)
	TaskRejected(name string)
	TaskStarted(workerID int, name string, waited time.Duration)
	TaskFinished(workerID int, name string, took time.Duration, panicked bool)
	WorkerStarted(workerID int)
	WorkerExited(workerID int)
}

// NopObserver ignores every event. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) TaskSubmitted(string) {}
func (NopObserver) TaskRejected(string) {}
func (NopObserver) TaskStarted(int, string, time.Duration) {}
func (NopObserver) TaskFinished(int, string, time.Duration, bool) {}
func (NopObserver) WorkerStarted(int) {}
func (NopObserver) WorkerExited(int) {}

type multiObserver []Observer

func (m multiObserver) TaskSubmitted(name string) {
	for _, o := range m {
		o.TaskSubmitted(name)
	}
}

func (m multiObserver) TaskRejected(name string) {
	for _, o := range m {
		o.TaskRejected(name)
	}
}

func (m multiObserver) TaskStarted(workerID int, name string, waited time.Duration) {
	for _, o := range m {
		o.TaskStarted(workerID, name, waited)
	}
}

func (m multiObserver) TaskFinished(workerID int, name string, took time.Duration, panicked bool) {
	for _, o := range m {
		o.TaskFinished(workerID, name, took, panicked)
	}
}

func (m multiObserver) WorkerStarted(workerID int) {
	for _, o := range m {
		o.WorkerStarted(workerID)
	}
}

func (m multiObserver) WorkerExited(workerID int) {
	for _, o := range m {
		o.WorkerExited(workerID)
	}
}

func combineObservers(observers []Observer) Observer {
	switch len(observers) {
	case 0:
		return NopObserver{}
	case 1:
		return observers[0]
	default:
		return multiObserver(observers)
	}
}
