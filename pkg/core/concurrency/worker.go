package concurrency

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fluxorio/workpool/pkg/core"
)

const taskSpanName = "workpool.task"

// workerEnv is the state every worker of one pool shares besides the queue
type workerEnv struct {
	poolName  string
	logger    core.Logger
	observer  Observer
	tracer    trace.Tracer
	live      atomic.Int64
	serving   atomic.Int64 // workers not retired by a panic
	completed atomic.Int64
	panicked  atomic.Int64
}

// Worker owns one goroutine that receives tasks from the pool's mailbox
// and runs them one at a time. Once its goroutine exits it never restarts.
type Worker struct {
	id   int
	done chan struct{}
}

// newWorker starts the receive-execute loop immediately
func newWorker(id int, queue Mailbox[envelope], env *workerEnv) *Worker {
	w := &Worker{
		id:   id,
		done: make(chan struct{}),
	}

	env.live.Add(1)
	env.serving.Add(1)
	env.observer.WorkerStarted(id)

	go w.run(queue, env)
	return w
}

// ID returns the worker's stable index within its pool
func (w *Worker) ID() int {
	return w.id
}

// Done is closed when the worker goroutine has exited
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Join blocks until the worker goroutine has exited
func (w *Worker) Join() {
	<-w.done
}

func (w *Worker) run(queue Mailbox[envelope], env *workerEnv) {
	defer close(w.done)
	retired := false
	defer func() {
		// Last worker retired: refuse further submissions
		if retired && env.serving.Add(-1) == 0 && queue.Close() {
			env.logger.Warnf("worker %d was the last live worker; pool no longer accepts tasks", w.id)
		}
		env.live.Add(-1)
		env.observer.WorkerExited(w.id)
	}()

	for {
		job, err := queue.Receive()
		if err != nil {
			// Closed and drained: the only normal way out
			env.logger.Debugf("worker %d disconnected; shutting down", w.id)
			return
		}

		env.logger.Debugf("worker %d got task %s (%s); executing", w.id, job.name, core.ShortID(job.id))
		if !w.execute(job, env) {
			retired = true
			return
		}
	}
}

// execute runs one task and reports whether the worker may continue.
// A panicking task retires the worker; the pool does not replace it.
func (w *Worker) execute(job envelope, env *workerEnv) (ok bool) {
	start := time.Now()
	env.observer.TaskStarted(w.id, job.name, start.Sub(job.enqueuedAt))

	_, span := env.tracer.Start(context.Background(), taskSpanName,
		trace.WithTimestamp(start),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("workpool.pool", env.poolName),
			attribute.Int("workpool.worker.id", w.id),
			attribute.String("workpool.task.id", job.id),
			attribute.String("workpool.task.name", job.name),
			attribute.Int64("workpool.task.wait_ms", start.Sub(job.enqueuedAt).Milliseconds()),
		),
	)

	defer func() {
		took := time.Since(start)
		if r := recover(); r != nil {
			err := fmt.Errorf("task %s panicked: %v", job.name, r)
			span.RecordError(err, trace.WithStackTrace(true))
			span.SetStatus(codes.Error, err.Error())
			span.End()

			env.panicked.Add(1)
			env.logger.Errorf("worker %d: %v; worker retired\n%s", w.id, err, debug.Stack())
			env.observer.TaskFinished(w.id, job.name, took, true)
			ok = false
			return
		}

		span.End()
		env.completed.Add(1)
		env.observer.TaskFinished(w.id, job.name, took, false)
	}()

	job.fn()
	return true
}
