package concurrency

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fluxorio/workpool/pkg/core"
	"github.com/fluxorio/workpool/pkg/core/failfast"
)

// Pool runs submitted tasks on a fixed set of workers sharing one
// unbounded mailbox.
type Pool struct {
	id       string
	name     string
	workers  []*Worker
	queue    Mailbox[envelope]
	env      *workerEnv
	logger   core.Logger
	observer Observer

	submitted  atomic.Int64
	closing    atomic.Bool
	closeOnce  sync.Once
	terminated chan struct{}
}

var _ WorkerPool = (*Pool)(nil)

// NewWorkerPool starts a pool of size workers.
// It panics if size is not positive.
func NewWorkerPool(size int, opts ...Option) *Pool {
	failfast.If(size > 0, "worker pool size must be greater than 0, got %d", size)

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	id := core.NewID()
	logger := o.logger.WithFields(map[string]interface{}{
		"pool":    o.name,
		"pool_id": core.ShortID(id),
	})
	observer := combineObservers(o.observers)

	p := &Pool{
		id:         id,
		name:       o.name,
		workers:    make([]*Worker, 0, size),
		queue:      NewUnboundedMailbox[envelope](),
		logger:     logger,
		observer:   observer,
		terminated: make(chan struct{}),
	}
	p.env = &workerEnv{
		poolName: o.name,
		logger:   logger,
		observer: observer,
		tracer:   o.resolveTracer(),
	}

	for i := 0; i < size; i++ {
		p.workers = append(p.workers, newWorker(i, p.queue, p.env))
	}

	logger.Infof("worker pool started with %d workers", size)
	return p
}

// Submit implements WorkerPool interface
func (p *Pool) Submit(task Task) {
	p.SubmitNamed("", task)
}

// SubmitNamed implements WorkerPool interface
func (p *Pool) SubmitNamed(name string, task Task) {
	failfast.NotNil(task, "task")
	failfast.Err(p.enqueue(name, task), "submit to worker pool "+p.name)
}

// TrySubmit implements WorkerPool interface
func (p *Pool) TrySubmit(task Task) error {
	if task == nil {
		return ErrNilTask
	}
	return p.enqueue("", task)
}

func (p *Pool) enqueue(name string, task Task) error {
	job := newEnvelope(name, task)

	// Observers see the submission before any worker can start it
	p.submitted.Add(1)
	p.observer.TaskSubmitted(job.name)
	if err := p.queue.Send(job); err != nil {
		p.submitted.Add(-1)
		p.observer.TaskRejected(job.name)
		if !p.closing.Load() && p.env.serving.Load() == 0 {
			return fmt.Errorf("%w: %w", ErrNoWorkers, err)
		}
		return fmt.Errorf("%w: %w", ErrPoolClosed, err)
	}
	return nil
}

// Close implements WorkerPool interface.
// Concurrent or repeated calls wait for the first one to finish.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.beginClose()

		for _, w := range p.workers {
			p.logger.Debugf("shutting down worker %d", w.id)
			w.Join()
		}

		if abandoned := p.queue.Size(); abandoned > 0 {
			p.logger.Warnf("%d queued tasks abandoned: every worker retired after a task panic", abandoned)
		}

		close(p.terminated)
		p.logger.Infof("worker pool terminated: %d completed, %d panicked",
			p.env.completed.Load(), p.env.panicked.Load())
	})
}

// beginClose closes the mailbox; workers drain what is left and exit
func (p *Pool) beginClose() {
	p.closing.Store(true)
	if p.queue.Close() {
		p.logger.Infof("worker pool closing; %d tasks still queued", p.queue.Size())
	}
}

// Shutdown implements WorkerPool interface
func (p *Pool) Shutdown(ctx context.Context) error {
	p.beginClose()
	go p.Close()

	select {
	case <-p.terminated:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}

// Done is closed once the pool is terminated
func (p *Pool) Done() <-chan struct{} {
	return p.terminated
}

// ID returns the pool's unique instance id
func (p *Pool) ID() string {
	return p.id
}

// Name returns the pool name
func (p *Pool) Name() string {
	return p.name
}

// Workers implements WorkerPool interface
func (p *Pool) Workers() int {
	return len(p.workers)
}

// IsRunning implements WorkerPool interface
func (p *Pool) IsRunning() bool {
	return !p.queue.IsClosed()
}

// State returns StateTerminated once Close has joined every worker
func (p *Pool) State() PoolState {
	select {
	case <-p.terminated:
		return StateTerminated
	default:
		return StateActive
	}
}

// Stats implements WorkerPool interface
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:        len(p.workers),
		LiveWorkers:    int(p.env.live.Load()),
		QueuedTasks:    p.queue.Size(),
		SubmittedTasks: p.submitted.Load(),
		CompletedTasks: p.env.completed.Load(),
		PanickedTasks:  p.env.panicked.Load(),
		State:          p.State(),
	}
}
