package concurrency

import (
	"sync"
)

// unboundedMailbox implements Mailbox with a mutex-guarded ring buffer.
// Receivers park on cond while the buffer is empty and the mailbox is open.
type unboundedMailbox[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []T
	head   int
	count  int
	closed bool
}

const initialMailboxCapacity = 16

// NewUnboundedMailbox creates an empty open mailbox
func NewUnboundedMailbox[T any]() Mailbox[T] {
	mb := &unboundedMailbox[T]{
		buf: make([]T, initialMailboxCapacity),
	}
	mb.cond = sync.NewCond(&mb.mu)
	return mb
}

// Send implements Mailbox interface
func (mb *unboundedMailbox[T]) Send(msg T) error {
	mb.mu.Lock()
	if mb.closed {
		mb.mu.Unlock()
		return ErrMailboxClosed
	}
	if mb.count == len(mb.buf) {
		mb.grow()
	}
	mb.buf[(mb.head+mb.count)%len(mb.buf)] = msg
	mb.count++
	mb.mu.Unlock()

	// One message, one waiter
	mb.cond.Signal()
	return nil
}

// Receive implements Mailbox interface
func (mb *unboundedMailbox[T]) Receive() (T, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	for mb.count == 0 && !mb.closed {
		mb.cond.Wait()
	}
	if mb.count == 0 {
		var zero T
		return zero, ErrMailboxClosed
	}
	return mb.pop(), nil
}

// TryReceive implements Mailbox interface
func (mb *unboundedMailbox[T]) TryReceive() (T, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if mb.count == 0 {
		var zero T
		if mb.closed {
			return zero, ErrMailboxClosed
		}
		return zero, ErrMailboxEmpty
	}
	return mb.pop(), nil
}

// Close implements Mailbox interface
func (mb *unboundedMailbox[T]) Close() bool {
	mb.mu.Lock()
	if mb.closed {
		mb.mu.Unlock()
		return false
	}
	mb.closed = true
	mb.mu.Unlock()

	// Every parked receiver must re-check and observe the closed state
	mb.cond.Broadcast()
	return true
}

// Size implements Mailbox interface
func (mb *unboundedMailbox[T]) Size() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return mb.count
}

// IsClosed implements Mailbox interface
func (mb *unboundedMailbox[T]) IsClosed() bool {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return mb.closed
}

// pop removes the oldest message. mu must be held and count > 0.
func (mb *unboundedMailbox[T]) pop() T {
	var zero T
	msg := mb.buf[mb.head]
	mb.buf[mb.head] = zero
	mb.head = (mb.head + 1) % len(mb.buf)
	mb.count--
	return msg
}

// grow doubles the ring, unrolling it so head is 0. mu must be held.
func (mb *unboundedMailbox[T]) grow() {
	next := make([]T, len(mb.buf)*2)
	n := copy(next, mb.buf[mb.head:])
	copy(next[n:], mb.buf[:mb.head])
	mb.buf = next
	mb.head = 0
}
