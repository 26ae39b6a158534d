package concurrency

import (
	"errors"
)

var (
	// ErrMailboxClosed is returned by Send after Close, and by Receive once
	// the mailbox is closed and every pending message has been taken
	ErrMailboxClosed = errors.New("mailbox is closed")

	// ErrMailboxEmpty is returned by TryReceive when nothing is pending
	ErrMailboxEmpty = errors.New("mailbox is empty")
)

// Mailbox is an unbounded FIFO hand-off between any number of senders and
// any number of receivers. Each message is delivered to exactly one receiver.
type Mailbox[T any] interface {
	// Send appends msg. It never blocks on capacity.
	// Returns ErrMailboxClosed if the mailbox is closed
	Send(msg T) error

	// Receive blocks until a message is available.
	// Returns ErrMailboxClosed when the mailbox is closed and drained
	Receive() (T, error)

	// TryReceive takes a message without blocking.
	// Returns ErrMailboxEmpty if nothing is pending and the mailbox is open
	TryReceive() (T, error)

	// Close stops further sends. Pending messages remain receivable.
	// Reports whether this call performed the close
	Close() bool

	// Size returns the number of pending messages
	Size() int

	// IsClosed returns true if the mailbox is closed
	IsClosed() bool
}
