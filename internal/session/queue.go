package session

import (
	"errors"
	"sync"

	"github.com/gammazero/deque"
)

// ErrQueueClosed is returned by Send once the consumer has shut down.
var ErrQueueClosed = errors.New("relay queue closed")

// Entry is one decoded command together with the identity of the
// connection it arrived on.
type Entry struct {
	Text string
	From string
}

// Queue is the unbounded relay channel between readers and the
// coordinator. Any number of goroutines may Send; exactly one should drain
// it with TryReceiveAll.
type Queue struct {
	mu      sync.Mutex
	entries deque.Deque[Entry]
	closed  bool
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Send appends e. It never blocks.
func (q *Queue) Send(e Entry) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	q.entries.PushBack(e)
	return nil
}

// TryReceiveAll removes and returns every queued entry in the order they
// were sent. It returns nil when the queue is empty.
func (q *Queue) TryReceiveAll() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.entries.Len()
	if n == 0 {
		return nil
	}
	entries := make([]Entry, 0, n)
	for q.entries.Len() > 0 {
		entries = append(entries, q.entries.PopFront())
	}
	return entries
}

// Len returns the number of pending entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.entries.Len()
}

// Close rejects further sends. Entries already queued can still be drained.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}
