package mailbox

import (
	"context"
	"sync"
)

// compactAfter is the number of popped slots tolerated at the front of the
// backing slice before the live items are moved down.
const compactAfter = 32

// Mailbox is an unbounded FIFO queue with a single consumer. Push never
// blocks, so actors can post to each other without risking a deadlock.
type Mailbox[T any] struct {
	mu     sync.Mutex
	items  []T
	head   int
	closed bool
	notify chan struct{}
}

func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{notify: make(chan struct{}, 1)}
}

// Push appends v. It reports false, dropping v, once the mailbox is closed.
func (m *Mailbox[T]) Push(v T) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.items = append(m.items, v)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return true
}

// Pop waits for the next item. ok is false when ctx is done or when the
// mailbox was closed and drained.
func (m *Mailbox[T]) Pop(ctx context.Context) (v T, ok bool) {
	for {
		m.mu.Lock()
		if m.head < len(m.items) {
			v = m.items[m.head]
			var zero T
			m.items[m.head] = zero
			m.head++
			m.compact()
			m.mu.Unlock()
			return v, true
		}
		closed := m.closed
		m.mu.Unlock()

		if closed {
			return v, false
		}

		select {
		case <-m.notify:
		case <-ctx.Done():
			return v, false
		}
	}
}

// compact keeps the backing slice proportional to the backlog when the
// consumer never fully catches up.
func (m *Mailbox[T]) compact() {
	switch {
	case m.head == len(m.items):
		m.items = m.items[:0]
		m.head = 0
	case m.head >= compactAfter && m.head*2 >= len(m.items):
		n := copy(m.items, m.items[m.head:])
		clear(m.items[n:])
		m.items = m.items[:n]
		m.head = 0
	}
}

// Drain removes and returns every queued item without waiting.
func (m *Mailbox[T]) Drain() []T {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := append([]T(nil), m.items[m.head:]...)
	m.items = nil
	m.head = 0
	return out
}

func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.items) - m.head
}

// Close stops accepting new items. Items already queued can still be popped.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}
