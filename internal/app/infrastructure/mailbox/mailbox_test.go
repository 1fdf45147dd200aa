package mailbox

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
	"time"
)

func TestMailbox_Order(t *testing.T) {
	m := New[int]()
	for i := 0; i < 100; i++ {
		require.True(t, m.Push(i))
	}
	assert.Equal(t, 100, m.Len())

	for i := 0; i < 100; i++ {
		v, ok := m.Pop(context.Background())
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	assert.Equal(t, 0, m.Len())
}

func TestMailbox_BacklogStaysBounded(t *testing.T) {
	const backlog = 10
	m := New[*int]()

	next, want := 0, 0
	push := func() {
		v := next
		next++
		require.True(t, m.Push(&v))
	}
	for i := 0; i < backlog; i++ {
		push()
	}

	for i := 0; i < 100_000; i++ {
		push()
		v, ok := m.Pop(context.Background())
		require.True(t, ok)
		require.Equal(t, want, *v)
		want++
	}

	assert.Equal(t, backlog, m.Len())
	assert.LessOrEqual(t, cap(m.items), 4*(backlog+compactAfter))
	for _, v := range m.items[len(m.items):cap(m.items)] {
		assert.Nil(t, v)
	}
	for _, v := range m.items[:m.head] {
		assert.Nil(t, v)
	}
}

func TestMailbox_PopWaits(t *testing.T) {
	m := New[string]()

	go func() {
		time.Sleep(20 * time.Millisecond)
		m.Push("late")
	}()

	v, ok := m.Pop(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "late", v)
}

func TestMailbox_PopContext(t *testing.T) {
	m := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, ok := m.Pop(ctx)
	assert.False(t, ok)
}

func TestMailbox_Close(t *testing.T) {
	m := New[int]()
	m.Push(1)
	m.Close()

	assert.False(t, m.Push(2))

	v, ok := m.Pop(context.Background())
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = m.Pop(context.Background())
	assert.False(t, ok)
}

func TestMailbox_Drain(t *testing.T) {
	m := New[int]()
	m.Push(1)
	m.Push(2)
	_, _ = m.Pop(context.Background())
	m.Push(3)

	assert.Equal(t, []int{2, 3}, m.Drain())
	assert.Equal(t, 0, m.Len())
}

func TestMailbox_ConcurrentProducers(t *testing.T) {
	m := New[int]()
	const producers, perProducer = 8, 500

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				m.Push(i)
			}
		}()
	}

	received := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for received < producers*perProducer {
			if _, ok := m.Pop(context.Background()); ok {
				received++
			}
		}
	}()

	wg.Wait()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not receive every item")
	}
	assert.Equal(t, producers*perProducer, received)
}
