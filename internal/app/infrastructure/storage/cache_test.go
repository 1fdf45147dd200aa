package storage

import (
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestCache_SetGetClear(t *testing.T) {
	c := NewCache[int](100, time.Minute)

	c.Set("foo", 1)
	v, ok := c.Get("foo")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	c.ClearKey("foo")
	_, ok = c.Get("foo")
	assert.False(t, ok)
}

func TestCache_Update(t *testing.T) {
	c := NewCache[int](100, 0)

	add := func(old int, found bool) int {
		if !found {
			return 10
		}
		return old + 1
	}

	assert.Equal(t, 10, c.Update("foo", add))
	assert.Equal(t, 11, c.Update("foo", add))

	v, _ := c.Get("foo")
	assert.Equal(t, 11, v)
}

func TestCache_Keys(t *testing.T) {
	c := NewCache[string](0, 0)
	c.Set("a", "x")
	c.Set("b", "y")

	assert.ElementsMatch(t, []string{"a", "b"}, c.Keys())

	c.ClearAll()
	assert.Empty(t, c.Keys())
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache[int](10, 20*time.Millisecond)
	c.Set("foo", 1)

	assert.Eventually(t, func() bool {
		_, ok := c.Get("foo")
		return !ok
	}, time.Second, 5*time.Millisecond)
}
