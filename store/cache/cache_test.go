package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetGet(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute})
	defer c.Close()

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", 42)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	c.Set("k", "replaced")
	v, _ = c.Get("k")
	assert.Equal(t, "replaced", v)
	assert.Equal(t, 1, c.Len())
}

func TestCacheExpiry(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute})
	defer c.Close()

	c.SetWithTTL("short", "v", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("short")
	assert.False(t, ok)
}

func TestCacheMaxItemsEvictsSoonest(t *testing.T) {
	var evicted []string
	c := New(Config{
		DefaultTTL: time.Minute,
		MaxItems:   2,
		OnEviction: func(key string, _ any) { evicted = append(evicted, key) },
	})
	defer c.Close()

	c.SetWithTTL("soon", 1, time.Second)
	c.SetWithTTL("later", 2, time.Hour)
	c.SetWithTTL("new", 3, time.Hour)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"soon"}, evicted)
	_, ok := c.Get("later")
	assert.True(t, ok)
	_, ok = c.Get("new")
	assert.True(t, ok)
}

func TestCacheDeleteFiresEviction(t *testing.T) {
	fired := 0
	c := New(Config{
		DefaultTTL: time.Minute,
		OnEviction: func(string, any) { fired++ },
	})
	defer c.Close()

	c.Set("k", 1)
	c.Delete("k")
	c.Delete("k") // absent, no callback
	assert.Equal(t, 1, fired)
}

func TestCacheJanitorSweeps(t *testing.T) {
	c := New(Config{
		DefaultTTL:      5 * time.Millisecond,
		CleanupInterval: 10 * time.Millisecond,
	})
	defer c.Close()

	c.Set("k", 1)
	require.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestCacheClear(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute})
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestCacheCloseConcurrent(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute, CleanupInterval: time.Minute})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Close()
		}()
	}
	wg.Wait()

	// The cache stays usable after Close, only the janitor is gone.
	c.Set("k", 1)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}
