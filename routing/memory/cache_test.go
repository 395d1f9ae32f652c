package memory_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"statichost"
	"statichost/routing/memory"
)

func TestCache_GetSet(t *testing.T) {
	ctx := context.Background()
	cache := memory.NewCache()

	t.Run("missing key", func(t *testing.T) {
		_, err := cache.Get(ctx, "blog.example.dev")
		assert.ErrorIs(t, err, statichost.ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		assert.NoError(t, cache.Set(ctx, "blog.example.dev", "abc=x=123"))

		value, err := cache.Get(ctx, "blog.example.dev")
		assert.NoError(t, err)
		assert.Equal(t, "abc=x=123", value)
	})

	t.Run("set re-reads the version tag", func(t *testing.T) {
		cache.Bump()
		assert.NoError(t, cache.Set(ctx, "other.example.dev", "def=x=1"))
	})

	t.Run("set overwrites", func(t *testing.T) {
		assert.NoError(t, cache.Set(ctx, "blog.example.dev", "abc=x=456"))

		value, err := cache.Get(ctx, "blog.example.dev")
		assert.NoError(t, err)
		assert.Equal(t, "abc=x=456", value)
	})
}

func TestCache_Delete(t *testing.T) {
	ctx := context.Background()
	cache := memory.NewCache()

	assert.NoError(t, cache.Set(ctx, "blog.example.dev", "abc=x=123"))
	assert.NoError(t, cache.Delete(ctx, "blog.example.dev"))

	_, err := cache.Get(ctx, "blog.example.dev")
	assert.ErrorIs(t, err, statichost.ErrNotFound)

	t.Run("absent key is not an error", func(t *testing.T) {
		assert.NoError(t, cache.Delete(ctx, "never-existed.example.dev"))
	})
}

func TestCache_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	cache := memory.NewCache()

	// Writers retry on conflict until their entry lands; afterwards every
	// key must hold exactly the value its writer committed last.
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("site-%d.example.dev", i)
			value := fmt.Sprintf("id-%d=x=100", i)
			for {
				err := cache.Set(ctx, key, value)
				if err == nil {
					return
				}
				if !errors.Is(err, statichost.ErrConcurrentModification) {
					t.Errorf("unexpected error: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	for i := range 8 {
		value, err := cache.Get(ctx, fmt.Sprintf("site-%d.example.dev", i))
		assert.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("id-%d=x=100", i), value)
	}
}

func TestCache_ContextCancelled(t *testing.T) {
	cache := memory.NewCache()

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, cache.Set(cancelled, "a.example.dev", "v1"))
	assert.Error(t, cache.Delete(cancelled, "a.example.dev"))
	_, err := cache.Get(cancelled, "a.example.dev")
	assert.Error(t, err)
}
