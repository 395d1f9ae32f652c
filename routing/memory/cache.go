// Package memory provides an in-process routing cache for development
// and tests. It follows the same conditional-write protocol as the
// CloudFront backend so race behavior can be exercised without AWS.
package memory

import (
	"context"
	"fmt"
	"sync"

	"statichost"
)

// Cache is an in-memory host to routing-token map guarded by a
// store-wide version tag.
type Cache struct {
	mu      sync.Mutex
	entries map[string]string
	version uint64
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]string)}
}

// Get reads the routing token for a host.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok := c.entries[key]
	if !ok {
		return "", fmt.Errorf("routing cache get %q: %w", key, statichost.ErrNotFound)
	}

	return value, nil
}

// Set writes the routing token for a host, conditional on the version
// tag read at the start of the call.
func (c *Cache) Set(ctx context.Context, key, value string) error {
	version, err := c.readVersion(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.version != version {
		return fmt.Errorf("routing cache set %q: %w", key, statichost.ErrConcurrentModification)
	}

	c.entries[key] = value
	c.version++
	return nil
}

// Delete removes the routing entry for a host. Deleting an absent key
// is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	version, err := c.readVersion(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.version != version {
		return fmt.Errorf("routing cache delete %q: %w", key, statichost.ErrConcurrentModification)
	}

	delete(c.entries, key)
	c.version++
	return nil
}

// Bump advances the version tag without changing entries. Tests use it
// to force a conditional write to fail.
func (c *Cache) Bump() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version++
}

func (c *Cache) readVersion(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version, nil
}
