package store

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/deepnoodle-ai/gscript/bytecode"
)

// CompileFunc produces the artifact for a key on a cache miss.
type CompileFunc func(ctx context.Context) (*bytecode.ScriptBlocks, error)

// Option is a configuration function for a Cache.
type Option func(*Cache)

// WithBackend reads and writes artifacts through b on memory misses.
func WithBackend(b Backend) Option {
	return func(c *Cache) {
		c.backend = b
	}
}

// WithLogger sets the logger for cache events. The default discards them.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// Cache keeps compiled artifacts in memory. Concurrent requests for the
// same key share one lookup and at most one compilation. Compile errors are
// not cached.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	group   singleflight.Group
	backend Backend
	logger  zerolog.Logger
}

// NewCache returns an empty cache.
func NewCache(opts ...Option) *Cache {
	c := &Cache{entries: map[string]*Entry{}, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the artifact for key, compiling it on a miss. A backend
// failure is logged and treated as a miss; only compile errors are
// returned.
func (c *Cache) Get(ctx context.Context, key string, compile CompileFunc) (*Entry, error) {
	if entry, ok := c.lookup(key); ok {
		c.logger.Debug().Str("key", short(key)).Msg("cache hit")
		return entry, nil
	}
	v, err, shared := c.group.Do(key, func() (any, error) {
		if entry, ok := c.lookup(key); ok {
			return entry, nil
		}
		if entry := c.load(ctx, key); entry != nil {
			c.add(entry)
			return entry, nil
		}
		c.logger.Debug().Str("key", short(key)).Msg("compiling")
		blocks, err := compile(ctx)
		if err != nil {
			return nil, err
		}
		entry := c.save(ctx, key, blocks)
		c.add(entry)
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug().Str("key", short(key)).Msg("shared compilation")
	}
	return v.(*Entry), nil
}

func (c *Cache) lookup(key string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry, ok
}

func (c *Cache) add(entry *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.Key] = entry
}

func (c *Cache) load(ctx context.Context, key string) *Entry {
	if c.backend == nil {
		return nil
	}
	entry, err := c.backend.Get(ctx, key)
	switch {
	case errors.Is(err, ErrNotFound):
		c.logger.Debug().Str("key", short(key)).Msg("backend miss")
		return nil
	case err != nil:
		c.logger.Warn().Err(err).Str("key", short(key)).Msg("backend read failed")
		return nil
	}
	c.logger.Debug().Str("key", short(key)).Str("revision", entry.Revision.String()).Msg("backend hit")
	return entry
}

func (c *Cache) save(ctx context.Context, key string, blocks *bytecode.ScriptBlocks) *Entry {
	if c.backend != nil {
		entry, err := c.backend.Put(ctx, key, blocks)
		if err == nil {
			c.logger.Debug().Str("key", short(key)).Str("revision", entry.Revision.String()).Msg("stored")
			return entry
		}
		c.logger.Warn().Err(err).Str("key", short(key)).Msg("backend write failed")
	}
	entry, _, err := newEntry(key, blocks)
	if err != nil {
		return &Entry{Key: key, Blocks: blocks}
	}
	return entry
}

// Len returns the number of artifacts held in memory.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Purge drops every artifact held in memory. Backends are not touched.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}
