package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/gscript/bytecode"
)

// memBackend is a Backend over a map.
type memBackend struct {
	mu      sync.Mutex
	entries map[string]*Entry
	gets    int
	puts    int
	failPut bool
	failGet bool
}

func newMemBackend() *memBackend {
	return &memBackend{entries: map[string]*Entry{}}
}

func (m *memBackend) Get(ctx context.Context, key string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.failGet {
		return nil, errors.New("backend down")
	}
	entry, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return entry, nil
}

func (m *memBackend) Put(ctx context.Context, key string, blocks *bytecode.ScriptBlocks) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.failPut {
		return nil, errors.New("backend read-only")
	}
	entry, _, err := newEntry(key, blocks)
	if err != nil {
		return nil, err
	}
	m.entries[key] = entry
	return entry, nil
}

func counting(blocks *bytecode.ScriptBlocks, n *atomic.Int32) CompileFunc {
	return func(context.Context) (*bytecode.ScriptBlocks, error) {
		n.Add(1)
		return blocks, nil
	}
}

func TestCacheCompilesOnce(t *testing.T) {
	ctx := context.Background()
	blocks := artifact(t)
	var compiles atomic.Int32
	c := NewCache()

	first, err := c.Get(ctx, "k", counting(blocks, &compiles))
	require.NoError(t, err)
	second, err := c.Get(ctx, "k", counting(blocks, &compiles))
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Same(t, blocks, first.Blocks)
	require.Equal(t, int32(1), compiles.Load())
	require.Equal(t, 1, c.Len())

	c.Purge()
	require.Equal(t, 0, c.Len())
	_, err = c.Get(ctx, "k", counting(blocks, &compiles))
	require.NoError(t, err)
	require.Equal(t, int32(2), compiles.Load())
}

func TestCacheConcurrentGet(t *testing.T) {
	ctx := context.Background()
	blocks := artifact(t)
	var compiles atomic.Int32
	c := NewCache()

	entries := make([]*Entry, 32)
	errs := make([]error, 32)
	var wg sync.WaitGroup
	for i := range entries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entries[i], errs[i] = c.Get(ctx, "k", counting(blocks, &compiles))
		}()
	}
	wg.Wait()
	for i := range entries {
		require.NoError(t, errs[i])
		require.Same(t, blocks, entries[i].Blocks)
	}
	require.Equal(t, 1, c.Len())
	require.LessOrEqual(t, compiles.Load(), int32(32))
	require.GreaterOrEqual(t, compiles.Load(), int32(1))
}

func TestCacheDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	c := NewCache()
	boom := errors.New("E2001")
	_, err := c.Get(ctx, "k", func(context.Context) (*bytecode.ScriptBlocks, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, c.Len())

	var compiles atomic.Int32
	_, err = c.Get(ctx, "k", counting(artifact(t), &compiles))
	require.NoError(t, err)
	require.Equal(t, int32(1), compiles.Load())
}

func TestCacheWritesThroughBackend(t *testing.T) {
	ctx := context.Background()
	backend := newMemBackend()
	blocks := artifact(t)
	var compiles atomic.Int32

	c := NewCache(WithBackend(backend))
	entry, err := c.Get(ctx, "k", counting(blocks, &compiles))
	require.NoError(t, err)
	require.Equal(t, 1, backend.puts)
	require.Equal(t, backend.entries["k"].Revision, entry.Revision)

	// A second process finds the artifact in the backend.
	other := NewCache(WithBackend(backend))
	loaded, err := other.Get(ctx, "k", counting(blocks, &compiles))
	require.NoError(t, err)
	require.Equal(t, entry.Revision, loaded.Revision)
	require.Equal(t, int32(1), compiles.Load())
}

func TestCacheSurvivesBackendFailures(t *testing.T) {
	ctx := context.Background()
	backend := newMemBackend()
	backend.failGet = true
	backend.failPut = true
	var compiles atomic.Int32

	c := NewCache(WithBackend(backend))
	entry, err := c.Get(ctx, "k", counting(artifact(t), &compiles))
	require.NoError(t, err)
	require.NotNil(t, entry.Blocks)
	require.Equal(t, int32(1), compiles.Load())
	require.Equal(t, 1, backend.gets)
	require.Equal(t, 1, backend.puts)
	require.Equal(t, 1, c.Len())
}
