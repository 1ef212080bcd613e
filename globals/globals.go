// Package globals provides a key to number table for the G.* commands.
package globals

import (
	"maps"
	"slices"
	"sync"
)

// Table is a mutex-guarded map implementing vm.Globals. It is safe for
// concurrent use, but runs that share a Table observe each other's writes in
// scheduling order. Give each frame a Snapshot when outputs must not depend
// on that order.
type Table struct {
	mu     sync.RWMutex
	values map[string]float64
}

// New returns a table seeded with the given values.
func New(seed map[string]float64) *Table {
	values := make(map[string]float64, len(seed))
	maps.Copy(values, seed)
	return &Table{values: values}
}

// Init stores value when key is absent and returns the stored value.
func (t *Table) Init(key string, value float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.values[key]; ok {
		return existing
	}
	t.values[key] = value
	return value
}

// Get returns the value for key, or 0 when absent.
func (t *Table) Get(key string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.values[key]
}

// Set stores value and returns it.
func (t *Table) Set(key string, value float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values[key] = value
	return value
}

// Has reports whether key is present.
func (t *Table) Has(key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.values[key]
	return ok
}

// Del removes key and reports whether it was present.
func (t *Table) Del(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.values[key]
	delete(t.values, key)
	return ok
}

// Len returns the number of keys.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.values)
}

// Keys returns the keys in sorted order.
func (t *Table) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Sorted(maps.Keys(t.values))
}

// Values returns a copy of the contents.
func (t *Table) Values() map[string]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return maps.Clone(t.values)
}

// Snapshot returns an independent copy of the table.
func (t *Table) Snapshot() *Table {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return New(t.values)
}
