package compiler

import (
	"math"

	"github.com/deepnoodle-ai/gscript/errors"
	"github.com/deepnoodle-ai/gscript/segment"
)

// pool is a deduplicated, append-only table shared by all blocks of an
// artifact.
type pool[K comparable, V any] struct {
	code   errors.ErrorCode
	what   string
	index  map[K]int
	values []V
}

func newPool[K comparable, V any](code errors.ErrorCode, what string) *pool[K, V] {
	return &pool[K, V]{code: code, what: what, index: map[K]int{}}
}

// add returns the index of key, appending v when key is new. It reports
// false when the pool is full.
func (p *pool[K, V]) add(key K, v V) (int, bool) {
	if i, ok := p.index[key]; ok {
		return i, true
	}
	if len(p.values) > segment.MaxOffset {
		return 0, false
	}
	p.values = append(p.values, v)
	p.index[key] = len(p.values) - 1
	return len(p.values) - 1, true
}

// bitsOf keys constants by bit pattern, so 0 and -0 stay distinct and every
// NaN payload is kept.
func bitsOf(v float64) uint64 {
	return math.Float64bits(v)
}
