package compiler

import "github.com/deepnoodle-ai/gscript/segment"

// registers tracks register usage within one block. Locals stay reserved
// until the end of the block; temporaries are freed once consumed.
type registers struct {
	used     [segment.MaxRegister]bool
	reserved [segment.MaxRegister]bool
	high     int // one past the highest register ever used
}

// alloc returns the lowest free register.
func (r *registers) alloc() (int, bool) {
	for i, used := range r.used {
		if !used {
			r.used[i] = true
			r.high = max(r.high, i+1)
			return i, true
		}
	}
	return 0, false
}

// reserve pins an allocated register for the rest of the block.
func (r *registers) reserve(i int) {
	r.used[i] = true
	r.reserved[i] = true
}

func (r *registers) free(i int) {
	if !r.reserved[i] {
		r.used[i] = false
	}
}

// count is the number of registers the block needs.
func (r *registers) count() int {
	return r.high
}
