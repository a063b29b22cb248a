package cache

import (
	"fmt"

	"github.com/sarchlab/legsim/emu"
)

// MaxLevels is the deepest supported cache hierarchy.
const MaxLevels = 3

// BuildChain stacks caches in front of base. configs[0] is the level
// closest to the CPU. It returns the caches in the same order and the
// memory the CPU should address, which is base when configs is empty.
func BuildChain(base emu.Memory, configs ...Config) ([]*Cache, emu.Memory, error) {
	if len(configs) > MaxLevels {
		return nil, nil, fmt.Errorf("at most %d cache levels are supported, got %d",
			MaxLevels, len(configs))
	}

	caches := make([]*Cache, len(configs))
	head := base

	for i := len(configs) - 1; i >= 0; i-- {
		c, err := New(configs[i], head)
		if err != nil {
			return nil, nil, fmt.Errorf("L%d: %w", i+1, err)
		}
		caches[i] = c
		head = c
	}

	return caches, head, nil
}

// FlushAll flushes caches from the closest level outward so dirty data
// reaches the last level. It returns the summed latency.
func FlushAll(caches []*Cache) (uint64, error) {
	var total uint64
	for _, c := range caches {
		s := c.Flush()
		if s.Failed() {
			return total, s.Err
		}
		total += s.Cycles
	}
	return total, nil
}
