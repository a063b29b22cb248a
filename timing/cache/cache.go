// Package cache provides direct-mapped write-back caches using Akita cache
// components.
package cache

import (
	"fmt"
	"math/bits"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/legsim/emu"
	"github.com/sarchlab/legsim/timed"
)

// Config holds cache configuration parameters.
type Config struct {
	// Lines is the number of one-word lines. Must be a power of two.
	Lines int `json:"lines" yaml:"lines"`
	// Delay is the access latency of this level in cycles.
	Delay uint64 `json:"delay" yaml:"delay"`
}

// DefaultL1Config returns the default first-level cache.
func DefaultL1Config() Config {
	return Config{Lines: 1024, Delay: 1}
}

// DefaultL2Config returns the default second-level cache.
func DefaultL2Config() Config {
	return Config{Lines: 4096, Delay: 10}
}

// DefaultL3Config returns the default third-level cache.
func DefaultL3Config() Config {
	return Config{Lines: 16384, Delay: 30}
}

// Validate checks that the configuration describes a buildable cache.
func (c Config) Validate() error {
	if c.Lines <= 0 || bits.OnesCount(uint(c.Lines)) != 1 {
		return fmt.Errorf("cache lines must be a positive power of two, got %d", c.Lines)
	}
	return nil
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
}

// HitRate returns hits over accesses, or 0 before any access.
func (s Statistics) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is a direct-mapped, write-back, write-allocate cache of one-word
// lines in front of another emu.Memory. Line metadata lives in an Akita
// directory with one way per set; the set index is the line index.
type Cache struct {
	config    Config
	indexBits uint

	directory *akitacache.DirectoryImpl
	data      []uint32

	next emu.Memory

	stats Statistics
}

// New creates a cache in front of next.
func New(config Config, next emu.Memory) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if next == nil {
		return nil, fmt.Errorf("cache requires a next level")
	}

	return &Cache{
		config:    config,
		indexBits: uint(bits.TrailingZeros(uint(config.Lines))),
		directory: akitacache.NewDirectory(
			config.Lines,
			1,
			1,
			akitacache.NewLRUVictimFinder(),
		),
		data: make([]uint32, config.Lines),
		next: next,
	}, nil
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Next returns the level behind this cache.
func (c *Cache) Next() emu.Memory {
	return c.next
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

// Index returns the line an address maps to.
func (c *Cache) Index(addr uint32) int {
	return int(addr & uint32(c.config.Lines-1))
}

// Tag returns the tag stored for an address.
func (c *Cache) Tag(addr uint32) uint32 {
	return addr >> c.indexBits
}

// lineAddr rebuilds the address held by a block from its tag and index.
func (c *Cache) lineAddr(block *akitacache.Block) uint32 {
	tag := uint32(block.Tag) >> c.indexBits
	return tag<<c.indexBits | uint32(block.SetID)
}

// Get reads a word.
func (c *Cache) Get(addr uint32) timed.Result[uint32] {
	c.stats.Reads++

	block := c.directory.Lookup(0, uint64(addr))
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		return timed.Wait(c.config.Delay, c.data[block.SetID])
	}

	c.stats.Misses++

	victim := c.directory.FindVictim(uint64(addr))
	evict := c.evict(victim)
	if evict.Failed() {
		return timed.Fail[uint32](evict.Err)
	}

	fetched := c.next.Get(addr)
	if fetched.Failed() {
		return timed.Fail[uint32](fmt.Errorf("fill 0x%08X: %w", addr, fetched.Err))
	}

	c.fill(victim, addr, fetched.Value, false)

	return timed.Wait(c.config.Delay+evict.Cycles+fetched.Cycles, fetched.Value)
}

// Set writes a word. A write miss allocates the line without reading the
// next level.
func (c *Cache) Set(addr, value uint32) timed.Status {
	c.stats.Writes++

	block := c.directory.Lookup(0, uint64(addr))
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		c.data[block.SetID] = value
		block.IsDirty = true
		return timed.Done(c.config.Delay)
	}

	c.stats.Misses++

	victim := c.directory.FindVictim(uint64(addr))
	evict := c.evict(victim)
	if evict.Failed() {
		return evict
	}

	c.fill(victim, addr, value, true)

	return timed.Done(c.config.Delay + evict.Cycles)
}

// evict clears the way for a new line, writing the occupant back if dirty.
func (c *Cache) evict(victim *akitacache.Block) timed.Status {
	if !victim.IsValid {
		return timed.Done(0)
	}

	c.stats.Evictions++
	if !victim.IsDirty {
		return timed.Done(0)
	}

	addr := c.lineAddr(victim)
	s := c.next.Set(addr, c.data[victim.SetID])
	if s.Failed() {
		return timed.Fail[struct{}](fmt.Errorf("write back 0x%08X: %w", addr, s.Err))
	}
	c.stats.Writebacks++

	return s
}

func (c *Cache) fill(block *akitacache.Block, addr, value uint32, dirty bool) {
	block.Tag = uint64(addr)
	block.IsValid = true
	block.IsDirty = dirty
	c.data[block.SetID] = value
	c.directory.Visit(block)
}

// Invalidate drops the line holding addr without writing it back.
func (c *Cache) Invalidate(addr uint32) {
	block := c.directory.Lookup(0, uint64(addr))
	if block != nil && block.IsValid {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Flush writes back all dirty lines and invalidates every line. The
// returned latency is the sum of the write-backs.
func (c *Cache) Flush() timed.Status {
	var total uint64

	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty {
				addr := c.lineAddr(block)
				s := c.next.Set(addr, c.data[block.SetID])
				if s.Failed() {
					return timed.Fail[struct{}](fmt.Errorf("flush 0x%08X: %w", addr, s.Err))
				}
				total += s.Cycles
				c.stats.Writebacks++
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}

	return timed.Done(total)
}

// Reset invalidates all lines without write-back and clears statistics.
func (c *Cache) Reset() {
	c.directory.Reset()
	clear(c.data)
	c.ResetStats()
}

// Line is a read-only view of one cache line.
type Line struct {
	Index int
	Valid bool
	Dirty bool
	Tag   uint32
	Addr  uint32
	Data  uint32
}

// Line returns the state of line i.
func (c *Cache) Line(i int) Line {
	block := c.directory.GetSets()[i].Blocks[0]
	line := Line{Index: i, Valid: block.IsValid, Dirty: block.IsDirty}
	if block.IsValid {
		line.Addr = c.lineAddr(block)
		line.Tag = c.Tag(line.Addr)
		line.Data = c.data[i]
	}
	return line
}

// Inspect returns the address and data of every valid line.
func (c *Cache) Inspect() map[uint32]uint32 {
	out := make(map[uint32]uint32)
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid {
				out[c.lineAddr(block)] = c.data[block.SetID]
			}
		}
	}
	return out
}
