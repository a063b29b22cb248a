package emu

import (
	"fmt"
	"maps"

	"github.com/sarchlab/legsim/timed"
)

// Memory is a word-addressed store with simulated latency. Both DRAM and
// caches implement it, so levels chain behind one another.
type Memory interface {
	Get(addr uint32) timed.Result[uint32]
	Set(addr, value uint32) timed.Status
}

// Inspector exposes the stored contents of a memory for debugging.
type Inspector interface {
	Inspect() map[uint32]uint32
}

// MemoryError reports a failed memory access.
type MemoryError struct {
	Op   string
	Addr uint32
	Err  error
}

func (e *MemoryError) Error() string {
	return fmt.Sprintf("memory %s at 0x%08X: %v", e.Op, e.Addr, e.Err)
}

func (e *MemoryError) Unwrap() error {
	return e.Err
}

// DefaultDRAMDelay is the DRAM access latency in cycles.
const DefaultDRAMDelay = 100

// DRAM is a sparse word-addressed main memory with a fixed access delay.
type DRAM struct {
	delay uint64
	words map[uint32]uint32
}

// NewDRAM creates an empty DRAM with the given access delay.
func NewDRAM(delay uint64) *DRAM {
	return &DRAM{
		delay: delay,
		words: make(map[uint32]uint32),
	}
}

// Delay returns the access delay.
func (d *DRAM) Delay() uint64 {
	return d.delay
}

// Get reads a word. An address never written reads as 0 and is recorded
// as present from then on.
func (d *DRAM) Get(addr uint32) timed.Result[uint32] {
	v, ok := d.words[addr]
	if !ok {
		d.words[addr] = 0
	}
	return timed.Wait(d.delay, v)
}

// Set writes a word.
func (d *DRAM) Set(addr, value uint32) timed.Status {
	d.words[addr] = value
	return timed.Done(d.delay)
}

// Peek reads a word without latency or side effects.
func (d *DRAM) Peek(addr uint32) uint32 {
	return d.words[addr]
}

// Load places word N of the image at address N.
func (d *DRAM) Load(words []uint32) {
	for i, w := range words {
		d.words[uint32(i)] = w
	}
}

// Len returns the number of addresses present.
func (d *DRAM) Len() int {
	return len(d.words)
}

// Inspect returns a copy of every present address.
func (d *DRAM) Inspect() map[uint32]uint32 {
	return maps.Clone(d.words)
}

// Reset removes all contents.
func (d *DRAM) Reset() {
	clear(d.words)
}
