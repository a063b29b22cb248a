// Package core assembles a complete LEG machine from a timing
// configuration: DRAM, the cache chain in front of it, the register file,
// the latency table and the pipeline that drives them.
package core

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/sarchlab/legsim/emu"
	"github.com/sarchlab/legsim/timing/cache"
	"github.com/sarchlab/legsim/timing/latency"
	"github.com/sarchlab/legsim/timing/pipeline"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Pipeline holds the step, cycle and hazard counters.
	Pipeline pipeline.Statistics
	// Caches holds one entry per level, L1 first.
	Caches []cache.Statistics
	// FlushCycles is the latency spent by Flush calls.
	FlushCycles uint64
}

// Cycles returns the total simulated latency including flushes.
func (s Stats) Cycles() uint64 {
	return s.Pipeline.Cycles + s.FlushCycles
}

type options struct {
	log      logr.Logger
	maxSteps uint64
	sp       uint32
	stepHook func(pipeline.Statistics)
}

// Option configures a Core.
type Option func(*options)

// WithLogger routes pipeline trace output to log.
func WithLogger(log logr.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithMaxSteps bounds Run. A value of 0 means no limit.
func WithMaxSteps(n uint64) Option {
	return func(o *options) {
		o.maxSteps = n
	}
}

// WithStepHook calls hook with the pipeline statistics after every step.
func WithStepHook(hook func(pipeline.Statistics)) Option {
	return func(o *options) {
		o.stepHook = hook
	}
}

// WithStackPointer sets the initial SP register.
func WithStackPointer(sp uint32) Option {
	return func(o *options) {
		o.sp = sp
	}
}

// Core represents a LEG machine with its memory hierarchy.
type Core struct {
	config *latency.TimingConfig

	dram    *emu.DRAM
	caches  []*cache.Cache
	memory  emu.Memory
	regFile *emu.RegFile

	// Pipeline is the underlying 5-stage pipeline.
	Pipeline *pipeline.Pipeline

	flushCycles uint64
}

// NewCore builds a core from config. A nil config selects the defaults.
func NewCore(config *latency.TimingConfig, opts ...Option) (*Core, error) {
	if config == nil {
		config = latency.DefaultTimingConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timing config: %w", err)
	}

	o := options{log: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}

	dram := emu.NewDRAM(config.DRAMDelay)
	caches, head, err := cache.BuildChain(dram, config.Caches...)
	if err != nil {
		return nil, fmt.Errorf("building cache chain: %w", err)
	}

	regFile := &emu.RegFile{}
	regFile.Write(emu.SP, o.sp)

	c := &Core{
		config:  config.Clone(),
		dram:    dram,
		caches:  caches,
		memory:  head,
		regFile: regFile,
	}
	c.Pipeline = pipeline.NewPipeline(regFile, head,
		pipeline.WithLatencyTable(latency.NewTableWithConfig(c.config)),
		pipeline.WithLogger(o.log.WithName("pipeline")),
		pipeline.WithMaxSteps(o.maxSteps),
		pipeline.WithStepHook(o.stepHook),
	)

	return c, nil
}

// Config returns a copy of the configuration the core was built from.
func (c *Core) Config() *latency.TimingConfig {
	return c.config.Clone()
}

// DRAM returns the backing store.
func (c *Core) DRAM() *emu.DRAM {
	return c.dram
}

// Caches returns the cache levels, L1 first.
func (c *Core) Caches() []*cache.Cache {
	return c.caches
}

// Memory returns the memory the CPU addresses: L1, or DRAM without caches.
func (c *Core) Memory() emu.Memory {
	return c.memory
}

// RegFile returns the register file.
func (c *Core) RegFile() *emu.RegFile {
	return c.regFile
}

// LoadImage writes words to DRAM starting at address 0 and points the PC
// at the first word. Caches are left untouched.
func (c *Core) LoadImage(words []uint32) {
	c.dram.Load(words)
	c.Pipeline.SetPC(0)
}

// Step advances the pipeline one slot. Returns true while running.
func (c *Core) Step() (bool, error) {
	return c.Pipeline.Step()
}

// Run executes until the program halts, fails, or hits the step limit.
func (c *Core) Run() error {
	return c.Pipeline.Run()
}

// Halted returns true once the pipeline has drained after the halt sentinel.
func (c *Core) Halted() bool {
	return c.Pipeline.Halted()
}

// Flush writes every dirty cache line back to DRAM and returns the latency.
func (c *Core) Flush() (uint64, error) {
	cycles, err := cache.FlushAll(c.caches)
	c.flushCycles += cycles
	if err != nil {
		return cycles, fmt.Errorf("flushing caches: %w", err)
	}
	return cycles, nil
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	s := Stats{
		Pipeline:    c.Pipeline.Stats(),
		Caches:      make([]cache.Statistics, len(c.caches)),
		FlushCycles: c.flushCycles,
	}
	for i, cc := range c.caches {
		s.Caches[i] = cc.Stats()
	}
	return s
}

// Reset clears the pipeline, caches and statistics. Registers and DRAM
// contents survive; dirty cache lines are discarded, so call Flush first
// to keep them.
func (c *Core) Reset() {
	c.Pipeline.Reset()
	for _, cc := range c.caches {
		cc.Reset()
	}
	c.flushCycles = 0
}
