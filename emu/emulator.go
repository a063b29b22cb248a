package emu

import (
	"fmt"

	"github.com/sarchlab/legsim/insts"
	"github.com/sarchlab/legsim/timed"
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Halted is true if the fetched word was the halt sentinel 0.
	Halted bool

	// Cycles is the latency reported by the instruction's phases.
	Cycles uint64

	// Err is set if an error occurred during execution.
	Err error
}

// Emulator executes LEG instructions one at a time, running all four
// phases of an instruction before fetching the next. There is no overlap,
// so it serves as a reference model for the pipeline.
type Emulator struct {
	regFile *RegFile
	memory  Memory
	decoder *insts.Decoder

	instructionCount uint64
	cycles           uint64
	maxInstructions  uint64 // 0 means no limit
	halted           bool
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithStackPointer sets the initial stack pointer value.
func WithStackPointer(sp uint32) EmulatorOption {
	return func(e *Emulator) {
		e.regFile.Write(SP, sp)
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// NewEmulator creates an emulator that fetches from and accesses mem.
func NewEmulator(mem Memory, opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile: &RegFile{},
		memory:  mem,
		decoder: insts.NewDecoder(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() Memory {
	return e.memory
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// Cycles returns the total latency reported so far.
func (e *Emulator) Cycles() uint64 {
	return e.cycles
}

// Halted returns true once the halt sentinel has been fetched.
func (e *Emulator) Halted() bool {
	return e.halted
}

// Step executes a single instruction.
func (e *Emulator) Step() StepResult {
	if e.halted {
		return StepResult{Halted: true}
	}

	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{
			Err: fmt.Errorf("max instructions reached (%d)", e.maxInstructions),
		}
	}

	pc := e.regFile.Read(PC)

	fetch := e.memory.Get(pc)
	if fetch.Failed() {
		return StepResult{Err: &MemoryError{Op: "fetch", Addr: pc, Err: fetch.Err}}
	}

	if fetch.Value == 0 {
		e.halted = true
		e.cycles += fetch.Cycles
		return StepResult{Halted: true, Cycles: fetch.Cycles}
	}

	inst, err := e.decoder.Decode(fetch.Value)
	if err != nil {
		return StepResult{Err: fmt.Errorf("at 0x%X: %w", pc, err)}
	}

	e.regFile.Write(PC, pc+1)

	f := NewInFlight(inst, pc)
	phases := []func() timed.Status{
		func() timed.Status { return f.Decode(e.regFile) },
		f.Execute,
		func() timed.Status { return f.AccessMemory(e.memory) },
		func() timed.Status { return f.WriteBack(e.regFile) },
	}

	cycles := fetch.Cycles
	for _, phase := range phases {
		s := phase()
		if s.Failed() {
			return StepResult{Err: s.Err}
		}
		cycles += s.Cycles
	}

	e.instructionCount++
	e.cycles += cycles

	return StepResult{Cycles: cycles}
}

// Run executes instructions until the halt sentinel or an error.
func (e *Emulator) Run() error {
	for {
		result := e.Step()
		if result.Err != nil {
			return result.Err
		}
		if result.Halted {
			return nil
		}
	}
}
