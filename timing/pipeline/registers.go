// Package pipeline provides the 5-stage pipeline implementation for timing simulation.
package pipeline

import "github.com/sarchlab/legsim/emu"

// Stage identifies a pipeline stage.
type Stage int

// Pipeline stages, in program order.
const (
	StageFetch Stage = iota
	StageDecode
	StageExecute
	StageMemory
	StageWriteback

	NumStages = 5
)

var stageNames = [NumStages]string{"fetch", "decode", "execute", "memory", "writeback"}

func (s Stage) String() string {
	if s >= 0 && int(s) < NumStages {
		return stageNames[s]
	}
	return "unknown"
}

// IFIDRegister holds the word produced by the fetch stage.
type IFIDRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// PC is the address the word was fetched from.
	PC uint32

	// InstructionWord is the raw 32-bit instruction word.
	InstructionWord uint32
}

// Clear resets the IF/ID register to empty state.
func (r *IFIDRegister) Clear() {
	r.Valid = false
	r.PC = 0
	r.InstructionWord = 0
}

// InstRegister holds an instruction that has completed a stage.
type InstRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// Flight is the in-flight instruction.
	Flight *emu.InFlight

	// Cycles is the latency the instruction reported in the stage it just
	// completed.
	Cycles uint64
}

// Clear resets the register to empty state.
func (r *InstRegister) Clear() {
	r.Valid = false
	r.Flight = nil
	r.Cycles = 0
}

// Load fills the register.
func (r *InstRegister) Load(f *emu.InFlight, cycles uint64) {
	r.Valid = true
	r.Flight = f
	r.Cycles = cycles
}

// PC returns the address of the held instruction, or 0 when empty.
func (r *InstRegister) PC() uint32 {
	if !r.Valid {
		return 0
	}
	return r.Flight.PC
}
