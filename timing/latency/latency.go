// Package latency provides instruction timing models for cycle-level
// simulation.
//
// Execute latencies are configured via TimingConfig. Memory latency is not
// looked up here; it is reported by the memory hierarchy itself.
package latency

import (
	"github.com/sarchlab/legsim/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the execute latency in cycles for the given instruction.
func (t *Table) GetLatency(inst *insts.Instruction) uint64 {
	if inst == nil {
		return 0
	}

	switch inst.Op {
	case insts.OpMULU, insts.OpMULS:
		return t.config.MultiplyLatency

	case insts.OpDIVU, insts.OpDIVS:
		return t.config.DivideLatency

	case insts.OpJMP, insts.OpJMPS:
		return t.config.BranchLatency

	case insts.OpSIH, insts.OpINT, insts.OpRFI:
		return t.config.InterruptLatency

	case insts.OpLDR, insts.OpSTR, insts.OpPUSH, insts.OpPOP, insts.OpNOP:
		return 0

	default:
		return t.config.ALULatency
	}
}

// IsMemoryOp returns true if the instruction accesses memory.
func (t *Table) IsMemoryOp(inst *insts.Instruction) bool {
	return inst != nil && inst.IsMemoryOp()
}

// IsLoadOp returns true if the instruction reads data memory.
func (t *Table) IsLoadOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.Op == insts.OpLDR || inst.Op == insts.OpPOP
}

// IsStoreOp returns true if the instruction writes data memory.
func (t *Table) IsStoreOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.Op == insts.OpSTR || inst.Op == insts.OpPUSH
}

// IsBranchOp returns true if the instruction may redirect the PC.
func (t *Table) IsBranchOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	switch inst.Op {
	case insts.OpJMP, insts.OpJMPS, insts.OpINT, insts.OpRFI:
		return true
	default:
		return false
	}
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
