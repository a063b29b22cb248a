package emu

import (
	"fmt"

	"github.com/sarchlab/legsim/insts"
	"github.com/sarchlab/legsim/timed"
)

// InterruptCodeAddr is the reserved address where INT records its code.
const InterruptCodeAddr uint32 = 0xFFFFFFFF

// InFlight is one decoded instruction travelling through the four phases
// decode, execute, access-memory and write-back. Each phase must be called
// once, in order. Intermediate values live here so a phase never touches
// state that a later phase owns.
type InFlight struct {
	Inst *insts.Instruction

	// PC is the address the instruction was fetched from.
	PC uint32

	op1, op2 uint32
	addr     uint32
	sp       uint32
	result   uint32
	status   uint32

	// Taken reports whether a jump fired. Set during write-back.
	Taken bool
}

// NewInFlight wraps an instruction fetched from pc.
func NewInFlight(inst *insts.Instruction, pc uint32) *InFlight {
	return &InFlight{Inst: inst, PC: pc}
}

func (f *InFlight) operand2(regs *RegFile) uint32 {
	if f.Inst.Mode == insts.Immediate {
		return uint32(f.Inst.Imm)
	}
	return regs.Read(f.Inst.Rm)
}

// target is the address named by a memory or jump operand.
func (f *InFlight) target(regs *RegFile) uint32 {
	if f.Inst.Mode == insts.Immediate && insts.PCRelative(f.Inst.Op) {
		return f.PC + 1 + uint32(f.Inst.Imm)
	}
	return regs.Read(f.Inst.Rn)
}

// Decode reads register operands and computes addresses.
func (f *InFlight) Decode(regs *RegFile) timed.Status {
	inst := f.Inst

	switch inst.Format {
	case insts.FormatThreeOp:
		f.op1 = regs.Read(inst.Rn)
		f.op2 = f.operand2(regs)
	case insts.FormatShift:
		f.op1 = regs.Read(inst.Rd)
		f.op2 = f.operand2(regs)
	case insts.FormatTwoReg, insts.FormatHandler:
		f.op1 = regs.Read(inst.Rn)
	case insts.FormatCompare:
		f.op1 = regs.Read(inst.Rn)
		f.op2 = regs.Read(inst.Rm)
	case insts.FormatMemory:
		f.addr = f.target(regs)
		if inst.Op == insts.OpSTR {
			f.op1 = regs.Read(inst.Rd)
		}
	case insts.FormatStack:
		f.sp = regs.Read(SP)
		if inst.Op == insts.OpPUSH {
			f.op1 = regs.Read(inst.Rd)
			f.sp--
		}
		f.addr = f.sp
	case insts.FormatJump:
		f.addr = f.target(regs)
	}

	return timed.Done(0)
}

// Execute performs the ALU computation.
func (f *InFlight) Execute() timed.Status {
	switch f.Inst.Format {
	case insts.FormatThreeOp, insts.FormatShift, insts.FormatTwoReg:
		v, err := ALU(f.Inst.Op, f.op1, f.op2)
		if err != nil {
			return timed.Fail[struct{}](fmt.Errorf("%v at 0x%X: %w", f.Inst.Op, f.PC, err))
		}
		f.result = v
	case insts.FormatCompare:
		f.status = Compare(f.Inst.Op, f.op1, f.op2)
	}

	return timed.Done(0)
}

// AccessMemory performs the instruction's single memory operation, if any.
func (f *InFlight) AccessMemory(mem Memory) timed.Status {
	switch f.Inst.Op {
	case insts.OpLDR, insts.OpPOP:
		r := mem.Get(f.addr)
		if r.Failed() {
			return timed.Fail[struct{}](&MemoryError{Op: "load", Addr: f.addr, Err: r.Err})
		}
		f.result = r.Value
		return r.Status()
	case insts.OpSTR, insts.OpPUSH:
		return f.store(mem, f.addr, f.op1)
	case insts.OpINT:
		return f.store(mem, InterruptCodeAddr, uint32(f.Inst.Imm))
	default:
		return timed.Done(0)
	}
}

func (f *InFlight) store(mem Memory, addr, value uint32) timed.Status {
	s := mem.Set(addr, value)
	if s.Failed() {
		return timed.Fail[struct{}](&MemoryError{Op: "store", Addr: addr, Err: s.Err})
	}
	return s
}

// WriteBack commits results to the register file.
func (f *InFlight) WriteBack(regs *RegFile) timed.Status {
	inst := f.Inst

	switch inst.Op {
	case insts.OpCMPU, insts.OpCMPS:
		regs.Write(STS, f.status)
	case insts.OpLDR:
		regs.Write(inst.Rd, f.result)
	case insts.OpSTR, insts.OpNOP:
	case insts.OpPUSH:
		regs.Write(SP, f.sp)
	case insts.OpPOP:
		regs.Write(inst.Rd, f.result)
		regs.Write(SP, f.sp+1)
	case insts.OpJMP, insts.OpJMPS:
		f.Taken = inst.Cond.Holds(regs.Read(STS))
		if f.Taken {
			if inst.Op == insts.OpJMPS {
				regs.Write(LR, f.PC+1)
			}
			regs.Write(PC, f.addr)
		}
	case insts.OpSIH:
		regs.Write(IHDLR, f.op1)
	case insts.OpINT:
		regs.Write(INTLR, f.PC+1)
		regs.Write(PC, regs.Read(IHDLR))
		f.Taken = true
	case insts.OpRFI:
		regs.Write(PC, regs.Read(INTLR))
		f.Taken = true
	default:
		regs.Write(inst.Rd, f.result)
	}

	return timed.Done(0)
}

// Reads lists the registers read during decode.
func (f *InFlight) Reads() []uint8 {
	inst := f.Inst
	var regs []uint8

	reg := func(r uint8) {
		if r != insts.NotSet {
			regs = append(regs, r)
		}
	}

	switch inst.Format {
	case insts.FormatThreeOp:
		reg(inst.Rn)
		reg(inst.Rm)
	case insts.FormatShift:
		reg(inst.Rd)
		reg(inst.Rm)
	case insts.FormatTwoReg, insts.FormatHandler, insts.FormatJump:
		reg(inst.Rn)
	case insts.FormatCompare:
		reg(inst.Rn)
		reg(inst.Rm)
	case insts.FormatMemory:
		reg(inst.Rn)
		if inst.Op == insts.OpSTR {
			reg(inst.Rd)
		}
	case insts.FormatStack:
		reg(SP)
		if inst.Op == insts.OpPUSH {
			reg(inst.Rd)
		}
	}

	return regs
}

// Writes lists the registers the instruction may write during write-back.
func (f *InFlight) Writes() []uint8 {
	inst := f.Inst

	switch inst.Op {
	case insts.OpCMPU, insts.OpCMPS:
		return []uint8{STS}
	case insts.OpSTR, insts.OpNOP:
		return nil
	case insts.OpPUSH:
		return []uint8{SP}
	case insts.OpPOP:
		return []uint8{inst.Rd, SP}
	case insts.OpJMP:
		return []uint8{PC}
	case insts.OpJMPS:
		return []uint8{LR, PC}
	case insts.OpSIH:
		return []uint8{IHDLR}
	case insts.OpINT:
		return []uint8{INTLR, PC}
	case insts.OpRFI:
		return []uint8{PC}
	default:
		return []uint8{inst.Rd}
	}
}
