package insts

// newInst fills in the table fields the decoder would produce for the
// (op, mode) pair. Pairs without an encoding keep FormatUnknown.
func newInst(op Op, mode AddrMode) *Instruction {
	inst := &Instruction{Op: op, Mode: mode, Rd: NotSet, Rn: NotSet, Rm: NotSet}
	if loc, ok := opIndex[opKey{op, mode}]; ok {
		inst.Format = loc.info.format
		inst.Type = loc.typ
		inst.Code = loc.code
	}
	return inst
}

// seal sets Word once the operands are in place. Out of range operands
// leave it 0; Encode reports why.
func seal(inst *Instruction) *Instruction {
	if word, err := Encode(inst); err == nil {
		inst.Word = word
	}
	return inst
}

// Reg3 builds a register-direct three-operand instruction: Rd = Rn op Rm.
func Reg3(op Op, rd, rn, rm uint8) *Instruction {
	i := newInst(op, RegisterDirect)
	i.Rd, i.Rn, i.Rm = rd, rn, rm
	return seal(i)
}

// Imm3 builds an immediate three-operand instruction: Rd = Rn op imm.
func Imm3(op Op, rd, rn uint8, imm int32) *Instruction {
	i := newInst(op, Immediate)
	i.Rd, i.Rn, i.Imm = rd, rn, imm
	return seal(i)
}

// Shift builds a register shift: Rd = Rd shift Rm.
func Shift(op Op, rd, rm uint8) *Instruction {
	i := newInst(op, RegisterDirect)
	i.Rd, i.Rm = rd, rm
	return seal(i)
}

// ShiftImm builds an immediate shift: Rd = Rd shift imm.
func ShiftImm(op Op, rd uint8, imm int32) *Instruction {
	i := newInst(op, Immediate)
	i.Rd, i.Imm = rd, imm
	return seal(i)
}

// Move builds MV Rd, Rn.
func Move(rd, rn uint8) *Instruction {
	i := newInst(OpMV, RegisterDirect)
	i.Rd, i.Rn = rd, rn
	return seal(i)
}

// Not builds NOT Rd, Rn.
func Not(rd, rn uint8) *Instruction {
	i := newInst(OpNOT, RegisterDirect)
	i.Rd, i.Rn = rd, rn
	return seal(i)
}

// Compare builds CMPU or CMPS Rn, Rm.
func Compare(op Op, rn, rm uint8) *Instruction {
	i := newInst(op, RegisterDirect)
	i.Rn, i.Rm = rn, rm
	return seal(i)
}

// Load builds LDR Rd, [Rn].
func Load(rd, rn uint8) *Instruction {
	i := newInst(OpLDR, RegisterDirect)
	i.Rd, i.Rn = rd, rn
	return seal(i)
}

// LoadRel builds LDR Rd, [PC+1+offset].
func LoadRel(rd uint8, offset int32) *Instruction {
	i := newInst(OpLDR, Immediate)
	i.Rd, i.Imm = rd, offset
	return seal(i)
}

// Store builds STR Rd, [Rn].
func Store(rd, rn uint8) *Instruction {
	i := newInst(OpSTR, RegisterDirect)
	i.Rd, i.Rn = rd, rn
	return seal(i)
}

// StoreRel builds STR Rd, [PC+1+offset].
func StoreRel(rd uint8, offset int32) *Instruction {
	i := newInst(OpSTR, Immediate)
	i.Rd, i.Imm = rd, offset
	return seal(i)
}

// Push builds PUSH Rd.
func Push(rd uint8) *Instruction {
	i := newInst(OpPUSH, RegisterDirect)
	i.Rd = rd
	return seal(i)
}

// Pop builds POP Rd.
func Pop(rd uint8) *Instruction {
	i := newInst(OpPOP, RegisterDirect)
	i.Rd = rd
	return seal(i)
}

// Jump builds JMP or JMPS to the address held in Rn.
func Jump(op Op, cond Cond, rn uint8) *Instruction {
	i := newInst(op, RegisterDirect)
	i.Cond, i.Rn = cond, rn
	return seal(i)
}

// JumpRel builds JMP or JMPS to PC+1+offset.
func JumpRel(op Op, cond Cond, offset int32) *Instruction {
	i := newInst(op, Immediate)
	i.Cond, i.Imm = cond, offset
	return seal(i)
}

// SetHandler builds SIH Rn.
func SetHandler(rn uint8) *Instruction {
	i := newInst(OpSIH, RegisterDirect)
	i.Rn = rn
	return seal(i)
}

// Interrupt builds INT code.
func Interrupt(code int32) *Instruction {
	i := newInst(OpINT, Immediate)
	i.Imm = code
	return seal(i)
}

// ReturnFromInterrupt builds RFI.
func ReturnFromInterrupt() *Instruction {
	return seal(newInst(OpRFI, RegisterDirect))
}

// Nop builds NOP.
func Nop() *Instruction {
	return seal(newInst(OpNOP, RegisterDirect))
}
