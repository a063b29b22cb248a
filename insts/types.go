package insts

// Type is the instruction type field.
type Type uint8

// Instruction types.
const (
	TypeALU      Type = 0
	TypeMemory   Type = 1
	TypeControl  Type = 2
	TypeGraphics Type = 3 // Reserved, never decodes.
)

func (t Type) String() string {
	switch t {
	case TypeALU:
		return "ALU"
	case TypeMemory:
		return "Memory"
	case TypeControl:
		return "Control"
	case TypeGraphics:
		return "Graphics"
	default:
		return "Type?"
	}
}

// Op represents a LEG operation. Addressing mode is carried separately.
type Op uint8

// LEG operations.
const (
	OpUnknown Op = iota
	OpADDU
	OpADDS
	OpSUBU
	OpSUBS
	OpMULU
	OpMULS
	OpDIVU
	OpDIVS
	OpMV
	OpCMPU
	OpCMPS
	OpASL
	OpASR
	OpLSL
	OpLSR
	OpAND
	OpOR
	OpXOR
	OpNOT
	OpLDR
	OpSTR
	OpPUSH
	OpPOP
	OpJMP
	OpJMPS
	OpSIH
	OpINT
	OpRFI
	OpNOP
)

var opNames = [...]string{
	OpUnknown: "UNKNOWN",
	OpADDU:    "ADDU",
	OpADDS:    "ADDS",
	OpSUBU:    "SUBU",
	OpSUBS:    "SUBS",
	OpMULU:    "MULU",
	OpMULS:    "MULS",
	OpDIVU:    "DIVU",
	OpDIVS:    "DIVS",
	OpMV:      "MV",
	OpCMPU:    "CMPU",
	OpCMPS:    "CMPS",
	OpASL:     "ASL",
	OpASR:     "ASR",
	OpLSL:     "LSL",
	OpLSR:     "LSR",
	OpAND:     "AND",
	OpOR:      "OR",
	OpXOR:     "XOR",
	OpNOT:     "NOT",
	OpLDR:     "LDR",
	OpSTR:     "STR",
	OpPUSH:    "PUSH",
	OpPOP:     "POP",
	OpJMP:     "JMP",
	OpJMPS:    "JMPS",
	OpSIH:     "SIH",
	OpINT:     "INT",
	OpRFI:     "RFI",
	OpNOP:     "NOP",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "UNKNOWN"
}

// Format describes which operand roles an operation uses.
type Format uint8

// Instruction formats.
const (
	FormatUnknown   Format = iota
	FormatThreeOp          // Rd, Rn, Rm|imm
	FormatShift            // Rd (also source), Rm|imm
	FormatTwoReg           // Rd, Rn
	FormatCompare          // Rn, Rm
	FormatMemory           // Rd, Rn|imm (PC-relative)
	FormatStack            // Rd
	FormatJump             // Rn|imm (PC-relative)
	FormatHandler          // Rn
	FormatInterrupt        // imm
	FormatNone
)

// AddrMode identifies how the final operand is interpreted.
type AddrMode uint8

// Addressing modes.
const (
	// RegisterDirect means the operand value comes from a register.
	RegisterDirect AddrMode = iota
	// Immediate means the operand is embedded in the instruction. For
	// address-producing instructions it is a signed offset from PC + 1.
	Immediate
)

func (m AddrMode) String() string {
	if m == Immediate {
		return "Immediate"
	}
	return "RegisterDirect"
}

// Cond is a jump condition code, compared against the status register.
type Cond uint8

// Condition codes.
const (
	CondAL Cond = 0 // Always
	CondEQ Cond = 1 // Status == Equal
	CondGT Cond = 2 // Status == Greater
	CondLT Cond = 3 // Status == Less
	CondNE Cond = 4 // Status != Equal
	CondGE Cond = 5 // Equal or Greater
	CondLE Cond = 6 // Equal or Less

	numConds = 7
)

var condNames = [...]string{"", "EQ", "GT", "LT", "NE", "GE", "LE"}

func (c Cond) String() string {
	if int(c) < len(condNames) {
		return condNames[c]
	}
	return "??"
}

// Valid returns true if c is a defined condition code.
func (c Cond) Valid() bool {
	return c < numConds
}

// Status register values written by compare instructions.
const (
	StatusEqual   uint32 = 1
	StatusGreater uint32 = 2
	StatusLess    uint32 = 3
)

// Holds reports whether the condition is satisfied by a status value.
func (c Cond) Holds(status uint32) bool {
	switch c {
	case CondAL:
		return true
	case CondEQ:
		return status == StatusEqual
	case CondGT:
		return status == StatusGreater
	case CondLT:
		return status == StatusLess
	case CondNE:
		return status != StatusEqual
	case CondGE:
		return status == StatusEqual || status == StatusGreater
	case CondLE:
		return status == StatusEqual || status == StatusLess
	default:
		return false
	}
}

// NotSet marks an operand field that the instruction does not use. It is
// distinct from every valid register index.
const NotSet uint8 = 0xFF

// Instruction represents a decoded LEG instruction.
type Instruction struct {
	Op     Op       // Operation
	Format Format   // Operand roles
	Type   Type     // Type field
	Code   uint8    // Opcode field
	Mode   AddrMode // Addressing mode of the final operand
	Cond   Cond     // Condition code (jumps only)

	Rd uint8 // Destination register, or source for STR/PUSH and shifts
	Rn uint8 // First source register or address register
	Rm uint8 // Second source register

	// Imm is the immediate operand, sign- or zero-extended as the
	// operation requires. Only meaningful in Immediate mode.
	Imm int32

	// Word is the raw 32-bit instruction word.
	Word uint32
}

// IsSigned returns true for operations that interpret operands as signed.
func (i *Instruction) IsSigned() bool {
	switch i.Op {
	case OpADDS, OpSUBS, OpMULS, OpDIVS, OpCMPS:
		return true
	default:
		return false
	}
}

// IsJump returns true for JMP and JMPS.
func (i *Instruction) IsJump() bool {
	return i.Op == OpJMP || i.Op == OpJMPS
}

// IsMemoryOp returns true for instructions that access data memory.
func (i *Instruction) IsMemoryOp() bool {
	switch i.Op {
	case OpLDR, OpSTR, OpPUSH, OpPOP, OpINT:
		return true
	default:
		return false
	}
}
