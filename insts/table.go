package insts

// Field layout. Bit 0 is the least significant bit of the word.
const (
	condLo   = 0
	condBits = 5

	typeLo   = 5
	typeBits = 2

	opcodeLo       = 7
	aluOpcodeBits  = 6
	memOpcodeBits  = 3
	ctrlOpcodeBits = 3

	regBits = 5

	wordBits = 32
)

// field is a contiguous bit range [lo, lo+width).
type field struct {
	lo, width uint
}

func (f field) mask() uint32 {
	if f.width >= wordBits {
		return ^uint32(0)
	}
	return (uint32(1) << f.width) - 1
}

func (f field) extract(word uint32) uint32 {
	return (word >> f.lo) & f.mask()
}

func (f field) insert(word, value uint32) uint32 {
	return word&^(f.mask()<<f.lo) | (value&f.mask())<<f.lo
}

// fits reports whether value is representable in the field.
func (f field) fits(value uint32) bool {
	return value&^f.mask() == 0
}

var (
	condField = field{condLo, condBits}
	typeField = field{typeLo, typeBits}
)

func opcodeField(t Type) field {
	if t == TypeALU {
		return field{opcodeLo, aluOpcodeBits}
	}
	if t == TypeMemory {
		return field{opcodeLo, memOpcodeBits}
	}
	return field{opcodeLo, ctrlOpcodeBits}
}

// operandStart is the first operand bit for the given type.
func operandStart(t Type) uint {
	return uint(opcodeLo) + opcodeField(t).width
}

// operandField returns the field of the i-th operand. A final immediate
// operand extends to the top of the word.
func operandField(t Type, i int, immediate bool) field {
	lo := operandStart(t) + uint(i)*regBits
	if immediate {
		return field{lo, wordBits - lo}
	}
	return field{lo, regBits}
}

type role uint8

const (
	roleRd role = iota
	roleRn
	roleRm
)

// operandRoles lists, in bit order, which register each operand slot names.
var operandRoles = map[Format][]role{
	FormatThreeOp:   {roleRd, roleRn, roleRm},
	FormatShift:     {roleRd, roleRm},
	FormatTwoReg:    {roleRd, roleRn},
	FormatCompare:   {roleRn, roleRm},
	FormatMemory:    {roleRd, roleRn},
	FormatStack:     {roleRd},
	FormatJump:      {roleRn},
	FormatHandler:   {roleRn},
	FormatInterrupt: {},
	FormatNone:      {},
}

// opInfo is one opcode table entry.
type opInfo struct {
	op     Op
	format Format
	mode   AddrMode
}

var aluOps = [...]opInfo{
	0:  {OpADDU, FormatThreeOp, RegisterDirect},
	1:  {OpADDU, FormatThreeOp, Immediate},
	2:  {OpADDS, FormatThreeOp, RegisterDirect},
	3:  {OpADDS, FormatThreeOp, Immediate},
	4:  {OpSUBU, FormatThreeOp, RegisterDirect},
	5:  {OpSUBU, FormatThreeOp, Immediate},
	6:  {OpSUBS, FormatThreeOp, RegisterDirect},
	7:  {OpSUBS, FormatThreeOp, Immediate},
	8:  {OpMULU, FormatThreeOp, RegisterDirect},
	9:  {OpMULU, FormatThreeOp, Immediate},
	10: {OpMULS, FormatThreeOp, RegisterDirect},
	11: {OpMULS, FormatThreeOp, Immediate},
	12: {OpDIVU, FormatThreeOp, RegisterDirect},
	13: {OpDIVU, FormatThreeOp, Immediate},
	14: {OpDIVS, FormatThreeOp, RegisterDirect},
	15: {OpDIVS, FormatThreeOp, Immediate},
	16: {OpMV, FormatTwoReg, RegisterDirect},
	17: {OpCMPU, FormatCompare, RegisterDirect},
	18: {OpCMPS, FormatCompare, RegisterDirect},
	19: {OpASL, FormatShift, RegisterDirect},
	20: {OpASL, FormatShift, Immediate},
	21: {OpASR, FormatShift, RegisterDirect},
	22: {OpASR, FormatShift, Immediate},
	23: {OpLSL, FormatShift, RegisterDirect},
	24: {OpLSL, FormatShift, Immediate},
	25: {OpLSR, FormatShift, RegisterDirect},
	26: {OpLSR, FormatShift, Immediate},
	27: {OpAND, FormatThreeOp, RegisterDirect},
	28: {OpAND, FormatThreeOp, Immediate},
	29: {OpOR, FormatThreeOp, RegisterDirect},
	30: {OpOR, FormatThreeOp, Immediate},
	31: {OpXOR, FormatThreeOp, RegisterDirect},
	32: {OpXOR, FormatThreeOp, Immediate},
	33: {OpNOT, FormatTwoReg, RegisterDirect},
}

var memOps = [...]opInfo{
	0: {OpLDR, FormatMemory, RegisterDirect},
	1: {OpLDR, FormatMemory, Immediate},
	2: {OpSTR, FormatMemory, RegisterDirect},
	3: {OpSTR, FormatMemory, Immediate},
	4: {OpPUSH, FormatStack, RegisterDirect},
	5: {OpPOP, FormatStack, RegisterDirect},
}

var ctrlOps = [...]opInfo{
	0: {OpJMP, FormatJump, RegisterDirect},
	1: {OpJMP, FormatJump, Immediate},
	2: {OpJMPS, FormatJump, RegisterDirect},
	3: {OpJMPS, FormatJump, Immediate},
	4: {OpSIH, FormatHandler, RegisterDirect},
	5: {OpINT, FormatInterrupt, Immediate},
	6: {OpRFI, FormatNone, RegisterDirect},
	7: {OpNOP, FormatNone, RegisterDirect},
}

func opsFor(t Type) []opInfo {
	switch t {
	case TypeALU:
		return aluOps[:]
	case TypeMemory:
		return memOps[:]
	case TypeControl:
		return ctrlOps[:]
	default:
		return nil
	}
}

func lookup(t Type, code uint32) (opInfo, bool) {
	ops := opsFor(t)
	if int(code) >= len(ops) {
		return opInfo{}, false
	}
	return ops[code], true
}

// reverse maps (op, mode) to (type, opcode).
type opKey struct {
	op   Op
	mode AddrMode
}

type opLocation struct {
	typ  Type
	code uint8
	info opInfo
}

var opIndex = buildOpIndex()

func buildOpIndex() map[opKey]opLocation {
	idx := make(map[opKey]opLocation)
	for _, t := range []Type{TypeALU, TypeMemory, TypeControl} {
		for code, info := range opsFor(t) {
			idx[opKey{info.op, info.mode}] = opLocation{t, uint8(code), info}
		}
	}
	return idx
}

// signedImmediate reports whether the immediate of op is sign-extended.
// PC-relative immediates are always signed.
func signedImmediate(op Op) bool {
	switch op {
	case OpADDS, OpSUBS, OpMULS, OpDIVS, OpLDR, OpSTR, OpJMP, OpJMPS:
		return true
	default:
		return false
	}
}

// PCRelative reports whether an Immediate-mode instruction of op encodes an
// offset from the address after the instruction.
func PCRelative(op Op) bool {
	switch op {
	case OpLDR, OpSTR, OpJMP, OpJMPS:
		return true
	default:
		return false
	}
}

func signExtend(v uint32, width uint) int32 {
	shift := wordBits - width
	return int32(v<<shift) >> shift
}
