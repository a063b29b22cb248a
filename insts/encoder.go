package insts

import "fmt"

// EncodeError reports an instruction that cannot be represented as a word.
type EncodeError struct {
	Op     Op
	Reason string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %v: %s", e.Op, e.Reason)
}

// Encode packs an instruction into a 32-bit word. Only Op, Mode, Cond and
// the operands named by the operation's format are consulted.
func Encode(inst *Instruction) (uint32, error) {
	loc, ok := opIndex[opKey{inst.Op, inst.Mode}]
	if !ok {
		return 0, &EncodeError{Op: inst.Op, Reason: fmt.Sprintf("no %v form", inst.Mode)}
	}

	var word uint32
	word = typeField.insert(word, uint32(loc.typ))
	word = opcodeField(loc.typ).insert(word, uint32(loc.code))

	if loc.info.format == FormatJump {
		if !inst.Cond.Valid() {
			return 0, &EncodeError{Op: inst.Op, Reason: fmt.Sprintf("invalid condition %d", inst.Cond)}
		}
		word = condField.insert(word, uint32(inst.Cond))
	}

	if loc.info.format == FormatInterrupt {
		f := operandField(loc.typ, 0, true)
		if inst.Imm < 0 || !f.fits(uint32(inst.Imm)) {
			return 0, immRangeError(inst, f.width)
		}
		return f.insert(word, uint32(inst.Imm)), nil
	}

	roles := operandRoles[loc.info.format]
	for i, r := range roles {
		last := i == len(roles)-1
		if last && inst.Mode == Immediate {
			f := operandField(loc.typ, i, true)
			v, ok := immBits(inst.Op, inst.Imm, f.width)
			if !ok {
				return 0, immRangeError(inst, f.width)
			}
			word = f.insert(word, v)
			break
		}

		reg := registerFor(inst, r)
		f := operandField(loc.typ, i, false)
		if !f.fits(uint32(reg)) {
			return 0, &EncodeError{Op: inst.Op, Reason: fmt.Sprintf("register %d out of range", reg)}
		}
		word = f.insert(word, uint32(reg))
	}

	return word, nil
}

// MustEncode is Encode for statically known instructions. It panics on
// error.
func MustEncode(inst *Instruction) uint32 {
	word, err := Encode(inst)
	if err != nil {
		panic(err)
	}
	return word
}

func registerFor(inst *Instruction, r role) uint8 {
	switch r {
	case roleRd:
		return inst.Rd
	case roleRn:
		return inst.Rn
	default:
		return inst.Rm
	}
}

func immBits(op Op, imm int32, width uint) (uint32, bool) {
	f := field{0, width}
	if signedImmediate(op) {
		lo := -(int64(1) << (width - 1))
		hi := int64(1)<<(width-1) - 1
		if int64(imm) < lo || int64(imm) > hi {
			return 0, false
		}
		return uint32(imm) & f.mask(), true
	}
	if imm < 0 || !f.fits(uint32(imm)) {
		return 0, false
	}
	return uint32(imm), true
}

func immRangeError(inst *Instruction, width uint) error {
	return &EncodeError{
		Op:     inst.Op,
		Reason: fmt.Sprintf("immediate %d does not fit in %d bits", inst.Imm, width),
	}
}
