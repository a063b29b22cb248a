package insts

import "fmt"

// DecodeError reports a word that does not name a valid instruction.
type DecodeError struct {
	Word   uint32
	Type   Type
	Opcode uint32
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode 0x%08X: %s (type %v, opcode %d)",
		e.Word, e.Reason, e.Type, e.Opcode)
}

// Decoder decodes LEG machine words.
type Decoder struct{}

// NewDecoder creates a new LEG instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit LEG instruction word.
func (d *Decoder) Decode(word uint32) (*Instruction, error) {
	t := Type(typeField.extract(word))
	code := opcodeField(t).extract(word)

	info, ok := lookup(t, code)
	if !ok {
		reason := "unknown opcode"
		if t == TypeGraphics {
			reason = "graphics instructions are not supported"
		}
		return nil, &DecodeError{Word: word, Type: t, Opcode: code, Reason: reason}
	}

	inst := &Instruction{
		Op:     info.op,
		Format: info.format,
		Type:   t,
		Code:   uint8(code),
		Mode:   info.mode,
		Rd:     NotSet,
		Rn:     NotSet,
		Rm:     NotSet,
		Word:   word,
	}

	if info.format == FormatJump {
		inst.Cond = Cond(condField.extract(word))
		if !inst.Cond.Valid() {
			return nil, &DecodeError{
				Word: word, Type: t, Opcode: code,
				Reason: fmt.Sprintf("invalid condition %d", inst.Cond),
			}
		}
	}

	d.decodeOperands(inst)

	return inst, nil
}

func (d *Decoder) decodeOperands(inst *Instruction) {
	if inst.Format == FormatInterrupt {
		f := operandField(inst.Type, 0, true)
		inst.Imm = int32(f.extract(inst.Word))
		return
	}

	roles := operandRoles[inst.Format]
	for i, r := range roles {
		last := i == len(roles)-1
		if last && inst.Mode == Immediate {
			f := operandField(inst.Type, i, true)
			raw := f.extract(inst.Word)
			if signedImmediate(inst.Op) {
				inst.Imm = signExtend(raw, f.width)
			} else {
				inst.Imm = int32(raw)
			}
			return
		}

		reg := uint8(operandField(inst.Type, i, false).extract(inst.Word))
		switch r {
		case roleRd:
			inst.Rd = reg
		case roleRn:
			inst.Rn = reg
		case roleRm:
			inst.Rm = reg
		}
	}
}
