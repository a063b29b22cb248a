package insts

import (
	"fmt"
	"strings"
)

// String renders the instruction in assembler syntax.
func (i *Instruction) String() string {
	name := i.Op.String()
	if i.Format == FormatJump {
		name += i.Cond.String()
	}
	if i.Mode == Immediate && i.Format != FormatInterrupt {
		name += "#"
	}

	var ops []string
	reg := func(r uint8) string { return fmt.Sprintf("R%d", r) }

	switch i.Format {
	case FormatThreeOp:
		ops = append(ops, reg(i.Rd), reg(i.Rn), i.last(reg(i.Rm)))
	case FormatShift:
		ops = append(ops, reg(i.Rd), i.last(reg(i.Rm)))
	case FormatTwoReg:
		ops = append(ops, reg(i.Rd), reg(i.Rn))
	case FormatCompare:
		ops = append(ops, reg(i.Rn), reg(i.Rm))
	case FormatMemory:
		addr := "[" + reg(i.Rn) + "]"
		if i.Mode == Immediate {
			addr = fmt.Sprintf("[PC%+d]", i.Imm+1)
		}
		ops = append(ops, reg(i.Rd), addr)
	case FormatStack:
		ops = append(ops, reg(i.Rd))
	case FormatJump:
		if i.Mode == Immediate {
			ops = append(ops, fmt.Sprintf("PC%+d", i.Imm+1))
		} else {
			ops = append(ops, reg(i.Rn))
		}
	case FormatHandler:
		ops = append(ops, reg(i.Rn))
	case FormatInterrupt:
		ops = append(ops, fmt.Sprintf("%d", i.Imm))
	}

	if len(ops) == 0 {
		return name
	}
	return name + " " + strings.Join(ops, ", ")
}

func (i *Instruction) last(register string) string {
	if i.Mode == Immediate {
		return fmt.Sprintf("%d", i.Imm)
	}
	return register
}
