package emu

import (
	"errors"
	"fmt"

	"github.com/sarchlab/legsim/insts"
)

// ErrDivideByZero is returned when DIVU or DIVS has a zero divisor.
var ErrDivideByZero = errors.New("divide by zero")

// ALU evaluates arithmetic, shift and logic operations on 32-bit values.
// Signed operations use two's complement and wrap without overflow checks.
func ALU(op insts.Op, a, b uint32) (uint32, error) {
	switch op {
	case insts.OpADDU:
		return a + b, nil
	case insts.OpADDS:
		return uint32(int32(a) + int32(b)), nil
	case insts.OpSUBU:
		return a - b, nil
	case insts.OpSUBS:
		return uint32(int32(a) - int32(b)), nil
	case insts.OpMULU:
		return a * b, nil
	case insts.OpMULS:
		return uint32(int32(a) * int32(b)), nil
	case insts.OpDIVU:
		if b == 0 {
			return 0, ErrDivideByZero
		}
		return a / b, nil
	case insts.OpDIVS:
		if b == 0 {
			return 0, ErrDivideByZero
		}
		// MinInt32 / -1 wraps to MinInt32.
		return uint32(int32(a) / int32(b)), nil
	case insts.OpASL, insts.OpLSL:
		return a << b, nil
	case insts.OpASR:
		return uint32(int32(a) >> b), nil
	case insts.OpLSR:
		return a >> b, nil
	case insts.OpAND:
		return a & b, nil
	case insts.OpOR:
		return a | b, nil
	case insts.OpXOR:
		return a ^ b, nil
	case insts.OpMV:
		return a, nil
	case insts.OpNOT:
		return ^a, nil
	default:
		return 0, fmt.Errorf("%v is not an ALU operation", op)
	}
}

// Compare returns the status register value for CMPU or CMPS.
func Compare(op insts.Op, a, b uint32) uint32 {
	less := a < b
	if op == insts.OpCMPS {
		less = int32(a) < int32(b)
	}

	switch {
	case a == b:
		return insts.StatusEqual
	case less:
		return insts.StatusLess
	default:
		return insts.StatusGreater
	}
}
