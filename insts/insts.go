// Package insts provides LEG instruction definitions, decoding and encoding.
//
// This package turns 32-bit LEG machine words into structured instruction
// representations and back. It supports:
//   - ALU: unsigned/signed add, sub, mul, div, move, compare, shifts,
//     and/or/xor, not
//   - Memory: load, store, push, pop
//   - Control: jump, jump-subroutine, interrupt handler setup, interrupts,
//     return from interrupt, no-op
//
// All bit positions come from a single field layout table shared by the
// decoder and the encoder.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst, err := decoder.Decode(0x00050420) // LDR R1, [R10]
//	fmt.Printf("Op: %v, Rd: %d, Rn: %d\n", inst.Op, inst.Rd, inst.Rn)
package insts
