// Package emu provides LEG architectural state and instruction semantics.
package emu

import (
	"fmt"
	"strings"
)

// NumRegisters is the number of architectural registers.
const NumRegisters = 32

// Named registers.
const (
	INTLR uint8 = 26 // Interrupt link register
	IHDLR uint8 = 27 // Interrupt handler address
	PC    uint8 = 28 // Program counter
	STS   uint8 = 29 // Status register
	SP    uint8 = 30 // Stack pointer
	LR    uint8 = 31 // Link register
)

var regNames = map[uint8]string{
	INTLR: "INTLR",
	IHDLR: "IHDLR",
	PC:    "PC",
	STS:   "STS",
	SP:    "SP",
	LR:    "LR",
}

// RegName returns the assembler name of a register.
func RegName(i uint8) string {
	if name, ok := regNames[i]; ok {
		return name
	}
	return fmt.Sprintf("R%d", i)
}

// RegFile represents the LEG register file. All registers are general
// purpose; PC, STS, SP, LR and the interrupt registers are conventions.
type RegFile struct {
	R [NumRegisters]uint32
}

// Read reads a register. Indices come from 5-bit fields, so an index
// outside 0..31 is a programming error and panics.
func (r *RegFile) Read(i uint8) uint32 {
	return r.R[i]
}

// Write writes a register. Out-of-range indices panic.
func (r *RegFile) Write(i uint8, v uint32) {
	r.R[i] = v
}

// Snapshot returns a copy of the register values.
func (r *RegFile) Snapshot() [NumRegisters]uint32 {
	return r.R
}

// String renders the non-zero general registers and every named register.
func (r *RegFile) String() string {
	var sb strings.Builder
	for i := uint8(0); i < NumRegisters; i++ {
		_, named := regNames[i]
		if !named && r.R[i] == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s=%d", RegName(i), r.R[i])
	}
	return sb.String()
}
