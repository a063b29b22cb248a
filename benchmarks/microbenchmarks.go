// Package benchmarks provides LEG microbenchmark programs and a harness
// that runs them under a set of timing configurations.
package benchmarks

import (
	"github.com/sarchlab/legsim/emu"
	"github.com/sarchlab/legsim/insts"
)

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Setup prepares registers and DRAM before the program is loaded.
	Setup func(regFile *emu.RegFile, dram *emu.DRAM)

	// Program is loaded at address 0. The halt sentinel follows it; nil
	// entries leave a 0 word.
	Program []*insts.Instruction

	// ExpectedRegs and ExpectedMem are checked after the run, once the
	// caches have been flushed.
	ExpectedRegs map[uint8]uint32
	ExpectedMem  map[uint32]uint32
}

// Words encodes the program. Nil entries become 0 words.
func (b Benchmark) Words() []uint32 {
	words := make([]uint32, len(b.Program))
	for i, inst := range b.Program {
		if inst != nil {
			words[i] = insts.MustEncode(inst)
		}
	}
	return words
}

// GetMicrobenchmarks returns the standard set of microbenchmarks.
// Each benchmark targets a specific pipeline or memory characteristic.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		rawHazardChain(),
		memorySequential(),
		stackPushPop(),
		functionCalls(),
		branchTaken(),
		mixedOperations(),
		interruptRoundTrip(),
		matrixMultiply2x2(),
	}
}

// GetCoreBenchmarks returns a minimal set for quick validation: a loop,
// matrix multiply and a call/return.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		branchTaken(),
		matrixMultiply2x2(),
		functionCalls(),
	}
}

// spaced puts two NOPs after every instruction, which is the distance a
// reader needs from its producer.
func spaced(prog ...*insts.Instruction) []*insts.Instruction {
	out := make([]*insts.Instruction, 0, 3*len(prog))
	for _, inst := range prog {
		out = append(out, inst, insts.Nop(), insts.Nop())
	}
	return out
}

func nops(n int) []*insts.Instruction {
	out := make([]*insts.Instruction, n)
	for i := range out {
		out[i] = insts.Nop()
	}
	return out
}

// 1. Arithmetic Sequential - ALU throughput with independent operations
func arithmeticSequential() Benchmark {
	var prog []*insts.Instruction
	for i := 0; i < 20; i++ {
		r := uint8(i % 5)
		prog = append(prog, insts.Imm3(insts.OpADDU, r, r, 1))
	}

	return Benchmark{
		Name:         "arithmetic_sequential",
		Description:  "20 ADDs rotating over 5 registers - no reader is closer than 5 slots",
		Program:      prog,
		ExpectedRegs: map[uint8]uint32{0: 4, 1: 4, 2: 4, 3: 4, 4: 4},
	}
}

// 2. Dependency Chain - the same chain, correctly spaced
func dependencyChain() Benchmark {
	var prog []*insts.Instruction
	for i := 0; i < 20; i++ {
		prog = append(prog, insts.Imm3(insts.OpADDU, 0, 0, 1))
	}

	return Benchmark{
		Name:         "dependency_chain",
		Description:  "20 dependent ADDs (R0 = R0 + 1) separated by two NOPs",
		Program:      spaced(prog...),
		ExpectedRegs: map[uint8]uint32{0: 20},
	}
}

// 3. RAW Hazard Chain - back-to-back dependent ADDs read stale values
func rawHazardChain() Benchmark {
	var prog []*insts.Instruction
	for i := 0; i < 20; i++ {
		prog = append(prog, insts.Imm3(insts.OpADDU, 0, 0, 1))
	}

	return Benchmark{
		Name:        "raw_hazard_chain",
		Description: "20 back-to-back dependent ADDs - without forwarding only every third sees its producer",
		Program:     prog,
		// Instruction j observes the write of j-3, so it writes j/3+1.
		ExpectedRegs: map[uint8]uint32{0: 7},
	}
}

// 4. Memory Sequential - cache and DRAM latency
func memorySequential() Benchmark {
	const base = 0x8000

	var prog []*insts.Instruction
	for i := uint8(0); i < 10; i++ {
		prog = append(prog, insts.Store(0, 2+i))
	}
	for i := uint8(0); i < 10; i++ {
		prog = append(prog, insts.Load(12+i, 2+i))
	}

	regs := map[uint8]uint32{}
	mem := map[uint32]uint32{}
	for i := uint8(0); i < 10; i++ {
		regs[12+i] = 42
		mem[base+uint32(i)] = 42
	}

	return Benchmark{
		Name:        "memory_sequential",
		Description: "10 stores then 10 loads to sequential addresses - measures memory latency",
		Setup: func(regFile *emu.RegFile, dram *emu.DRAM) {
			regFile.Write(0, 42)
			for i := uint8(0); i < 10; i++ {
				regFile.Write(2+i, base+uint32(i))
			}
		},
		Program:      prog,
		ExpectedRegs: regs,
		ExpectedMem:  mem,
	}
}

// 5. Stack - PUSH and POP through SP
func stackPushPop() Benchmark {
	return Benchmark{
		Name:        "stack_push_pop",
		Description: "two PUSHes then two POPs - LIFO order through SP",
		Setup: func(regFile *emu.RegFile, dram *emu.DRAM) {
			regFile.Write(emu.SP, 0x1000)
			regFile.Write(1, 11)
			regFile.Write(2, 22)
		},
		Program: spaced(
			insts.Push(1),
			insts.Push(2),
			insts.Pop(3),
			insts.Pop(4),
		),
		ExpectedRegs: map[uint8]uint32{3: 22, 4: 11, emu.SP: 0x1000},
		ExpectedMem:  map[uint32]uint32{0xFFF: 11, 0xFFE: 22},
	}
}

// 6. Function Calls - JMPS links, JMP through LR returns
func functionCalls() Benchmark {
	prog := []*insts.Instruction{
		insts.JumpRel(insts.OpJMPS, insts.CondAL, 9), // call 10
	}
	prog = append(prog, nops(3)...)
	prog = append(prog, insts.Imm3(insts.OpADDU, 2, 1, 7))
	for len(prog) < 10 {
		prog = append(prog, nil)
	}
	prog = append(prog,
		insts.Imm3(insts.OpADDU, 1, 0, 5),
		insts.Jump(insts.OpJMP, insts.CondAL, emu.LR),
	)
	prog = append(prog, nops(3)...)

	return Benchmark{
		Name:         "function_calls",
		Description:  "one call and return with filled delay slots",
		Program:      prog,
		ExpectedRegs: map[uint8]uint32{1: 5, 2: 12, emu.LR: 1},
	}
}

// 7. Branch Taken - a counted loop closed by JMPNE#
func branchTaken() Benchmark {
	prog := spaced(insts.Imm3(insts.OpSUBU, 0, 0, 1))
	prog = append(prog,
		insts.Compare(insts.OpCMPU, 0, 1),
		insts.Imm3(insts.OpADDU, 2, 2, 1),
		insts.JumpRel(insts.OpJMP, insts.CondNE, -6),
	)
	prog = append(prog, nops(3)...)

	return Benchmark{
		Name:        "branch_taken",
		Description: "5-iteration loop - 4 taken jumps, each followed by 3 delay slots",
		Setup: func(regFile *emu.RegFile, dram *emu.DRAM) {
			regFile.Write(0, 5)
		},
		Program:      prog,
		ExpectedRegs: map[uint8]uint32{0: 0, 2: 5},
	}
}

// 8. Mixed Operations - multiply, divide, logic and shifts
func mixedOperations() Benchmark {
	return Benchmark{
		Name:        "mixed_operations",
		Description: "MUL, DIV, logic and shift operations - exercises execute latencies",
		Setup: func(regFile *emu.RegFile, dram *emu.DRAM) {
			regFile.Write(1, 12)
			regFile.Write(2, 5)
		},
		Program: spaced(
			insts.Reg3(insts.OpMULU, 3, 1, 2),
			insts.Reg3(insts.OpDIVU, 4, 1, 2),
			insts.Reg3(insts.OpAND, 5, 1, 2),
			insts.Reg3(insts.OpOR, 6, 1, 2),
			insts.Reg3(insts.OpXOR, 7, 1, 2),
			insts.Imm3(insts.OpSUBS, 8, 2, 20),
			insts.ShiftImm(insts.OpLSL, 3, 2),
			insts.ShiftImm(insts.OpASR, 8, 1),
			insts.Not(9, 4),
		),
		ExpectedRegs: map[uint8]uint32{
			3: 240,
			4: 2,
			5: 4,
			6: 13,
			7: 9,
			8: 0xFFFFFFF8,
			9: 0xFFFFFFFD,
		},
	}
}

// 9. Interrupt Round Trip - SIH, INT, handler, RFI
func interruptRoundTrip() Benchmark {
	prog := make([]*insts.Instruction, 25)
	for i := range prog {
		if i < 9 || i >= 20 {
			prog[i] = insts.Nop()
		}
	}
	prog[0] = insts.Imm3(insts.OpADDU, 3, 0, 20)
	prog[3] = insts.SetHandler(3)
	prog[4] = insts.Interrupt(7)
	prog[8] = insts.Imm3(insts.OpADDU, 5, 0, 9)
	prog[20] = insts.Imm3(insts.OpADDU, 4, 0, 1)
	prog[21] = insts.ReturnFromInterrupt()

	return Benchmark{
		Name:         "interrupt_round_trip",
		Description:  "software interrupt into a handler at 20 and back",
		Program:      prog,
		ExpectedRegs: map[uint8]uint32{4: 1, 5: 9, emu.INTLR: 5, emu.IHDLR: 20},
		ExpectedMem:  map[uint32]uint32{emu.InterruptCodeAddr: 7},
	}
}

// 10. Matrix Multiply 2x2 - loads, multiplies, adds, stores
func matrixMultiply2x2() Benchmark {
	const base = 0x100

	var prog []*insts.Instruction
	// R1..R4 = A, R5..R8 = B, both row-major.
	for i := uint8(0); i < 8; i++ {
		prog = append(prog,
			insts.Imm3(insts.OpADDU, 11, 10, int32(i)),
			insts.Nop(),
			insts.Nop(),
			insts.Load(1+i, 11),
		)
	}
	prog = append(prog, nops(2)...)

	// C[i][j] = A[i][0]*B[0][j] + A[i][1]*B[1][j], results in R14..R17.
	for i := uint8(0); i < 2; i++ {
		for j := uint8(0); j < 2; j++ {
			prog = append(prog,
				insts.Reg3(insts.OpMULU, 12, 1+2*i, 5+j),
				insts.Reg3(insts.OpMULU, 13, 2+2*i, 7+j),
				insts.Nop(),
				insts.Nop(),
				insts.Reg3(insts.OpADDU, 14+2*i+j, 12, 13),
			)
		}
	}

	for k := uint8(0); k < 4; k++ {
		prog = append(prog,
			insts.Imm3(insts.OpADDU, 11, 10, 8+int32(k)),
			insts.Nop(),
			insts.Nop(),
			insts.Store(14+k, 11),
		)
	}

	return Benchmark{
		Name:        "matrix_multiply_2x2",
		Description: "2x2 integer matrix multiply through memory",
		Setup: func(regFile *emu.RegFile, dram *emu.DRAM) {
			regFile.Write(10, base)
			for i, v := range []uint32{1, 2, 3, 4, 5, 6, 7, 8} {
				dram.Set(base+uint32(i), v)
			}
		},
		Program:      prog,
		ExpectedRegs: map[uint8]uint32{14: 19, 15: 22, 16: 43, 17: 50},
		ExpectedMem: map[uint32]uint32{
			base + 8:  19,
			base + 9:  22,
			base + 10: 43,
			base + 11: 50,
		},
	}
}
