// Package main measures decoder throughput and allocations over every
// opcode in the LEG instruction set.
package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/sarchlab/legsim/insts"
)

func sampleWords() []uint32 {
	return []uint32{
		insts.MustEncode(insts.Reg3(insts.OpADDU, 1, 2, 3)),
		insts.MustEncode(insts.Imm3(insts.OpSUBS, 4, 5, -7)),
		insts.MustEncode(insts.ShiftImm(insts.OpLSL, 6, 3)),
		insts.MustEncode(insts.Compare(insts.OpCMPU, 1, 2)),
		insts.MustEncode(insts.Load(1, 10)),
		insts.MustEncode(insts.StoreRel(2, -4)),
		insts.MustEncode(insts.Push(3)),
		insts.MustEncode(insts.JumpRel(insts.OpJMP, insts.CondNE, -9)),
		insts.MustEncode(insts.Interrupt(5)),
		insts.MustEncode(insts.Nop()),
	}
}

func main() {
	decoder := insts.NewDecoder()
	words := sampleWords()

	for _, w := range words {
		if _, err := decoder.Decode(w); err != nil {
			fmt.Fprintf(os.Stderr, "decode 0x%08X: %v\n", w, err)
			os.Exit(1)
		}
	}

	runtime.GC()
	var m1, m2 runtime.MemStats
	runtime.ReadMemStats(&m1)

	start := time.Now()
	iterations := 100000
	for i := 0; i < iterations; i++ {
		for _, w := range words {
			_, _ = decoder.Decode(w)
		}
	}

	elapsed := time.Since(start)
	runtime.ReadMemStats(&m2)

	totalDecodes := iterations * len(words)
	allocations := m2.Mallocs - m1.Mallocs
	allocatedBytes := m2.TotalAlloc - m1.TotalAlloc

	fmt.Printf("Decoder Validation Results:\n")
	fmt.Printf("===========================\n")
	fmt.Printf("Total decode operations: %d\n", totalDecodes)
	fmt.Printf("Time elapsed: %v\n", elapsed)
	fmt.Printf("Decodes per second: %.0f\n", float64(totalDecodes)/elapsed.Seconds())
	fmt.Printf("Allocations per decode: %.3f\n", float64(allocations)/float64(totalDecodes))
	fmt.Printf("Bytes per decode: %.1f\n", float64(allocatedBytes)/float64(totalDecodes))
}
