// Package main checks that the pipeline and the functional emulator reach
// the same final registers on every microbenchmark whose instructions are
// spaced far enough apart to avoid stale reads.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/go-cmp/cmp"

	"github.com/sarchlab/legsim/benchmarks"
	"github.com/sarchlab/legsim/emu"
	"github.com/sarchlab/legsim/timing/core"
)

func functional(b benchmarks.Benchmark) ([emu.NumRegisters]uint32, error) {
	dram := emu.NewDRAM(0)
	e := emu.NewEmulator(dram, emu.WithMaxInstructions(benchmarks.DefaultMaxSteps))
	if b.Setup != nil {
		b.Setup(e.RegFile(), dram)
	}
	dram.Load(b.Words())

	err := e.Run()
	return e.RegFile().Snapshot(), err
}

func pipelined(b benchmarks.Benchmark) ([emu.NumRegisters]uint32, uint64, error) {
	c, err := core.NewCore(nil, core.WithMaxSteps(benchmarks.DefaultMaxSteps))
	if err != nil {
		return [emu.NumRegisters]uint32{}, 0, err
	}
	if b.Setup != nil {
		b.Setup(c.RegFile(), c.DRAM())
	}
	c.LoadImage(b.Words())

	err = c.Run()
	return c.RegFile().Snapshot(), c.Stats().Pipeline.DataHazards, err
}

func validate(b benchmarks.Benchmark) bool {
	want, err := functional(b)
	if err != nil {
		fmt.Printf("  ✗ %s: functional: %v\n", b.Name, err)
		return false
	}
	got, hazards, err := pipelined(b)
	if err != nil {
		fmt.Printf("  ✗ %s: pipeline: %v\n", b.Name, err)
		return false
	}

	if hazards > 0 {
		fmt.Printf("  - %s: skipped, %d hazards\n", b.Name, hazards)
		return true
	}

	want[emu.PC], got[emu.PC] = 0, 0
	if diff := cmp.Diff(want, got); diff != "" {
		fmt.Printf("  ✗ %s (-functional +pipeline):\n%s", b.Name, diff)
		return false
	}

	fmt.Printf("  ✓ %s\n", b.Name)
	return true
}

func main() {
	fmt.Println("Accuracy Validation")
	fmt.Println("===================")

	ok := true
	for _, b := range benchmarks.GetMicrobenchmarks() {
		ok = validate(b) && ok
	}

	if _, err := benchmarks.Sweep(context.Background(),
		benchmarks.GetCoreBenchmarks(), benchmarks.DefaultConfigs(), 0); err != nil {
		fmt.Printf("  ✗ sweep: %v\n", err)
		ok = false
	}

	if !ok {
		os.Exit(1)
	}
	fmt.Println("All checks passed.")
}
