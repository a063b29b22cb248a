// Package main provides the entry point for LEGSim.
// LEGSim is a cycle-level simulator of the LEG pipelined CPU.
//
// For the full CLI, use: go run ./cmd/legsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("LEGSim - LEG Pipelined CPU Simulator")
	fmt.Println("")
	fmt.Println("Usage: legsim [options] <image.bin>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -mode       pipeline (default) or functional")
	fmt.Println("  -config     Path to timing configuration file (.json or .yaml)")
	fmt.Println("  -v          Log verbosity (1: hazards, 2: every step)")
	fmt.Println("  -dump       Print DRAM after flushing caches")
	fmt.Println("  -plot       Save a plot of cumulative cycles")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/legsim' for the full CLI and")
	fmt.Println("'go run ./cmd/benchmark' for the cache sweep.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/legsim' instead.")
	}
}
