// Command benchmark runs the LEG microbenchmarks under a set of memory
// hierarchies and reports cycles and CPI for every pair.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv        Output results in CSV format (default: human-readable)
//	-json       Output results as JSON
//	-core       Run only the core benchmarks
//	-config     Add a timing configuration file to the sweep
//	-parallel   Number of runs in flight (default: number of CPUs)
//	-plot       Save a bar chart of simulated cycles
//
// Example:
//
//	# Run all benchmarks with human-readable output
//	go run ./cmd/benchmark
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -csv > results.csv
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sarchlab/legsim/benchmarks"
	"github.com/sarchlab/legsim/report"
	"github.com/sarchlab/legsim/timing/latency"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("benchmark", flag.ContinueOnError)
	fs.SetOutput(stderr)
	csvOutput := fs.Bool("csv", false, "Output results in CSV format")
	jsonOutput := fs.Bool("json", false, "Output results as JSON")
	coreOnly := fs.Bool("core", false, "Run only the core benchmarks")
	configPath := fs.String("config", "", "Add a timing configuration file to the sweep")
	parallel := fs.Int("parallel", runtime.NumCPU(), "Number of runs in flight")
	plotPath := fs.String("plot", "", "Save a bar chart of simulated cycles")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	benches := benchmarks.GetMicrobenchmarks()
	if *coreOnly {
		benches = benchmarks.GetCoreBenchmarks()
	}

	configs := benchmarks.DefaultConfigs()
	if *configPath != "" {
		tc, err := latency.LoadConfig(*configPath)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error loading timing config: %v\n", err)
			return 1
		}
		name := strings.TrimSuffix(filepath.Base(*configPath), filepath.Ext(*configPath))
		configs = append(configs, benchmarks.Config{Name: name, Timing: tc})
	}

	results, err := benchmarks.Sweep(ctx, benches, configs, *parallel)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	switch {
	case *jsonOutput:
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	case *csvOutput:
		benchmarks.PrintCSV(stdout, results)
	default:
		_, _ = fmt.Fprintln(stdout, "LEGSim Benchmark Sweep")
		_, _ = fmt.Fprintln(stdout, "======================")
		for _, c := range configs {
			_, _ = fmt.Fprintf(stdout, "%-10s %s\n", c.Name, c.Timing)
		}
		_, _ = fmt.Fprintln(stdout, "")
		benchmarks.PrintResults(stdout, results)
	}

	if *plotPath != "" {
		if err := plotCycles(results, benches, *plotPath); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	if failed := benchmarks.Failed(results); len(failed) > 0 {
		for _, name := range failed {
			_, _ = fmt.Fprintf(stderr, "FAIL %s\n", name)
		}
		return 1
	}
	return 0
}

// plotCycles draws one bar group per benchmark with one bar per config.
func plotCycles(results []benchmarks.Result, benches []benchmarks.Benchmark, path string) error {
	labels := make([]string, len(benches))
	for i, b := range benches {
		labels[i] = b.Name
	}

	names := benchmarks.ConfigNames(results)
	series := make([]report.Series, len(names))
	for j, name := range names {
		series[j] = report.Series{Name: name, Values: make([]float64, len(benches))}
	}
	for i, r := range results {
		series[i%len(names)].Values[i/len(names)] = float64(r.SimulatedCycles)
	}

	return report.PlotBars("Simulated cycles", "cycles", labels, series, path)
}
