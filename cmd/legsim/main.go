// Package main provides the entry point for LEGSim, a cycle-level
// simulator of the LEG pipelined CPU.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/sarchlab/legsim/emu"
	"github.com/sarchlab/legsim/loader"
	"github.com/sarchlab/legsim/report"
	"github.com/sarchlab/legsim/timing/core"
	"github.com/sarchlab/legsim/timing/latency"
	"github.com/sarchlab/legsim/timing/pipeline"
)

const (
	modePipeline   = "pipeline"
	modeFunctional = "functional"
)

type options struct {
	configPath  string
	writeConfig string
	mode        string
	verbosity   int
	maxSteps    uint64
	sp          uint64
	plotPath    string
	dump        bool
	statsview   string
	imagePath   string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{}

	fs := flag.NewFlagSet("legsim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "Path to timing configuration file (.json, .yaml or .yml)")
	fs.StringVar(&o.writeConfig, "write-config", "", "Write the effective timing configuration to this path")
	fs.StringVar(&o.mode, "mode", modePipeline, "Simulation mode: pipeline or functional")
	fs.IntVar(&o.verbosity, "v", 0, "Log verbosity: 1 hazards and halts, 2 every step")
	fs.Uint64Var(&o.maxSteps, "max-steps", 10_000_000, "Stop after this many steps (0 = unlimited)")
	fs.Uint64Var(&o.sp, "sp", 0, "Initial stack pointer")
	fs.StringVar(&o.plotPath, "plot", "", "Save a plot of cumulative cycles per step (pipeline mode)")
	fs.BoolVar(&o.dump, "dump", false, "Flush caches and print non-zero DRAM words after the run")
	fs.StringVar(&o.statsview, "statsview", "", "Serve live runtime statistics on this address, e.g. localhost:18066")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: legsim [options] <image.bin>\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, errors.New("expected exactly one image path")
	}
	if o.mode != modePipeline && o.mode != modeFunctional {
		return nil, fmt.Errorf("unknown mode %q", o.mode)
	}
	if o.sp > 0xFFFFFFFF {
		return nil, fmt.Errorf("stack pointer 0x%X does not fit in 32 bits", o.sp)
	}

	o.imagePath = fs.Arg(0)
	return o, nil
}

// run executes the CLI and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if o.statsview != "" {
		viewer.SetConfiguration(viewer.WithAddr(o.statsview))
		mgr := statsview.New()
		go mgr.Start()
		defer mgr.Stop()
		_, _ = fmt.Fprintf(stderr, "stats server available at http://%s/debug/statsview\n", o.statsview)
	}

	timingConfig := latency.DefaultTimingConfig()
	if o.configPath != "" {
		timingConfig, err = latency.LoadConfig(o.configPath)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error loading timing config: %v\n", err)
			return 1
		}
	}
	if o.writeConfig != "" {
		if err := timingConfig.SaveConfig(o.writeConfig); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error writing timing config: %v\n", err)
			return 1
		}
	}

	img, err := loader.Load(o.imagePath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error loading image: %v\n", err)
		return 1
	}

	log := newLogger(stderr, o.verbosity)

	coreOpts := []core.Option{
		core.WithLogger(log),
		core.WithMaxSteps(o.maxSteps),
		core.WithStackPointer(uint32(o.sp)),
	}
	var trace *report.Trace
	if o.plotPath != "" {
		trace = &report.Trace{}
		coreOpts = append(coreOpts, core.WithStepHook(func(s pipeline.Statistics) {
			trace.Record(s.Cycles)
		}))
	}

	c, err := core.NewCore(timingConfig, coreOpts...)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	c.LoadImage(img.Words)

	summary := report.NewSummary(o.imagePath, o.mode, timingConfig.String())
	log.V(1).Info("run started", "id", summary.ID.String(), "words", len(img.Words))

	start := time.Now()
	switch o.mode {
	case modeFunctional:
		summary.Err = runFunctional(c, o, summary)
	default:
		summary.Err = runPipeline(c, o, trace, summary)
	}
	summary.WallTime = time.Since(start)

	if o.dump {
		cycles, err := c.Flush()
		if err != nil && summary.Err == nil {
			summary.Err = err
		}
		summary.Cycles += cycles
	}

	summary.Write(stdout)
	if o.verbosity > 0 {
		_, _ = fmt.Fprintf(stdout, "--- Registers ---\n%s\n", c.RegFile())
	}
	if o.dump {
		_, _ = fmt.Fprintln(stdout, "--- DRAM ---")
		report.WriteMemory(stdout, c.DRAM().Inspect())
	}

	if summary.Err != nil {
		return 1
	}
	return 0
}

func newLogger(w io.Writer, verbosity int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			_, _ = fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		_, _ = fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: verbosity})
}

func runPipeline(c *core.Core, o *options, trace *report.Trace, summary *report.Summary) error {
	runErr := c.Run()

	stats := c.Stats()
	summary.Steps = stats.Pipeline.Steps
	summary.Cycles = stats.Pipeline.Cycles
	summary.Instructions = stats.Pipeline.Instructions
	summary.DataHazards = stats.Pipeline.DataHazards
	summary.TakenJumps = stats.Pipeline.TakenJumps
	summary.Caches = stats.Caches

	if trace != nil {
		title := fmt.Sprintf("%s (%s)", o.imagePath, summary.ID)
		if err := report.PlotTrace(trace, title, o.plotPath); err != nil && runErr == nil {
			runErr = err
		}
	}

	return runErr
}

// runFunctional executes the image one whole instruction at a time over
// the same memory hierarchy the pipeline would use.
func runFunctional(c *core.Core, o *options, summary *report.Summary) error {
	e := emu.NewEmulator(c.Memory(),
		emu.WithMaxInstructions(o.maxSteps),
		emu.WithStackPointer(uint32(o.sp)),
	)

	err := e.Run()

	// Keep the core's register file in sync for the register dump.
	*c.RegFile() = *e.RegFile()

	stats := c.Stats()
	summary.Cycles = e.Cycles()
	summary.Instructions = e.InstructionCount()
	summary.Caches = stats.Caches

	return err
}
