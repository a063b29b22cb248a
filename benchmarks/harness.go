package benchmarks

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/legsim/emu"
	"github.com/sarchlab/legsim/timing/cache"
	"github.com/sarchlab/legsim/timing/core"
	"github.com/sarchlab/legsim/timing/latency"
)

// DefaultMaxSteps bounds every benchmark run.
const DefaultMaxSteps = 1_000_000

// ctxCheckInterval is how many steps run between context checks.
const ctxCheckInterval = 1024

// Config is a named timing configuration.
type Config struct {
	Name   string
	Timing *latency.TimingConfig
}

// DefaultConfigs returns the memory hierarchies swept by default: DRAM
// only, then one, two and three cache levels, and a 4-line L1 that
// thrashes.
func DefaultConfigs() []Config {
	withCaches := func(levels ...cache.Config) *latency.TimingConfig {
		c := latency.DefaultTimingConfig()
		c.Caches = levels
		return c
	}

	return []Config{
		{Name: "dram", Timing: withCaches()},
		{Name: "l1", Timing: withCaches(cache.DefaultL1Config())},
		{Name: "l1-l2", Timing: withCaches(cache.DefaultL1Config(), cache.DefaultL2Config())},
		{Name: "l1-l2-l3", Timing: withCaches(
			cache.DefaultL1Config(), cache.DefaultL2Config(), cache.DefaultL3Config())},
		{Name: "tiny-l1", Timing: withCaches(cache.Config{Lines: 4, Delay: 1})},
	}
}

// Result holds the timing results for a single benchmark run.
type Result struct {
	// Benchmark and Config name the pair that was run.
	Benchmark string `json:"benchmark"`
	Config    string `json:"config"`

	// Steps is the number of pipeline steps until the halt.
	Steps uint64 `json:"steps"`

	// SimulatedCycles is the pipeline latency plus the final flush.
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is pipeline cycles per instruction
	CPI float64 `json:"cpi"`

	// DataHazards is the number of RAW hazards observed
	DataHazards uint64 `json:"data_hazards"`

	// TakenJumps counts jumps, interrupts and returns that changed the PC
	TakenJumps uint64 `json:"taken_jumps"`

	// Caches holds per-level statistics, L1 first
	Caches []cache.Statistics `json:"caches,omitempty"`

	// Mismatch describes registers or memory that differ from the
	// expected values. Empty means the benchmark passed.
	Mismatch string `json:"mismatch,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Passed returns true if the final state matched the expectations.
func (r Result) Passed() bool {
	return r.Mismatch == ""
}

// Run executes bench on a fresh core built from config. A failing
// expectation is reported in Result.Mismatch; errors are reserved for runs
// that could not complete.
func Run(ctx context.Context, bench Benchmark, config Config) (Result, error) {
	c, err := core.NewCore(config.Timing)
	if err != nil {
		return Result{}, fmt.Errorf("%s/%s: %w", bench.Name, config.Name, err)
	}

	if bench.Setup != nil {
		bench.Setup(c.RegFile(), c.DRAM())
	}
	c.LoadImage(bench.Words())

	start := time.Now()
	for steps := 0; ; steps++ {
		if steps%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}

		running, err := c.Step()
		if err != nil {
			return Result{}, fmt.Errorf("%s/%s: %w", bench.Name, config.Name, err)
		}
		if !running {
			break
		}
		if c.Stats().Pipeline.Steps >= DefaultMaxSteps {
			return Result{}, fmt.Errorf("%s/%s: no halt after %d steps",
				bench.Name, config.Name, DefaultMaxSteps)
		}
	}

	if _, err := c.Flush(); err != nil {
		return Result{}, fmt.Errorf("%s/%s: %w", bench.Name, config.Name, err)
	}
	wallTime := time.Since(start)

	stats := c.Stats()
	return Result{
		Benchmark:           bench.Name,
		Config:              config.Name,
		Steps:               stats.Pipeline.Steps,
		SimulatedCycles:     stats.Cycles(),
		InstructionsRetired: stats.Pipeline.Instructions,
		CPI:                 stats.Pipeline.CPI(),
		DataHazards:         stats.Pipeline.DataHazards,
		TakenJumps:          stats.Pipeline.TakenJumps,
		Caches:              stats.Caches,
		Mismatch:            Verify(bench, c.RegFile(), c.DRAM()),
		WallTime:            wallTime,
	}, nil
}

// Verify compares the final state with the benchmark's expectations and
// returns a diff, or "" when everything matches.
func Verify(bench Benchmark, regFile *emu.RegFile, mem emu.Inspector) string {
	var diff string

	if len(bench.ExpectedRegs) > 0 {
		gotRegs := make(map[uint8]uint32, len(bench.ExpectedRegs))
		for r := range bench.ExpectedRegs {
			gotRegs[r] = regFile.Read(r)
		}
		diff += cmp.Diff(bench.ExpectedRegs, gotRegs, cmp.Transformer("regs", regNames))
	}

	if len(bench.ExpectedMem) > 0 {
		contents := mem.Inspect()
		gotMem := make(map[uint32]uint32, len(bench.ExpectedMem))
		for addr := range bench.ExpectedMem {
			gotMem[addr] = contents[addr]
		}
		diff += cmp.Diff(bench.ExpectedMem, gotMem)
	}

	return diff
}

func regNames(m map[uint8]uint32) map[string]uint32 {
	out := make(map[string]uint32, len(m))
	for r, v := range m {
		out[emu.RegName(r)] = v
	}
	return out
}

// Sweep runs every benchmark under every configuration with at most
// parallel runs in flight (0 means unbounded). Results are ordered by
// benchmark, then by configuration, matching the input order.
func Sweep(ctx context.Context, benches []Benchmark, configs []Config, parallel int) ([]Result, error) {
	results := make([]Result, len(benches)*len(configs))

	g, ctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}

	for i, bench := range benches {
		for j, config := range configs {
			g.Go(func() error {
				r, err := Run(ctx, bench, config)
				if err != nil {
					return err
				}
				results[i*len(configs)+j] = r
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// PrintResults outputs results as a table with one row per run.
func PrintResults(w io.Writer, results []Result) {
	_, _ = fmt.Fprintf(w, "%-24s %-10s %8s %10s %6s %9s %7s %s\n",
		"benchmark", "config", "insts", "cycles", "steps", "cpi", "hazards", "status")

	for _, r := range results {
		status := "ok"
		if !r.Passed() {
			status = "MISMATCH"
		}
		_, _ = fmt.Fprintf(w, "%-24s %-10s %8d %10d %6d %9.3f %7d %s\n",
			r.Benchmark, r.Config, r.InstructionsRetired, r.SimulatedCycles,
			r.Steps, r.CPI, r.DataHazards, status)
	}
}

// PrintCSV outputs results in CSV format for easy comparison. Cache hits
// and misses are summed over all levels.
func PrintCSV(w io.Writer, results []Result) {
	_, _ = fmt.Fprintln(w,
		"benchmark,config,cycles,instructions,cpi,steps,data_hazards,taken_jumps,cache_hits,cache_misses,passed")

	for _, r := range results {
		var hits, misses uint64
		for _, s := range r.Caches {
			hits += s.Hits
			misses += s.Misses
		}
		_, _ = fmt.Fprintf(w, "%s,%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%t\n",
			r.Benchmark,
			r.Config,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.Steps,
			r.DataHazards,
			r.TakenJumps,
			hits,
			misses,
			r.Passed(),
		)
	}
}

// ConfigNames lists the distinct configuration names of results in first
// appearance order.
func ConfigNames(results []Result) []string {
	seen := map[string]bool{}
	var names []string
	for _, r := range results {
		if !seen[r.Config] {
			seen[r.Config] = true
			names = append(names, r.Config)
		}
	}
	return names
}

// Failed returns the names of benchmark/config pairs that did not pass,
// sorted.
func Failed(results []Result) []string {
	failed := map[string]bool{}
	for _, r := range results {
		if !r.Passed() {
			failed[r.Benchmark+"/"+r.Config] = true
		}
	}
	return slices.Sorted(maps.Keys(failed))
}
