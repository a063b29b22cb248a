// Package report renders simulation results: text summaries and plots of
// simulated latency.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/xid"

	"github.com/sarchlab/legsim/timing/cache"
)

// Summary describes one simulation run.
type Summary struct {
	// ID identifies the run in logs and output file names.
	ID xid.ID

	Image  string
	Mode   string
	Config string

	Steps        uint64
	Cycles       uint64
	Instructions uint64
	DataHazards  uint64
	TakenJumps   uint64

	// Caches holds per-level statistics, L1 first.
	Caches []cache.Statistics

	WallTime time.Duration
	Err      error
}

// NewSummary starts a summary with a fresh run ID.
func NewSummary(image, mode, config string) *Summary {
	return &Summary{
		ID:     xid.New(),
		Image:  image,
		Mode:   mode,
		Config: config,
	}
}

// CPI returns cycles per retired instruction.
func (s *Summary) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Write prints the summary in a human-readable format.
func (s *Summary) Write(w io.Writer) {
	_, _ = fmt.Fprintf(w, "Run:          %s\n", s.ID)
	_, _ = fmt.Fprintf(w, "Image:        %s\n", s.Image)
	_, _ = fmt.Fprintf(w, "Mode:         %s\n", s.Mode)
	if s.Config != "" {
		_, _ = fmt.Fprintf(w, "Memory:       %s\n", s.Config)
	}

	if s.Err != nil {
		_, _ = fmt.Fprintf(w, "Error:        %v\n", s.Err)
	}

	_, _ = fmt.Fprintln(w, "--- Timing ---")
	if s.Steps > 0 {
		_, _ = fmt.Fprintf(w, "Steps:        %d\n", s.Steps)
	}
	_, _ = fmt.Fprintf(w, "Cycles:       %d\n", s.Cycles)
	_, _ = fmt.Fprintf(w, "Instructions: %d\n", s.Instructions)
	_, _ = fmt.Fprintf(w, "CPI:          %.3f\n", s.CPI())
	if s.Mode == "pipeline" {
		_, _ = fmt.Fprintf(w, "Data hazards: %d\n", s.DataHazards)
		_, _ = fmt.Fprintf(w, "Taken jumps:  %d\n", s.TakenJumps)
	}

	for i, c := range s.Caches {
		_, _ = fmt.Fprintf(w, "--- L%d ---\n", i+1)
		_, _ = fmt.Fprintf(w, "Hits:         %d\n", c.Hits)
		_, _ = fmt.Fprintf(w, "Misses:       %d\n", c.Misses)
		_, _ = fmt.Fprintf(w, "Hit rate:     %.1f%%\n", 100*c.HitRate())
		_, _ = fmt.Fprintf(w, "Writebacks:   %d\n", c.Writebacks)
	}

	_, _ = fmt.Fprintf(w, "Wall time:    %v\n", s.WallTime)
}

// WriteMemory prints the non-zero words of contents in address order.
func WriteMemory(w io.Writer, contents map[uint32]uint32) {
	for _, addr := range sortedAddrs(contents) {
		if v := contents[addr]; v != 0 {
			_, _ = fmt.Fprintf(w, "0x%08X: 0x%08X (%d)\n", addr, v, v)
		}
	}
}
