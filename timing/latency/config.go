package latency

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/sarchlab/legsim/timing/cache"
)

// TimingConfig holds the latency parameters of a simulated machine: the
// execute latency of each operation class and the shape of the memory
// hierarchy.
type TimingConfig struct {
	// ALULatency is the execute latency of add, sub, move, compare, shift
	// and logic operations. Default: 0 cycles.
	ALULatency uint64 `json:"alu_latency" yaml:"alu_latency"`

	// MultiplyLatency is the execute latency of MULU and MULS.
	// Default: 2 cycles.
	MultiplyLatency uint64 `json:"multiply_latency" yaml:"multiply_latency"`

	// DivideLatency is the execute latency of DIVU and DIVS.
	// Default: 10 cycles.
	DivideLatency uint64 `json:"divide_latency" yaml:"divide_latency"`

	// BranchLatency is the execute latency of jumps. Default: 0 cycles.
	BranchLatency uint64 `json:"branch_latency" yaml:"branch_latency"`

	// InterruptLatency is the execute latency of SIH, INT and RFI.
	// Default: 0 cycles.
	InterruptLatency uint64 `json:"interrupt_latency" yaml:"interrupt_latency"`

	// DRAMDelay is the main memory access latency. Default: 100 cycles.
	DRAMDelay uint64 `json:"dram_delay" yaml:"dram_delay"`

	// Caches lists the cache levels, closest to the CPU first.
	// Default: a single 1024-line cache with a 1-cycle delay.
	Caches []cache.Config `json:"caches" yaml:"caches"`
}

// DefaultTimingConfig returns a TimingConfig with default values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		ALULatency:       0,
		MultiplyLatency:  2,
		DivideLatency:    10,
		BranchLatency:    0,
		InterruptLatency: 0,
		DRAMDelay:        100,
		Caches:           []cache.Config{cache.DefaultL1Config()},
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadConfig loads a TimingConfig from a JSON or YAML file, chosen by
// extension. Fields missing from the file keep their default values.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON or YAML file, chosen by
// extension.
func (c *TimingConfig) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that the memory hierarchy can be built. Zero latencies
// are allowed.
func (c *TimingConfig) Validate() error {
	if len(c.Caches) > cache.MaxLevels {
		return fmt.Errorf("caches: at most %d levels, got %d", cache.MaxLevels, len(c.Caches))
	}
	for i, level := range c.Caches {
		if err := level.Validate(); err != nil {
			return fmt.Errorf("caches[%d]: %w", i, err)
		}
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	clone.Caches = slices.Clone(c.Caches)
	return &clone
}

// String summarizes the memory hierarchy, e.g. "L1:1024/1 DRAM:100".
func (c *TimingConfig) String() string {
	var parts []string
	for i, level := range c.Caches {
		parts = append(parts, fmt.Sprintf("L%d:%d/%d", i+1, level.Lines, level.Delay))
	}
	parts = append(parts, fmt.Sprintf("DRAM:%d", c.DRAMDelay))
	return strings.Join(parts, " ")
}
