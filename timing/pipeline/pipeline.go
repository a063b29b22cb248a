package pipeline

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/sarchlab/legsim/emu"
	"github.com/sarchlab/legsim/insts"
	"github.com/sarchlab/legsim/timing/latency"
)

// ErrStepLimit is returned by Run when the step limit is reached before
// the program halts.
var ErrStepLimit = errors.New("step limit reached")

// StepError reports a stage failure. The pipeline stops advancing after it.
type StepError struct {
	Stage Stage
	PC    uint32
	Word  uint32
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%v stage failed at PC=0x%X (word 0x%08X): %v",
		e.Stage, e.PC, e.Word, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Steps is the number of Step calls that advanced the pipeline.
	Steps uint64
	// Cycles is the total latency reported by every stage.
	Cycles uint64
	// StageCycles breaks Cycles down by stage.
	StageCycles [NumStages]uint64
	// LoadCycles and StoreCycles split the memory stage by access kind.
	LoadCycles  uint64
	StoreCycles uint64
	// Instructions is the number of instructions completed (retired).
	Instructions uint64
	// DataHazards is the number of RAW data hazards detected.
	DataHazards uint64
	// Jumps counts retired jumps, interrupts and returns, taken or not.
	Jumps uint64
	// TakenJumps counts jumps, interrupts and returns that changed the PC.
	TakenJumps uint64
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithLatencyTable sets a custom latency table for execute-stage timing.
func WithLatencyTable(table *latency.Table) PipelineOption {
	return func(p *Pipeline) {
		p.latencyTable = table
	}
}

// WithLogger sets the logger used for hazard and per-step trace output.
// Verbosity 1 logs hazards and halts, verbosity 2 logs every step.
func WithLogger(log logr.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.log = log
	}
}

// WithMaxSteps bounds Run. A value of 0 means no limit.
func WithMaxSteps(n uint64) PipelineOption {
	return func(p *Pipeline) {
		p.maxSteps = n
	}
}

// WithStepHook calls hook with the statistics after every step that
// completes without error.
func WithStepHook(hook func(Statistics)) PipelineOption {
	return func(p *Pipeline) {
		p.stepHook = hook
	}
}

// Pipeline implements the 5-stage LEG control unit.
// Stages: Fetch (IF) -> Decode (ID) -> Execute (EX) -> Memory (MEM) -> Writeback (WB)
//
// Every Step advances every stage by one slot. Latency reported by a stage
// is accumulated into the statistics but never holds an instruction back,
// and there is no forwarding, so a reader placed fewer than three slots
// after its producer observes the old register value.
type Pipeline struct {
	// Pipeline registers. Each holds the instruction that completed the
	// named stage during the last step.
	ifid  IFIDRegister
	idex  InstRegister
	exmem InstRegister
	memwb InstRegister
	wb    InstRegister

	decoder      *insts.Decoder
	hazardUnit   *HazardUnit
	latencyTable *latency.Table

	// Shared resources
	regFile *emu.RegFile
	memory  emu.Memory

	log      logr.Logger
	maxSteps uint64
	stepHook func(Statistics)

	stats Statistics

	// Execution state
	halted bool
	err    error
}

// NewPipeline creates a new 5-stage pipeline addressing memory, which is
// the head of the memory chain.
func NewPipeline(regFile *emu.RegFile, memory emu.Memory, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		decoder:    insts.NewDecoder(),
		hazardUnit: NewHazardUnit(),
		regFile:    regFile,
		memory:     memory,
		log:        logr.Discard(),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.latencyTable == nil {
		p.latencyTable = latency.NewTable()
	}

	return p
}

// PC returns the current program counter.
func (p *Pipeline) PC() uint32 {
	return p.regFile.Read(emu.PC)
}

// SetPC sets the program counter.
func (p *Pipeline) SetPC(pc uint32) {
	p.regFile.Write(emu.PC, pc)
}

// RegFile returns the register file.
func (p *Pipeline) RegFile() *emu.RegFile {
	return p.regFile
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// Halted returns true if the pipeline has drained after the halt sentinel.
func (p *Pipeline) Halted() bool {
	return p.halted
}

// Err returns the error that stopped the pipeline, if any.
func (p *Pipeline) Err() error {
	return p.err
}

// Run steps the pipeline until it halts or fails.
func (p *Pipeline) Run() error {
	for {
		if p.maxSteps > 0 && p.stats.Steps >= p.maxSteps {
			return fmt.Errorf("%w after %d steps", ErrStepLimit, p.stats.Steps)
		}

		running, err := p.Step()
		if err != nil {
			return err
		}
		if !running {
			return nil
		}
	}
}

// RunSteps executes up to n steps. Returns true if still running.
func (p *Pipeline) RunSteps(n uint64) (bool, error) {
	for i := uint64(0); i < n; i++ {
		running, err := p.Step()
		if err != nil || !running {
			return false, err
		}
	}
	return !p.halted, nil
}

// Step advances the pipeline by one slot and reports whether any
// instruction is still in flight.
//
// Stages are evaluated in reverse order (WB→MEM→EX→ID→IF) so a stage never
// consumes a value produced in the same step. A stage error aborts the step
// with the stages already processed left committed; the error is returned
// again by every later call.
func (p *Pipeline) Step() (bool, error) {
	if p.err != nil {
		return false, p.err
	}
	if p.halted {
		return false, nil
	}

	p.stats.Steps++

	stages := []func() error{
		p.doWriteback,
		p.doMemory,
		p.doExecute,
		p.doDecode,
		p.doFetch,
	}
	for _, stage := range stages {
		if err := stage(); err != nil {
			p.err = err
			p.log.Error(err, "pipeline stopped", "step", p.stats.Steps)
			return false, err
		}
	}

	p.SetPC(p.PC() + 1)

	p.traceStep()
	if p.stepHook != nil {
		p.stepHook(p.stats)
	}

	running := p.ifid.Valid || p.idex.Valid || p.exmem.Valid || p.memwb.Valid || p.wb.Valid
	if !running {
		p.halted = true
		p.log.V(1).Info("halted",
			"steps", p.stats.Steps,
			"cycles", p.stats.Cycles,
			"instructions", p.stats.Instructions)
	}

	return running, nil
}

func (p *Pipeline) charge(stage Stage, cycles uint64) {
	p.stats.StageCycles[stage] += cycles
	p.stats.Cycles += cycles
}

func (p *Pipeline) stageError(stage Stage, f *emu.InFlight, err error) error {
	return &StepError{Stage: stage, PC: f.PC, Word: f.Inst.Word, Err: err}
}

func (p *Pipeline) doWriteback() error {
	if !p.memwb.Valid {
		p.wb.Clear()
		return nil
	}

	f := p.memwb.Flight
	s := f.WriteBack(p.regFile)
	if s.Failed() {
		return p.stageError(StageWriteback, f, s.Err)
	}

	p.charge(StageWriteback, s.Cycles)
	p.stats.Instructions++
	if p.latencyTable.IsBranchOp(f.Inst) {
		p.stats.Jumps++
	}
	if f.Taken {
		p.stats.TakenJumps++
	}

	p.wb.Load(f, s.Cycles)
	return nil
}

func (p *Pipeline) doMemory() error {
	if !p.exmem.Valid {
		p.memwb.Clear()
		return nil
	}

	f := p.exmem.Flight
	s := f.AccessMemory(p.memory)
	if s.Failed() {
		return p.stageError(StageMemory, f, s.Err)
	}

	p.charge(StageMemory, s.Cycles)
	switch {
	case p.latencyTable.IsLoadOp(f.Inst):
		p.stats.LoadCycles += s.Cycles
	case p.latencyTable.IsStoreOp(f.Inst):
		p.stats.StoreCycles += s.Cycles
	}
	p.memwb.Load(f, s.Cycles)
	return nil
}

func (p *Pipeline) doExecute() error {
	if !p.idex.Valid {
		p.exmem.Clear()
		return nil
	}

	f := p.idex.Flight
	s := f.Execute()
	if s.Failed() {
		return p.stageError(StageExecute, f, s.Err)
	}

	cycles := s.Cycles + p.latencyTable.GetLatency(f.Inst)
	p.charge(StageExecute, cycles)
	p.exmem.Load(f, cycles)
	return nil
}

func (p *Pipeline) doDecode() error {
	if !p.ifid.Valid {
		p.idex.Clear()
		return nil
	}

	pc, word := p.ifid.PC, p.ifid.InstructionWord

	inst, err := p.decoder.Decode(word)
	if err != nil {
		return &StepError{Stage: StageDecode, PC: pc, Word: word, Err: err}
	}

	f := emu.NewInFlight(inst, pc)

	// exmem and memwb were refilled earlier in this step and hold the two
	// instructions that have not written back yet.
	for _, h := range p.hazardUnit.Detect(f, &p.exmem, &p.memwb) {
		p.stats.DataHazards++
		p.log.V(1).Info("data hazard",
			"pc", h.PC,
			"reg", emu.RegName(h.Reg),
			"producer", h.ProducerPC)
	}

	s := f.Decode(p.regFile)
	if s.Failed() {
		return p.stageError(StageDecode, f, s.Err)
	}

	p.charge(StageDecode, s.Cycles)
	p.idex.Load(f, s.Cycles)
	return nil
}

func (p *Pipeline) doFetch() error {
	pc := p.PC()

	r := p.memory.Get(pc)
	if r.Failed() {
		return &StepError{Stage: StageFetch, PC: pc, Err: r.Err}
	}

	p.charge(StageFetch, r.Cycles)

	if r.Value == 0 {
		p.ifid.Clear()
		return nil
	}

	p.ifid.Valid = true
	p.ifid.PC = pc
	p.ifid.InstructionWord = r.Value
	return nil
}

func (p *Pipeline) traceStep() {
	log := p.log.V(2)
	if !log.Enabled() {
		return
	}

	snap := p.Snapshot()
	kv := []any{"step", snap.Step, "cycles", snap.Cycles}
	for _, v := range snap.Stages {
		kv = append(kv, v.Stage.String(), v.Text)
	}
	log.Info("step", kv...)
}

// Reset empties every stage and clears statistics, halt and error state.
// Registers and memory are left untouched.
func (p *Pipeline) Reset() {
	p.ifid.Clear()
	p.idex.Clear()
	p.exmem.Clear()
	p.memwb.Clear()
	p.wb.Clear()
	p.stats = Statistics{}
	p.halted = false
	p.err = nil
}
