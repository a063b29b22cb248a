package pipeline

import (
	"fmt"

	"github.com/sarchlab/legsim/emu"
)

// StageView is a read-only view of one stage for front ends.
type StageView struct {
	Stage Stage
	Valid bool
	PC    uint32
	Word  uint32
	// Text is the disassembly, or "-" for an empty stage.
	Text string
}

// Snapshot is a read-only copy of the pipeline state after a step.
type Snapshot struct {
	Step      uint64
	Cycles    uint64
	Registers [emu.NumRegisters]uint32
	Stages    [NumStages]StageView
}

// Snapshot returns the current pipeline state.
func (p *Pipeline) Snapshot() Snapshot {
	snap := Snapshot{
		Step:      p.stats.Steps,
		Cycles:    p.stats.Cycles,
		Registers: p.regFile.Snapshot(),
	}

	fetch := StageView{Stage: StageFetch, Text: "-"}
	if p.ifid.Valid {
		fetch.Valid = true
		fetch.PC = p.ifid.PC
		fetch.Word = p.ifid.InstructionWord
		fetch.Text = fmt.Sprintf("0x%08X", p.ifid.InstructionWord)
	}
	snap.Stages[StageFetch] = fetch

	for stage, reg := range map[Stage]*InstRegister{
		StageDecode:    &p.idex,
		StageExecute:   &p.exmem,
		StageMemory:    &p.memwb,
		StageWriteback: &p.wb,
	} {
		snap.Stages[stage] = viewOf(stage, reg)
	}

	return snap
}

func viewOf(stage Stage, reg *InstRegister) StageView {
	v := StageView{Stage: stage, Text: "-"}
	if !reg.Valid {
		return v
	}

	v.Valid = true
	v.PC = reg.Flight.PC
	v.Word = reg.Flight.Inst.Word
	v.Text = reg.Flight.Inst.String()
	return v
}

// String renders one line per stage.
func (s Snapshot) String() string {
	out := fmt.Sprintf("step %d, %d cycles\n", s.Step, s.Cycles)
	for _, v := range s.Stages {
		if v.Valid {
			out += fmt.Sprintf("  %-9s %4d  %s\n", v.Stage, v.PC, v.Text)
		} else {
			out += fmt.Sprintf("  %-9s    -\n", v.Stage)
		}
	}
	return out
}
