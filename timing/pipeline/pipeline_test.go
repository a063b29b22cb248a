package pipeline_test

import (
	"errors"
	"strings"

	"github.com/go-logr/logr/funcr"
	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/legsim/emu"
	"github.com/sarchlab/legsim/insts"
	"github.com/sarchlab/legsim/timing/latency"
	"github.com/sarchlab/legsim/timing/pipeline"
)

func encode(prog ...*insts.Instruction) []uint32 {
	words := make([]uint32, len(prog))
	for i, inst := range prog {
		words[i] = insts.MustEncode(inst)
	}
	return words
}

// padded inserts two NOPs after every instruction so no instruction reads
// a register before its producer has written back.
func padded(prog ...*insts.Instruction) []*insts.Instruction {
	var out []*insts.Instruction
	for _, inst := range prog {
		out = append(out, inst, insts.Nop(), insts.Nop())
	}
	return out
}

var _ = Describe("Pipeline", func() {
	var (
		regFile *emu.RegFile
		dram    *emu.DRAM
		pipe    *pipeline.Pipeline
	)

	BeforeEach(func() {
		regFile = &emu.RegFile{}
		dram = emu.NewDRAM(100)
		pipe = pipeline.NewPipeline(regFile, dram)
	})

	Describe("SetPC / PC", func() {
		It("should read and write the PC register", func() {
			pipe.SetPC(0x40)

			Expect(pipe.PC()).To(Equal(uint32(0x40)))
			Expect(regFile.Read(emu.PC)).To(Equal(uint32(0x40)))
		})
	})

	Describe("Step", func() {
		It("should load through the pipeline in five steps", func() {
			dram.Load([]uint32{0x00050420}) // LDR R1, [R10]
			dram.Set(10, 43)
			regFile.Write(10, 10)

			for i := 1; i <= 4; i++ {
				running, err := pipe.Step()
				Expect(err).NotTo(HaveOccurred())
				Expect(running).To(BeTrue(), "step %d", i)
			}
			Expect(regFile.Read(1)).To(BeZero())

			running, err := pipe.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(running).To(BeTrue())
			Expect(regFile.Read(1)).To(Equal(uint32(43)))

			running, err = pipe.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(running).To(BeFalse())
			Expect(pipe.Halted()).To(BeTrue())
		})

		It("should load PC-relative data", func() {
			dram.Load(encode(insts.LoadRel(1, 9)))
			dram.Set(10, 43)

			Expect(pipe.Run()).To(Succeed())

			Expect(regFile.Read(1)).To(Equal(uint32(43)))
			Expect(pipe.Stats().Steps).To(Equal(uint64(6)))
		})

		It("should stop immediately on an empty program", func() {
			running, err := pipe.Step()

			Expect(err).NotTo(HaveOccurred())
			Expect(running).To(BeFalse())
		})

		It("should stay halted without fetching", func() {
			pipe.Step()
			dram.Load(encode(insts.Nop()))

			running, err := pipe.Step()

			Expect(err).NotTo(HaveOccurred())
			Expect(running).To(BeFalse())
			Expect(pipe.Stats().Steps).To(Equal(uint64(1)))
		})

		It("should advance the PC every step", func() {
			dram.Load(encode(insts.Nop(), insts.Nop()))

			pipe.Step()
			pipe.Step()

			Expect(pipe.PC()).To(Equal(uint32(2)))
		})
	})

	Describe("Statistics", func() {
		It("should sum the latency of every stage", func() {
			dram.Load([]uint32{0x00050420})
			dram.Set(10, 43)
			regFile.Write(10, 10)

			Expect(pipe.Run()).To(Succeed())

			stats := pipe.Stats()
			Expect(stats.StageCycles[pipeline.StageFetch]).To(Equal(uint64(600)))
			Expect(stats.StageCycles[pipeline.StageMemory]).To(Equal(uint64(100)))
			Expect(stats.LoadCycles).To(Equal(uint64(100)))
			Expect(stats.StoreCycles).To(BeZero())
			Expect(stats.Cycles).To(Equal(uint64(700)))
			Expect(stats.Instructions).To(Equal(uint64(1)))
			Expect(stats.CPI()).To(Equal(700.0))
		})

		It("should add execute latency from the latency table", func() {
			config := latency.DefaultTimingConfig()
			config.DivideLatency = 25
			dram = emu.NewDRAM(0)
			pipe = pipeline.NewPipeline(regFile, dram,
				pipeline.WithLatencyTable(latency.NewTableWithConfig(config)))
			regFile.Write(2, 10)
			regFile.Write(3, 2)
			dram.Load(encode(insts.Reg3(insts.OpDIVU, 1, 2, 3)))

			Expect(pipe.Run()).To(Succeed())

			Expect(regFile.Read(1)).To(Equal(uint32(5)))
			Expect(pipe.Stats().StageCycles[pipeline.StageExecute]).To(Equal(uint64(25)))
		})

		It("should report zero CPI before anything retires", func() {
			Expect(pipeline.Statistics{Cycles: 5}.CPI()).To(BeZero())
		})
	})

	Describe("data hazards", func() {
		It("should read the stale value when the producer is adjacent", func() {
			dram.Load(encode(
				insts.Imm3(insts.OpADDU, 1, 0, 5),
				insts.Reg3(insts.OpADDU, 2, 1, 1),
			))

			Expect(pipe.Run()).To(Succeed())

			Expect(regFile.Read(1)).To(Equal(uint32(5)))
			Expect(regFile.Read(2)).To(BeZero())
			Expect(pipe.Stats().DataHazards).To(Equal(uint64(1)))
		})

		It("should read the new value two slots later", func() {
			dram.Load(encode(
				insts.Imm3(insts.OpADDU, 1, 0, 5),
				insts.Nop(),
				insts.Nop(),
				insts.Reg3(insts.OpADDU, 2, 1, 1),
			))

			Expect(pipe.Run()).To(Succeed())

			Expect(regFile.Read(2)).To(Equal(uint32(10)))
			Expect(pipe.Stats().DataHazards).To(BeZero())
		})

		It("should log hazards at verbosity 1", func() {
			var lines []string
			log := funcr.New(func(prefix, args string) {
				lines = append(lines, args)
			}, funcr.Options{Verbosity: 1})
			pipe = pipeline.NewPipeline(regFile, dram, pipeline.WithLogger(log))
			dram.Load(encode(
				insts.Imm3(insts.OpADDU, 1, 0, 5),
				insts.Reg3(insts.OpADDU, 2, 1, 1),
			))

			Expect(pipe.Run()).To(Succeed())

			joined := strings.Join(lines, "\n")
			Expect(joined).To(ContainSubstring(`"msg"="data hazard"`))
			Expect(joined).To(ContainSubstring(`"reg"="R1"`))
			Expect(joined).To(ContainSubstring(`"msg"="halted"`))
		})

		It("should trace every step at verbosity 2", func() {
			var lines []string
			log := funcr.New(func(prefix, args string) {
				lines = append(lines, args)
			}, funcr.Options{Verbosity: 2})
			pipe = pipeline.NewPipeline(regFile, dram, pipeline.WithLogger(log))
			dram.Load(encode(insts.Nop()))

			Expect(pipe.Run()).To(Succeed())

			steps := 0
			for _, l := range lines {
				if strings.Contains(l, `"msg"="step"`) {
					steps++
				}
			}
			Expect(steps).To(Equal(int(pipe.Stats().Steps)))
		})
	})

	Describe("jumps", func() {
		It("should drain the three instructions behind a taken jump", func() {
			dram.Load(encode(
				insts.JumpRel(insts.OpJMP, insts.CondAL, 4),
				insts.Imm3(insts.OpADDU, 1, 0, 1),
				insts.Imm3(insts.OpADDU, 2, 0, 2),
				insts.Imm3(insts.OpADDU, 3, 0, 3),
				insts.Imm3(insts.OpADDU, 4, 0, 4),
				insts.Imm3(insts.OpADDU, 5, 0, 5),
			))

			Expect(pipe.Run()).To(Succeed())

			Expect(regFile.Read(1)).To(Equal(uint32(1)))
			Expect(regFile.Read(3)).To(Equal(uint32(3)))
			Expect(regFile.Read(4)).To(BeZero())
			Expect(regFile.Read(5)).To(Equal(uint32(5)))
			Expect(pipe.Stats().TakenJumps).To(Equal(uint64(1)))
		})

		It("should evaluate the condition against a compare just ahead", func() {
			regFile.Write(1, 3)
			regFile.Write(2, 3)
			dram.Load(encode(
				insts.Compare(insts.OpCMPU, 1, 2),
				insts.JumpRel(insts.OpJMP, insts.CondEQ, 4),
				insts.Nop(),
				insts.Nop(),
				insts.Nop(),
				insts.Imm3(insts.OpADDU, 4, 0, 4),
				insts.Imm3(insts.OpADDU, 5, 0, 5),
			))

			Expect(pipe.Run()).To(Succeed())

			Expect(regFile.Read(4)).To(BeZero())
			Expect(regFile.Read(5)).To(Equal(uint32(5)))
		})

		It("should count a jump whose condition fails without taking it", func() {
			regFile.Write(1, 3)
			regFile.Write(2, 4)
			dram.Load(encode(
				insts.Compare(insts.OpCMPU, 1, 2),
				insts.JumpRel(insts.OpJMP, insts.CondEQ, 4),
				insts.Imm3(insts.OpADDU, 4, 0, 4),
			))

			Expect(pipe.Run()).To(Succeed())

			Expect(regFile.Read(4)).To(Equal(uint32(4)))
			Expect(pipe.Stats().Jumps).To(Equal(uint64(1)))
			Expect(pipe.Stats().TakenJumps).To(BeZero())
		})
	})

	It("should service an interrupt and return", func() {
		prog := make([]*insts.Instruction, 25)
		for i := range prog {
			prog[i] = insts.Nop()
		}
		prog[0] = insts.Imm3(insts.OpADDU, 3, 0, 20)
		prog[3] = insts.SetHandler(3)
		prog[4] = insts.Interrupt(7)
		prog[8] = insts.Imm3(insts.OpADDU, 5, 0, 9)
		prog[20] = insts.Imm3(insts.OpADDU, 4, 0, 1)
		prog[21] = insts.ReturnFromInterrupt()
		words := encode(prog...)
		words[9] = 0
		for i := 10; i < 20; i++ {
			words[i] = 0
		}
		dram.Load(words)

		Expect(pipe.Run()).To(Succeed())

		Expect(regFile.Read(4)).To(Equal(uint32(1)))
		Expect(regFile.Read(5)).To(Equal(uint32(9)))
		Expect(regFile.Read(emu.INTLR)).To(Equal(uint32(5)))
		Expect(dram.Peek(emu.InterruptCodeAddr)).To(Equal(uint32(7)))
	})

	It("should agree with the functional emulator on hazard-free code", func() {
		prog := padded(
			insts.Imm3(insts.OpADDU, 1, 0, 200),
			insts.Imm3(insts.OpADDS, 2, 0, -7),
			insts.Reg3(insts.OpMULS, 3, 1, 2),
			insts.Imm3(insts.OpDIVS, 4, 3, 3),
			insts.ShiftImm(insts.OpASR, 4, 2),
			insts.Not(5, 4),
			insts.Reg3(insts.OpXOR, 6, 5, 1),
			insts.Compare(insts.OpCMPS, 2, 1),
			insts.Imm3(insts.OpADDU, 7, 0, 100),
			insts.Store(6, 7),
			insts.Load(8, 7),
		)
		words := encode(prog...)

		functional := emu.NewDRAM(0)
		functional.Load(words)
		ref := emu.NewEmulator(functional)
		Expect(ref.Run()).To(Succeed())

		dram.Load(words)
		Expect(pipe.Run()).To(Succeed())
		Expect(pipe.Stats().DataHazards).To(BeZero())

		want := ref.RegFile().Snapshot()
		got := regFile.Snapshot()
		want[emu.PC], got[emu.PC] = 0, 0
		Expect(cmp.Diff(want, got)).To(BeEmpty())
		Expect(dram.Peek(100)).To(Equal(functional.Peek(100)))
	})

	Describe("failures", func() {
		It("should stop on a decode error and keep returning it", func() {
			dram.Load([]uint32{0x60})

			_, err := pipe.Step()
			Expect(err).NotTo(HaveOccurred())

			_, err = pipe.Step()
			var stepErr *pipeline.StepError
			Expect(errors.As(err, &stepErr)).To(BeTrue())
			Expect(stepErr.Stage).To(Equal(pipeline.StageDecode))
			Expect(stepErr.Word).To(Equal(uint32(0x60)))

			running, again := pipe.Step()
			Expect(running).To(BeFalse())
			Expect(again).To(BeIdenticalTo(err))
			Expect(pipe.Err()).To(BeIdenticalTo(err))
		})

		It("should report the execute stage for a division by zero", func() {
			dram.Load(encode(insts.Reg3(insts.OpDIVU, 1, 2, 3)))

			err := pipe.Run()

			var stepErr *pipeline.StepError
			Expect(errors.As(err, &stepErr)).To(BeTrue())
			Expect(stepErr.Stage).To(Equal(pipeline.StageExecute))
			Expect(stepErr.PC).To(Equal(uint32(0)))
			Expect(errors.Is(err, emu.ErrDivideByZero)).To(BeTrue())
		})

		It("should bound Run with a step limit", func() {
			pipe = pipeline.NewPipeline(regFile, dram, pipeline.WithMaxSteps(50))
			dram.Load(encode(insts.JumpRel(insts.OpJMP, insts.CondAL, -1)))

			err := pipe.Run()

			Expect(errors.Is(err, pipeline.ErrStepLimit)).To(BeTrue())
			Expect(pipe.Stats().Steps).To(Equal(uint64(50)))
		})
	})

	Describe("RunSteps", func() {
		It("should report whether the program is still running", func() {
			dram.Load(encode(insts.Nop()))

			running, err := pipe.RunSteps(2)
			Expect(err).NotTo(HaveOccurred())
			Expect(running).To(BeTrue())

			running, err = pipe.RunSteps(10)
			Expect(err).NotTo(HaveOccurred())
			Expect(running).To(BeFalse())
		})
	})

	Describe("Snapshot", func() {
		It("should describe each stage", func() {
			dram.Load([]uint32{0x00050420, insts.MustEncode(insts.Nop())})

			pipe.Step()
			pipe.Step()
			snap := pipe.Snapshot()

			Expect(snap.Step).To(Equal(uint64(2)))
			Expect(snap.Stages[pipeline.StageDecode].Text).To(Equal("LDR R1, [R10]"))
			Expect(snap.Stages[pipeline.StageFetch].PC).To(Equal(uint32(1)))
			Expect(snap.Stages[pipeline.StageExecute].Valid).To(BeFalse())
			Expect(snap.String()).To(ContainSubstring("decode"))
		})
	})

	It("should run again after Reset", func() {
		dram.Load(encode(insts.Imm3(insts.OpADDU, 1, 1, 1)))
		Expect(pipe.Run()).To(Succeed())

		pipe.Reset()
		pipe.SetPC(0)
		Expect(pipe.Run()).To(Succeed())

		Expect(regFile.Read(1)).To(Equal(uint32(2)))
		Expect(pipe.Stats().Instructions).To(Equal(uint64(1)))
	})
})
