package emu_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/legsim/emu"
	"github.com/sarchlab/legsim/insts"
	"github.com/sarchlab/legsim/timed"
)

// failingMemory fails every access.
type failingMemory struct{}

var errBus = errors.New("bus error")

func (failingMemory) Get(uint32) timed.Result[uint32] { return timed.Fail[uint32](errBus) }
func (failingMemory) Set(uint32, uint32) timed.Status { return timed.Fail[struct{}](errBus) }

var _ = Describe("InFlight", func() {
	var (
		regs *emu.RegFile
		dram *emu.DRAM
	)

	BeforeEach(func() {
		regs = &emu.RegFile{}
		dram = emu.NewDRAM(3)
	})

	run := func(inst *insts.Instruction, pc uint32) (*emu.InFlight, uint64, error) {
		f := emu.NewInFlight(inst, pc)
		var cycles uint64
		for _, s := range []timed.Status{
			f.Decode(regs),
			f.Execute(),
		} {
			if s.Failed() {
				return f, cycles, s.Err
			}
			cycles += s.Cycles
		}
		s := f.AccessMemory(dram)
		if s.Failed() {
			return f, cycles, s.Err
		}
		cycles += s.Cycles
		s = f.WriteBack(regs)
		return f, cycles + s.Cycles, s.Err
	}

	mustRun := func(inst *insts.Instruction, pc uint32) *emu.InFlight {
		f, _, err := run(inst, pc)
		Expect(err).NotTo(HaveOccurred())
		return f
	}

	Describe("Load", func() {
		It("should load through a register address", func() {
			regs.Write(10, 20)
			dram.Set(20, 43)

			_, cycles, err := run(insts.Load(1, 10), 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(regs.Read(1)).To(Equal(uint32(43)))
			Expect(cycles).To(Equal(uint64(3)))
		})

		It("should load relative to the next instruction", func() {
			dram.Set(9, 77)

			mustRun(insts.LoadRel(2, 3), 5)

			Expect(regs.Read(2)).To(Equal(uint32(77)))
		})

		It("should wrap load failures in a MemoryError", func() {
			f := emu.NewInFlight(insts.Load(1, 2), 0)
			f.Decode(regs)
			f.Execute()
			s := f.AccessMemory(failingMemory{})

			var memErr *emu.MemoryError
			Expect(errors.As(s.Err, &memErr)).To(BeTrue())
			Expect(memErr.Op).To(Equal("load"))
			Expect(errors.Is(s.Err, errBus)).To(BeTrue())
		})
	})

	Describe("Store", func() {
		It("should write the value register to memory", func() {
			regs.Write(2, 0xAB)
			regs.Write(3, 50)

			mustRun(insts.Store(2, 3), 0)

			Expect(dram.Peek(50)).To(Equal(uint32(0xAB)))
			Expect(regs.Read(2)).To(Equal(uint32(0xAB)))
		})

		It("should store relative with a negative offset", func() {
			regs.Write(2, 5)

			mustRun(insts.StoreRel(2, -3), 10)

			Expect(dram.Peek(8)).To(Equal(uint32(5)))
		})
	})

	Describe("Arithmetic", func() {
		It("should add an immediate", func() {
			regs.Write(2, 40)

			mustRun(insts.Imm3(insts.OpADDU, 1, 2, 2), 0)

			Expect(regs.Read(1)).To(Equal(uint32(42)))
		})

		It("should overwrite the destination the same way as a decoded word", func() {
			regs.Write(1, 99)
			regs.Write(2, 2)
			built := insts.Imm3(insts.OpADDU, 1, 2, 40)
			decoded, err := insts.NewDecoder().Decode(built.Word)
			Expect(err).NotTo(HaveOccurred())

			mustRun(built, 0)
			Expect(regs.Read(1)).To(Equal(uint32(42)))

			regs.Write(1, 99)
			mustRun(decoded, 0)
			Expect(regs.Read(1)).To(Equal(uint32(42)))
		})

		It("should add a negative signed immediate", func() {
			regs.Write(2, 40)

			mustRun(insts.Imm3(insts.OpADDS, 1, 2, -50), 0)

			Expect(int32(regs.Read(1))).To(Equal(int32(-10)))
		})

		It("should fail DIVU by zero without writing back", func() {
			regs.Write(1, 99)
			regs.Write(2, 10)

			_, _, err := run(insts.Reg3(insts.OpDIVU, 1, 2, 3), 0)

			Expect(errors.Is(err, emu.ErrDivideByZero)).To(BeTrue())
			Expect(regs.Read(1)).To(Equal(uint32(99)))
		})

		It("should shift the destination in place", func() {
			regs.Write(4, 3)

			mustRun(insts.ShiftImm(insts.OpLSL, 4, 4), 0)

			Expect(regs.Read(4)).To(Equal(uint32(48)))
		})

		It("should move and invert", func() {
			regs.Write(2, 0x0F)

			mustRun(insts.Move(1, 2), 0)
			mustRun(insts.Not(3, 2), 0)

			Expect(regs.Read(1)).To(Equal(uint32(0x0F)))
			Expect(regs.Read(3)).To(Equal(uint32(0xFFFFFFF0)))
		})
	})

	Describe("Compare", func() {
		It("should set the status register", func() {
			regs.Write(1, 5)
			regs.Write(2, 7)

			mustRun(insts.Compare(insts.OpCMPU, 1, 2), 0)

			Expect(regs.Read(emu.STS)).To(Equal(insts.StatusLess))
		})
	})

	Describe("Stack", func() {
		It("should push below the stack pointer and pop it back", func() {
			regs.Write(emu.SP, 100)
			regs.Write(1, 11)

			mustRun(insts.Push(1), 0)

			Expect(regs.Read(emu.SP)).To(Equal(uint32(99)))
			Expect(dram.Peek(99)).To(Equal(uint32(11)))

			mustRun(insts.Pop(2), 1)

			Expect(regs.Read(2)).To(Equal(uint32(11)))
			Expect(regs.Read(emu.SP)).To(Equal(uint32(100)))
		})
	})

	Describe("Jump", func() {
		It("should jump to a register target", func() {
			regs.Write(5, 200)

			f := mustRun(insts.Jump(insts.OpJMP, insts.CondAL, 5), 10)

			Expect(f.Taken).To(BeTrue())
			Expect(regs.Read(emu.PC)).To(Equal(uint32(200)))
		})

		It("should jump relative to the next instruction", func() {
			mustRun(insts.JumpRel(insts.OpJMP, insts.CondAL, -4), 10)

			Expect(regs.Read(emu.PC)).To(Equal(uint32(7)))
		})

		It("should not jump when the condition fails", func() {
			regs.Write(emu.PC, 11)
			regs.Write(emu.STS, insts.StatusGreater)

			f := mustRun(insts.JumpRel(insts.OpJMP, insts.CondEQ, 5), 10)

			Expect(f.Taken).To(BeFalse())
			Expect(regs.Read(emu.PC)).To(Equal(uint32(11)))
		})

		It("should link on a taken subroutine jump", func() {
			regs.Write(emu.STS, insts.StatusLess)

			mustRun(insts.JumpRel(insts.OpJMPS, insts.CondLE, 20), 10)

			Expect(regs.Read(emu.LR)).To(Equal(uint32(11)))
			Expect(regs.Read(emu.PC)).To(Equal(uint32(31)))
		})

		It("should leave the link register alone when not taken", func() {
			regs.Write(emu.STS, insts.StatusEqual)

			mustRun(insts.JumpRel(insts.OpJMPS, insts.CondNE, 20), 10)

			Expect(regs.Read(emu.LR)).To(BeZero())
		})
	})

	Describe("Interrupts", func() {
		It("should install a handler, interrupt and return", func() {
			regs.Write(3, 500)

			mustRun(insts.SetHandler(3), 0)
			Expect(regs.Read(emu.IHDLR)).To(Equal(uint32(500)))

			mustRun(insts.Interrupt(9), 40)
			Expect(regs.Read(emu.INTLR)).To(Equal(uint32(41)))
			Expect(regs.Read(emu.PC)).To(Equal(uint32(500)))
			Expect(dram.Peek(emu.InterruptCodeAddr)).To(Equal(uint32(9)))

			mustRun(insts.ReturnFromInterrupt(), 501)
			Expect(regs.Read(emu.PC)).To(Equal(uint32(41)))
		})
	})

	It("should do nothing for NOP", func() {
		before := regs.Snapshot()

		mustRun(insts.Nop(), 0)

		Expect(regs.Snapshot()).To(Equal(before))
		Expect(dram.Len()).To(BeZero())
	})

	Describe("register sets", func() {
		It("should report sources and destinations", func() {
			f := emu.NewInFlight(insts.Reg3(insts.OpADDU, 1, 2, 3), 0)
			Expect(f.Reads()).To(Equal([]uint8{2, 3}))
			Expect(f.Writes()).To(Equal([]uint8{1}))
		})

		It("should include the stack pointer for stack operations", func() {
			f := emu.NewInFlight(insts.Push(4), 0)
			Expect(f.Reads()).To(ConsistOf(emu.SP, uint8(4)))
			Expect(f.Writes()).To(Equal([]uint8{emu.SP}))
		})

		It("should omit the register slot of an immediate operand", func() {
			f := emu.NewInFlight(insts.Imm3(insts.OpADDU, 1, 2, 7), 0)
			Expect(f.Reads()).To(Equal([]uint8{2}))
		})
	})
})
