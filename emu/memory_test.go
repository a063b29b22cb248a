package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/legsim/emu"
)

var _ = Describe("DRAM", func() {
	var dram *emu.DRAM

	BeforeEach(func() {
		dram = emu.NewDRAM(100)
	})

	It("should read unset addresses as zero and initialize them", func() {
		r := dram.Get(42)

		Expect(r.Value).To(Equal(uint32(0)))
		Expect(r.Cycles).To(Equal(uint64(100)))
		Expect(dram.Inspect()).To(HaveKeyWithValue(uint32(42), uint32(0)))
	})

	It("should return what was set", func() {
		s := dram.Set(7, 0xDEAD)
		Expect(s.Failed()).To(BeFalse())
		Expect(s.Cycles).To(Equal(uint64(100)))

		Expect(dram.Get(7).Value).To(Equal(uint32(0xDEAD)))
	})

	It("should place image words at consecutive addresses", func() {
		dram.Load([]uint32{10, 20, 30})

		Expect(dram.Peek(0)).To(Equal(uint32(10)))
		Expect(dram.Peek(2)).To(Equal(uint32(30)))
		Expect(dram.Len()).To(Equal(3))
	})

	It("should peek without initializing", func() {
		Expect(dram.Peek(99)).To(BeZero())
		Expect(dram.Len()).To(BeZero())
	})

	It("should return a copy from Inspect", func() {
		dram.Set(1, 1)
		snapshot := dram.Inspect()
		snapshot[1] = 5

		Expect(dram.Peek(1)).To(Equal(uint32(1)))
	})

	It("should forget everything on Reset", func() {
		dram.Set(1, 1)
		dram.Reset()

		Expect(dram.Len()).To(BeZero())
	})
})

var _ = Describe("RegFile", func() {
	It("should read back written values", func() {
		var regs emu.RegFile
		regs.Write(emu.SP, 1000)

		Expect(regs.Read(emu.SP)).To(Equal(uint32(1000)))
		Expect(regs.Snapshot()[30]).To(Equal(uint32(1000)))
	})

	It("should panic on an out-of-range index", func() {
		var regs emu.RegFile
		Expect(func() { regs.Read(32) }).To(Panic())
	})

	It("should render named registers", func() {
		var regs emu.RegFile
		regs.Write(3, 9)

		s := regs.String()
		Expect(s).To(ContainSubstring("R3=9"))
		Expect(s).To(ContainSubstring("PC=0"))
		Expect(s).NotTo(ContainSubstring("R4="))
	})
})
