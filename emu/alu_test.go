package emu_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/legsim/emu"
	"github.com/sarchlab/legsim/insts"
)

func neg(v int32) uint32 {
	return uint32(v)
}

var _ = Describe("ALU", func() {
	DescribeTable("should compute",
		func(op insts.Op, a, b, want uint32) {
			got, err := emu.ALU(op, a, b)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		},
		Entry("unsigned add wraps", insts.OpADDU, uint32(math.MaxUint32), uint32(2), uint32(1)),
		Entry("signed add", insts.OpADDS, neg(-5), uint32(3), neg(-2)),
		Entry("unsigned sub wraps", insts.OpSUBU, uint32(1), uint32(2), uint32(math.MaxUint32)),
		Entry("signed sub", insts.OpSUBS, uint32(3), uint32(5), neg(-2)),
		Entry("unsigned mul", insts.OpMULU, uint32(6), uint32(7), uint32(42)),
		Entry("signed mul", insts.OpMULS, neg(-6), uint32(7), neg(-42)),
		Entry("unsigned div", insts.OpDIVU, uint32(43), uint32(5), uint32(8)),
		Entry("signed div truncates", insts.OpDIVS, neg(-43), uint32(5), neg(-8)),
		Entry("signed div overflow wraps", insts.OpDIVS, neg(math.MinInt32), neg(-1), neg(math.MinInt32)),
		Entry("arithmetic left", insts.OpASL, uint32(3), uint32(2), uint32(12)),
		Entry("arithmetic right keeps sign", insts.OpASR, neg(-16), uint32(2), neg(-4)),
		Entry("logical left", insts.OpLSL, uint32(1), uint32(31), uint32(0x80000000)),
		Entry("logical right", insts.OpLSR, uint32(0x80000000), uint32(31), uint32(1)),
		Entry("shift past width", insts.OpLSR, uint32(0xFFFFFFFF), uint32(32), uint32(0)),
		Entry("and", insts.OpAND, uint32(0b1100), uint32(0b1010), uint32(0b1000)),
		Entry("or", insts.OpOR, uint32(0b1100), uint32(0b1010), uint32(0b1110)),
		Entry("xor", insts.OpXOR, uint32(0b1100), uint32(0b1010), uint32(0b0110)),
		Entry("move", insts.OpMV, uint32(9), uint32(0), uint32(9)),
		Entry("not", insts.OpNOT, uint32(0), uint32(0), uint32(math.MaxUint32)),
	)

	It("should fail unsigned division by zero", func() {
		_, err := emu.ALU(insts.OpDIVU, 1, 0)
		Expect(err).To(MatchError(emu.ErrDivideByZero))
	})

	It("should fail signed division by zero", func() {
		_, err := emu.ALU(insts.OpDIVS, 1, 0)
		Expect(err).To(MatchError(emu.ErrDivideByZero))
	})

	It("should reject non-ALU operations", func() {
		_, err := emu.ALU(insts.OpLDR, 1, 1)
		Expect(err).To(HaveOccurred())
	})

	DescribeTable("Compare",
		func(op insts.Op, a, b, want uint32) {
			Expect(emu.Compare(op, a, b)).To(Equal(want))
		},
		Entry("equal", insts.OpCMPU, uint32(4), uint32(4), insts.StatusEqual),
		Entry("unsigned greater", insts.OpCMPU, neg(-1), uint32(1), insts.StatusGreater),
		Entry("signed less", insts.OpCMPS, neg(-1), uint32(1), insts.StatusLess),
		Entry("unsigned less", insts.OpCMPU, uint32(1), uint32(2), insts.StatusLess),
	)
})
