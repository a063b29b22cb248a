package pipeline

import (
	"slices"

	"github.com/sarchlab/legsim/emu"
)

// Hazard describes a read-after-write conflict seen at decode.
type Hazard struct {
	// PC is the address of the reading instruction.
	PC uint32
	// Reg is the register read before it was written back.
	Reg uint8
	// ProducerPC is the address of the older instruction writing Reg.
	ProducerPC uint32
}

// HazardUnit detects RAW hazards. The pipeline has no forwarding and never
// stalls, so a detected hazard means the reader sees the stale value.
type HazardUnit struct{}

// NewHazardUnit creates a new hazard detection unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// Detect returns the hazards between the instruction being decoded and the
// older instructions that have not written back yet. Older instructions
// are given nearest first; only the nearest producer of each register is
// reported.
func (h *HazardUnit) Detect(reader *emu.InFlight, older ...*InstRegister) []Hazard {
	var hazards []Hazard

	reads := reader.Reads()
	slices.Sort(reads)

	for _, reg := range slices.Compact(reads) {
		for _, o := range older {
			if !o.Valid {
				continue
			}
			if slices.Contains(o.Flight.Writes(), reg) {
				hazards = append(hazards, Hazard{
					PC:         reader.PC,
					Reg:        reg,
					ProducerPC: o.Flight.PC,
				})
				break
			}
		}
	}

	return hazards
}
