// Package registers models the 6800's programmer-visible register file:
// two 8-bit accumulators, the 16-bit index register, stack pointer, and
// program counter, and the 6-bit condition code (status) register, per
// spec.md §4.A/§4.G.
package registers

import "m6800asm/types"

// Flag indexes into File.SR, in the 6800's bit order (bit 5 down to bit 0
// within the condition-code register: H I N Z V C). spec.md's scope omits
// the interrupt-mask bit's semantics, so FlagInterrupt is carried as a
// storage location only — nothing in this module ever sets or reads it for
// control flow.
type Flag int

const (
	FlagHalfCarry Flag = iota
	FlagInterrupt
	FlagNegative
	FlagZero
	FlagOverflow
	FlagCarry
)

// File is the complete register set an instruction's translator function
// reads and mutates.
type File struct {
	AccA types.U8
	AccB types.U8
	X    types.U16
	SP   types.U16
	PC   types.U16
	SR   [6]bool
}

// New returns a File with every register zeroed, matching the 6800's
// documented reset state for the registers this assembler models (the
// actual CPU's reset vector fetch into PC is outside this module's scope).
func New() *File {
	return &File{}
}

// ResetStatus clears every status flag. The encoder's post-processing step
// calls this before deriving flags from an instruction's result, per
// spec.md §4.G.
func (f *File) ResetStatus() {
	f.SR = [6]bool{}
}

// SetFlag sets flag to v.
func (f *File) SetFlag(flag Flag, v bool) {
	f.SR[flag] = v
}

// GetFlag reports flag's current value.
func (f *File) GetFlag(flag Flag) bool {
	return f.SR[flag]
}
