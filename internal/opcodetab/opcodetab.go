// Package opcodetab loads the MC6800 mnemonic/addressing-mode/opcode map
// from an embedded TOML table, the way the teacher's examples keep
// reference data as config rather than as Go literals scattered through
// the encoder.
package opcodetab

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"
)

//go:embed opcodes.toml
var opcodesTOML []byte

// Table is the decoded mnemonic -> mode-key -> opcode map. Mode keys are
// one of: "inh", "rel", "imm", "dir", "idx", "ext" for mnemonics with no
// accumulator-specific encoding, or the "_a"/"_b"-suffixed variants
// ("imm_a", "acc_b", ...) for the ones the ISA encodes per accumulator.
type Table map[string]map[string]int64

var loaded Table

func init() {
	var t Table
	if _, err := toml.Decode(string(opcodesTOML), &t); err != nil {
		panic(fmt.Sprintf("opcodetab: invalid embedded opcode table: %v", err))
	}
	loaded = t
}

// Load returns the package-embedded opcode table.
func Load() Table { return loaded }

// Lookup returns the opcode byte for mnemonic under modeKey, and whether an
// entry exists.
func (t Table) Lookup(mnemonic, modeKey string) (byte, bool) {
	modes, ok := t[mnemonic]
	if !ok {
		return 0, false
	}
	op, ok := modes[modeKey]
	if !ok {
		return 0, false
	}
	return byte(op), true
}
