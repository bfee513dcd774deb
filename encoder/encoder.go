// Package encoder translates one parsed instruction (mnemonic, addressing
// mode, operand tokens) into its machine-code bytes and applies the
// resulting status-flag update, per spec.md §4.G. Each mnemonic's
// behavior is reached through a dispatch table of translator functions —
// grounded in the teacher pack's lookbusy1344-arm_emulator
// encoder/encoder.go, which dispatches per mnemonic the same way — built
// once in init() from a handful of shared category builders rather than 72
// hand-duplicated bodies, since most of the ISA's mnemonics differ only in
// which opcode-table key and which register effect a whole category
// shares.
package encoder

import (
	"fmt"
	"strings"

	"m6800asm/internal/opcodetab"
	"m6800asm/lexer"
	"m6800asm/registers"
	"m6800asm/symtab"
	"m6800asm/token"
)

// Translator produces an instruction's machine-code bytes and mutates
// ctx.Regs to reflect its register-level effect. ctx.Addr is the
// instruction's own address (needed only by relative-branch encoding);
// ctx.Symbols resolves a branch target named by a label rather than a literal.
type Translator func(ctx *Context) ([]byte, error)

// Context bundles everything a translator needs: the parsed operand
// tokens (in parser.Instruction's order — primary operand at the back),
// the inferred addressing mode, the live register file, this instruction's
// own address, and the symbol table for branch-target resolution.
type Context struct {
	Mode     token.Tag
	Operands []lexer.YyLex
	Regs     *registers.File
	Addr     uint16
	Symbols  *symtab.Table
	Opcodes  opcodetab.Table
}

var translators = map[string]Translator{}

func init() {
	registerArithmetic("ADC", addWithCarry)
	registerArithmetic("ADD", addPlain)
	registerArithmetic("AND", bitAnd)
	registerArithmetic("BIT", bitAndNoStore)
	registerArithmetic("CMP", subNoStore)
	registerArithmetic("EOR", bitXor)
	registerArithmetic("ORA", bitOr)
	registerArithmetic("SBC", subWithCarry)
	registerArithmetic("SUB", subPlain)

	translators["T_ABA"] = translateABA
	translators["T_SBA"] = translateSBA
	translators["T_CBA"] = translateCBA
	translators["T_TAB"] = translateTAB
	translators["T_TBA"] = translateTBA
	translators["T_DAA"] = translateDAA

	registerUnaryAccOrMem("ASL", shiftLeft)
	registerUnaryAccOrMem("ASR", shiftRightArith)
	registerUnaryAccOrMem("LSR", shiftRightLogical)
	registerUnaryAccOrMem("ROL", rotateLeft)
	registerUnaryAccOrMem("ROR", rotateRight)
	registerUnaryAccOrMem("CLR", clearOperand)
	registerUnaryAccOrMem("COM", complementOperand)
	registerUnaryAccOrMem("NEG", negateOperand)
	registerUnaryAccOrMem("INC", incrementOperand)
	registerUnaryAccOrMem("DEC", decrementOperand)
	registerUnaryAccOrMem("TST", testOperand)

	registerLoadStore("LDA", true, true)
	registerLoadStore("STA", true, false)
	translators["T_LDX"] = translateLDX
	translators["T_STX"] = translateSTX
	translators["T_LDS"] = translateLDS
	translators["T_STS"] = translateSTS
	translators["T_CPX"] = translateCPX

	translators["T_JMP"] = translateNoOperandEffect("JMP")
	translators["T_JSR"] = translateNoOperandEffect("JSR")
	translators["T_BSR"] = translateNoOperandEffect("BSR")
	translators["T_RTS"] = translateInherentNoEffect("RTS")
	translators["T_RTI"] = translateInherentNoEffect("RTI")
	translators["T_SWI"] = translateInherentNoEffect("SWI")
	translators["T_WAI"] = translateInherentNoEffect("WAI")
	translators["T_NOP"] = translateInherentNoEffect("NOP")

	for _, branch := range []string{
		"BCC", "BCS", "BEQ", "BGE", "BGT", "BHI", "BLE", "BLS",
		"BLT", "BMI", "BNE", "BPL", "BRA", "BVC", "BVS",
	} {
		translators["T_"+branch] = translateNoOperandEffect(branch)
	}

	translators["T_CLC"] = setFlagInherent(registers.FlagCarry, false)
	translators["T_SEC"] = setFlagInherent(registers.FlagCarry, true)
	translators["T_CLI"] = setFlagInherent(registers.FlagInterrupt, false)
	translators["T_SEI"] = setFlagInherent(registers.FlagInterrupt, true)
	translators["T_CLV"] = setFlagInherent(registers.FlagOverflow, false)
	translators["T_SEV"] = setFlagInherent(registers.FlagOverflow, true)

	translators["T_TAP"] = translateTAP
	translators["T_TPA"] = translateTPA
	translators["T_INX"] = indexDelta(1)
	translators["T_DEX"] = indexDelta(-1)
	translators["T_INS"] = spDelta(1)
	translators["T_DES"] = spDelta(-1)
	translators["T_TSX"] = translateTSX
	translators["T_TXS"] = translateTXS
	translators["T_PSH"] = translatePSH
	translators["T_PUL"] = translatePUL
}

// Encode looks up mnemonic's translator and runs it, then applies the
// generic status-flag derivation spec.md §4.G describes for any
// instruction whose operand deque's primary (back) entry is a register.
func Encode(mnemonic token.Tag, ctx *Context) ([]byte, error) {
	name := strings.TrimPrefix(mnemonic.String(), "T_")
	fn, ok := translators["T_"+name]
	if !ok {
		return nil, fmt.Errorf("encoder: no translator registered for mnemonic %s", name)
	}
	out, err := fn(ctx)
	if err != nil {
		return nil, err
	}
	applyStatus(ctx)
	return out, nil
}

// applyStatus implements spec.md §4.G's status-flag post-processor: reset
// the status register, then — only when the operand deque has more than
// one entry and its primary (back) entry is a register — derive Carry
// from an unmasked accumulator result above 255, Negative and Overflow
// together from a negative unmasked result, and Zero from the masked
// result being zero, on whichever accumulator that primary register names.
func applyStatus(ctx *Context) {
	ctx.Regs.ResetStatus()
	if len(ctx.Operands) <= 1 {
		return
	}
	primary := ctx.Operands[len(ctx.Operands)-1]
	if primary.Tag != token.A && primary.Tag != token.B {
		return
	}
	acc := ctx.Regs.AccA
	if primary.Tag == token.B {
		acc = ctx.Regs.AccB
	}
	ctx.Regs.SetFlag(registers.FlagCarry, acc.Raw > 255)
	negative := acc.Raw < 0
	ctx.Regs.SetFlag(registers.FlagNegative, negative)
	ctx.Regs.SetFlag(registers.FlagOverflow, negative)
	ctx.Regs.SetFlag(registers.FlagZero, acc.Num == 0)
}
