package encoder

import (
	"testing"

	"m6800asm/internal/opcodetab"
	"m6800asm/lexer"
	"m6800asm/registers"
	"m6800asm/symtab"
	"m6800asm/token"
	"m6800asm/types"
)

func check(t *testing.T, got, want any) {
	t.Helper()
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func newContext(mode token.Tag, ops []lexer.YyLex, regs *registers.File) *Context {
	return &Context{
		Mode:     mode,
		Operands: ops,
		Regs:     regs,
		Symbols:  symtab.New(),
		Opcodes:  opcodetab.Load(),
	}
}

// TestEncodeABA reproduces the teacher pack's axel opcode_test.py fixture:
// AccA=5, AccB=10, ABA under ACC mode emits 0x1B and leaves AccA.Num==15.
func TestEncodeABA(t *testing.T) {
	regs := registers.New()
	regs.AccA = types.NewU8(5)
	regs.AccB = types.NewU8(10)
	ctx := newContext(token.ACC, nil, regs)

	out, err := Encode(token.MustMnemonic("ABA"), ctx)
	check(t, err, nil)
	check(t, len(out), 1)
	check(t, out[0], byte(0x1B))
	check(t, regs.AccA.Num, uint8(15))
}

func TestEncodeADCImmediateCarryChain(t *testing.T) {
	regs := registers.New()
	regs.AccA = types.NewU8(255)
	ops := []lexer.YyLex{
		{Tag: token.IMM_U8, Data: "#$10"},
		{Tag: token.A, Data: "A"},
	}
	ctx := newContext(token.IMM, ops, regs)

	out, err := Encode(token.MustMnemonic("ADC"), ctx)
	check(t, err, nil)
	check(t, len(out), 2)
	check(t, out[0], byte(0x89))
	check(t, out[1], byte(0x10))
	check(t, regs.GetFlag(registers.FlagCarry), true)

	out, err = Encode(token.MustMnemonic("ADC"), ctx)
	check(t, err, nil)
	check(t, out[0], byte(0x89))
}

func TestEncodeADCAccumulatorB(t *testing.T) {
	regs := registers.New()
	ops := []lexer.YyLex{
		{Tag: token.IMM_U8, Data: "#$10"},
		{Tag: token.B, Data: "B"},
	}
	ctx := newContext(token.IMM, ops, regs)

	out, err := Encode(token.MustMnemonic("ADC"), ctx)
	check(t, err, nil)
	check(t, out[0], byte(0xC9))
	check(t, out[1], byte(0x10))
	check(t, regs.AccB.Num, uint8(0x10))
}

func TestEncodeLDAImmediate(t *testing.T) {
	regs := registers.New()
	ops := []lexer.YyLex{
		{Tag: token.IMM_U8, Data: "#$2A"},
		{Tag: token.A, Data: "A"},
	}
	ctx := newContext(token.IMM, ops, regs)

	out, err := Encode(token.MustMnemonic("LDA"), ctx)
	check(t, err, nil)
	check(t, out[0], byte(0x86))
	check(t, out[1], byte(0x2A))
	check(t, regs.AccA.Num, uint8(0x2A))
}

func TestEncodeIndexedAddressing(t *testing.T) {
	regs := registers.New()
	ops := []lexer.YyLex{
		{Tag: token.X, Data: "X"},
		{Tag: token.DIR_ADDR_U8, Data: "$10"},
	}
	ctx := newContext(token.IDX, ops, regs)

	out, err := Encode(token.MustMnemonic("LDX"), ctx)
	check(t, err, nil)
	check(t, len(out), 2)
	check(t, out[0], byte(0xEE))
	check(t, out[1], byte(0x10))
}

func TestEncodeRelativeBranchToLabel(t *testing.T) {
	regs := registers.New()
	symbols := symtab.New()
	symbols.Set("AGAIN", 0x10, symtab.KindLabel, uint16(0x10))
	ops := []lexer.YyLex{{Tag: token.DISP_ADDR_I8, Data: "AGAIN"}}
	ctx := &Context{Mode: token.REL, Operands: ops, Regs: regs, Symbols: symbols, Opcodes: opcodetab.Load(), Addr: 0x20}

	out, err := Encode(token.MustMnemonic("BRA"), ctx)
	check(t, err, nil)
	check(t, out[0], byte(0x20))
	check(t, out[1], byte(0xEE)) // 0x10-0x22 = -18, as a two's-complement byte
}

func TestEncodeInherentNoOperand(t *testing.T) {
	regs := registers.New()
	ctx := newContext(token.INH, nil, regs)
	out, err := Encode(token.MustMnemonic("NOP"), ctx)
	check(t, err, nil)
	check(t, out[0], byte(0x01))
}

