package parser

import (
	"strings"
	"testing"

	"m6800asm/lexer"
	"m6800asm/symtab"
	"m6800asm/token"
)

func check(t *testing.T, got, want any) {
	t.Helper()
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// firstPass runs the lexer to completion to build the symbol table a real
// second pass would start from, mirroring assembler.Assemble's two passes.
func firstPass(source string) *symtab.Table {
	lx := lexer.New(source)
	for {
		if _, err := lx.Next(); err == lexer.ErrEndOfStream {
			break
		}
	}
	return lx.Symbols()
}

func TestTakeSucceedsAndFails(t *testing.T) {
	p := New("ADD\n", symtab.New())
	yy, err := p.take(token.MustMnemonic("ADD"))
	check(t, err, nil)
	check(t, yy.Tag, token.MustMnemonic("ADD"))

	_, err = p.take(token.LABEL)
	if err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestErrorMessageFormat(t *testing.T) {
	p := New("SAME LDA B #\n", symtab.New())
	err := p.wrapModeError()
	got := err.Error()
	if !strings.Contains(got, `Parser failed near "SAME LDA B #"`) {
		t.Fatalf("unexpected message: %s", got)
	}
	if !strings.Contains(got, "on line 1.") {
		t.Fatalf("missing line suffix: %s", got)
	}
}

func TestParseVariableDefinition(t *testing.T) {
	source := "OUTCH = $FE3A\n"
	syms := firstPass(source)
	p := New(source, syms)
	_, err := p.Parse()
	check(t, err, nil)

	e, ok := p.Symbols().Get("OUTCH")
	check(t, ok, true)
	check(t, e.Kind, symtab.KindVariable)
	b, isBytes := e.Value.([]byte)
	check(t, isBytes, true)
	check(t, string(b), "\xFE\x3A")
}

func TestParseInstructionLineImmediate(t *testing.T) {
	source := "ADD B #$10\n"
	syms := firstPass(source)
	p := New(source, syms)
	program, err := p.Parse()
	check(t, err, nil)
	check(t, len(program), 1)
	check(t, program[0].Mnemonic, token.MustMnemonic("ADD"))
	check(t, program[0].Mode, token.IMM)
}

func TestParseIndexedAddressing(t *testing.T) {
	source := "LDX $10,X\n"
	syms := firstPass(source)
	p := New(source, syms)
	program, err := p.Parse()
	check(t, err, nil)
	check(t, len(program), 1)
	check(t, program[0].Mode, token.IDX)
}

func TestParseAccumulatorOnlyOperand(t *testing.T) {
	source := "ASL A\n"
	syms := firstPass(source)
	p := New(source, syms)
	program, err := p.Parse()
	check(t, err, nil)
	check(t, len(program), 1)
	check(t, program[0].Mode, token.ACC)
}

func TestParseInherentNoOperand(t *testing.T) {
	source := "ABA\n"
	syms := firstPass(source)
	p := New(source, syms)
	program, err := p.Parse()
	check(t, err, nil)
	check(t, len(program), 1)
	check(t, program[0].Mode, token.INH)
}

func TestParseLabelFollowedByInstruction(t *testing.T) {
	source := "START JSR $FCBC\nEND BRA START\n"
	syms := firstPass(source)
	p := New(source, syms)
	program, err := p.Parse()
	check(t, err, nil)
	check(t, len(program), 2)
	check(t, program[0].Mnemonic, token.MustMnemonic("JSR"))
	check(t, program[0].Mode, token.EXT)
	check(t, program[1].Mnemonic, token.MustMnemonic("BRA"))
	check(t, program[1].Mode, token.REL)

	e, ok := p.Symbols().Get("START")
	check(t, ok, true)
	check(t, e.Kind, symtab.KindLabel)
}
