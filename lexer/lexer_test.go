package lexer

import (
	"testing"

	"m6800asm/symtab"
	"m6800asm/token"
)

// check mirrors the teacher's own lexer_test.go helper: a single terse
// equality assertion that reports both values on failure.
func check(t *testing.T, got, want any) {
	t.Helper()
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNextEOL(t *testing.T) {
	lx := New("\n")
	tag, err := lx.Next()
	check(t, err, nil)
	check(t, tag, token.EOL)
}

func TestNextEndOfStream(t *testing.T) {
	lx := New("")
	_, err := lx.Next()
	check(t, err, ErrEndOfStream)
}

func TestNextMnemonic(t *testing.T) {
	lx := New("ADD")
	tag, err := lx.Next()
	check(t, err, nil)
	check(t, tag, token.MustMnemonic("ADD"))
}

func TestNextLDAARegisterMerge(t *testing.T) {
	lx := New("LDAA")
	tag, err := lx.Next()
	check(t, err, nil)
	check(t, tag, token.MustMnemonic("LDA"))

	tag, err = lx.Next()
	check(t, err, nil)
	check(t, tag, token.A)
}

func TestNextRegisters(t *testing.T) {
	for text, want := range map[string]token.Tag{
		"A": token.A, "B": token.B, "X": token.X,
		"PC": token.PC, "SP": token.SP, "SR": token.SR,
	} {
		lx := New(text)
		tag, err := lx.Next()
		check(t, err, nil)
		check(t, tag, want)
	}
}

func TestNextCommaAndRegisterIndex(t *testing.T) {
	lx := New("$10,X")
	tag, _ := lx.Next()
	check(t, tag, token.DIR_ADDR_U8)
	tag, _ = lx.Next()
	check(t, tag, token.COMMA)
	tag, _ = lx.Next()
	check(t, tag, token.X)
}

func TestNextImmediate(t *testing.T) {
	lx := New("#$10")
	tag, _ := lx.Next()
	check(t, tag, token.IMM_U8)
	check(t, lx.YyLex().Data, "#$10")

	lx = New("#$2F00")
	tag, _ = lx.Next()
	check(t, tag, token.IMM_U16)
}

func TestNextDirectAndExtended(t *testing.T) {
	lx := New("$F0")
	tag, _ := lx.Next()
	check(t, tag, token.DIR_ADDR_U8)

	lx = New("$FE3A")
	tag, _ = lx.Next()
	check(t, tag, token.EXT_ADDR_U16)
}

func TestLabelDefinesSymbolAtMnemonic(t *testing.T) {
	lx := New("START JSR\n")
	tag, _ := lx.Next()
	check(t, tag, token.LABEL)
	tag, _ = lx.Next()
	check(t, tag, token.MustMnemonic("JSR"))

	e, ok := lx.Symbols().Get("START")
	check(t, ok, true)
	check(t, e.Kind, symtab.KindLabel)
	check(t, e.Addr, uint16(0))
}

func TestVariableDefinesSymbolAtEqual(t *testing.T) {
	lx := New("OUTCH = $FE3A\n")
	tag, _ := lx.Next() // OUTCH -> VARIABLE
	check(t, tag, token.VARIABLE)
	tag, _ = lx.Next() // = -> EQUAL, pops the pending variable
	check(t, tag, token.EQUAL)

	e, ok := lx.Symbols().Get("OUTCH")
	check(t, ok, true)
	check(t, e.Kind, symtab.KindVariable)
	check(t, e.Value, "$FE3A")
}

func TestDisplacementAfterBranch(t *testing.T) {
	lx := New("BRA AGAIN\n")
	tag, _ := lx.Next()
	check(t, tag, token.MustMnemonic("BRA"))
	tag, _ = lx.Next()
	check(t, tag, token.DISP_ADDR_I8)
}

func TestAliasResolutionOfVariable(t *testing.T) {
	lx := New("OUTCH = $FE3A\nLDA A OUTCH\n")
	for i := 0; i < 4; i++ { // OUTCH, EQUAL, EXT literal, EOL
		if _, err := lx.Next(); err != nil {
			t.Fatalf("priming token %d: %v", i, err)
		}
	}
	tag, _ := lx.Next() // LDA
	check(t, tag, token.MustMnemonic("LDA"))
	tag, _ = lx.Next() // A
	check(t, tag, token.A)
	tag, _ = lx.Next() // OUTCH -> alias-resolved to the stored "$FE3A" text
	check(t, tag, token.EXT_ADDR_U16)
}

func TestRetractThenNextIsIdentity(t *testing.T) {
	lx := New("ADD B\n")
	first, _ := lx.Next()
	cursorAfterFirst := lx.cursor

	lx.Retract()
	second, err := lx.Next()
	check(t, err, nil)
	check(t, second, first)
	check(t, lx.cursor, cursorAfterFirst)
}

func TestUnknownTermStaysAtLineStartWithoutMnemonicLookahead(t *testing.T) {
	lx := New("FAIL\nADD B #$10\n")
	tag, _ := lx.Next()
	check(t, tag, token.UNKNOWN)
}
