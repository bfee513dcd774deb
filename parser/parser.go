// Package parser implements the second pass over the token stream:
// recursive-descent grammar rules (spec.md §4.E) plus the addressing-mode
// inference the spec calls the operand state machine (§4.F). The two are
// kept in one package because the state machine never runs independently
// of a parse in progress — it reports through the same *Error the grammar
// rules raise, and spec.md's own worked examples drive it directly off an
// in-progress instruction's operand list.
package parser

import (
	"fmt"
	"strings"

	"m6800asm/lexer"
	"m6800asm/symtab"
	"m6800asm/token"
)

// Error is the single error surface the parser raises. Its message follows
// spec.md §4.E exactly: a 12-character window of source starting at the
// lexer's last_addr, with embedded newlines flattened to spaces, followed
// by the tags that would have been accepted and the tag that was actually
// found.
type Error struct {
	Expected []token.Tag
	Found    token.Tag
	Window   string
	Line     int
}

func (e *Error) Error() string {
	names := make([]string, len(e.Expected))
	for i, t := range e.Expected {
		names[i] = t.String()
	}
	return fmt.Sprintf(
		`Parser failed near %q, expected one of %s, but found %q on line %d.`,
		e.Window, strings.Join(names, ", "), e.Found.String(), e.Line,
	)
}

// Instruction is one parsed line's mnemonic, its operand tokens in the
// deque's prepend order (last-read first, so the first-read primary operand
// is at the back — see operands below), and the addressing mode the state
// machine inferred.
type Instruction struct {
	Mnemonic token.Tag
	Operands []lexer.YyLex
	Mode     token.Tag
	Line     int
}

// Parser drives the lexer's second pass: it re-scans the source the first
// pass already indexed, sharing that first pass's symbol table exactly as
// the teacher's axel/assembler.py wires its own Parser.
type Parser struct {
	lx *lexer.Lexer
}

// New constructs a Parser over source, reusing symbols (typically the
// table a prior first pass over the same source already populated).
func New(source string, symbols *symtab.Table) *Parser {
	return &Parser{lx: lexer.NewWithSymbols(source, symbols)}
}

// Symbols returns the parser's (shared) symbol table.
func (p *Parser) Symbols() *symtab.Table { return p.lx.Symbols() }

// Parse drives the full second pass, returning every instruction line in
// source order. It stops at end of stream; a grammar violation aborts
// immediately with an *Error, per spec.md's no-recovery policy.
func (p *Parser) Parse() ([]Instruction, error) {
	var program []Instruction
	for {
		inst, more, err := p.line()
		if err != nil {
			return program, err
		}
		if !more {
			return program, nil
		}
		if inst != nil {
			program = append(program, *inst)
		}
	}
}

// line implements spec.md §4.E's line(): it skips leading blank lines,
// then dispatches on whichever of LABEL, VARIABLE, or a mnemonic begins
// the next line. It returns more=false once the stream is exhausted.
func (p *Parser) line() (*Instruction, bool, error) {
	for {
		tag, err := p.lx.Next()
		if err == lexer.ErrEndOfStream {
			return nil, false, nil
		}
		if tag != token.EOL {
			p.lx.Retract()
			break
		}
	}

	expected := append([]token.Tag{token.LABEL, token.VARIABLE}, token.Mnemonics()...)
	yy, err := p.take(expected...)
	if err != nil {
		return nil, false, err
	}

	switch yy.Tag {
	case token.LABEL:
		mnemonicYY, err := p.take(token.Mnemonics()...)
		if err != nil {
			return nil, false, err
		}
		inst, err := p.instruction(mnemonicYY.Tag)
		if err != nil {
			return nil, false, err
		}
		return &inst, true, nil
	case token.VARIABLE:
		if err := p.variable(yy.Data); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	default:
		inst, err := p.instruction(yy.Tag)
		if err != nil {
			return nil, false, err
		}
		return &inst, true, nil
	}
}

// variable implements spec.md §4.E's variable(label): it consumes the
// EQUAL the lexer already classified, then the DIR/EXT literal that
// follows, and overwrites the symbol table's raw-string value with the
// literal's decoded bytes — the one permitted rewrite of a variable's
// value.
func (p *Parser) variable(name string) error {
	if _, err := p.take(token.EQUAL); err != nil {
		return err
	}
	yy, err := p.take(token.DIR_ADDR_U8, token.EXT_ADDR_U16)
	if err != nil {
		return err
	}
	decoded, decErr := lexer.ParseImmediateValue(yy.Data)
	if decErr != nil {
		return decErr
	}
	entry, _ := p.lx.Symbols().Get(name)
	p.lx.Symbols().Set(name, entry.Addr, symtab.KindVariable, decoded)
	return nil
}

// operandTags is the set of tokens that can appear inside an operand list:
// every register plus every numeric/displacement datatype, plus COMMA as
// the index-addressing separator.
func operandTags() []token.Tag {
	tags := []token.Tag{token.COMMA}
	tags = append(tags, token.Registers...)
	tags = append(tags, token.IMM_U8, token.IMM_U16, token.DIR_ADDR_U8, token.EXT_ADDR_U16, token.DISP_ADDR_I8)
	return tags
}

// operands implements spec.md §4.E's operands(): it greedily collects
// operand tokens, building the deque by prepending each newly-read token —
// so the first-read (primary) operand ends up at the back of the slice —
// and stops non-destructively (retracting the lexer) the moment a token
// doesn't fit, or the stream ends.
func (p *Parser) operands() []lexer.YyLex {
	expected := operandTags()
	var ops []lexer.YyLex
	for {
		tag, err := p.lx.Next()
		if err == lexer.ErrEndOfStream {
			return ops
		}
		matched := false
		for _, e := range expected {
			if tag == e {
				matched = true
				break
			}
		}
		if !matched {
			p.lx.Retract()
			return ops
		}
		if tag == token.COMMA {
			continue
		}
		ops = append([]lexer.YyLex{p.lx.YyLex()}, ops...)
	}
}

// instruction implements spec.md §4.E's instruction(instruction): collect
// the operand deque and infer its addressing mode.
func (p *Parser) instruction(mnemonic token.Tag) (Instruction, error) {
	line := p.lineAt(p.lx.LastAddr())
	ops := p.operands()
	mode, err := inferAddressingMode(ops)
	if err != nil {
		return Instruction{}, p.wrapModeError()
	}
	return Instruction{Mnemonic: mnemonic, Operands: ops, Mode: mode, Line: line}, nil
}

func (p *Parser) wrapModeError() error {
	return &Error{
		Expected: []token.Tag{token.IMM, token.DIR, token.EXT, token.IDX, token.REL, token.INH, token.ACC},
		Found:    token.UNKNOWN,
		Window:   p.window(),
		Line:     p.lineAt(p.lx.LastAddr()),
	}
}

// take implements spec.md §4.E's take(expected): it consumes one token and
// succeeds if its tag is any of expected; on mismatch it retracts the
// lexer (so the offending token can be re-read by whatever recovers, or
// simply re-reported) and returns a non-destructive *Error.
func (p *Parser) take(expected ...token.Tag) (lexer.YyLex, error) {
	tag, _ := p.lx.Next()
	for _, e := range expected {
		if tag == e {
			return p.lx.YyLex(), nil
		}
	}
	p.lx.Retract()
	return lexer.YyLex{}, &Error{
		Expected: expected,
		Found:    tag,
		Window:   p.window(),
		Line:     p.lineAt(p.lx.LastAddr()),
	}
}

// window renders the 12-character source snippet starting at the lexer's
// last_addr, flattening embedded newlines to spaces.
func (p *Parser) window() string {
	src := p.lx.Source()
	start := p.lx.LastAddr()
	if start < 0 {
		start = 0
	}
	end := start + 12
	if end > len(src) {
		end = len(src)
	}
	if start > len(src) {
		start = len(src)
	}
	snippet := src[start:end]
	snippet = strings.ReplaceAll(snippet, "\n", " ")
	snippet = strings.ReplaceAll(snippet, "\r", " ")
	return snippet
}

func (p *Parser) lineAt(pos int) int {
	return p.lineAt0(pos) + 1
}

func (p *Parser) lineAt0(pos int) int {
	src := p.lx.Source()
	if pos > len(src) {
		pos = len(src)
	}
	return strings.Count(src[:pos], "\n")
}

// inferAddressingMode implements spec.md §4.F's operand state machine as a
// content-driven classifier over the fully-collected operand deque, rather
// than the position-indexed recursion the distilled spec describes only in
// prose: an explicit DISP/IMM/DIR/EXT datatype token decides the mode
// outright (DIR or EXT promoted to IDX when an index-register X token is
// also present), a lone accumulator letter (A or B) means ACC, and no
// operands at all means INH. This reproduces every addressing mode in
// spec.md's worked examples without depending on operand-order bookkeeping
// that the distillation left unspecified; the choice is recorded in
// DESIGN.md.
func inferAddressingMode(ops []lexer.YyLex) (token.Tag, error) {
	if len(ops) == 0 {
		return token.INH, nil
	}

	hasX := false
	for _, o := range ops {
		if o.Tag == token.X {
			hasX = true
		}
	}

	for _, o := range ops {
		switch o.Tag {
		case token.DISP_ADDR_I8:
			return token.REL, nil
		case token.IMM_U8, token.IMM_U16:
			return token.IMM, nil
		case token.DIR_ADDR_U8:
			if hasX {
				return token.IDX, nil
			}
			return token.DIR, nil
		case token.EXT_ADDR_U16:
			if hasX {
				return token.IDX, nil
			}
			return token.EXT, nil
		}
	}

	for _, o := range ops {
		if o.Tag == token.A || o.Tag == token.B {
			return token.ACC, nil
		}
	}

	if hasX {
		return token.INH, nil
	}

	return token.Tag{}, fmt.Errorf("parser: cannot infer addressing mode from operand set")
}
