// Package assembler drives the two-pass pipeline spec.md's Design Notes
// describe and the teacher's original_source/axel/assembler.py wires
// directly: a first lexer pass over the whole source builds the symbol
// table, then a second pass — parser over encoder — walks the token
// stream again against that now-complete table, producing both the
// machine-code image and the live register file that image would leave
// behind once run.
package assembler

import (
	"github.com/pkg/errors"

	"m6800asm/encoder"
	"m6800asm/internal/opcodetab"
	"m6800asm/lexer"
	"m6800asm/parser"
	"m6800asm/registers"
	"m6800asm/symtab"
)

// Result is everything a completed assembly run produces.
type Result struct {
	Code      []byte
	Symbols   *symtab.Table
	Registers *registers.File
	Program   []parser.Instruction
}

// Assemble runs the full two-pass pipeline over source.
func Assemble(source string) (*Result, error) {
	symbols := firstPass(source)

	p := parser.New(source, symbols)
	program, err := p.Parse()
	if err != nil {
		return nil, errors.Wrap(err, "assembler: second pass")
	}

	regs := registers.New()
	opcodes := opcodetab.Load()
	var code []byte
	var addr uint16

	for _, inst := range program {
		ctx := &encoder.Context{
			Mode:     inst.Mode,
			Operands: inst.Operands,
			Regs:     regs,
			Addr:     addr,
			Symbols:  p.Symbols(),
			Opcodes:  opcodes,
		}
		out, encErr := encoder.Encode(inst.Mnemonic, ctx)
		if encErr != nil {
			return nil, errors.Wrapf(encErr, "assembler: encoding instruction at line %d", inst.Line)
		}
		code = append(code, out...)
		addr += uint16(len(out))
	}

	return &Result{Code: code, Symbols: p.Symbols(), Registers: regs, Program: program}, nil
}

// firstPass scans source to completion purely to populate a symbol table,
// discarding the token stream itself — the second pass re-derives it.
func firstPass(source string) *symtab.Table {
	lx := lexer.New(source)
	for {
		if _, err := lx.Next(); err == lexer.ErrEndOfStream {
			break
		}
	}
	return lx.Symbols()
}
