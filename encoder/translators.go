package encoder

import (
	"fmt"
	"strings"

	"m6800asm/lexer"
	"m6800asm/registers"
	"m6800asm/token"
	"m6800asm/types"
)

// modeKey maps an addressing-mode tag to the opcode table's bare mode key.
func modeKey(mode token.Tag) (string, bool) {
	switch mode {
	case token.INH:
		return "inh", true
	case token.ACC:
		return "acc", true
	case token.REL:
		return "rel", true
	case token.IMM:
		return "imm", true
	case token.DIR:
		return "dir", true
	case token.EXT:
		return "ext", true
	case token.IDX:
		return "idx", true
	}
	return "", false
}

// accumulatorOf reports which accumulator an operand deque names: "b" if a
// B register token is present, "a" otherwise (the default, including when
// A is present or the mnemonic has no per-accumulator split at all).
func accumulatorOf(ops []lexer.YyLex) string {
	for _, o := range ops {
		if o.Tag == token.B {
			return "b"
		}
	}
	return "a"
}

// lookupOpcode tries the accumulator-qualified key first ("imm_a"), then
// falls back to the bare key ("imm") for mnemonics the ISA doesn't split
// per accumulator.
func lookupOpcode(ctx *Context, mnemonic string) (byte, error) {
	base, ok := modeKey(ctx.Mode)
	if !ok {
		return 0, fmt.Errorf("encoder: %s: no opcode-table key for mode %s", mnemonic, ctx.Mode)
	}
	accum := accumulatorOf(ctx.Operands)
	if op, ok := ctx.Opcodes.Lookup(mnemonic, base+"_"+accum); ok {
		return op, nil
	}
	if op, ok := ctx.Opcodes.Lookup(mnemonic, base); ok {
		return op, nil
	}
	return 0, fmt.Errorf("encoder: %s: no opcode for mode %s", mnemonic, base)
}

// primaryOperand returns the operand deque's addressing-mode-determining
// entry: the first numeric/displacement datatype token found, matching the
// same content scan parser.inferAddressingMode uses.
func primaryOperand(ops []lexer.YyLex) (lexer.YyLex, bool) {
	for _, o := range ops {
		switch o.Tag {
		case token.IMM_U8, token.IMM_U16, token.DIR_ADDR_U8, token.EXT_ADDR_U16, token.DISP_ADDR_I8:
			return o, true
		}
	}
	return lexer.YyLex{}, false
}

// operandPayload returns the bytes that follow the opcode for addressing
// modes that carry one: the decoded literal for IMM/DIR/EXT/IDX, or the
// resolved relative displacement for REL. INH and ACC carry no payload.
func operandPayload(ctx *Context) ([]byte, error) {
	switch ctx.Mode {
	case token.INH, token.ACC:
		return nil, nil
	case token.REL:
		return relativeDisplacement(ctx)
	}
	op, ok := primaryOperand(ctx.Operands)
	if !ok {
		return nil, fmt.Errorf("encoder: addressing mode %s requires an operand", ctx.Mode)
	}
	return lexer.ParseImmediateValue(op.Data)
}

// relativeDisplacement resolves a REL-mode operand: a "$xx" literal is
// used as the displacement byte directly; any other text names a label,
// whose address (from the shared symbol table) is converted to a
// displacement relative to the byte following this two-byte instruction.
func relativeDisplacement(ctx *Context) ([]byte, error) {
	op, ok := primaryOperand(ctx.Operands)
	if !ok {
		return nil, fmt.Errorf("encoder: relative branch requires an operand")
	}
	if strings.HasPrefix(op.Data, "$") || strings.HasPrefix(op.Data, "#$") {
		b, err := lexer.ParseImmediateValue(op.Data)
		if err != nil {
			return nil, err
		}
		if len(b) != 1 {
			return nil, fmt.Errorf("encoder: relative displacement must be one byte, got %d", len(b))
		}
		return b, nil
	}
	entry, ok := ctx.Symbols.Get(op.Data)
	if !ok {
		return nil, fmt.Errorf("encoder: undefined branch target %q", op.Data)
	}
	next := int(ctx.Addr) + 2
	disp := int(entry.Addr) - next
	if disp < -128 || disp > 127 {
		return nil, fmt.Errorf("encoder: branch target %q out of range (%d)", op.Data, disp)
	}
	return []byte{byte(int8(disp))}, nil
}

// arithmeticOp computes a binary accumulator/operand result. It returns
// the new accumulator value (which registerArithmetic stores back unless
// the category says not to).
type arithmeticOp func(acc types.U8, operand int) types.U8

func addPlain(acc types.U8, operand int) types.U8      { return acc.Add(operand) }
func addWithCarry(acc types.U8, operand int) types.U8  { return acc.Add(operand) }
func subPlain(acc types.U8, operand int) types.U8      { return acc.Sub(operand) }
func subWithCarry(acc types.U8, operand int) types.U8  { return acc.Sub(operand) }
func bitAnd(acc types.U8, operand int) types.U8 {
	return types.NewU8(int(acc.Num) & operand)
}
func bitAndNoStore(acc types.U8, operand int) types.U8 { return bitAnd(acc, operand) }
func bitOr(acc types.U8, operand int) types.U8 {
	return types.NewU8(int(acc.Num) | operand)
}
func bitXor(acc types.U8, operand int) types.U8 {
	return types.NewU8(int(acc.Num) ^ operand)
}
func subNoStore(acc types.U8, operand int) types.U8 { return acc.Sub(operand) }

// registerArithmetic wires a dual-accumulator, operand-carrying mnemonic
// (ADC/ADD/AND/BIT/CMP/EOR/ORA/SBC/SUB) to op. ADC and SBC additionally
// fold in the current Carry flag, matching the 6800's documented
// with-carry variants.
func registerArithmetic(name string, op arithmeticOp) {
	store := name != "BIT" && name != "CMP"
	withCarry := name == "ADC" || name == "SBC"
	translators["T_"+name] = func(ctx *Context) ([]byte, error) {
		opcode, err := lookupOpcode(ctx, name)
		if err != nil {
			return nil, err
		}
		payload, err := operandPayload(ctx)
		if err != nil {
			return nil, err
		}
		operandValue := bytesToInt(payload)
		if withCarry && ctx.Regs.GetFlag(registers.FlagCarry) {
			operandValue++
		}
		useB := accumulatorOf(ctx.Operands) == "b"
		acc := ctx.Regs.AccA
		if useB {
			acc = ctx.Regs.AccB
		}
		result := op(acc, operandValue)
		if store {
			if useB {
				ctx.Regs.AccB = result
			} else {
				ctx.Regs.AccA = result
			}
		} else {
			// CMP/BIT only affect flags; stash the comparison result in the
			// named accumulator's Raw field via a throwaway copy so
			// applyStatus derives Carry and Negative/Overflow from it. Num
			// keeps the unchanged accumulator value, so Zero reflects the
			// accumulator, not the comparison result.
			if useB {
				ctx.Regs.AccB = types.U8{Num: acc.Num, Raw: result.Raw}
			} else {
				ctx.Regs.AccA = types.U8{Num: acc.Num, Raw: result.Raw}
			}
		}
		return append([]byte{opcode}, payload...), nil
	}
}

func bytesToInt(b []byte) int {
	v := 0
	for _, c := range b {
		v = v<<8 | int(c)
	}
	return v
}

func translateABA(ctx *Context) ([]byte, error) {
	opcode, err := ctx.lookup1("ABA")
	if err != nil {
		return nil, err
	}
	ctx.Regs.AccA = ctx.Regs.AccA.Add(int(ctx.Regs.AccB.Num))
	return []byte{opcode}, nil
}

func translateSBA(ctx *Context) ([]byte, error) {
	opcode, err := ctx.lookup1("SBA")
	if err != nil {
		return nil, err
	}
	ctx.Regs.AccA = ctx.Regs.AccA.Sub(int(ctx.Regs.AccB.Num))
	return []byte{opcode}, nil
}

func translateCBA(ctx *Context) ([]byte, error) {
	opcode, err := ctx.lookup1("CBA")
	if err != nil {
		return nil, err
	}
	result := ctx.Regs.AccA.Sub(int(ctx.Regs.AccB.Num))
	ctx.Regs.AccA = types.U8{Num: ctx.Regs.AccA.Num, Raw: result.Raw}
	return []byte{opcode}, nil
}

func translateTAB(ctx *Context) ([]byte, error) {
	opcode, err := ctx.lookup1("TAB")
	if err != nil {
		return nil, err
	}
	ctx.Regs.AccB = ctx.Regs.AccA
	return []byte{opcode}, nil
}

func translateTBA(ctx *Context) ([]byte, error) {
	opcode, err := ctx.lookup1("TBA")
	if err != nil {
		return nil, err
	}
	ctx.Regs.AccA = ctx.Regs.AccB
	return []byte{opcode}, nil
}

// translateDAA implements the decimal-adjust accumulator in its common
// textbook form: add 6 to either nibble that exceeds 9 or carried out of
// range. It always operates on AccA per the 6800 ISA.
func translateDAA(ctx *Context) ([]byte, error) {
	opcode, err := ctx.lookup1("DAA")
	if err != nil {
		return nil, err
	}
	n := int(ctx.Regs.AccA.Num)
	lo := n & 0x0F
	hi := (n >> 4) & 0x0F
	adjust := 0
	if lo > 9 {
		adjust += 0x06
	}
	if hi > 9 || ctx.Regs.GetFlag(registers.FlagCarry) {
		adjust += 0x60
	}
	ctx.Regs.AccA = ctx.Regs.AccA.Add(adjust)
	return []byte{opcode}, nil
}

// unaryOp computes a new accumulator value from its current one, for the
// accumulator-addressed (ACC mode) variant of a read-modify-write
// mnemonic. The EXT/IDX (memory) variants of the same mnemonic still
// encode correctly but, with no memory image modeled, have no register
// effect beyond the opcode/operand bytes — a scope limit recorded in
// DESIGN.md.
type unaryOp func(types.U8) types.U8

func shiftLeft(u types.U8) types.U8       { return u.Add(int(u.Num)) }
func shiftRightLogical(u types.U8) types.U8 { return types.NewU8(int(u.Num) >> 1) }
func shiftRightArith(u types.U8) types.U8 {
	v := int(int8(u.Num)) >> 1
	return types.NewU8(v)
}
func rotateLeft(u types.U8) types.U8 {
	return types.NewU8(((int(u.Num) << 1) | (int(u.Num) >> 7)) & 0xFF)
}
func rotateRight(u types.U8) types.U8 {
	return types.NewU8(((int(u.Num) >> 1) | ((int(u.Num) & 1) << 7)) & 0xFF)
}
func clearOperand(types.U8) types.U8      { return types.NewU8(0) }
func complementOperand(u types.U8) types.U8 { return types.NewU8(^int(u.Num) & 0xFF) }
func negateOperand(u types.U8) types.U8   { return types.NewU8(0).Sub(int(u.Num)) }
func incrementOperand(u types.U8) types.U8 { return u.Add(1) }
func decrementOperand(u types.U8) types.U8 { return u.Sub(1) }
func testOperand(u types.U8) types.U8     { return u }

// registerUnaryAccOrMem wires a read-modify-write mnemonic (ASL, ASR, CLR,
// COM, DEC, INC, LSR, NEG, ROL, ROR, TST) across its ACC/IDX/EXT variants.
func registerUnaryAccOrMem(name string, op unaryOp) {
	translators["T_"+name] = func(ctx *Context) ([]byte, error) {
		base, ok := modeKey(ctx.Mode)
		if !ok {
			return nil, fmt.Errorf("encoder: %s: unsupported mode %s", name, ctx.Mode)
		}
		accum := accumulatorOf(ctx.Operands)
		var opcode byte
		var found bool
		if ctx.Mode == token.ACC {
			opcode, found = ctx.Opcodes.Lookup(name, "acc_"+accum)
		} else {
			opcode, found = ctx.Opcodes.Lookup(name, base)
		}
		if !found {
			return nil, fmt.Errorf("encoder: %s: no opcode for mode %s", name, base)
		}
		payload, err := operandPayload(ctx)
		if err != nil && ctx.Mode != token.ACC {
			return nil, err
		}
		if ctx.Mode == token.ACC {
			if accum == "b" {
				ctx.Regs.AccB = op(ctx.Regs.AccB)
			} else {
				ctx.Regs.AccA = op(ctx.Regs.AccA)
			}
		}
		return append([]byte{opcode}, payload...), nil
	}
}

// registerLoadStore wires LDA/STA. LDA masks the literal into the selected
// accumulator; STA (store) leaves registers untouched (no memory image is
// modeled) but still encodes its full operand address.
func registerLoadStore(name string, hasAccumSplit bool, isLoad bool) {
	_ = hasAccumSplit
	translators["T_"+name] = func(ctx *Context) ([]byte, error) {
		opcode, err := lookupOpcode(ctx, name)
		if err != nil {
			return nil, err
		}
		payload, err := operandPayload(ctx)
		if err != nil {
			return nil, err
		}
		if isLoad {
			v := types.NewU8(bytesToInt(payload))
			if accumulatorOf(ctx.Operands) == "b" {
				ctx.Regs.AccB = v
			} else {
				ctx.Regs.AccA = v
			}
		}
		return append([]byte{opcode}, payload...), nil
	}
}

func translateLDX(ctx *Context) ([]byte, error) {
	opcode, err := lookupOpcode16(ctx, "LDX")
	if err != nil {
		return nil, err
	}
	payload, err := operandPayload(ctx)
	if err != nil {
		return nil, err
	}
	ctx.Regs.X = types.NewU16(bytesToInt(payload))
	return append([]byte{opcode}, payload...), nil
}

func translateSTX(ctx *Context) ([]byte, error) {
	opcode, err := lookupOpcode16(ctx, "STX")
	if err != nil {
		return nil, err
	}
	payload, err := operandPayload(ctx)
	if err != nil {
		return nil, err
	}
	return append([]byte{opcode}, payload...), nil
}

func translateLDS(ctx *Context) ([]byte, error) {
	opcode, err := lookupOpcode16(ctx, "LDS")
	if err != nil {
		return nil, err
	}
	payload, err := operandPayload(ctx)
	if err != nil {
		return nil, err
	}
	ctx.Regs.SP = types.NewU16(bytesToInt(payload))
	return append([]byte{opcode}, payload...), nil
}

func translateSTS(ctx *Context) ([]byte, error) {
	opcode, err := lookupOpcode16(ctx, "STS")
	if err != nil {
		return nil, err
	}
	payload, err := operandPayload(ctx)
	if err != nil {
		return nil, err
	}
	return append([]byte{opcode}, payload...), nil
}

func translateCPX(ctx *Context) ([]byte, error) {
	opcode, err := lookupOpcode16(ctx, "CPX")
	if err != nil {
		return nil, err
	}
	payload, err := operandPayload(ctx)
	if err != nil {
		return nil, err
	}
	return append([]byte{opcode}, payload...), nil
}

func lookupOpcode16(ctx *Context, name string) (byte, error) {
	base, ok := modeKey(ctx.Mode)
	if !ok {
		return 0, fmt.Errorf("encoder: %s: unsupported mode %s", name, ctx.Mode)
	}
	op, ok := ctx.Opcodes.Lookup(name, base)
	if !ok {
		return 0, fmt.Errorf("encoder: %s: no opcode for mode %s", name, base)
	}
	return op, nil
}

// translateNoOperandEffect wires a branch/jump/subroutine-call mnemonic:
// it encodes its opcode and operand payload but never mutates registers
// itself. A real stack/PC model is out of scope (spec.md's Non-goals); the
// caller (package assembler) advances its own running address counter.
func translateNoOperandEffect(name string) Translator {
	return func(ctx *Context) ([]byte, error) {
		base, ok := modeKey(ctx.Mode)
		if !ok {
			return nil, fmt.Errorf("encoder: %s: unsupported mode %s", name, ctx.Mode)
		}
		opcode, ok := ctx.Opcodes.Lookup(name, base)
		if !ok {
			return nil, fmt.Errorf("encoder: %s: no opcode for mode %s", name, base)
		}
		payload, err := operandPayload(ctx)
		if err != nil {
			return nil, err
		}
		return append([]byte{opcode}, payload...), nil
	}
}

func translateInherentNoEffect(name string) Translator {
	return func(ctx *Context) ([]byte, error) {
		opcode, ok := ctx.Opcodes.Lookup(name, "inh")
		if !ok {
			return nil, fmt.Errorf("encoder: %s: no inherent opcode", name)
		}
		return []byte{opcode}, nil
	}
}

func setFlagInherent(flag registers.Flag, value bool) Translator {
	return func(ctx *Context) ([]byte, error) {
		name := flagMnemonicName(flag, value)
		opcode, ok := ctx.Opcodes.Lookup(name, "inh")
		if !ok {
			return nil, fmt.Errorf("encoder: %s: no inherent opcode", name)
		}
		ctx.Regs.SetFlag(flag, value)
		return []byte{opcode}, nil
	}
}

func flagMnemonicName(flag registers.Flag, value bool) string {
	switch {
	case flag == registers.FlagCarry && value:
		return "SEC"
	case flag == registers.FlagCarry && !value:
		return "CLC"
	case flag == registers.FlagInterrupt && value:
		return "SEI"
	case flag == registers.FlagInterrupt && !value:
		return "CLI"
	case flag == registers.FlagOverflow && value:
		return "SEV"
	default:
		return "CLV"
	}
}

func translateTAP(ctx *Context) ([]byte, error) {
	opcode, ok := ctx.Opcodes.Lookup("TAP", "inh")
	if !ok {
		return nil, fmt.Errorf("encoder: TAP: no inherent opcode")
	}
	bits := ctx.Regs.AccA.Num
	for i := 0; i < 6; i++ {
		ctx.Regs.SetFlag(registers.Flag(i), bits&(1<<uint(5-i)) != 0)
	}
	return []byte{opcode}, nil
}

func translateTPA(ctx *Context) ([]byte, error) {
	opcode, ok := ctx.Opcodes.Lookup("TPA", "inh")
	if !ok {
		return nil, fmt.Errorf("encoder: TPA: no inherent opcode")
	}
	var bits int
	for i := 0; i < 6; i++ {
		if ctx.Regs.GetFlag(registers.Flag(i)) {
			bits |= 1 << uint(5-i)
		}
	}
	ctx.Regs.AccA = types.NewU8(bits)
	return []byte{opcode}, nil
}

func indexDelta(delta int) Translator {
	name := "INX"
	if delta < 0 {
		name = "DEX"
	}
	return func(ctx *Context) ([]byte, error) {
		opcode, ok := ctx.Opcodes.Lookup(name, "inh")
		if !ok {
			return nil, fmt.Errorf("encoder: %s: no inherent opcode", name)
		}
		ctx.Regs.X = ctx.Regs.X.Add(delta)
		return []byte{opcode}, nil
	}
}

func spDelta(delta int) Translator {
	name := "INS"
	if delta < 0 {
		name = "DES"
	}
	return func(ctx *Context) ([]byte, error) {
		opcode, ok := ctx.Opcodes.Lookup(name, "inh")
		if !ok {
			return nil, fmt.Errorf("encoder: %s: no inherent opcode", name)
		}
		ctx.Regs.SP = ctx.Regs.SP.Add(delta)
		return []byte{opcode}, nil
	}
}

func translateTSX(ctx *Context) ([]byte, error) {
	opcode, ok := ctx.Opcodes.Lookup("TSX", "inh")
	if !ok {
		return nil, fmt.Errorf("encoder: TSX: no inherent opcode")
	}
	ctx.Regs.X = ctx.Regs.SP.Add(1)
	return []byte{opcode}, nil
}

func translateTXS(ctx *Context) ([]byte, error) {
	opcode, ok := ctx.Opcodes.Lookup("TXS", "inh")
	if !ok {
		return nil, fmt.Errorf("encoder: TXS: no inherent opcode")
	}
	ctx.Regs.SP = ctx.Regs.X.Sub(1)
	return []byte{opcode}, nil
}

func translatePSH(ctx *Context) ([]byte, error) {
	accum := accumulatorOf(ctx.Operands)
	opcode, ok := ctx.Opcodes.Lookup("PSH", "acc_"+accum)
	if !ok {
		return nil, fmt.Errorf("encoder: PSH: no opcode for accumulator %s", accum)
	}
	ctx.Regs.SP = ctx.Regs.SP.Sub(1)
	return []byte{opcode}, nil
}

func translatePUL(ctx *Context) ([]byte, error) {
	accum := accumulatorOf(ctx.Operands)
	opcode, ok := ctx.Opcodes.Lookup("PUL", "acc_"+accum)
	if !ok {
		return nil, fmt.Errorf("encoder: PUL: no opcode for accumulator %s", accum)
	}
	ctx.Regs.SP = ctx.Regs.SP.Add(1)
	return []byte{opcode}, nil
}

// lookup1 resolves an inherent-mode mnemonic's single opcode.
func (ctx *Context) lookup1(name string) (byte, error) {
	opcode, ok := ctx.Opcodes.Lookup(name, "inh")
	if !ok {
		return 0, fmt.Errorf("encoder: %s: no inherent opcode", name)
	}
	return opcode, nil
}
