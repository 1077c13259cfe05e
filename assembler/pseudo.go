package assembler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/riscv-toolkit/rvasm/catalog"
	"github.com/riscv-toolkit/rvasm/parser"
)

// scratchRegister is the LI expansion's scratch register (t6), chosen
// so it never collides with a caller-saved argument register.
const scratchRegister = 31

// ExpandedInstr is one base instruction produced by pseudo expansion,
// ready to be routed through the normal native-encode path.
type ExpandedInstr struct {
	Mnemonic string
	Operands []parser.Operand
}

// SymbolResolver resolves a label or ".equ" name to a value. During
// pass one's trial expansion it may return a placeholder value (with
// ok true); pass two always supplies real values.
type SymbolResolver func(name string) (value int64, isLabel bool, ok bool)

// ExpandContext carries what the expansion engine needs beyond the
// caller's raw operands.
type ExpandContext struct {
	Catalogs   *catalog.Catalogs
	XLEN       int
	LocalAddr  uint64 // address of the pseudo-instruction itself
	Resolve    SymbolResolver
}

// Expand expands mnemonic(operands) into its base-instruction
// sequence. It does not encode; it returns mnemonic + operand-value
// tuples that the emitter then runs through the normal native
// lookup/encode path.
func Expand(mnemonic string, operands []parser.Operand, ctx ExpandContext) ([]ExpandedInstr, error) {
	switch mnemonic {
	case "FENCE":
		return expandFence(operands)
	case "LI":
		return expandLI(operands, ctx)
	default:
		return expandCatalogPseudo(mnemonic, operands, ctx)
	}
}

func expandFence(operands []parser.Operand) ([]ExpandedInstr, error) {
	pred, succ := 0xF, 0xF // default: all four of iorw
	parseSet := func(s string) (int, error) {
		v := 0
		for _, c := range strings.ToLower(s) {
			switch c {
			case 'i':
				v |= 8
			case 'o':
				v |= 4
			case 'r':
				v |= 2
			case 'w':
				v |= 1
			default:
				return 0, fmt.Errorf("invalid fence argument letter %q", c)
			}
		}
		return v, nil
	}

	switch len(operands) {
	case 0:
		// defaults apply
	case 1:
		v, err := parseSet(operands[0].Raw)
		if err != nil {
			return nil, err
		}
		pred, succ = v, v
	case 2:
		p, err := parseSet(operands[0].Raw)
		if err != nil {
			return nil, err
		}
		s, err := parseSet(operands[1].Raw)
		if err != nil {
			return nil, err
		}
		pred, succ = p, s
	default:
		return nil, fmt.Errorf("fence takes at most 2 arguments")
	}

	// FENCE's pred/succ 4-bit sets are packed into one 8-bit operand
	// ((pred<<4)|succ) so the catalog can encode FENCE with a single
	// "predsucc[7:0]" immediate field like every other instruction,
	// instead of needing a two-immediate special case in the encoder.
	return []ExpandedInstr{{
		Mnemonic: "FENCE",
		Operands: []parser.Operand{
			{Kind: parser.OperandImm, Imm: int64(pred<<4 | succ)},
		},
	}}, nil
}

func immOperandValue(op parser.Operand, ctx ExpandContext) (int64, error) {
	switch op.Kind {
	case parser.OperandImm:
		return op.Imm, nil
	case parser.OperandLabel:
		v, _, ok := ctx.Resolve(op.Label)
		if !ok {
			return 0, fmt.Errorf("undefined symbol %q", op.Label)
		}
		return v, nil
	default:
		return 0, fmt.Errorf("expected an immediate, got %v", op.Kind)
	}
}

func expandLI(operands []parser.Operand, ctx ExpandContext) ([]ExpandedInstr, error) {
	if len(operands) != 2 || operands[0].Kind != parser.OperandIntReg {
		return nil, fmt.Errorf("li requires rd, imm")
	}
	rd := operands[0].Reg
	imm, err := immOperandValue(operands[1], ctx)
	if err != nil {
		return nil, err
	}

	regOp := func(n int) parser.Operand { return parser.Operand{Kind: parser.OperandIntReg, Reg: n} }
	immOp := func(v int64) parser.Operand { return parser.Operand{Kind: parser.OperandImm, Imm: v} }

	if imm >= -2048 && imm <= 2047 {
		return []ExpandedInstr{
			{Mnemonic: "ADDI", Operands: []parser.Operand{regOp(rd), regOp(0), immOp(imm)}},
		}, nil
	}

	if imm >= -(1<<31) && imm <= (1<<31)-1 {
		upper, lower := splitUpperLower(imm)
		out := []ExpandedInstr{{Mnemonic: "LUI", Operands: []parser.Operand{regOp(rd), immOp(upper)}}}
		if lower != 0 {
			out = append(out, ExpandedInstr{Mnemonic: "ADDI", Operands: []parser.Operand{regOp(rd), regOp(rd), immOp(lower)}})
		}
		return out, nil
	}

	if ctx.XLEN != 64 {
		return nil, fmt.Errorf("immediate %d exceeds 32 bits on RV32", imm)
	}

	upper64 := imm >> 32
	lower64 := imm & 0xFFFFFFFF
	if lower64&0x80000000 != 0 {
		lower64 -= 1 << 32
		upper64++
	}

	upper, lower := splitUpperLower(upper64)
	out := []ExpandedInstr{{Mnemonic: "LUI", Operands: []parser.Operand{regOp(rd), immOp(upper)}}}
	if lower != 0 {
		out = append(out, ExpandedInstr{Mnemonic: "ADDI", Operands: []parser.Operand{regOp(rd), regOp(rd), immOp(lower)}})
	}
	out = append(out, ExpandedInstr{Mnemonic: "SLLI", Operands: []parser.Operand{regOp(rd), regOp(rd), immOp(32)}})

	lowerU, lowerL := splitUpperLower(lower64)
	out = append(out, ExpandedInstr{Mnemonic: "LUI", Operands: []parser.Operand{regOp(scratchRegister), immOp(lowerU)}})
	if lowerL != 0 {
		out = append(out, ExpandedInstr{Mnemonic: "ADDI", Operands: []parser.Operand{regOp(scratchRegister), regOp(scratchRegister), immOp(lowerL)}})
	}
	out = append(out,
		ExpandedInstr{Mnemonic: "ADD", Operands: []parser.Operand{regOp(rd), regOp(rd), regOp(scratchRegister)}},
	)
	return out, nil
}

// splitUpperLower computes LUI's upper20 and ADDI's lower12 using the
// standard LI expansion rule: upper20 = (imm+0x800)>>12,
// lower12 = imm-(upper20<<12).
func splitUpperLower(imm int64) (upper20, lower12 int64) {
	upper20 = (imm + 0x800) >> 12
	lower12 = imm - (upper20 << 12)
	return upper20, lower12
}

// expandCatalogPseudo handles every pseudo-instruction other than
// FENCE/LI via the catalog's template table.
func expandCatalogPseudo(mnemonic string, operands []parser.Operand, ctx ExpandContext) ([]ExpandedInstr, error) {
	candidates := ctx.Catalogs.Pseudos(mnemonic)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no pseudo-instruction %q", mnemonic)
	}

	chosen, chosenFormat, err := selectPseudoCandidate(candidates, operands)
	if err != nil {
		return nil, err
	}

	// Every sub-instruction a template expands into shares the pseudo's
	// own address as its PC-relative base — an auipc+addi/jalr pair
	// must split one (symbol - pc) delta consistently, not a delta
	// recomputed per instruction as the cursor advances.
	localAddr := ctx.LocalAddr
	var out []ExpandedInstr
	for _, tmpl := range chosen.BaseInstructions {
		instr, _, err := expandTemplate(tmpl, chosenFormat, operands, ctx, localAddr)
		if err != nil {
			return nil, err
		}
		out = append(out, instr)
	}
	return out, nil
}

func pseudoFormatOperandNames(format string) []string {
	idx := strings.IndexByte(format, ' ')
	if idx < 0 {
		return nil
	}
	rest := format[idx+1:]
	if rest == "" {
		return nil
	}
	parts := strings.Split(rest, ",")
	names := make([]string, len(parts))
	for i, p := range parts {
		names[i] = strings.TrimSpace(p)
	}
	return names
}

// selectPseudoCandidate picks the pseudo record whose operand count
// matches the caller's, preferring an RV32-tagged candidate on a tie
// and skipping symbol-shaped candidates when the caller passed a Mem
// operand.
func selectPseudoCandidate(candidates []catalog.Pseudo, operands []parser.Operand) (catalog.Pseudo, []string, error) {
	var best *catalog.Pseudo
	var bestNames []string

	lastIsMem := len(operands) > 0 && operands[len(operands)-1].Kind == parser.OperandMem

	for i := range candidates {
		c := candidates[i]
		names := pseudoFormatOperandNames(c.PseudoInstruction)
		if len(names) != len(operands) {
			continue
		}
		if lastIsMem && len(names) > 0 {
			last := strings.ToLower(names[len(names)-1])
			if last == "symbol" || last == "offset" {
				continue
			}
		}
		if best == nil {
			best = &c
			bestNames = names
			continue
		}
		if !hasRV32Tag(*best) && hasRV32Tag(c) {
			best = &c
			bestNames = names
		}
	}

	if best == nil {
		return catalog.Pseudo{}, nil, fmt.Errorf("no pseudo-instruction candidate matches operand count/shape")
	}
	return *best, bestNames, nil
}

func hasRV32Tag(p catalog.Pseudo) bool {
	for _, ext := range p.RequiredExtensions {
		if strings.HasPrefix(ext, "RV32") {
			return true
		}
	}
	return false
}

// expandTemplate parses and resolves one base-instruction template
// string (e.g. "auipc rd, symbol[31:12]") against the caller's
// operands and the pseudo's declared operand names.
func expandTemplate(tmpl string, names []string, callerOps []parser.Operand, ctx ExpandContext, localAddr uint64) (ExpandedInstr, int, error) {
	mnemonic, rest := splitFirst(tmpl)
	fields := splitTopLevelCommasPublic(rest)

	lookup := func(name string) (parser.Operand, bool) {
		for i, n := range names {
			if n == name && i < len(callerOps) {
				return callerOps[i], true
			}
		}
		return parser.Operand{}, false
	}

	symbolOffset := func(name string) (int64, error) {
		op, ok := lookup(name)
		if !ok {
			return 0, fmt.Errorf("template references unknown operand %q", name)
		}
		switch op.Kind {
		case parser.OperandImm:
			return op.Imm, nil
		case parser.OperandLabel:
			v, isLabel, ok := ctx.Resolve(op.Label)
			if !ok {
				return 0, fmt.Errorf("undefined symbol %q", op.Label)
			}
			if isLabel {
				return v - int64(localAddr), nil
			}
			return v, nil
		default:
			return 0, fmt.Errorf("operand %q is not symbol-shaped", name)
		}
	}

	var resultOps []parser.Operand
	for _, field := range fields {
		field = strings.TrimSpace(field)
		op, err := resolveTemplateField(field, lookup, symbolOffset)
		if err != nil {
			return ExpandedInstr{}, 0, err
		}
		resultOps = append(resultOps, op)
	}

	return ExpandedInstr{Mnemonic: strings.ToUpper(mnemonic), Operands: resultOps}, 1, nil
}

func splitFirst(s string) (first, rest string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

func splitTopLevelCommasPublic(s string) []string {
	if s == "" {
		return nil
	}
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// resolveTemplateField interprets one template operand reference:
// name[hi:lo], name[hi:lo](reg), name@GOT[hi:lo], literal arithmetic,
// literal register, plain operand name, or bare integer.
func resolveTemplateField(field string, lookup func(string) (parser.Operand, bool), symbolOffset func(string) (int64, error)) (parser.Operand, error) {
	field = strings.TrimSpace(field)

	if strings.Contains(field, "@GOT") {
		field = strings.Replace(field, "@GOT", "", 1)
	}

	if base, memReg, ok := splitMemTemplate(field); ok {
		offset, err := resolveSlicedName(base, symbolOffset)
		if err != nil {
			return parser.Operand{}, err
		}
		baseKind, regNum, err := resolveTemplateRegister(memReg, lookup)
		if err != nil {
			return parser.Operand{}, err
		}
		return parser.Operand{Kind: parser.OperandMem, MemOffset: offset, MemBase: regNum, MemBaseKind: baseKind}, nil
	}

	if name, hi, lo, ok := splitBracketSlice(field); ok {
		v, err := symbolOffset(name)
		if err != nil {
			return parser.Operand{}, err
		}
		sliced := sliceUpperImmediate(v, hi, lo)
		return parser.Operand{Kind: parser.OperandImm, Imm: sliced}, nil
	}

	if lhs, op, rhsLit, ok := splitArithmetic(field); ok {
		var base int64
		if n, err := strconv.ParseInt(lhs, 10, 64); err == nil {
			base = n
		} else {
			v, err := symbolOffset(lhs)
			if err != nil {
				return parser.Operand{}, err
			}
			base = v
		}
		if op == "+" {
			return parser.Operand{Kind: parser.OperandImm, Imm: base + rhsLit}, nil
		}
		return parser.Operand{Kind: parser.OperandImm, Imm: base - rhsLit}, nil
	}

	if n, ok := parser.ParseIntReg(field); ok && (field[0] == 'x' || field[0] == 'X') {
		return parser.Operand{Kind: parser.OperandIntReg, Reg: n}, nil
	}

	if op, ok := lookup(field); ok {
		return op, nil
	}

	if n, err := strconv.ParseInt(field, 10, 64); err == nil {
		return parser.Operand{Kind: parser.OperandImm, Imm: n}, nil
	}

	return parser.Operand{}, fmt.Errorf("cannot resolve template field %q", field)
}

func resolveSlicedName(base string, symbolOffset func(string) (int64, error)) (int64, error) {
	if name, hi, lo, ok := splitBracketSlice(base); ok {
		v, err := symbolOffset(name)
		if err != nil {
			return 0, err
		}
		return sliceUpperImmediate(v, hi, lo), nil
	}
	return symbolOffset(base)
}

func resolveTemplateRegister(tok string, lookup func(string) (parser.Operand, bool)) (parser.BaseKind, int, error) {
	if n, ok := parser.ParseIntReg(tok); ok {
		return parser.BaseInt, n, nil
	}
	if op, ok := lookup(tok); ok && op.Kind == parser.OperandIntReg {
		return parser.BaseInt, op.Reg, nil
	}
	return parser.BaseInt, 0, fmt.Errorf("cannot resolve register %q in template", tok)
}

// sliceUpperImmediate implements the "symbol[hi:lo]" slicing rule:
// the [31:12] slice is the sign-compensated upper-20 form; any other
// slice is a plain bit-field extraction.
func sliceUpperImmediate(v int64, hi, lo int) int64 {
	if hi == 31 && lo == 12 {
		return (v + 0x800) >> 12
	}
	if hi == 11 && lo == 0 {
		upper := (v + 0x800) >> 12
		return v - (upper << 12)
	}
	width := hi - lo + 1
	mask := int64(1)<<uint(width) - 1
	return (v >> uint(lo)) & mask
}

func splitBracketSlice(field string) (name string, hi, lo int, ok bool) {
	open := strings.IndexByte(field, '[')
	if open < 0 || !strings.HasSuffix(field, "]") {
		return "", 0, 0, false
	}
	name = field[:open]
	inner := field[open+1 : len(field)-1]
	colon := strings.IndexByte(inner, ':')
	if colon < 0 {
		b, err := strconv.Atoi(inner)
		if err != nil {
			return "", 0, 0, false
		}
		return name, b, b, true
	}
	h, err1 := strconv.Atoi(inner[:colon])
	l, err2 := strconv.Atoi(inner[colon+1:])
	if err1 != nil || err2 != nil {
		return "", 0, 0, false
	}
	return name, h, l, true
}

// splitMemTemplate recognizes "name[hi:lo](reg)".
func splitMemTemplate(field string) (base, reg string, ok bool) {
	if !strings.HasSuffix(field, ")") {
		return "", "", false
	}
	open := strings.IndexByte(field, '(')
	if open < 0 {
		return "", "", false
	}
	return field[:open], field[open+1 : len(field)-1], true
}

// splitArithmetic recognizes "N - M" / "name - N" / "name + N".
func splitArithmetic(field string) (lhs, op string, rhs int64, ok bool) {
	for _, candidate := range []string{" - ", " + ", "-", "+"} {
		if idx := strings.Index(field, candidate); idx > 0 {
			left := strings.TrimSpace(field[:idx])
			right := strings.TrimSpace(field[idx+len(candidate):])
			n, err := strconv.ParseInt(right, 10, 64)
			if err != nil {
				continue
			}
			sign := "+"
			if strings.Contains(candidate, "-") {
				sign = "-"
			}
			return left, sign, n, true
		}
	}
	return "", "", 0, false
}
