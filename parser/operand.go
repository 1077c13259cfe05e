package parser

import (
	"strconv"
	"strings"
)

// OperandKind identifies which alternative of the Operand tagged
// variant is populated.
type OperandKind int

const (
	OperandIntReg OperandKind = iota
	OperandFpReg
	OperandVecReg
	OperandCsr
	OperandImm
	OperandLabel
	OperandMem
	OperandRoundMode
	OperandVtypeField
)

// BaseKind distinguishes an integer from a floating-point base
// register inside a Mem operand.
type BaseKind int

const (
	BaseInt BaseKind = iota
	BaseFp
)

// Operand is the tagged-variant operand value produced by parsing one
// assembly-language token. Exactly the fields relevant to Kind are
// meaningful; the rest are zero. Go has no native sum type, so this is
// a single struct with a discriminant, in the same widened-result-struct
// style as encoder.EncodingError.
type Operand struct {
	Kind OperandKind

	Reg int // IntReg / FpReg / VecReg register number

	Csr int // Csr address, 0-0xFFF

	Imm int64 // Imm: parsed value

	Label string // Label identifier

	MemOffset   int64
	MemBase     int
	MemBaseKind BaseKind

	RoundMode int // 0-7

	VtypeKind VtypeFieldKind
	VtypeVal  int

	Raw string // original token, for diagnostics
}

// Options controls operand-parsing policy choices that are caller
// decisions rather than fixed behavior.
type Options struct {
	AllowNumericCSR bool
}

// ParseOperand classifies a single operand token using a fixed,
// ordered dispatch: later alternatives never preempt earlier ones. An
// operand matching none of the alternatives becomes Imm(0); the
// emitter surfaces the eventual mismatch as an encoding error.
func ParseOperand(tok string, opts Options) Operand {
	tok = strings.TrimSpace(tok)
	raw := tok

	// 1. Bare "(reg)" - atomic form.
	if base, ok := parseBareParenReg(tok); ok {
		kind, regNum := classifyBaseReg(base)
		return Operand{Kind: OperandMem, MemOffset: 0, MemBase: regNum, MemBaseKind: kind, Raw: raw}
	}

	// 2. "offset(reg)".
	if offsetStr, base, ok := splitMemForm(tok); ok {
		if offset, ok := parseSignedInt(offsetStr); ok {
			kind, regNum := classifyBaseReg(base)
			return Operand{Kind: OperandMem, MemOffset: offset, MemBase: regNum, MemBaseKind: kind, Raw: raw}
		}
	}

	// 3. Integer register.
	if n, ok := ParseIntReg(tok); ok {
		return Operand{Kind: OperandIntReg, Reg: n, Raw: raw}
	}

	// 4. FP register.
	if n, ok := ParseFpReg(tok); ok {
		return Operand{Kind: OperandFpReg, Reg: n, Raw: raw}
	}

	// 5. Vector register.
	if n, ok := ParseVecReg(tok); ok {
		return Operand{Kind: OperandVecReg, Reg: n, Raw: raw}
	}

	// 6. Named CSR, or numeric CSR when explicitly allowed.
	if n, ok := ParseCsrName(tok); ok {
		return Operand{Kind: OperandCsr, Csr: n, Raw: raw}
	}
	if opts.AllowNumericCSR {
		if n, ok := parseUnsignedInt(tok); ok && n >= 0 && n <= 0xFFF {
			return Operand{Kind: OperandCsr, Csr: int(n), Raw: raw}
		}
	}

	// 7. Rounding-mode name.
	if n, ok := ParseRoundingMode(tok); ok {
		return Operand{Kind: OperandRoundMode, RoundMode: n, Raw: raw}
	}

	// 8. Vtype-field name.
	if kind, val, ok := ParseVtypeField(tok); ok {
		return Operand{Kind: OperandVtypeField, VtypeKind: kind, VtypeVal: val, Raw: raw}
	}

	// 9. Identifier beginning with a letter, '_' or '.' -> Label.
	if tok != "" && isIdentifierStart(rune(tok[0])) {
		allIdent := true
		for _, c := range tok {
			if !isIdentifierChar(c) {
				allIdent = false
				break
			}
		}
		if allIdent {
			return Operand{Kind: OperandLabel, Label: tok, Raw: raw}
		}
	}

	// 10. Otherwise, an immediate: character literal, hex, binary, or
	// decimal.
	if imm, ok := parseImmediateToken(tok); ok {
		return Operand{Kind: OperandImm, Imm: imm, Raw: raw}
	}

	return Operand{Kind: OperandImm, Imm: 0, Raw: raw}
}

func classifyBaseReg(tok string) (BaseKind, int) {
	if n, ok := ParseIntReg(tok); ok {
		return BaseInt, n
	}
	if n, ok := ParseFpReg(tok); ok {
		return BaseFp, n
	}
	return BaseInt, 0
}

// parseBareParenReg recognizes "(reg)" with zero offset.
func parseBareParenReg(tok string) (reg string, ok bool) {
	if len(tok) < 3 || tok[0] != '(' || tok[len(tok)-1] != ')' {
		return "", false
	}
	inner := strings.TrimSpace(tok[1 : len(tok)-1])
	if inner == "" || strings.ContainsAny(inner, "()") {
		return "", false
	}
	return inner, true
}

// splitMemForm recognizes "offset(reg)".
func splitMemForm(tok string) (offset, reg string, ok bool) {
	if !strings.HasSuffix(tok, ")") {
		return "", "", false
	}
	open := strings.IndexByte(tok, '(')
	if open < 0 || open == 0 {
		return "", "", false
	}
	offset = strings.TrimSpace(tok[:open])
	reg = strings.TrimSpace(tok[open+1 : len(tok)-1])
	if reg == "" || strings.ContainsAny(reg, "()") {
		return "", "", false
	}
	return offset, reg, true
}

func parseSignedInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	neg := false
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, ok := parseUnsignedInt(s)
	if !ok {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

func parseUnsignedInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	var n uint64
	var err error
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		n, err = strconv.ParseUint(s[2:], 16, 64)
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		n, err = strconv.ParseUint(s[2:], 2, 64)
	default:
		n, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil {
		return 0, false
	}
	return int64(n), true
}

// parseImmediateToken parses a decimal/hex/binary literal, a signed
// variant of any of those, or a character literal — the final
// fallback alternative once every other operand form has failed to
// match.
func parseImmediateToken(tok string) (value int64, ok bool) {
	if len(tok) >= 2 && tok[0] == '\'' {
		return parseCharLiteral(tok)
	}

	neg := false
	body := tok
	if len(body) > 0 && (body[0] == '+' || body[0] == '-') {
		neg = body[0] == '-'
		body = body[1:]
	}

	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X") {
		digits := body[2:]
		if digits == "" {
			return 0, false
		}
		for _, c := range digits {
			if !isHexDigit(c) {
				return 0, false
			}
		}
		n, err := strconv.ParseUint(digits, 16, 64)
		if err != nil {
			return 0, false
		}
		v := int64(n)
		if neg {
			v = -v
		}
		return v, true
	}

	if strings.HasPrefix(body, "0b") || strings.HasPrefix(body, "0B") {
		n, err := strconv.ParseUint(body[2:], 2, 64)
		if err != nil {
			return 0, false
		}
		v := int64(n)
		if neg {
			v = -v
		}
		return v, true
	}

	if body == "" {
		return 0, false
	}
	for _, c := range body {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(body, 10, 64)
	if err != nil {
		return 0, false
	}
	v := int64(n)
	if neg {
		v = -v
	}
	return v, true
}

// parseCharLiteral handles 'x' and the documented escapes.
func parseCharLiteral(tok string) (int64, bool) {
	if len(tok) < 3 || tok[0] != '\'' || tok[len(tok)-1] != '\'' {
		return 0, false
	}
	body := tok[1 : len(tok)-1]
	if body == "" {
		return 0, false
	}
	if body[0] == '\\' {
		b, _, err := ParseEscapeChar(body)
		if err != nil {
			return 0, false
		}
		return int64(b), true
	}
	if len(body) != 1 {
		return 0, false
	}
	return int64(body[0]), true
}
