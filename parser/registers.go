package parser

import "strings"

// intRegisterABI maps the integer-register ABI names to their x0-x31
// index, per the standard RISC-V calling convention.
var intRegisterABI = map[string]int{
	"ZERO": 0, "RA": 1, "SP": 2, "GP": 3, "TP": 4,
	"T0": 5, "T1": 6, "T2": 7,
	"S0": 8, "FP": 8, "S1": 9,
	"A0": 10, "A1": 11, "A2": 12, "A3": 13, "A4": 14, "A5": 15, "A6": 16, "A7": 17,
	"S2": 18, "S3": 19, "S4": 20, "S5": 21, "S6": 22, "S7": 23, "S8": 24, "S9": 25, "S10": 26, "S11": 27,
	"T3": 28, "T4": 29, "T5": 30, "T6": 31,
}

// fpRegisterABI maps the floating-point register ABI names to their
// f0-f31 index.
var fpRegisterABI = map[string]int{
	"FT0": 0, "FT1": 1, "FT2": 2, "FT3": 3, "FT4": 4, "FT5": 5, "FT6": 6, "FT7": 7,
	"FS0": 8, "FS1": 9,
	"FA0": 10, "FA1": 11, "FA2": 12, "FA3": 13, "FA4": 14, "FA5": 15, "FA6": 16, "FA7": 17,
	"FS2": 18, "FS3": 19, "FS4": 20, "FS5": 21, "FS6": 22, "FS7": 23, "FS8": 24, "FS9": 25, "FS10": 26, "FS11": 27,
	"FT8": 28, "FT9": 29, "FT10": 30, "FT11": 31,
}

// csrNames maps well-known CSR names to their 12-bit address.
var csrNames = map[string]int{
	"FFLAGS": 0x001, "FRM": 0x002, "FCSR": 0x003,
	"CYCLE": 0xC00, "TIME": 0xC01, "INSTRET": 0xC02,
	"CYCLEH": 0xC80, "TIMEH": 0xC81, "INSTRETH": 0xC82,
	"MSTATUS": 0x300, "MISA": 0x301, "MIE": 0x304, "MTVEC": 0x305,
	"MSCRATCH": 0x340, "MEPC": 0x341, "MCAUSE": 0x342, "MTVAL": 0x343, "MIP": 0x344,
	"SSTATUS": 0x100, "SIE": 0x104, "STVEC": 0x105,
	"SSCRATCH": 0x140, "SEPC": 0x141, "SCAUSE": 0x142, "STVAL": 0x143, "SIP": 0x144,
}

// roundingModes maps rounding-mode mnemonics to their 3-bit encoding.
var roundingModes = map[string]int{
	"RNE": 0, "RTZ": 1, "RDN": 2, "RUP": 3, "RMM": 4, "DYN": 7,
}

// The vtype tables map the textual vtype tokens to their field values.
var vtypeSEW = map[string]int{"E8": 8, "E16": 16, "E32": 32, "E64": 64}
var vtypeLMUL = map[string]int{"MF8": -3, "MF4": -2, "MF2": -1, "M1": 0, "M2": 1, "M4": 2, "M8": 3}
var vtypeTail = map[string]int{"TU": 0, "TA": 1}
var vtypeMask = map[string]int{"MU": 0, "MA": 1}

// ParseIntReg returns the register number for an integer register token
// (x0-x31 or an ABI name), case-insensitively.
func ParseIntReg(tok string) (int, bool) {
	u := strings.ToUpper(strings.TrimSpace(tok))
	if len(u) >= 2 && u[0] == 'X' {
		if n, ok := parseRegIndex(u[1:]); ok {
			return n, true
		}
	}
	if n, ok := intRegisterABI[u]; ok {
		return n, true
	}
	return 0, false
}

// ParseFpReg returns the register number for a floating-point register
// token (f0-f31 or an ABI name).
func ParseFpReg(tok string) (int, bool) {
	u := strings.ToUpper(strings.TrimSpace(tok))
	if len(u) >= 2 && u[0] == 'F' {
		if n, ok := parseRegIndex(u[1:]); ok {
			return n, true
		}
	}
	if n, ok := fpRegisterABI[u]; ok {
		return n, true
	}
	return 0, false
}

// ParseVecReg returns the register number for a vector register token
// (v0-v31).
func ParseVecReg(tok string) (int, bool) {
	u := strings.ToUpper(strings.TrimSpace(tok))
	if len(u) >= 2 && u[0] == 'V' {
		if n, ok := parseRegIndex(u[1:]); ok {
			return n, true
		}
	}
	return 0, false
}

func parseRegIndex(digits string) (int, bool) {
	if digits == "" {
		return 0, false
	}
	n := 0
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	if n > 31 {
		return 0, false
	}
	return n, true
}

// ParseCsrName returns the CSR address for a known CSR name.
func ParseCsrName(tok string) (int, bool) {
	n, ok := csrNames[strings.ToUpper(strings.TrimSpace(tok))]
	return n, ok
}

// ParseRoundingMode returns the 3-bit rounding-mode encoding for a
// recognized rounding-mode mnemonic.
func ParseRoundingMode(tok string) (int, bool) {
	n, ok := roundingModes[strings.ToUpper(strings.TrimSpace(tok))]
	return n, ok
}

// VtypeFieldKind identifies which vtype sub-field a token names.
type VtypeFieldKind int

const (
	VtypeSEW VtypeFieldKind = iota
	VtypeLMUL
	VtypeTail
	VtypeMaskAgnostic
)

// ParseVtypeField recognizes one of the vtype tokens (e8/e16/.../m1/.../tu/ta/mu/ma).
func ParseVtypeField(tok string) (kind VtypeFieldKind, value int, ok bool) {
	u := strings.ToUpper(strings.TrimSpace(tok))
	if v, found := vtypeSEW[u]; found {
		return VtypeSEW, v, true
	}
	if v, found := vtypeLMUL[u]; found {
		return VtypeLMUL, v, true
	}
	if v, found := vtypeTail[u]; found {
		return VtypeTail, v, true
	}
	if v, found := vtypeMask[u]; found {
		return VtypeMaskAgnostic, v, true
	}
	return 0, 0, false
}
