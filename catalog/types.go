// Package catalog loads the read-only instruction and pseudo-instruction
// tables and builds the keyed indexes the rest of the assembler looks
// things up in. Catalogs are built once and never mutated afterward.
package catalog

import (
	"fmt"
	"sort"
)

// FieldCategory classifies what an encoding field holds.
type FieldCategory string

const (
	FieldOpcode    FieldCategory = "opcode"
	FieldFunct     FieldCategory = "funct"
	FieldRd        FieldCategory = "rd"
	FieldRs1       FieldCategory = "rs1"
	FieldRs2       FieldCategory = "rs2"
	FieldRs3       FieldCategory = "rs3"
	FieldImmediate FieldCategory = "immediate"
	FieldOffset    FieldCategory = "offset"
	FieldCsr       FieldCategory = "csr"
	FieldShamt     FieldCategory = "shamt"
	FieldRm        FieldCategory = "rm"
	FieldAq        FieldCategory = "aq"
	FieldRl        FieldCategory = "rl"
	FieldVm        FieldCategory = "vm"
)

// EncodingField describes a named bit range inside an instruction word.
type EncodingField struct {
	Name     string        `json:"name"`
	StartBit int           `json:"startBit"` // MSB of the range
	EndBit   int           `json:"endBit"`   // LSB of the range
	Value    string        `json:"value"`    // pattern over [StartBit:EndBit], 'x' = variable
	Category FieldCategory `json:"category"`
}

// Width returns the number of bits the field spans.
func (f EncodingField) Width() int {
	return f.StartBit - f.EndBit + 1
}

// Instruction is a single entry from the instruction catalog JSON.
type Instruction struct {
	Mnemonic       string          `json:"mnemonic"`
	Extension      string          `json:"extension"`
	Format         string          `json:"format"`
	Category       string          `json:"category"`
	Encoding       string          `json:"encoding"` // 16 or 32 chars, MSB first, '0'/'1'/'x'
	Operands       []string        `json:"operands"`
	EncodingFields []EncodingField `json:"encodingFields"`
	InstructionCount struct {
		RV32 int `json:"rv32"`
		RV64 int `json:"rv64"`
	} `json:"instructionCount"`
}

// Width returns the total encoding width in bits (16 or 32).
func (i Instruction) Width() int {
	return len(i.Encoding)
}

// IsCompressed reports whether this is a 16-bit (C-extension) encoding.
func (i Instruction) IsCompressed() bool {
	return i.Width() == 16
}

// BaseMask returns the encoding string with every 'x' replaced by '0',
// interpreted as an integer: the base pattern the bit encoder starts from.
func (i Instruction) BaseMask() uint32 {
	var v uint32
	for _, c := range i.Encoding {
		v <<= 1
		if c == '1' {
			v |= 1
		}
	}
	return v
}

// Pseudo is a single entry from the pseudo-instruction catalog JSON.
type Pseudo struct {
	Mnemonic           string   `json:"mnemonic"`
	PseudoInstruction  string   `json:"pseudoinstruction"`
	BaseInstructions   []string `json:"baseInstructions"`
	RequiredExtensions []string `json:"requiredExtensions"`
}

// operandCount returns the number of operands implied by the pseudo's
// format string, e.g. "mv rd, rs" -> 2.
func (p Pseudo) operandCount() int {
	idx := -1
	for i, c := range p.PseudoInstruction {
		if c == ' ' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0
	}
	rest := p.PseudoInstruction[idx+1:]
	if rest == "" {
		return 0
	}
	n := 1
	for _, c := range rest {
		if c == ',' {
			n++
		}
	}
	return n
}

// hasRV32 reports whether the pseudo's required extensions include an
// RV32-tagged extension.
func (p Pseudo) hasRV32() bool {
	for _, ext := range p.RequiredExtensions {
		if len(ext) >= 4 && ext[:4] == "RV32" {
			return true
		}
	}
	return false
}

// Catalogs holds the immutable indexes built from the instruction and
// pseudo-instruction tables. Safe for concurrent read-only use across
// assembly calls.
type Catalogs struct {
	byMnemonic    map[string]Instruction
	byMnemonicExt map[string]Instruction // key: mnemonic + "/" + extension
	pseudoByMnem  map[string][]Pseudo
}

// extKey builds the composite key used by byMnemonicExt.
func extKey(mnemonic, extension string) string {
	return mnemonic + "/" + extension
}

// Lookup implements the XLEN-aware extension preference order.
// mnemonic must already be uppercased.
func (c *Catalogs) Lookup(mnemonic string, xlen int) (Instruction, bool) {
	order := lookupOrder(xlen)
	for _, ext := range order {
		if rec, ok := c.byMnemonicExt[extKey(mnemonic, ext)]; ok {
			return rec, true
		}
	}
	rec, ok := c.byMnemonic[mnemonic]
	return rec, ok
}

// LookupExt returns the exact (mnemonic, extension) entry if present.
func (c *Catalogs) LookupExt(mnemonic, extension string) (Instruction, bool) {
	rec, ok := c.byMnemonicExt[extKey(mnemonic, extension)]
	return rec, ok
}

// AllForXLEN returns every instruction record whose extension belongs
// to xlen's lookup order, in that order's extension preference — the
// decoder's candidate list for single-word matching.
func (c *Catalogs) AllForXLEN(xlen int, width int) []Instruction {
	order := lookupOrder(xlen)
	rank := make(map[string]int, len(order))
	for i, ext := range order {
		rank[ext] = i
	}

	var out []Instruction
	for _, rec := range c.byMnemonicExt {
		if rec.Width() != width {
			continue
		}
		if _, ok := rank[rec.Extension]; ok {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := rank[out[i].Extension], rank[out[j].Extension]
		if ri != rj {
			return ri < rj
		}
		return out[i].Mnemonic < out[j].Mnemonic
	})
	return out
}

// Pseudos returns every pseudo-instruction record for mnemonic, in
// catalog order.
func (c *Catalogs) Pseudos(mnemonic string) []Pseudo {
	return c.pseudoByMnem[mnemonic]
}

// lookupOrder returns the extension preference list for a given XLEN.
func lookupOrder(xlen int) []string {
	if xlen == 64 {
		return []string{
			"RV64I", "RV64Zicsr", "RV64Zifencei", "RV64M", "RV64A", "RV64F", "RV64D", "RV64B", "RV64C", "RV64V", "RV64Zfh",
			"RV32I", "RV32Zicsr", "RV32Zifencei", "RV32M", "RV32A", "RV32F", "RV32D", "RV32B", "RV32C", "RV32V", "RV32Zfh",
		}
	}
	return []string{
		"RV32I", "RV32Zicsr", "RV32Zifencei", "RV32M", "RV32A", "RV32F", "RV32D", "RV32B", "RV32C", "RV32V", "RV32Zfh",
	}
}

// ErrDuplicate describes a duplicate (mnemonic, extension) catalog
// entry. Load does not return it: a duplicate keeps its first
// occurrence in the (mnemonic, extension) index.
type ErrDuplicate struct {
	Mnemonic  string
	Extension string
}

func (e *ErrDuplicate) Error() string {
	return fmt.Sprintf("catalog: duplicate entry for %s/%s", e.Mnemonic, e.Extension)
}
