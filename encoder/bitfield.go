// Package encoder implements the data-driven bit encoder: given a
// catalog instruction record and a set of resolved operand values, it
// produces the 16- or 32-bit instruction word by writing each
// encoding field's variable bits into the record's base mask.
package encoder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/riscv-toolkit/rvasm/catalog"
)

// Values is the operand-value bundle the emitter hands to Encode.
// Optional fields use pointers so the encoder can tell "not supplied"
// from "supplied as zero" and apply the documented defaults.
type Values struct {
	Rd, Rs1, Rs2, Rs3 int64
	Imm               int64
	Csr               int64

	// UseImmAsRs1 handles vector-immediate forms (e.g. VADD.VI) whose
	// rs1 field is actually populated from the immediate operand.
	UseImmAsRs1 bool

	Shamt *int64
	Rm    *int64
	Aq    *int64
	Rl    *int64
	Vm    *int64
}

// Encode builds the instruction word for rec using v: each encoding
// field in rec pulls its value from v according to the field's
// category and writes it into the record's base mask.
func Encode(rec catalog.Instruction, v Values) (uint32, error) {
	word := rec.BaseMask()

	for _, f := range rec.EncodingFields {
		switch f.Category {
		case catalog.FieldOpcode:
			continue

		case catalog.FieldFunct:
			// Funct/opcode bits come from the base mask and are never
			// overwritten, except the R4 fused multiply-add exception:
			// funct7 actually encodes rs3<<2.
			if rec.Format == "R4" && strings.EqualFold(f.Name, "funct7") {
				word = writeField(word, f, uint32(v.Rs3)<<2)
			}
			continue

		default:
			insert, err := resolveFieldValue(f, v)
			if err != nil {
				return 0, err
			}
			word = writeField(word, f, insert)
		}
	}

	return word, nil
}

func resolveFieldValue(f catalog.EncodingField, v Values) (uint32, error) {
	switch f.Category {
	case catalog.FieldRd:
		return uint32(v.Rd), nil
	case catalog.FieldRs1:
		if v.UseImmAsRs1 {
			return uint32(v.Imm) & bitmask(f.Width()), nil
		}
		return uint32(v.Rs1), nil
	case catalog.FieldRs2:
		return uint32(v.Rs2), nil
	case catalog.FieldRs3:
		return uint32(v.Rs3), nil
	case catalog.FieldImmediate, catalog.FieldOffset:
		return resolveImmediateSlice(f, v.Imm)
	case catalog.FieldCsr:
		return uint32(v.Csr), nil
	case catalog.FieldShamt:
		if v.Shamt != nil {
			return uint32(*v.Shamt), nil
		}
		return uint32(v.Imm), nil
	case catalog.FieldRm:
		if v.Rm != nil {
			return uint32(*v.Rm), nil
		}
		return 7, nil // dyn (dynamic rounding mode)
	case catalog.FieldAq:
		if v.Aq != nil {
			return uint32(*v.Aq), nil
		}
		return 0, nil
	case catalog.FieldRl:
		if v.Rl != nil {
			return uint32(*v.Rl), nil
		}
		return 0, nil
	case catalog.FieldVm:
		if v.Vm != nil {
			return uint32(*v.Vm), nil
		}
		return 1, nil
	default:
		return 0, fmt.Errorf("encoder: unknown field category %q for field %q", f.Category, f.Name)
	}
}

// resolveImmediateSlice extracts bits [hi:lo] of imm per the field
// name pattern "imm[hi:lo]" / "imm[bit]" / "offset[hi:lo]". A field
// with no bracket slice takes the whole immediate (sign bits
// truncated to the field's own width by writeField's consumption).
// The U-type "imm[31:12]" slice takes imm directly as the upper-20
// value, the form LUI/AUIPC operands and pseudo expansions carry.
func resolveImmediateSlice(f catalog.EncodingField, imm int64) (uint32, error) {
	hi, lo, ok := parseBitSlice(f.Name)
	if !ok {
		return uint32(imm), nil
	}
	if hi == 31 && lo == 12 {
		return uint32(imm) & bitmask(20), nil
	}
	shifted := uint64(imm) >> uint(lo)
	width := hi - lo + 1
	return uint32(shifted) & bitmask(width), nil
}

// parseBitSlice parses "name[hi:lo]" or "name[bit]" suffixes.
func parseBitSlice(name string) (hi, lo int, ok bool) {
	open := strings.IndexByte(name, '[')
	if open < 0 || !strings.HasSuffix(name, "]") {
		return 0, 0, false
	}
	inner := name[open+1 : len(name)-1]
	if colon := strings.IndexByte(inner, ':'); colon >= 0 {
		h, err1 := strconv.Atoi(inner[:colon])
		l, err2 := strconv.Atoi(inner[colon+1:])
		if err1 != nil || err2 != nil {
			return 0, 0, false
		}
		return h, l, true
	}
	b, err := strconv.Atoi(inner)
	if err != nil {
		return 0, 0, false
	}
	return b, b, true
}

func bitmask(width int) uint32 {
	if width <= 0 {
		return 0
	}
	if width >= 32 {
		return 0xFFFFFFFF
	}
	return (uint32(1) << uint(width)) - 1
}

// writeField writes insert's bits into word at field's bit positions,
// iterating the field's literal/variable pattern LSB-first: each 'x'
// consumes the next bit of insert (from its own LSB upward), while
// literal '0'/'1' characters are left untouched since they already
// came from the record's base mask. This is the only correct way to
// handle a field whose pattern mixes fixed and variable bits, such as
// SRAI's 12-bit immediate "0100000xxxxx".
func writeField(word uint32, f catalog.EncodingField, insert uint32) uint32 {
	pattern := f.Value
	consumed := uint(0)
	for i := len(pattern) - 1; i >= 0; i-- {
		bitPos := f.EndBit + (len(pattern) - 1 - i)
		if pattern[i] != 'x' {
			continue
		}
		bit := (insert >> consumed) & 1
		if bit != 0 {
			word |= 1 << uint(bitPos)
		} else {
			word &^= 1 << uint(bitPos)
		}
		consumed++
	}
	return word
}

// ExtractField reads field f's bit range out of word, returning only
// the bits at its variable ('x') positions packed LSB-first — the
// decoder's inverse of writeField.
func ExtractField(word uint32, f catalog.EncodingField) uint32 {
	pattern := f.Value
	var result uint32
	shift := uint(0)
	for i := len(pattern) - 1; i >= 0; i-- {
		bitPos := f.EndBit + (len(pattern) - 1 - i)
		if pattern[i] != 'x' {
			continue
		}
		bit := (word >> uint(bitPos)) & 1
		result |= bit << shift
		shift++
	}
	return result
}

// ExtractLiteralBits reads the literal ('0'/'1') bit positions of
// field f out of word, for equality-testing against f.Value during
// decode matching.
func ExtractLiteralBits(word uint32, f catalog.EncodingField) (mask, value uint32) {
	pattern := f.Value
	for i := len(pattern) - 1; i >= 0; i-- {
		bitPos := f.EndBit + (len(pattern) - 1 - i)
		if pattern[i] == 'x' {
			continue
		}
		mask |= 1 << uint(bitPos)
		if pattern[i] == '1' {
			value |= 1 << uint(bitPos)
		}
	}
	return mask, value
}
