// Package decoder implements the single-word inverse of the encoder:
// given a 16- or 32-bit instruction word and an assumed XLEN, it finds
// the catalog entry that would have produced it and reports the
// operand values that round-trip back into it.
package decoder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/riscv-toolkit/rvasm/catalog"
	"github.com/riscv-toolkit/rvasm/encoder"
)

// Decoded is the result of matching one word against the catalog.
type Decoded struct {
	Instruction catalog.Instruction
	Operands    map[string]int64
	Assembly    string
}

// Decode matches word against cats' instructions for the given XLEN
// using a candidate-filter-then-first-match rule: it walks the
// candidate list in extension-preference order, accepting the first
// entry whose literal bits all agree with word.
func Decode(word uint32, xlen int, cats *catalog.Catalogs) (*Decoded, error) {
	width := 32
	if word&0x3 != 0x3 && (word>>16) == 0 {
		width = 16
	}

	for _, rec := range cats.AllForXLEN(xlen, width) {
		if !literalBitsMatch(rec, word) {
			continue
		}
		ops := extractOperands(rec, word, xlen)
		return &Decoded{
			Instruction: rec,
			Operands:    ops,
			Assembly:    format(rec, ops),
		}, nil
	}

	return nil, fmt.Errorf("no matching instruction for word 0x%X", word)
}

// literalBitsMatch tests word's literal ('0'/'1') bit positions
// against rec's full encoding pattern. 16-bit candidates are compared
// against word's low halfword.
func literalBitsMatch(rec catalog.Instruction, word uint32) bool {
	mask, value := literalMaskAndValue(rec.Encoding)
	w := word
	if rec.Width() == 16 {
		w = word & 0xFFFF
	}
	return w&mask == value&mask
}

func literalMaskAndValue(encoding string) (mask, value uint32) {
	for _, c := range encoding {
		mask <<= 1
		value <<= 1
		switch c {
		case '0':
			mask |= 1
		case '1':
			mask |= 1
			value |= 1
		}
	}
	return mask, value
}

// extractOperands slices word into its named field values, sign-
// extending the reassembled immediate for signed formats and masking
// shift-amount width to XLEN.
func extractOperands(rec catalog.Instruction, word uint32, xlen int) map[string]int64 {
	out := make(map[string]int64)

	var immHi int = -1
	var immBits uint32

	for _, f := range rec.EncodingFields {
		switch f.Category {
		case catalog.FieldOpcode, catalog.FieldFunct:
			continue
		case catalog.FieldRd:
			out["rd"] = int64(encoder.ExtractField(word, f))
		case catalog.FieldRs1:
			out["rs1"] = int64(encoder.ExtractField(word, f))
		case catalog.FieldRs2:
			out["rs2"] = int64(encoder.ExtractField(word, f))
		case catalog.FieldRs3:
			out["rs3"] = int64(encoder.ExtractField(word, f))
		case catalog.FieldCsr:
			out["csr"] = int64(encoder.ExtractField(word, f))
		case catalog.FieldShamt:
			shamt := encoder.ExtractField(word, f)
			if xlen == 64 {
				shamt &= 0x3F
			} else {
				shamt &= 0x1F
			}
			out["shamt"] = int64(shamt)
		case catalog.FieldRm:
			out["rm"] = int64(encoder.ExtractField(word, f))
		case catalog.FieldAq:
			out["aq"] = int64(encoder.ExtractField(word, f))
		case catalog.FieldRl:
			out["rl"] = int64(encoder.ExtractField(word, f))
		case catalog.FieldVm:
			out["vm"] = int64(encoder.ExtractField(word, f))
		case catalog.FieldImmediate, catalog.FieldOffset:
			hi, lo, ok := parseBitSlice(f.Name)
			bits := encoder.ExtractField(word, f)
			if !ok {
				out["imm"] = int64(bits)
				continue
			}
			if hi == 31 && lo == 12 {
				// U-type upper-20 form, as the encoder takes it.
				out["imm"] = int64(bits)
				continue
			}
			immBits |= bits << uint(lo)
			if hi > immHi {
				immHi = hi
			}
		}
	}

	if immHi >= 0 {
		out["imm"] = signExtend(immBits, immHi+1, isSignedFormat(rec.Format))
	}

	return out
}

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

func isSignedFormat(format string) bool {
	switch format {
	case "I", "S", "B", "J":
		return true
	default:
		return false
	}
}

func signExtend(bits uint32, width int, signed bool) int64 {
	if width <= 0 || width >= 32 {
		return int64(int32(bits))
	}
	v := int64(bits)
	if signed && bits&(1<<uint(width-1)) != 0 {
		v -= 1 << uint(width)
	}
	return v
}
