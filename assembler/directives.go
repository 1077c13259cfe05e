package assembler

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/riscv-toolkit/rvasm/parser"
)

// directiveSize returns the number of bytes a data-section directive
// emits at the given cursor address. Directives with purely
// structural effect (section switches, .equ, ignored attributes) are
// zero. cursor only matters for .align.
func directiveSize(d parser.Directive, symbols *parser.SymbolTable, cursor uint64) int {
	switch d.Name {
	case "byte":
		return len(d.Args)
	case "half":
		return len(d.Args) * 2
	case "word":
		return len(d.Args) * 4
	case "dword", "quad":
		return len(d.Args) * 8
	case "float":
		return len(d.Args) * 4
	case "double":
		return len(d.Args) * 8
	case "space", "skip":
		if len(d.Args) == 0 {
			return 0
		}
		n, _ := evalDirectiveInt(d.Args[0], symbols)
		return int(n)
	case "align":
		if len(d.Args) == 0 {
			return 0
		}
		power, _ := evalDirectiveInt(d.Args[0], symbols)
		alignBytes := uint64(1) << uint(power)
		mask := alignBytes - 1
		target := (cursor + mask) &^ mask
		return int(target - cursor)
	case "ascii":
		if len(d.Args) == 0 {
			return 0
		}
		return len(parser.ProcessEscapeSequences(unquote(d.Args[0])))
	case "asciz", "string":
		if len(d.Args) == 0 {
			return 1
		}
		return len(parser.ProcessEscapeSequences(unquote(d.Args[0]))) + 1
	default:
		// .equ, .text, .data, .globl, .section, .type, .size: zero bytes.
		return 0
	}
}

// emitDirective appends a directive's bytes onto buf, given the
// current cursor address (needed for .align's padding math), and
// returns the updated buffer.
func emitDirective(d parser.Directive, symbols *parser.SymbolTable, cursor uint64, buf []byte) ([]byte, error) {
	switch d.Name {
	case "byte":
		for _, a := range d.Args {
			v, err := evalDirectiveInt(a, symbols)
			if err != nil {
				buf = append(buf, 0)
				continue
			}
			buf = append(buf, byte(v))
		}
	case "half":
		for _, a := range d.Args {
			v, err := evalDirectiveInt(a, symbols)
			b := make([]byte, 2)
			if err == nil {
				binary.LittleEndian.PutUint16(b, uint16(v))
			}
			buf = append(buf, b...)
		}
	case "word":
		for _, a := range d.Args {
			v, err := evalDirectiveInt(a, symbols)
			b := make([]byte, 4)
			if err == nil {
				binary.LittleEndian.PutUint32(b, uint32(v))
			}
			buf = append(buf, b...)
		}
	case "dword", "quad":
		for _, a := range d.Args {
			v, err := evalDirectiveInt(a, symbols)
			b := make([]byte, 8)
			if err == nil {
				binary.LittleEndian.PutUint64(b, uint64(v))
			}
			buf = append(buf, b...)
		}
	case "float":
		for _, a := range d.Args {
			f, err := strconv.ParseFloat(a, 32)
			b := make([]byte, 4)
			if err == nil {
				binary.LittleEndian.PutUint32(b, math.Float32bits(float32(f)))
			}
			buf = append(buf, b...)
		}
	case "double":
		for _, a := range d.Args {
			f, err := strconv.ParseFloat(a, 64)
			b := make([]byte, 8)
			if err == nil {
				binary.LittleEndian.PutUint64(b, math.Float64bits(f))
			}
			buf = append(buf, b...)
		}
	case "space", "skip":
		if len(d.Args) > 0 {
			n, err := evalDirectiveInt(d.Args[0], symbols)
			if err != nil {
				return buf, fmt.Errorf("invalid .space size %q", d.Args[0])
			}
			buf = append(buf, make([]byte, n)...)
		}
	case "align":
		if len(d.Args) > 0 {
			power, err := evalDirectiveInt(d.Args[0], symbols)
			if err != nil {
				return buf, fmt.Errorf("invalid .align power %q", d.Args[0])
			}
			alignBytes := uint64(1) << uint(power)
			mask := alignBytes - 1
			target := (cursor + mask) &^ mask
			pad := target - cursor
			buf = append(buf, make([]byte, pad)...)
		}
	case "ascii":
		if len(d.Args) > 0 {
			buf = append(buf, []byte(parser.ProcessEscapeSequences(unquote(d.Args[0])))...)
		}
	case "asciz", "string":
		s := ""
		if len(d.Args) > 0 {
			s = parser.ProcessEscapeSequences(unquote(d.Args[0]))
		}
		buf = append(buf, []byte(s)...)
		buf = append(buf, 0)
	}
	return buf, nil
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func evalDirectiveInt(s string, symbols *parser.SymbolTable) (int64, error) {
	op := parser.ParseOperand(s, parser.Options{})
	switch op.Kind {
	case parser.OperandImm:
		return op.Imm, nil
	case parser.OperandLabel:
		v, err := symbols.Get(op.Label)
		if err != nil {
			return 0, err
		}
		return int64(v), nil
	default:
		return 0, fmt.Errorf("cannot evaluate %q as an integer", s)
	}
}
