package assembler

import "github.com/riscv-toolkit/rvasm/parser"

// sewField converts a SEW element width in bits (8/16/32/64) to its
// 3-bit vtype encoding.
func sewField(width int) uint32 {
	switch width {
	case 8:
		return 0
	case 16:
		return 1
	case 32:
		return 2
	case 64:
		return 3
	default:
		return 0
	}
}

// collectVtype implements the VSETVLI/VSETIVLI special case — the
// emitter's only instruction-specific branch: source syntax is
// "rd, rs1, e32, m1, ta, ma" but the catalog's operand list is
// [imm, rs1, rd]. This folds every VtypeField operand into a single
// packed immediate and returns the remaining (non-vtype) operands in
// their original order.
func collectVtype(operands []parser.Operand) (vtypeImm int64, rest []parser.Operand) {
	var ma, ta, sew, lmul uint32
	lmul = 0 // m1 default

	for _, op := range operands {
		if op.Kind != parser.OperandVtypeField {
			rest = append(rest, op)
			continue
		}
		switch op.VtypeKind {
		case parser.VtypeSEW:
			sew = sewField(op.VtypeVal)
		case parser.VtypeLMUL:
			lmul = uint32(op.VtypeVal) & 0x7
		case parser.VtypeTail:
			ta = uint32(op.VtypeVal)
		case parser.VtypeMaskAgnostic:
			ma = uint32(op.VtypeVal)
		}
	}

	imm := (ma << 7) | (ta << 6) | (sew << 3) | lmul
	return int64(imm), rest
}
