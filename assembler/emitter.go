package assembler

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/riscv-toolkit/rvasm/catalog"
	"github.com/riscv-toolkit/rvasm/encoder"
	"github.com/riscv-toolkit/rvasm/parser"
)

// emitState is pass two's running state: independent text/data byte
// buffers and cursors, plus the line<->address cross-reference maps.
type emitState struct {
	textBytes []byte
	dataBytes []byte
	textAddr  uint64
	dataAddr  uint64

	lineToFirst map[int]uint64
	addrToLine  map[uint64]int
}

func runPassTwo(lines []parser.ParsedLine, allOperands [][]parser.Operand, cats *catalog.Catalogs, opts Options, symbols *parser.SymbolTable) (*emitState, *parser.ErrorList) {
	errs := &parser.ErrorList{}
	st := &emitState{
		textAddr:    opts.TextBase,
		dataAddr:    opts.DataBase,
		lineToFirst: make(map[int]uint64),
		addrToLine:  make(map[uint64]int),
	}

	for i, ln := range lines {
		switch {
		case ln.Directive != nil:
			if ln.Directive.Name == "text" || ln.Directive.Name == "data" || ln.Directive.Name == "equ" {
				continue
			}
			if ln.Section == parser.SectionData {
				buf, err := emitDirective(*ln.Directive, symbols, st.dataAddr, st.dataBytes)
				if err != nil {
					errs.AddError(parser.NewError(parser.Position{Line: ln.LineNo}, parser.ErrorInvalidOperand, err.Error()))
					continue
				}
				added := len(buf) - len(st.dataBytes)
				st.dataBytes = buf
				st.dataAddr += uint64(added)
			}

		case ln.Mnemonic != "":
			if ln.Section != parser.SectionText {
				continue
			}
			if err := emitInstructionLine(ln, allOperands[i], cats, opts, symbols, st); err != nil {
				errs.AddError(parser.NewError(parser.Position{Line: ln.LineNo}, parser.ErrorEncoding, err.Error()))
			}
		}
	}

	return st, errs
}

func emitInstructionLine(ln parser.ParsedLine, operands []parser.Operand, cats *catalog.Catalogs, opts Options, symbols *parser.SymbolTable, st *emitState) error {
	base, rm, aqrl := stripModifierSuffixes(ln.Mnemonic)
	pc := st.textAddr
	st.lineToFirst[ln.LineNo] = pc

	if !requiresPseudoFallback(base, operands) {
		if rec, ok := cats.Lookup(base, opts.XLEN); ok {
			word, err := encodeNative(rec, base, operands, rm, aqrl, symbols, pc)
			if err != nil {
				return err
			}
			writeWord(st, word, rec.Width()/8, ln.LineNo)
			return nil
		}
	}

	resolve := func(name string) (int64, bool, error) {
		sym, ok := symbols.Lookup(name)
		if !ok || !sym.Defined {
			return 0, false, fmt.Errorf("undefined symbol %q", name)
		}
		return int64(sym.Value), sym.Type == parser.SymbolLabel, nil
	}
	adaptedResolve := func(name string) (int64, bool, bool) {
		v, isLabel, err := resolve(name)
		return v, isLabel, err == nil
	}

	ctx := ExpandContext{Catalogs: cats, XLEN: opts.XLEN, LocalAddr: pc, Resolve: adaptedResolve}
	expanded, err := Expand(base, operands, ctx)
	if err != nil {
		return fmt.Errorf("unknown instruction %q: %w", ln.Mnemonic, err)
	}

	for _, ei := range expanded {
		rec, ok := cats.Lookup(ei.Mnemonic, opts.XLEN)
		if !ok {
			return fmt.Errorf("pseudo-expansion produced unknown instruction %q", ei.Mnemonic)
		}
		word, err := encodeNative(rec, ei.Mnemonic, ei.Operands, nil, "", symbols, st.textAddr)
		if err != nil {
			return err
		}
		writeWord(st, word, 4, ln.LineNo)
	}
	return nil
}

func writeWord(st *emitState, word uint32, width int, lineNo int) {
	addr := st.textAddr
	st.addrToLine[addr] = lineNo
	b := make([]byte, width)
	switch width {
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(word))
	default:
		binary.LittleEndian.PutUint32(b, word)
	}
	st.textBytes = append(st.textBytes, b...)
	st.textAddr += uint64(width)
}

// encodeNative maps operands onto rec's value slots and invokes the
// bit encoder. pc is the address of the instruction being emitted,
// used to resolve PC-relative label operands for B/J formats.
func encodeNative(rec catalog.Instruction, mnemonic string, operands []parser.Operand, rm *int64, aqrl string, symbols *parser.SymbolTable, pc uint64) (uint32, error) {
	var ops []parser.Operand
	var vtypeImm int64
	isVset := mnemonic == "VSETVLI" || mnemonic == "VSETIVLI"
	if isVset {
		vtypeImm, ops = collectVtype(operands)
	} else {
		ops = operands
	}

	values := encoder.Values{}
	if rm != nil {
		values.Rm = rm
	}
	if aqrl == "AQ" || aqrl == "AQRL" {
		v := int64(1)
		values.Aq = &v
	}
	if aqrl == "RL" || aqrl == "AQRL" {
		v := int64(1)
		values.Rl = &v
	}

	// Memory operand: last operand supplies base register + offset;
	// operands before it are rd (loads) / rd,rs2 (atomics) / rs2
	// (stores).
	if n := len(ops); n > 0 && ops[n-1].Kind == parser.OperandMem {
		mem := ops[n-1]
		values.Rs1 = int64(mem.MemBase)
		values.Imm = mem.MemOffset
		before := ops[:n-1]
		switch rec.Category {
		case "Store":
			if len(before) > 0 {
				values.Rs2 = int64(before[0].Reg)
			}
		case "Atomic":
			if len(before) == 1 {
				values.Rd = int64(before[0].Reg)
			} else if len(before) == 2 {
				values.Rd = int64(before[0].Reg)
				values.Rs2 = int64(before[1].Reg)
			}
		default: // Load and FP load
			if len(before) > 0 {
				values.Rd = int64(before[0].Reg)
			}
		}
		return encoder.Encode(rec, values)
	}

	if isVset {
		values.Imm = vtypeImm
		if len(ops) > 0 {
			values.Rd = int64(ops[0].Reg)
		}
		if mnemonic == "VSETIVLI" && len(ops) > 1 {
			values.Rs1 = ops[1].Imm // AVL immediate occupies the rs1 field
		} else if len(ops) > 1 {
			values.Rs1 = int64(ops[1].Reg)
		}
		return encoder.Encode(rec, values)
	}

	names := rec.Operands
	for i, name := range names {
		if i >= len(ops) {
			break
		}
		op := ops[i]
		switch slotFor(name) {
		case slotRd:
			values.Rd = int64(op.Reg)
		case slotRs1:
			if op.Kind == parser.OperandImm {
				values.Rs1 = op.Imm
				values.UseImmAsRs1 = true
			} else {
				values.Rs1 = int64(op.Reg)
			}
		case slotRs2:
			values.Rs2 = int64(op.Reg)
		case slotRs3:
			values.Rs3 = int64(op.Reg)
		case slotCsr:
			values.Csr = int64(op.Csr)
		case slotShamt:
			v := op.Imm
			values.Shamt = &v
		case slotImm:
			v, err := immediateValue(op, rec.Format, symbols, pc)
			if err != nil {
				return 0, err
			}
			values.Imm = v
		}
	}

	return encoder.Encode(rec, values)
}

type slot int

const (
	slotNone slot = iota
	slotRd
	slotRs1
	slotRs2
	slotRs3
	slotCsr
	slotShamt
	slotImm
)

func slotFor(name string) slot {
	switch strings.ToLower(name) {
	case "rd", "vd", "vs3", "fd":
		return slotRd
	case "rs1", "vs1", "fs1":
		return slotRs1
	case "rs2", "vs2", "fs2":
		return slotRs2
	case "rs3", "fs3":
		return slotRs3
	case "csr":
		return slotCsr
	case "shamt":
		return slotShamt
	case "uimm":
		return slotRs1
	case "imm", "offset", "symbol", "predsucc":
		return slotImm
	default:
		return slotNone
	}
}

// immediateValue resolves an Imm or Label operand to its final
// integer value, applying the PC-relative rule for branch/jump
// (B/J-format) label targets.
func immediateValue(op parser.Operand, format string, symbols *parser.SymbolTable, pc uint64) (int64, error) {
	switch op.Kind {
	case parser.OperandImm:
		return op.Imm, nil
	case parser.OperandLabel:
		sym, ok := symbols.Lookup(op.Label)
		if !ok || !sym.Defined {
			return 0, fmt.Errorf("undefined symbol %q", op.Label)
		}
		if sym.Type == parser.SymbolLabel && (format == "B" || format == "J") {
			return int64(sym.Value) - int64(pc), nil
		}
		return int64(sym.Value), nil
	default:
		return 0, fmt.Errorf("expected an immediate or label operand")
	}
}
