package assembler

import (
	"fmt"
	"strings"

	"github.com/riscv-toolkit/rvasm/catalog"
	"github.com/riscv-toolkit/rvasm/parser"
)

// pseudoRequiredMnemonics lists load/store forms whose final operand,
// when it is not a Mem operand, forces pseudo-expansion.
var pseudoRequiredMnemonics = map[string]bool{
	"LB": true, "LH": true, "LW": true, "LD": true,
	"LBU": true, "LHU": true, "LWU": true,
	"SB": true, "SH": true, "SW": true, "SD": true,
	"FLW": true, "FLD": true, "FLH": true, "FLQ": true,
	"FSW": true, "FSD": true, "FSH": true, "FSQ": true,
}

// resolved holds everything pass one produces for pass two to use.
type resolved struct {
	symbols   *parser.SymbolTable
	lineSize  map[int]int // source line -> emitted byte count (text lines only)
}

// requiresPseudoFallback reports whether mnemonic+operands cannot use
// a native catalog entry even if one exists, per the
// load/store-without-Mem rule. FENCE always routes through expandFence,
// which parses its iorw-letter pred/succ operands and supplies the
// default iorw,iorw when none are given — the catalog's native FENCE
// entry only ever sees the already-packed immediate that expansion
// produces.
func requiresPseudoFallback(mnemonic string, operands []parser.Operand) bool {
	if mnemonic == "FENCE" {
		return true
	}
	if !pseudoRequiredMnemonics[mnemonic] {
		return false
	}
	if len(operands) == 0 {
		return true
	}
	return operands[len(operands)-1].Kind != parser.OperandMem
}

// runPassOne walks the parsed lines twice: first to gather ".equ"
// constants (1a), then to compute every label's address and each
// line's emitted size (1b).
func runPassOne(lines []parser.ParsedLine, cats *catalog.Catalogs, opts Options, allOperands [][]parser.Operand) (*resolved, *parser.ErrorList) {
	errs := &parser.ErrorList{}
	symbols := parser.NewSymbolTable()

	// 1a: gather .equ constants, in source order, so later constants
	// can reference earlier ones.
	for _, ln := range lines {
		if ln.Directive == nil || ln.Directive.Name != "equ" {
			continue
		}
		if len(ln.Directive.Args) < 2 {
			errs.AddError(parser.NewError(parser.Position{Line: ln.LineNo}, parser.ErrorInvalidDirective, ".equ requires a name and a value"))
			continue
		}
		name := ln.Directive.Args[0]
		val, err := evaluateConstExpr(ln.Directive.Args[1], symbols)
		if err != nil {
			errs.AddError(parser.NewError(parser.Position{Line: ln.LineNo}, parser.ErrorInvalidDirective, err.Error()))
			continue
		}
		if err := symbols.Define(name, parser.SymbolConstant, uint64(val), parser.Position{Line: ln.LineNo}); err != nil {
			errs.AddError(parser.NewError(parser.Position{Line: ln.LineNo}, parser.ErrorDuplicateLabel, err.Error()))
		}
	}

	// 1b: address walk.
	textAddr := opts.TextBase
	dataAddr := opts.DataBase
	lineSize := make(map[int]int)

	for i, ln := range lines {
		section := ln.Section
		curAddr := textAddr
		if section == parser.SectionData {
			curAddr = dataAddr
		}

		if ln.Label != "" {
			if err := symbols.Define(ln.Label, parser.SymbolLabel, curAddr, parser.Position{Line: ln.LineNo}); err != nil {
				errs.AddError(parser.NewError(parser.Position{Line: ln.LineNo}, parser.ErrorDuplicateLabel, err.Error()))
			}
		}

		switch {
		case ln.Directive != nil:
			switch ln.Directive.Name {
			case "text":
				// section switch handled by the line splitter's tracker
			case "data":
			case "equ":
				// already gathered in 1a
			default:
				size := directiveSize(*ln.Directive, symbols, dataAddr)
				dataAddr += uint64(size)
			}

		case ln.Mnemonic != "":
			if section != parser.SectionText {
				continue
			}
			size, err := instructionSize(ln.Mnemonic, allOperands[i], cats, opts)
			if err != nil {
				errs.AddError(parser.NewError(parser.Position{Line: ln.LineNo}, parser.ErrorUnknownInstruction, err.Error()))
				size = 0
			}
			lineSize[ln.LineNo] = size
			textAddr += uint64(size)
		}
	}

	if err := symbols.ResolveForwardReferences(); err != nil {
		errs.AddError(parser.NewError(parser.Position{}, parser.ErrorUndefinedLabel, err.Error()))
	}

	return &resolved{symbols: symbols, lineSize: lineSize}, errs
}

// instructionSize computes one text-section line's emitted byte
// count: 2/4 for a native encoding, or a trial-expansion word count
// times 4 for a pseudo.
func instructionSize(mnemonic string, operands []parser.Operand, cats *catalog.Catalogs, opts Options) (int, error) {
	base, _, _ := stripModifierSuffixes(mnemonic)

	if !requiresPseudoFallback(base, operands) {
		if rec, ok := cats.Lookup(base, opts.XLEN); ok {
			return rec.Width() / 8, nil
		}
	}

	switch base {
	case "FENCE":
		return 4, nil
	case "LI":
		ctx := ExpandContext{Catalogs: cats, XLEN: opts.XLEN, Resolve: placeholderResolver}
		words, err := Expand(base, operands, ctx)
		if err != nil {
			return 0, err
		}
		return len(words) * 4, nil
	}

	ctx := ExpandContext{Catalogs: cats, XLEN: opts.XLEN, Resolve: placeholderResolver}
	words, err := Expand(base, operands, ctx)
	if err != nil {
		return 0, fmt.Errorf("unknown instruction %q", mnemonic)
	}
	return len(words) * 4, nil
}

// placeholderResolver is used only to learn a pseudo-expansion's word
// count during pass one, when label addresses are not final yet.
func placeholderResolver(name string) (int64, bool, bool) {
	return 0, true, true
}

// stripModifierSuffixes peels a trailing rounding-mode or atomic
// aq/rl modifier off mnemonic, working right-to-left and stopping at
// the first dot-segment that isn't a recognized modifier. This keeps
// a canonical dotted base (e.g. "SEXT.W", "FADD.S", "VADD.VV") intact
// when none of its segments are modifiers, since parts[0] alone would
// otherwise strip everything after the first dot.
func stripModifierSuffixes(mnemonic string) (base string, rm *int64, aqrl string) {
	parts := strings.Split(mnemonic, ".")
	end := len(parts)
	for end > 1 {
		suf := parts[end-1]
		if v, ok := parser.ParseRoundingMode(suf); ok && rm == nil {
			vv := int64(v)
			rm = &vv
			end--
			continue
		}
		if (suf == "AQ" || suf == "RL" || suf == "AQRL") && aqrl == "" {
			aqrl = suf
			end--
			continue
		}
		break
	}
	return strings.Join(parts[:end], "."), rm, aqrl
}

// evaluateConstExpr evaluates a ".equ" value expression: a plain
// number, or a reference to an earlier constant.
func evaluateConstExpr(expr string, symbols *parser.SymbolTable) (int64, error) {
	expr = strings.TrimSpace(expr)
	op := parser.ParseOperand(expr, parser.Options{})
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
		return 0, fmt.Errorf("invalid constant expression %q", expr)
	}
}
