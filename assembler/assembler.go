package assembler

import (
	"github.com/riscv-toolkit/rvasm/catalog"
	"github.com/riscv-toolkit/rvasm/parser"
)

// Assemble runs the full two-pass pipeline over source and returns
// the emitted bytes, address maps, and any errors encountered. It
// never panics on a source error; it accumulates every error found
// and keeps going.
func Assemble(source, filename string, cats *catalog.Catalogs, opts Options) *Result {
	opts = opts.normalized()

	lines, splitErrs := parser.SplitLines(source, filename)
	result := &Result{
		TextBase: opts.TextBase,
		DataBase: opts.DataBase,
	}

	operandOpts := parser.Options{AllowNumericCSR: opts.AllowNumericCSR}
	allOperands := make([][]parser.Operand, len(lines))
	for i, ln := range lines {
		if ln.Mnemonic == "" {
			continue
		}
		ops := make([]parser.Operand, len(ln.Operands))
		for j, tok := range ln.Operands {
			ops[j] = parser.ParseOperand(tok, operandOpts)
		}
		allOperands[i] = ops
	}

	res1, pass1Errs := runPassOne(lines, cats, opts, allOperands)
	st, pass2Errs := runPassTwo(lines, allOperands, cats, opts, res1.symbols)

	result.TextBytes = st.textBytes
	result.DataBytes = st.dataBytes
	result.LineToFirstAddress = st.lineToFirst
	result.AddressToLine = st.addrToLine

	result.DataLabels = make(map[string]uint64)
	for name, sym := range res1.symbols.GetAllSymbols() {
		if sym.Type == parser.SymbolLabel && sym.Defined && sym.Value >= opts.DataBase {
			result.DataLabels[name] = sym.Value
		}
	}

	var allErrs []string
	if splitErrs != nil {
		allErrs = append(allErrs, splitErrs.Strings()...)
	}
	allErrs = append(allErrs, pass1Errs.Strings()...)
	allErrs = append(allErrs, pass2Errs.Strings()...)
	result.Errors = allErrs
	result.Success = len(allErrs) == 0

	return result
}
