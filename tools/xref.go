package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/riscv-toolkit/rvasm/parser"
)

// ReferenceType indicates how a symbol is used
type ReferenceType int

const (
	RefDefinition ReferenceType = iota // Symbol defined here
	RefBranch                          // Branch target
	RefLoad                            // Load from address
	RefStore                           // Store to address
	RefData                            // Data reference
	RefCall                            // Function call (call/jal)
)

func (r ReferenceType) String() string {
	switch r {
	case RefDefinition:
		return "definition"
	case RefBranch:
		return "branch"
	case RefLoad:
		return "load"
	case RefStore:
		return "store"
	case RefData:
		return "data"
	case RefCall:
		return "call"
	default:
		return "unknown"
	}
}

// Reference represents a single reference to a symbol
type Reference struct {
	Type   ReferenceType
	Line   int
	Source string // Source line text
}

// Symbol represents a symbol and all its references
type Symbol struct {
	Name        string
	Definition  *Reference   // Where it's defined
	References  []*Reference // Where it's used
	Value       uint64       // Symbol value (if constant)
	IsConstant  bool         // True for .equ symbols
	IsFunction  bool         // True if it's a function (has call/jal references)
	IsDataLabel bool         // True if it's a data label
}

// loadReferenceMnemonics map a load instruction family to its kind.
var loadReferenceMnemonics = map[string]bool{
	"LB": true, "LH": true, "LW": true, "LD": true,
	"LBU": true, "LHU": true, "LWU": true,
}

var storeReferenceMnemonics = map[string]bool{
	"SB": true, "SH": true, "SW": true, "SD": true,
}

var callMnemonics = map[string]bool{
	"CALL": true, "JAL": true, "TAIL": true,
}

var loadAddressMnemonics = map[string]bool{
	"LA": true, "LLA": true,
}

// XRefGenerator generates cross-reference information
type XRefGenerator struct {
	lines   []parser.ParsedLine
	symbols map[string]*Symbol
}

// NewXRefGenerator creates a new cross-reference generator
func NewXRefGenerator() *XRefGenerator {
	return &XRefGenerator{
		symbols: make(map[string]*Symbol),
	}
}

// Generate generates cross-reference information from source code
func (x *XRefGenerator) Generate(input, filename string) (map[string]*Symbol, error) {
	lines, errs := parser.SplitLines(input, filename)
	if errs != nil && errs.HasErrors() {
		return nil, fmt.Errorf("parse error: %w", errs)
	}

	x.lines = lines

	x.collectDefinitions()
	x.collectReferences()
	x.analyzeCallGraph()

	return x.symbols, nil
}

// collectDefinitions collects all symbol definitions
func (x *XRefGenerator) collectDefinitions() {
	for _, ln := range x.lines {
		if ln.Label != "" {
			x.ensureSymbol(ln.Label)
			x.symbols[ln.Label].Definition = &Reference{
				Type:   RefDefinition,
				Line:   ln.LineNo,
				Source: strings.TrimSpace(ln.RawText),
			}
			if ln.Section == parser.SectionData {
				x.symbols[ln.Label].IsDataLabel = true
			}
		}

		if ln.Directive != nil && ln.Directive.Name == "equ" && len(ln.Directive.Args) >= 2 {
			name := ln.Directive.Args[0]
			x.ensureSymbol(name)
			x.symbols[name].IsConstant = true
			if op := parser.ParseOperand(ln.Directive.Args[1], parser.Options{}); op.Kind == parser.OperandImm {
				x.symbols[name].Value = uint64(op.Imm)
			}
		}
	}
}

// ensureSymbol creates a symbol record if it doesn't already exist.
func (x *XRefGenerator) ensureSymbol(name string) {
	if _, exists := x.symbols[name]; !exists {
		x.symbols[name] = &Symbol{Name: name, References: make([]*Reference, 0)}
	}
}

// collectReferences collects all symbol references
func (x *XRefGenerator) collectReferences() {
	for _, ln := range x.lines {
		if ln.Mnemonic == "" || len(ln.Operands) == 0 {
			continue
		}
		mnem := ln.Mnemonic
		handled := -1 // operand index already recorded by the switch

		switch {
		case branchMnemonics[mnem]:
			target := ln.Operands[len(ln.Operands)-1]
			if op := parser.ParseOperand(target, parser.Options{}); op.Kind == parser.OperandLabel {
				refType := RefBranch
				if callMnemonics[mnem] {
					refType = RefCall
				}
				x.addReference(op.Label, refType, ln.LineNo, ln.RawText)
				handled = len(ln.Operands) - 1
			}

		case loadAddressMnemonics[mnem] && len(ln.Operands) > 1:
			if op := parser.ParseOperand(ln.Operands[1], parser.Options{}); op.Kind == parser.OperandLabel {
				x.addReference(op.Label, RefData, ln.LineNo, ln.RawText)
				handled = 1
			}

		case loadReferenceMnemonics[mnem] && len(ln.Operands) > 1:
			if op := parser.ParseOperand(ln.Operands[1], parser.Options{}); op.Kind == parser.OperandLabel {
				x.addReference(op.Label, RefLoad, ln.LineNo, ln.RawText)
				handled = 1
			}

		case storeReferenceMnemonics[mnem] && len(ln.Operands) > 1:
			if op := parser.ParseOperand(ln.Operands[1], parser.Options{}); op.Kind == parser.OperandLabel {
				x.addReference(op.Label, RefStore, ln.LineNo, ln.RawText)
				handled = 1
			}
		}

		// Any remaining bare label operand (e.g. an immediate substituted
		// by a ".equ" constant) is a plain data reference.
		for i, tok := range ln.Operands {
			if i == handled {
				continue
			}
			op := parser.ParseOperand(tok, parser.Options{})
			if op.Kind == parser.OperandLabel && x.isSymbol(op.Label) {
				x.addReference(op.Label, RefData, ln.LineNo, ln.RawText)
			}
		}
	}
}

// addReference adds a reference to a symbol
func (x *XRefGenerator) addReference(name string, refType ReferenceType, line int, source string) {
	name = strings.TrimSpace(name)
	x.ensureSymbol(name)
	x.symbols[name].References = append(x.symbols[name].References, &Reference{
		Type:   refType,
		Line:   line,
		Source: strings.TrimSpace(source),
	})
}

// analyzeCallGraph determines which symbols are functions
func (x *XRefGenerator) analyzeCallGraph() {
	for _, symbol := range x.symbols {
		for _, ref := range symbol.References {
			if ref.Type == RefCall {
				symbol.IsFunction = true
				break
			}
		}
	}
}

// isSymbol checks if a name is a known symbol
func (x *XRefGenerator) isSymbol(name string) bool {
	_, exists := x.symbols[name]
	return exists
}

// XRefReport generates a formatted cross-reference report
type XRefReport struct {
	symbols []*Symbol
}

// NewXRefReport creates a new cross-reference report
func NewXRefReport(symbols map[string]*Symbol) *XRefReport {
	sortedSymbols := make([]*Symbol, 0, len(symbols))
	for _, sym := range symbols {
		sortedSymbols = append(sortedSymbols, sym)
	}
	sort.Slice(sortedSymbols, func(i, j int) bool {
		return sortedSymbols[i].Name < sortedSymbols[j].Name
	})

	return &XRefReport{symbols: sortedSymbols}
}

// String generates a text report
func (r *XRefReport) String() string {
	var sb strings.Builder

	sb.WriteString("Symbol Cross-Reference\n")
	sb.WriteString("======================\n\n")

	for _, sym := range r.symbols {
		sb.WriteString(fmt.Sprintf("%-30s", sym.Name))

		switch {
		case sym.IsConstant:
			sb.WriteString(fmt.Sprintf(" [constant=0x%016X]", sym.Value))
		case sym.IsFunction:
			sb.WriteString(" [function]")
		case sym.IsDataLabel:
			sb.WriteString(" [data]")
		default:
			sb.WriteString(" [label]")
		}
		sb.WriteString("\n")

		if sym.Definition != nil {
			sb.WriteString(fmt.Sprintf("  Defined:     line %d\n", sym.Definition.Line))
		} else {
			sb.WriteString("  Defined:     (undefined)\n")
		}

		if len(sym.References) == 0 {
			sb.WriteString("  Referenced:  (never)\n")
		} else {
			sb.WriteString(fmt.Sprintf("  Referenced:  %d time(s)\n", len(sym.References)))

			refsByType := make(map[ReferenceType][]*Reference)
			for _, ref := range sym.References {
				refsByType[ref.Type] = append(refsByType[ref.Type], ref)
			}

			types := []ReferenceType{RefCall, RefBranch, RefLoad, RefStore, RefData}
			for _, refType := range types {
				refs := refsByType[refType]
				if len(refs) > 0 {
					lines := make([]string, len(refs))
					for i, ref := range refs {
						lines[i] = fmt.Sprintf("%d", ref.Line)
					}
					sb.WriteString(fmt.Sprintf("    %-10s: line(s) %s\n", refType.String(), strings.Join(lines, ", ")))
				}
			}
		}

		sb.WriteString("\n")
	}

	totalSymbols := len(r.symbols)
	definedSymbols := 0
	undefinedSymbols := 0
	unusedSymbols := 0
	functionCount := 0

	for _, sym := range r.symbols {
		if sym.Definition != nil {
			definedSymbols++
		} else {
			undefinedSymbols++
		}
		if len(sym.References) == 0 {
			unusedSymbols++
		}
		if sym.IsFunction {
			functionCount++
		}
	}

	sb.WriteString("Summary\n")
	sb.WriteString("=======\n")
	sb.WriteString(fmt.Sprintf("Total symbols:     %d\n", totalSymbols))
	sb.WriteString(fmt.Sprintf("Defined:           %d\n", definedSymbols))
	sb.WriteString(fmt.Sprintf("Undefined:         %d\n", undefinedSymbols))
	sb.WriteString(fmt.Sprintf("Unused:            %d\n", unusedSymbols))
	sb.WriteString(fmt.Sprintf("Functions:         %d\n", functionCount))

	return sb.String()
}

// GenerateXRef is a convenience function to generate a cross-reference report
func GenerateXRef(input, filename string) (string, error) {
	gen := NewXRefGenerator()
	symbols, err := gen.Generate(input, filename)
	if err != nil {
		return "", err
	}

	report := NewXRefReport(symbols)
	return report.String(), nil
}

// GetSymbols returns all symbols found in the source
func (x *XRefGenerator) GetSymbols() map[string]*Symbol {
	return x.symbols
}

// GetSymbol returns a specific symbol by name
func (x *XRefGenerator) GetSymbol(name string) (*Symbol, bool) {
	sym, exists := x.symbols[name]
	return sym, exists
}

// GetFunctions returns all symbols that are functions
func (x *XRefGenerator) GetFunctions() []*Symbol {
	functions := make([]*Symbol, 0)
	for _, sym := range x.symbols {
		if sym.IsFunction {
			functions = append(functions, sym)
		}
	}
	sort.Slice(functions, func(i, j int) bool {
		return functions[i].Name < functions[j].Name
	})
	return functions
}

// GetDataLabels returns all symbols that are data labels
func (x *XRefGenerator) GetDataLabels() []*Symbol {
	dataLabels := make([]*Symbol, 0)
	for _, sym := range x.symbols {
		if sym.IsDataLabel {
			dataLabels = append(dataLabels, sym)
		}
	}
	sort.Slice(dataLabels, func(i, j int) bool {
		return dataLabels[i].Name < dataLabels[j].Name
	})
	return dataLabels
}

// GetUndefinedSymbols returns all symbols that are referenced but not defined
func (x *XRefGenerator) GetUndefinedSymbols() []*Symbol {
	undefined := make([]*Symbol, 0)
	for _, sym := range x.symbols {
		if sym.Definition == nil && len(sym.References) > 0 {
			undefined = append(undefined, sym)
		}
	}
	sort.Slice(undefined, func(i, j int) bool {
		return undefined[i].Name < undefined[j].Name
	})
	return undefined
}

// GetUnusedSymbols returns all symbols that are defined but never referenced
func (x *XRefGenerator) GetUnusedSymbols() []*Symbol {
	unused := make([]*Symbol, 0)
	for _, sym := range x.symbols {
		if sym.Definition != nil && len(sym.References) == 0 {
			if !isSpecialLabel(sym.Name) {
				unused = append(unused, sym)
			}
		}
	}
	sort.Slice(unused, func(i, j int) bool {
		return unused[i].Name < unused[j].Name
	})
	return unused
}
