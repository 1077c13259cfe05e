package tools

import (
	"strings"
	"testing"
)

func TestXRef_SymbolDefinitionCollected(t *testing.T) {
	source := `
loop:	addi x5, x5, -1
		bnez x5, loop
	`

	gen := NewXRefGenerator()
	symbols, err := gen.Generate(source, "test.s")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	sym, ok := symbols["loop"]
	if !ok {
		t.Fatal("Expected 'loop' symbol to be collected")
	}
	if sym.Definition == nil {
		t.Error("Expected 'loop' to have a definition")
	}
	if len(sym.References) != 1 {
		t.Errorf("Expected 1 reference to 'loop', got %d", len(sym.References))
	}
	if sym.References[0].Type != RefBranch {
		t.Errorf("Expected branch reference, got %v", sym.References[0].Type)
	}
}

func TestXRef_CallMarksFunction(t *testing.T) {
	source := `
_start:	call subroutine
		ecall

subroutine:
		ret
	`

	gen := NewXRefGenerator()
	symbols, err := gen.Generate(source, "test.s")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	sym, ok := symbols["subroutine"]
	if !ok {
		t.Fatal("Expected 'subroutine' symbol to be collected")
	}
	if !sym.IsFunction {
		t.Error("Expected 'subroutine' to be marked as a function")
	}
	if len(sym.References) != 1 || sym.References[0].Type != RefCall {
		t.Errorf("Expected a single call reference, got %+v", sym.References)
	}
}

func TestXRef_DataLabelAndLoadStore(t *testing.T) {
	source := `
_start:	la x5, value
		lw x6, 0(x5)
		sw x6, 0(x5)
		.data
value:	.word 42
	`

	gen := NewXRefGenerator()
	symbols, err := gen.Generate(source, "test.s")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	sym, ok := symbols["value"]
	if !ok {
		t.Fatal("Expected 'value' symbol to be collected")
	}
	if !sym.IsDataLabel {
		t.Error("Expected 'value' to be marked as a data label")
	}

	foundData := false
	for _, ref := range sym.References {
		if ref.Type == RefData {
			foundData = true
		}
	}
	if !foundData {
		t.Error("Expected a data reference from 'la'")
	}
}

func TestXRef_EquConstant(t *testing.T) {
	source := `
		.equ BUFSIZE, 64
		addi x5, x0, BUFSIZE
	`

	gen := NewXRefGenerator()
	symbols, err := gen.Generate(source, "test.s")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	sym, ok := symbols["BUFSIZE"]
	if !ok {
		t.Fatal("Expected 'BUFSIZE' symbol to be collected")
	}
	if !sym.IsConstant {
		t.Error("Expected 'BUFSIZE' to be marked as a constant")
	}
	if sym.Value != 64 {
		t.Errorf("Expected constant value 64, got %d", sym.Value)
	}
}

func TestXRef_UndefinedSymbol(t *testing.T) {
	source := `
		j missing
	`

	gen := NewXRefGenerator()
	symbols, err := gen.Generate(source, "test.s")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	undefined := gen.GetUndefinedSymbols()
	found := false
	for _, sym := range undefined {
		if sym.Name == "missing" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected 'missing' to be reported undefined, symbols: %v", symbols)
	}
}

func TestXRef_UnusedSymbol(t *testing.T) {
	source := `
_start:	ecall
unused:	addi x5, x0, 1
	`

	gen := NewXRefGenerator()
	_, err := gen.Generate(source, "test.s")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	unused := gen.GetUnusedSymbols()
	found := false
	for _, sym := range unused {
		if sym.Name == "unused" {
			found = true
		}
	}
	if !found {
		t.Error("Expected 'unused' to be reported unused")
	}

	for _, sym := range unused {
		if sym.Name == "_start" {
			t.Error("_start is a special label and should not be reported unused")
		}
	}
}

func TestXRef_GetFunctionsAndDataLabels(t *testing.T) {
	source := `
_start:	call helper
		ecall

helper:	ret

		.data
buf:	.word 0
	`

	gen := NewXRefGenerator()
	_, err := gen.Generate(source, "test.s")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	functions := gen.GetFunctions()
	if len(functions) != 1 || functions[0].Name != "helper" {
		t.Errorf("Expected only 'helper' as a function, got %v", functions)
	}

	dataLabels := gen.GetDataLabels()
	if len(dataLabels) != 1 || dataLabels[0].Name != "buf" {
		t.Errorf("Expected only 'buf' as a data label, got %v", dataLabels)
	}
}

func TestXRef_ReportContainsSummary(t *testing.T) {
	source := `
_start:	addi x5, x0, 10
		j _start
	`

	report, err := GenerateXRef(source, "test.s")
	if err != nil {
		t.Fatalf("GenerateXRef error: %v", err)
	}

	if !strings.Contains(report, "Symbol Cross-Reference") {
		t.Error("Expected report header")
	}
	if !strings.Contains(report, "Summary") {
		t.Error("Expected summary section")
	}
	if !strings.Contains(report, "_start") {
		t.Error("Expected '_start' symbol in report")
	}
}

func TestXRef_GetSymbol(t *testing.T) {
	source := `
loop:	addi x5, x5, -1
		bnez x5, loop
	`

	gen := NewXRefGenerator()
	_, err := gen.Generate(source, "test.s")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	sym, ok := gen.GetSymbol("loop")
	if !ok {
		t.Fatal("Expected to find 'loop' symbol")
	}
	if sym.Name != "loop" {
		t.Errorf("Expected symbol name 'loop', got %q", sym.Name)
	}

	_, ok = gen.GetSymbol("nonexistent")
	if ok {
		t.Error("Did not expect to find 'nonexistent' symbol")
	}
}
