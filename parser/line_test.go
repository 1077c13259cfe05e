package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riscv-toolkit/rvasm/parser"
)

func TestSplitLinesBlankAndCommentOnlyLinesPreserveLineNumbers(t *testing.T) {
	src := "\n# just a comment\n    \nadd x1, x2, x3\n"
	lines, errs := parser.SplitLines(src, "t.s")
	require.Empty(t, errs.Errors)
	require.Len(t, lines, 4)

	require.Equal(t, 1, lines[0].LineNo)
	require.Equal(t, "", lines[0].Mnemonic)
	require.Equal(t, 2, lines[1].LineNo)
	require.Equal(t, "", lines[1].Mnemonic)
	require.Equal(t, 3, lines[2].LineNo)
	require.Equal(t, "", lines[2].Mnemonic)

	require.Equal(t, 4, lines[3].LineNo)
	require.Equal(t, "ADD", lines[3].Mnemonic)
	require.Equal(t, []string{"x1", "x2", "x3"}, lines[3].Operands)
}

func TestSplitLinesCommentStrippedButNotInsideCharLiteral(t *testing.T) {
	src := "li a0, '#'  # a literal hash, then a real comment\n"
	lines, errs := parser.SplitLines(src, "t.s")
	require.Empty(t, errs.Errors)
	require.Len(t, lines, 1)
	require.Equal(t, "LI", lines[0].Mnemonic)
	require.Equal(t, []string{"a0", "'#'"}, lines[0].Operands)
}

func TestSplitLinesLabelAndMnemonicOnSameLine(t *testing.T) {
	src := "loop: addi x1, x1, 1\n"
	lines, _ := parser.SplitLines(src, "t.s")
	require.Len(t, lines, 1)
	require.Equal(t, "loop", lines[0].Label)
	require.Equal(t, "ADDI", lines[0].Mnemonic)
	require.Equal(t, []string{"x1", "x1", "1"}, lines[0].Operands)
}

func TestSplitLinesLabelOnlyLine(t *testing.T) {
	src := "done:\n  ret\n"
	lines, _ := parser.SplitLines(src, "t.s")
	require.Len(t, lines, 2)
	require.Equal(t, "done", lines[0].Label)
	require.Equal(t, "", lines[0].Mnemonic)
	require.Equal(t, "RET", lines[1].Mnemonic)
}

func TestSplitLinesDirectiveNameLowercased(t *testing.T) {
	src := ".TEXT\n.Data\n.word 1, 2, 3\n"
	lines, _ := parser.SplitLines(src, "t.s")
	require.Len(t, lines, 3)
	require.Equal(t, "text", lines[0].Directive.Name)
	require.Equal(t, "data", lines[1].Directive.Name)
	require.Equal(t, "word", lines[2].Directive.Name)
	require.Equal(t, []string{"1", "2", "3"}, lines[2].Directive.Args)
}

func TestSplitLinesSectionTrackingAcrossDirectives(t *testing.T) {
	src := "addi x1, x0, 1\n.data\n.word 5\n.text\nret\n"
	lines, _ := parser.SplitLines(src, "t.s")
	require.Len(t, lines, 5)

	require.Equal(t, parser.SectionText, lines[0].Section)
	require.Equal(t, parser.SectionData, lines[1].Section, "the .data directive line itself reflects the new section")
	require.Equal(t, parser.SectionData, lines[2].Section)
	require.Equal(t, parser.SectionText, lines[3].Section)
	require.Equal(t, parser.SectionText, lines[4].Section)
}

func TestSplitLinesMnemonicUppercased(t *testing.T) {
	src := "add x1, x2, x3\n"
	lines, _ := parser.SplitLines(src, "t.s")
	require.Equal(t, "ADD", lines[0].Mnemonic)
}

func TestSplitLinesOperandCommaSplittingTrimsWhitespace(t *testing.T) {
	src := "add   x1 ,  x2,x3\n"
	lines, _ := parser.SplitLines(src, "t.s")
	require.Equal(t, []string{"x1", "x2", "x3"}, lines[0].Operands)
}

func TestSplitLinesMemoryOperandKeepsParensIntact(t *testing.T) {
	src := "lw a0, 8(sp)\n"
	lines, _ := parser.SplitLines(src, "t.s")
	require.Equal(t, []string{"a0", "8(sp)"}, lines[0].Operands)
}

func TestSplitLinesNoOperandsYieldsNilSlice(t *testing.T) {
	src := "ret\n"
	lines, _ := parser.SplitLines(src, "t.s")
	require.Nil(t, lines[0].Operands)
}

func TestSplitLinesCRLFNormalized(t *testing.T) {
	src := "add x1, x2, x3\r\nret\r\n"
	lines, _ := parser.SplitLines(src, "t.s")
	require.Len(t, lines, 2)
	require.Equal(t, "ADD", lines[0].Mnemonic)
	require.Equal(t, "RET", lines[1].Mnemonic)
}

func TestSplitLinesDirectiveArgsSplitOnTopLevelCommas(t *testing.T) {
	src := ".equ MAX, 100\n"
	lines, _ := parser.SplitLines(src, "t.s")
	require.Equal(t, "equ", lines[0].Directive.Name)
	require.Equal(t, []string{"MAX", "100"}, lines[0].Directive.Args)
}
