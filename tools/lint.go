package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/riscv-toolkit/rvasm/parser"
)

// LintLevel represents the severity of a lint issue
type LintLevel int

const (
	LintError   LintLevel = iota // Syntax errors, undefined references
	LintWarning                  // Best practice violations, potential issues
	LintInfo                     // Suggestions, style recommendations
)

func (l LintLevel) String() string {
	switch l {
	case LintError:
		return "error"
	case LintWarning:
		return "warning"
	case LintInfo:
		return "info"
	default:
		return "unknown"
	}
}

// LintIssue represents a single lint finding
type LintIssue struct {
	Level   LintLevel
	Line    int
	Message string
	Code    string // Issue code like "UNDEF_LABEL", "UNREACHABLE_CODE"
}

func (i *LintIssue) String() string {
	return fmt.Sprintf("line %d: %s: %s [%s]", i.Line, i.Level, i.Message, i.Code)
}

// LintOptions controls linter behavior
type LintOptions struct {
	Strict       bool // Treat warnings as errors
	CheckUnused  bool // Check for unused labels
	CheckReach   bool // Check for unreachable code
	CheckRegUse  bool // Check register usage
	SuggestFixes bool // Suggest fixes for common issues
}

// DefaultLintOptions returns default linter options
func DefaultLintOptions() *LintOptions {
	return &LintOptions{
		Strict:       false,
		CheckUnused:  true,
		CheckReach:   true,
		CheckRegUse:  true,
		SuggestFixes: true,
	}
}

// branchMnemonics target a label as their last operand.
var branchMnemonics = map[string]bool{
	"BEQ": true, "BNE": true, "BLT": true, "BGE": true, "BLTU": true, "BGEU": true,
	"BEQZ": true, "BNEZ": true, "BLEZ": true, "BGEZ": true, "BLTZ": true, "BGTZ": true,
	"BGT": true, "BLE": true, "BGTU": true, "BLEU": true,
	"J": true, "JAL": true, "CALL": true, "TAIL": true,
}

// unconditionalMnemonics never fall through to the next line.
var unconditionalMnemonics = map[string]bool{
	"J": true, "RET": true, "TAIL": true, "JR": true,
}

// Linter analyzes assembly code for issues
type Linter struct {
	options *LintOptions
	issues  []*LintIssue
	lines   []parser.ParsedLine

	definedLabels    map[string]int   // label -> line number
	referencedLabels map[string][]int // label -> line numbers where used
}

// NewLinter creates a new linter
func NewLinter(options *LintOptions) *Linter {
	if options == nil {
		options = DefaultLintOptions()
	}
	return &Linter{
		options:          options,
		issues:           make([]*LintIssue, 0),
		definedLabels:    make(map[string]int),
		referencedLabels: make(map[string][]int),
	}
}

// Lint analyzes the given assembly source code
func (l *Linter) Lint(input, filename string) []*LintIssue {
	lines, errs := parser.SplitLines(input, filename)
	for _, perr := range errs.Errors {
		l.issues = append(l.issues, &LintIssue{
			Level:   LintError,
			Line:    perr.Pos.Line,
			Message: perr.Message,
			Code:    "PARSE_ERROR",
		})
	}

	l.lines = lines

	l.collectLabels()
	l.checkUndefinedLabels()

	if l.options.CheckUnused {
		l.checkUnusedLabels()
	}
	if l.options.CheckReach {
		l.checkUnreachableCode()
	}
	if l.options.CheckRegUse {
		l.checkRegisterUsage()
	}
	l.checkDirectives()

	if l.options.Strict {
		for _, issue := range l.issues {
			if issue.Level == LintWarning {
				issue.Level = LintError
			}
		}
	}

	sort.Slice(l.issues, func(i, j int) bool {
		return l.issues[i].Line < l.issues[j].Line
	})

	return l.issues
}

// collectLabels builds a map of all defined labels
func (l *Linter) collectLabels() {
	for _, ln := range l.lines {
		if ln.Label == "" {
			continue
		}
		if _, exists := l.definedLabels[ln.Label]; exists {
			l.issues = append(l.issues, &LintIssue{
				Level:   LintWarning,
				Line:    ln.LineNo,
				Message: fmt.Sprintf("Duplicate label '%s'", ln.Label),
				Code:    "DUPLICATE_LABEL",
			})
			continue
		}
		l.definedLabels[ln.Label] = ln.LineNo
	}

	// .equ constants also define a name, at no specific line.
	for _, ln := range l.lines {
		if ln.Directive != nil && ln.Directive.Name == "equ" && len(ln.Directive.Args) > 0 {
			name := ln.Directive.Args[0]
			if _, exists := l.definedLabels[name]; !exists {
				l.definedLabels[name] = 0
			}
		}
	}
}

// checkUndefinedLabels checks for references to undefined labels
func (l *Linter) checkUndefinedLabels() {
	for _, ln := range l.lines {
		if ln.Mnemonic == "" || len(ln.Operands) == 0 {
			continue
		}
		if !branchMnemonics[ln.Mnemonic] {
			continue
		}
		target := ln.Operands[len(ln.Operands)-1]
		op := parser.ParseOperand(target, parser.Options{})
		if op.Kind == parser.OperandLabel {
			l.checkLabelReference(op.Label, ln.LineNo)
		}
	}
}

// checkLabelReference verifies a label exists and records usage
func (l *Linter) checkLabelReference(label string, line int) {
	l.referencedLabels[label] = append(l.referencedLabels[label], line)

	if _, exists := l.definedLabels[label]; !exists {
		suggestion := l.findSimilarLabel(label)
		msg := fmt.Sprintf("Undefined label '%s'", label)
		if suggestion != "" && l.options.SuggestFixes {
			msg += fmt.Sprintf(" (did you mean '%s'?)", suggestion)
		}
		l.issues = append(l.issues, &LintIssue{
			Level:   LintError,
			Line:    line,
			Message: msg,
			Code:    "UNDEF_LABEL",
		})
	}
}

// checkUnusedLabels warns about defined but unused labels
func (l *Linter) checkUnusedLabels() {
	for label, defLine := range l.definedLabels {
		if defLine == 0 {
			continue // .equ constant
		}
		if isSpecialLabel(label) {
			continue
		}
		if _, used := l.referencedLabels[label]; !used {
			l.issues = append(l.issues, &LintIssue{
				Level:   LintWarning,
				Line:    defLine,
				Message: fmt.Sprintf("Label '%s' defined but never referenced", label),
				Code:    "UNUSED_LABEL",
			})
		}
	}
}

// checkUnreachableCode detects code after unconditional jumps
func (l *Linter) checkUnreachableCode() {
	textLines := make([]parser.ParsedLine, 0, len(l.lines))
	for _, ln := range l.lines {
		if ln.Mnemonic != "" && ln.Section == parser.SectionText {
			textLines = append(textLines, ln)
		}
	}

	for i, ln := range textLines {
		if !unconditionalMnemonics[ln.Mnemonic] {
			continue
		}
		if i+1 < len(textLines) {
			next := textLines[i+1]
			if next.Label == "" {
				// One report per unreachable block: only the line
				// directly after the jump is flagged.
				l.issues = append(l.issues, &LintIssue{
					Level:   LintWarning,
					Line:    next.LineNo,
					Message: "Unreachable code detected",
					Code:    "UNREACHABLE_CODE",
				})
			}
		}
	}
}

// checkRegisterUsage checks for common register usage issues
func (l *Linter) checkRegisterUsage() {
	for _, ln := range l.lines {
		if ln.Mnemonic == "" || len(ln.Operands) == 0 {
			continue
		}

		// Writing to x0 is always discarded; flag it outside the
		// well-known nop/branch/store/fence idioms that target x0 on
		// purpose.
		if destinationDiscardsToZero(ln.Mnemonic) {
			rd := parser.ParseOperand(ln.Operands[0], parser.Options{})
			if rd.Kind == parser.OperandIntReg && rd.Reg == 0 {
				l.issues = append(l.issues, &LintIssue{
					Level:   LintWarning,
					Line:    ln.LineNo,
					Message: fmt.Sprintf("%s writes to x0, discarding its result", ln.Mnemonic),
					Code:    "ZERO_DEST_WARNING",
				})
			}
		}
	}
}

// destinationDiscardsToZero reports whether mnemonic's first operand is
// a destination register whose value matters.
func destinationDiscardsToZero(mnemonic string) bool {
	switch mnemonic {
	case "ADD", "SUB", "SLL", "SLT", "SLTU", "XOR", "SRL", "SRA", "OR", "AND",
		"ADDI", "SLTI", "SLTIU", "XORI", "ORI", "ANDI", "SLLI", "SRLI", "SRAI",
		"MUL", "MULH", "MULHSU", "MULHU", "DIV", "DIVU", "REM", "REMU",
		"LUI", "AUIPC", "LB", "LH", "LW", "LBU", "LHU", "LWU", "LD":
		return true
	}
	return false
}

// checkDirectives validates assembler directives
func (l *Linter) checkDirectives() {
	for _, ln := range l.lines {
		if ln.Directive == nil {
			continue
		}
		name := ln.Directive.Name

		switch name {
		case "word", "half", "dword", "byte", "float", "double":
			if len(ln.Directive.Args) == 0 {
				l.issues = append(l.issues, &LintIssue{
					Level:   LintError,
					Line:    ln.LineNo,
					Message: fmt.Sprintf(".%s directive requires at least one argument", name),
					Code:    "INVALID_DIRECTIVE",
				})
			}
		case "align":
			if len(ln.Directive.Args) != 1 {
				l.issues = append(l.issues, &LintIssue{
					Level:   LintError,
					Line:    ln.LineNo,
					Message: ".align directive requires exactly one argument",
					Code:    "INVALID_DIRECTIVE",
				})
			}
		case "equ":
			if len(ln.Directive.Args) != 2 {
				l.issues = append(l.issues, &LintIssue{
					Level:   LintError,
					Line:    ln.LineNo,
					Message: ".equ directive requires a name and a value",
					Code:    "INVALID_DIRECTIVE",
				})
			}
		}
	}
}

// findSimilarLabel finds a label with a similar name (for suggestions)
func (l *Linter) findSimilarLabel(target string) string {
	target = strings.ToLower(target)
	bestMatch := ""
	bestDistance := 999

	for label := range l.definedLabels {
		dist := levenshteinDistance(strings.ToLower(label), target)
		if dist < bestDistance && dist <= 3 { // Max 3 character difference
			bestMatch = label
			bestDistance = dist
		}
	}

	return bestMatch
}

// levenshteinDistance calculates edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(s1)][len(s2)]
}

// isSpecialLabel checks if a label is a special entry point or system label
func isSpecialLabel(label string) bool {
	special := []string{"_start", "main", "__start", "start", "_exit", "_main"}
	for _, s := range special {
		if strings.EqualFold(label, s) {
			return true
		}
	}
	return false
}

func min(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
