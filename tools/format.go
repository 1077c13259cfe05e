package tools

import (
	"fmt"
	"strings"

	"github.com/riscv-toolkit/rvasm/parser"
)

// FormatStyle defines formatting options
type FormatStyle int

const (
	FormatDefault  FormatStyle = iota // Standard formatting
	FormatCompact                     // Minimal whitespace
	FormatExpanded                    // Extra whitespace for readability
)

// FormatOptions controls formatter behavior
type FormatOptions struct {
	Style              FormatStyle
	LabelColumn        int  // Column for labels (default: 0)
	InstructionColumn  int  // Column for instructions (default: 8)
	OperandColumn      int  // Column for operands (default: 16)
	CommentColumn      int  // Column for comments (default: 40)
	AlignOperands      bool // Align operands in columns
	AlignComments      bool // Align comments in columns
	IndentSize         int  // Spaces for indentation
	PreserveEmptyLines bool // Keep empty lines
	TabWidth           int  // Tab width (for expanding tabs)
}

// DefaultFormatOptions returns default formatter options
func DefaultFormatOptions() *FormatOptions {
	return &FormatOptions{
		Style:              FormatDefault,
		LabelColumn:        0,
		InstructionColumn:  8,
		OperandColumn:      16,
		CommentColumn:      40,
		AlignOperands:      true,
		AlignComments:      true,
		IndentSize:         8,
		PreserveEmptyLines: true,
		TabWidth:           8,
	}
}

// CompactFormatOptions returns options for compact formatting
func CompactFormatOptions() *FormatOptions {
	opts := DefaultFormatOptions()
	opts.Style = FormatCompact
	opts.InstructionColumn = 0
	opts.OperandColumn = 0
	opts.CommentColumn = 0
	opts.AlignOperands = false
	opts.AlignComments = false
	return opts
}

// ExpandedFormatOptions returns options for expanded formatting
func ExpandedFormatOptions() *FormatOptions {
	opts := DefaultFormatOptions()
	opts.Style = FormatExpanded
	opts.InstructionColumn = 12
	opts.OperandColumn = 24
	opts.CommentColumn = 50
	return opts
}

// Formatter formats assembly source code
type Formatter struct {
	options *FormatOptions
	lines   []parser.ParsedLine
	output  strings.Builder
}

// NewFormatter creates a new formatter
func NewFormatter(options *FormatOptions) *Formatter {
	if options == nil {
		options = DefaultFormatOptions()
	}
	return &Formatter{
		options: options,
	}
}

// Format formats the given assembly source code
func (f *Formatter) Format(input, filename string) (string, error) {
	lines, errs := parser.SplitLines(input, filename)
	if errs != nil && errs.HasErrors() {
		return "", fmt.Errorf("parse error: %w", errs)
	}

	f.lines = lines
	f.output.Reset()

	for _, ln := range f.lines {
		f.formatLine(ln)
	}

	return f.output.String(), nil
}

// formatLine formats a single parsed line, preserving its blank,
// label-only, directive, or instruction shape.
func (f *Formatter) formatLine(ln parser.ParsedLine) {
	comment := extractComment(ln.RawText)

	switch {
	case ln.Directive == nil && ln.Mnemonic == "" && ln.Label == "":
		if comment != "" {
			f.output.WriteString("# ")
			f.output.WriteString(comment)
			f.output.WriteString("\n")
		} else if f.options.PreserveEmptyLines {
			f.output.WriteString("\n")
		}
	case ln.Directive != nil:
		f.formatDirective(ln, comment)
	case ln.Mnemonic != "":
		f.formatInstruction(ln, comment)
	default:
		// Standalone label, no instruction or directive on this line.
		f.output.WriteString(ln.Label)
		f.output.WriteString(":\n")
	}
}

// formatInstruction formats a single instruction line
func (f *Formatter) formatInstruction(ln parser.ParsedLine, comment string) {
	line := strings.Builder{}

	if ln.Label != "" {
		line.WriteString(ln.Label)
		line.WriteString(":")
		if f.options.Style != FormatCompact {
			f.padToColumn(&line, f.options.InstructionColumn)
		} else {
			line.WriteString(" ")
		}
	} else if f.options.Style != FormatCompact {
		f.padToColumn(&line, f.options.InstructionColumn)
	}

	mnemonic := strings.ToLower(ln.Mnemonic)

	if f.options.Style == FormatCompact {
		line.WriteString(mnemonic)
	} else {
		line.WriteString(mnemonic)
		if len(ln.Operands) > 0 && f.options.AlignOperands {
			f.padToColumn(&line, f.options.OperandColumn)
		} else if len(ln.Operands) > 0 {
			line.WriteString("\t")
		}
	}

	if len(ln.Operands) > 0 {
		if f.options.Style == FormatCompact {
			line.WriteString(" ")
		}
		line.WriteString(f.formatOperands(ln.Operands))
	}

	f.writeComment(&line, comment)

	f.output.WriteString(line.String())
	f.output.WriteString("\n")
}

// formatDirective formats a single directive line
func (f *Formatter) formatDirective(ln parser.ParsedLine, comment string) {
	line := strings.Builder{}

	if ln.Label != "" {
		line.WriteString(ln.Label)
		line.WriteString(":")
		if f.options.Style != FormatCompact {
			f.padToColumn(&line, f.options.InstructionColumn)
		} else {
			line.WriteString(" ")
		}
	} else if f.options.Style != FormatCompact {
		f.padToColumn(&line, f.options.InstructionColumn)
	}

	line.WriteString(".")
	line.WriteString(ln.Directive.Name)

	if len(ln.Directive.Args) > 0 {
		if f.options.Style == FormatCompact {
			line.WriteString(" ")
		} else {
			line.WriteString("\t")
		}
		line.WriteString(strings.Join(ln.Directive.Args, ", "))
	}

	f.writeComment(&line, comment)

	f.output.WriteString(line.String())
	f.output.WriteString("\n")
}

// formatOperands formats a list of operands
func (f *Formatter) formatOperands(operands []string) string {
	result := strings.Builder{}
	for i, op := range operands {
		if i > 0 {
			result.WriteString(", ")
		}
		result.WriteString(strings.TrimSpace(op))
	}
	return result.String()
}

// writeComment appends a trailing comment to the line being built
func (f *Formatter) writeComment(line *strings.Builder, comment string) {
	if comment == "" {
		return
	}
	if f.options.Style == FormatCompact {
		line.WriteString(" # ")
		line.WriteString(comment)
		return
	}
	if f.options.AlignComments {
		f.padToColumn(line, f.options.CommentColumn)
	} else {
		line.WriteString("\t")
	}
	line.WriteString("# ")
	line.WriteString(comment)
}

// padToColumn pads the string builder to the specified column
func (f *Formatter) padToColumn(sb *strings.Builder, column int) {
	current := sb.Len()
	if current < column {
		spaces := column - current
		sb.WriteString(strings.Repeat(" ", spaces))
	} else if current > column {
		sb.WriteString(" ")
	}
}

// extractComment pulls the trailing '#'-to-end-of-line comment out of
// a raw source line, respecting character literals the same way the
// line splitter's own comment stripping does.
func extractComment(raw string) string {
	inChar := false
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '\'':
			inChar = !inChar
		case '#':
			if !inChar {
				return strings.TrimSpace(raw[i+1:])
			}
		}
	}
	return ""
}

// FormatString is a convenience function to format a string with default options
func FormatString(input, filename string) (string, error) {
	formatter := NewFormatter(DefaultFormatOptions())
	return formatter.Format(input, filename)
}

// FormatStringWithStyle formats a string with the specified style
func FormatStringWithStyle(input, filename string, style FormatStyle) (string, error) {
	var options *FormatOptions
	switch style {
	case FormatCompact:
		options = CompactFormatOptions()
	case FormatExpanded:
		options = ExpandedFormatOptions()
	default:
		options = DefaultFormatOptions()
	}
	formatter := NewFormatter(options)
	return formatter.Format(input, filename)
}
