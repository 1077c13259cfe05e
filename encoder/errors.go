package encoder

import (
	"fmt"

	"github.com/riscv-toolkit/rvasm/parser"
)

// EncodingError carries source position context for a bit-encoding
// failure: the line that failed plus the underlying reason.
type EncodingError struct {
	Line    *parser.ParsedLine
	Message string
	Wrapped error
}

func (e *EncodingError) Error() string {
	if e.Line == nil {
		if e.Wrapped != nil {
			return fmt.Sprintf("encoding error: %s: %v", e.Message, e.Wrapped)
		}
		return fmt.Sprintf("encoding error: %s", e.Message)
	}

	location := fmt.Sprintf("Line %d: ", e.Line.LineNo)
	if e.Wrapped != nil {
		return fmt.Sprintf("%s%s: %v", location, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s%s", location, e.Message)
}

// Unwrap supports errors.Is/As.
func (e *EncodingError) Unwrap() error {
	return e.Wrapped
}

// NewEncodingError creates an EncodingError tied to a source line.
func NewEncodingError(line *parser.ParsedLine, message string) *EncodingError {
	return &EncodingError{Line: line, Message: message}
}

// WrapEncodingError attaches source-line context to err, unless it is
// already an EncodingError.
func WrapEncodingError(line *parser.ParsedLine, err error) error {
	if err == nil {
		return nil
	}
	if ee, ok := err.(*EncodingError); ok {
		return ee
	}
	return &EncodingError{Line: line, Message: "failed to encode instruction", Wrapped: err}
}
