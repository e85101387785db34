package power

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when severity is requested for a dataset without readings.
	ErrEmptyInput = errors.New("dataset has no readings")

	// ErrInvalidThresholds is returned when a band or nominal voltage is unusable.
	ErrInvalidThresholds = errors.New("invalid thresholds")
)

// DataFormatError describes a malformed or missing column in an uploaded dataset.
// Line is the 1-based line number in the source file, 0 when the problem is
// not tied to a single line.
type DataFormatError struct {
	Line   int
	Column string
	Value  string
	Reason string
}

func (e *DataFormatError) Error() string {
	switch {
	case e.Line == 0 && e.Column != "":
		return fmt.Sprintf("column %q: %s", e.Column, e.Reason)
	case e.Line == 0:
		return e.Reason
	case e.Column == "":
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	case e.Value != "":
		return fmt.Sprintf("line %d, column %q: %s (value %q)", e.Line, e.Column, e.Reason, e.Value)
	default:
		return fmt.Sprintf("line %d, column %q: %s", e.Line, e.Column, e.Reason)
	}
}
