package availability

import "fmt"

// FormatError reports time-range text that could not be split into a start and an end.
type FormatError struct {
	Input   string
	Message string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("formatError: %s (input %q)", e.Message, e.Input)
}

// RangeError reports a date range that cannot be iterated.
type RangeError struct {
	Start   string
	End     string
	Message string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("rangeError: %s (%s..%s)", e.Message, e.Start, e.End)
}
