package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// MissingColumnError reports required columns absent from the header.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column(s): %s", strings.Join(e.Columns, ", "))
}

// MalformedDateError reports a date cell that could not be parsed.
// Row is the 1-based data row (the header is not counted).
type MalformedDateError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("row %d: %s %q is not a calendar date", e.Row, e.Column, e.Value)
}

func (e *MalformedDateError) Unwrap() error { return e.Err }

// MalformedValueError reports a numeric cell that could not be parsed.
type MalformedValueError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *MalformedValueError) Error() string {
	return fmt.Sprintf("row %d: %s %q is not a number", e.Row, e.Column, e.Value)
}

func (e *MalformedValueError) Unwrap() error { return e.Err }

// Describe turns an ingestion error into a message a user can act on.
func Describe(err error) string {
	var missing *MissingColumnError
	var badDate *MalformedDateError
	var badValue *MalformedValueError
	switch {
	case errors.As(err, &missing):
		return fmt.Sprintf(
			"The dataset is missing %s. Expected a header with: %s.",
			strings.Join(missing.Columns, ", "), strings.Join(RequiredColumns, ", "),
		)
	case errors.As(err, &badDate):
		return fmt.Sprintf(
			"Line %d has an unreadable %s (%q). Dates should look like 11/8/2016 or 2016-11-08.",
			badDate.Row+1, badDate.Column, badDate.Value,
		)
	case errors.As(err, &badValue):
		return fmt.Sprintf(
			"Line %d has a non-numeric %s (%q).",
			badValue.Row+1, badValue.Column, badValue.Value,
		)
	case err != nil:
		return "The dataset could not be loaded: " + err.Error()
	}
	return ""
}
