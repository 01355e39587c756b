package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrFieldNotFound indicates a requested field was absent from a record,
	// or present only before the previous field.
	ErrFieldNotFound = errors.New("field not found")

	// ErrUnterminatedRecord indicates a record start with no matching end
	// before the end of the buffer. The iterator is exhausted afterwards.
	ErrUnterminatedRecord = errors.New("unterminated record")
)

// RecordError describes a failure scoped to a single record occurrence.
type RecordError struct {
	// Record is the 1-based index of the record occurrence.
	Record int

	// Offset is the byte offset of the record's start tag.
	Offset int

	// Field is the missing field, empty for structural errors.
	Field string

	Err error
}

// Error implements the error interface.
func (e *RecordError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("record %d at offset %d: %v: %q", e.Record, e.Offset, e.Err, e.Field)
	}
	return fmt.Sprintf("record %d at offset %d: %v", e.Record, e.Offset, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *RecordError) Unwrap() error {
	return e.Err
}
