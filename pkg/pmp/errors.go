package pmp

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedEndOfData is returned when a read needs more bytes than remain
	ErrUnexpectedEndOfData = errors.New("unexpected end of data")

	// ErrEmptyOrUnreadableFile is returned when the input cannot be opened or holds no bytes
	ErrEmptyOrUnreadableFile = errors.New("empty or unreadable particle file")

	// ErrTruncatedFile is returned when the file ends before the declared
	// number of particles has been decoded
	ErrTruncatedFile = errors.New("truncated particle file")
)

// RecordError reports a particle record that could not be decoded.
type RecordError struct {
	// Index of the particle in the file
	Index int

	// Start is the byte offset of the first byte of the record
	Start int

	// Offset is the byte offset where decoding failed
	Offset int

	// Field names the record field being read
	Field string

	Err error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("malformed particle record %d (record at byte %d): reading %s at byte %d: %v",
		e.Index, e.Start, e.Field, e.Offset, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
