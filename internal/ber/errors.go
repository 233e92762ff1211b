package ber

import (
	"errors"
	"fmt"
)

// Decoder errors.
var (
	// ErrUnexpectedEOF is returned when the input ends inside an element.
	ErrUnexpectedEOF = errors.New("ber: unexpected end of data")

	// ErrInvalidLength is returned for malformed or oversized lengths.
	ErrInvalidLength = errors.New("ber: invalid length encoding")

	// ErrIndefiniteLength is returned for the 0x80 indefinite length form,
	// which LDAP forbids.
	ErrIndefiniteLength = errors.New("ber: indefinite length not supported")

	// ErrInvalidBoolean is returned when a boolean is not exactly one octet.
	ErrInvalidBoolean = errors.New("ber: invalid boolean encoding")

	// ErrInvalidInteger is returned for empty or over-long integers.
	ErrInvalidInteger = errors.New("ber: invalid integer encoding")

	// ErrTagMismatch is returned when an element has an unexpected tag.
	ErrTagMismatch = errors.New("ber: tag mismatch")

	// ErrTrailingData is returned when bytes remain after a complete element.
	ErrTrailingData = errors.New("ber: trailing data after element")
)

// Encoder errors.
var (
	ErrInvalidTagClass  = errors.New("ber: invalid tag class")
	ErrInvalidTagNumber = errors.New("ber: invalid tag number")
	ErrNegativeLength   = errors.New("ber: negative length not allowed")
	ErrUnbalanced       = errors.New("ber: unbalanced constructed element")
)

// DecodeError records where in the input a decode failed.
type DecodeError struct {
	Offset  int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ber: decode error at offset %d: %s: %v", e.Offset, e.Message, e.Err)
	}
	return fmt.Sprintf("ber: decode error at offset %d: %s", e.Offset, e.Message)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

func newDecodeError(offset int, message string, err error) *DecodeError {
	return &DecodeError{Offset: offset, Message: message, Err: err}
}

// TagMismatchError describes an element whose identifier was not the one
// the caller asked for.
type TagMismatchError struct {
	Offset         int
	ExpectedClass  int
	ExpectedNumber int
	ActualClass    int
	ActualNumber   int
}

// Error implements the error interface.
func (e *TagMismatchError) Error() string {
	return fmt.Sprintf("ber: tag mismatch at offset %d: expected class=%#x number=%d, got class=%#x number=%d",
		e.Offset, e.ExpectedClass, e.ExpectedNumber, e.ActualClass, e.ActualNumber)
}

// Is lets errors.Is match ErrTagMismatch.
func (e *TagMismatchError) Is(target error) bool {
	return target == ErrTagMismatch
}
