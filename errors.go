package bencode

import (
	"errors"
	"fmt"
)

// Format errors. Every error returned by the parser wraps exactly one of these.
var (
	ErrInvalidFirstByte         = errors.New("bencode: invalid first byte")
	ErrMissingTerminator        = errors.New("bencode: missing terminator")
	ErrInvalidAsciiInteger      = errors.New("bencode: invalid ascii integer")
	ErrInvalidUtf8String        = errors.New("bencode: invalid utf-8 string")
	ErrInvalidByteString        = errors.New("bencode: invalid byte string")
	ErrByteStringTooLong        = errors.New("bencode: byte string too long")
	ErrInvalidBencodeDictionary = errors.New("bencode: invalid dictionary")
	ErrEmptyInput               = errors.New("bencode: empty input")

	// Only reported when the matching DecodeOptions check is enabled.
	ErrNonCanonical = errors.New("bencode: non-canonical number")
	ErrDuplicateKey = errors.New("bencode: duplicate dictionary key")
	ErrUnsortedKeys = errors.New("bencode: dictionary keys out of order")
	ErrTrailingData = errors.New("bencode: trailing data after value")
	ErrMaxDepth     = errors.New("bencode: nesting too deep")
)

// SyntaxError reports where in the input a format violation was found.
// Offset is relative to the start of the buffer handed to Parse.
type SyntaxError struct {
	Offset int
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v (offset %d)", e.Err, e.Offset)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

func syntaxErr(off int, err error) error {
	return &SyntaxError{Offset: off, Err: err}
}

// ShapeError is the panic value of the Must* projections. It means the caller
// asserted a shape the value does not have, which is a bug above the codec
// rather than bad input.
type ShapeError struct {
	Want   Kind
	Got    Kind
	Detail string
}

func (e *ShapeError) Error() string {
	if e.Detail != "" {
		return "bencode: " + e.Detail
	}
	return fmt.Sprintf("bencode: value is %s, not %s", e.Got, e.Want)
}
