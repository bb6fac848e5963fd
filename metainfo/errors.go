package metainfo

import (
	"errors"
	"fmt"
)

var (
	ErrNotDict         = errors.New("metainfo: root is not a dictionary")
	ErrMissingField    = errors.New("metainfo: missing field")
	ErrFieldType       = errors.New("metainfo: wrong field type")
	ErrInvalidValue    = errors.New("metainfo: invalid field value")
	ErrBadPieces       = errors.New("metainfo: pieces length is not a multiple of 20")
	ErrAmbiguousLayout = errors.New("metainfo: info needs exactly one of length or files")
)

// FieldError names the dotted path of the field that failed validation,
// e.g. "info.files[2].path".
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Field)
}

func (e *FieldError) Unwrap() error { return e.Err }
