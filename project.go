package bencode

import "unicode/utf8"

// The Must* projections are for code that has already established the shape
// of a value (typically after checking a dictionary schema). A mismatch
// panics with *ShapeError. Use a type assertion when the shape is unknown.

func kindOf(v Value) Kind {
	if v == nil {
		return KindInvalid
	}
	return v.Kind()
}

func MustInteger(v Value) uint64 {
	if i, ok := v.(Integer); ok {
		return uint64(i)
	}
	panic(&ShapeError{Want: KindInteger, Got: kindOf(v)})
}

func MustBytes(v Value) []byte {
	if s, ok := v.(ByteString); ok {
		return s
	}
	panic(&ShapeError{Want: KindByteString, Got: kindOf(v)})
}

// MustText is MustBytes for byte strings that are known to hold UTF-8 text.
// Invalid UTF-8 panics as well.
func MustText(v Value) string {
	b := MustBytes(v)
	if !utf8.Valid(b) {
		panic(&ShapeError{Want: KindByteString, Got: KindByteString, Detail: "byte string is not valid utf-8"})
	}
	return string(b)
}

func MustList(v Value) List {
	if l, ok := v.(List); ok {
		return l
	}
	panic(&ShapeError{Want: KindList, Got: kindOf(v)})
}

func MustDict(v Value) *Dict {
	if d, ok := v.(*Dict); ok && d != nil {
		return d
	}
	panic(&ShapeError{Want: KindDict, Got: kindOf(v)})
}
