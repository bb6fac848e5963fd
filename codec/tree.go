package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/unkn0wn-root/bencode"
)

var (
	ErrUnsupportedType = errors.New("codec: type has no bencode equivalent")
	ErrNegativeInteger = errors.New("codec: negative integers are not representable")
	ErrNotText         = errors.New("codec: byte string is not valid utf-8")
	ErrIntegerRange    = errors.New("codec: integer out of range")
)

// maxExactFloat is the largest integer a float64 carries without rounding.
const maxExactFloat = 1 << 53

type bytesMode uint8

const (
	keepBytes   bytesMode = iota // ByteString -> []byte
	requireText                  // ByteString -> string, must be UTF-8
)

// toGeneric lowers a tree to uint64, []byte or string, []any and
// map[string]any, which every transcoding library understands.
func toGeneric(v bencode.Value, mode bytesMode) (any, error) {
	switch x := v.(type) {
	case bencode.Integer:
		return uint64(x), nil
	case bencode.ByteString:
		if mode == keepBytes {
			return []byte(x), nil
		}
		if !utf8.Valid(x) {
			return nil, ErrNotText
		}
		return string(x), nil
	case bencode.List:
		out := make([]any, len(x))
		for i, e := range x {
			g, err := toGeneric(e, mode)
			if err != nil {
				return nil, err
			}
			out[i] = g
		}
		return out, nil
	case *bencode.Dict:
		out := make(map[string]any, x.Len())
		for k, e := range x.All() {
			g, err := toGeneric(e, mode)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = g
		}
		return out, nil
	case nil:
		return nil, ErrNilValue
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
}

// fromGeneric lifts the output of a generic decoder back into a tree.
// Text and binary strings both become ByteString.
func fromGeneric(x any) (bencode.Value, error) {
	switch t := x.(type) {
	case string:
		return bencode.ByteString(t), nil
	case []byte:
		return bencode.ByteString(append([]byte{}, t...)), nil
	case uint64:
		return bencode.Integer(t), nil
	case uint:
		return bencode.Integer(t), nil
	case uint32:
		return bencode.Integer(t), nil
	case uint16:
		return bencode.Integer(t), nil
	case uint8:
		return bencode.Integer(t), nil
	case int64:
		return fromSigned(t)
	case int:
		return fromSigned(int64(t))
	case int32:
		return fromSigned(int64(t))
	case int16:
		return fromSigned(int64(t))
	case int8:
		return fromSigned(int64(t))
	case float64:
		return fromFloat(t)
	case float32:
		return fromFloat(float64(t))
	case json.Number:
		n, err := strconv.ParseUint(t.String(), 10, 64)
		if err != nil {
			if len(t) > 0 && t[0] == '-' {
				return nil, ErrNegativeInteger
			}
			return nil, fmt.Errorf("%w: %s", ErrIntegerRange, t)
		}
		return bencode.Integer(n), nil
	case []any:
		l := make(bencode.List, len(t))
		for i, e := range t {
			v, err := fromGeneric(e)
			if err != nil {
				return nil, err
			}
			l[i] = v
		}
		return l, nil
	case map[string]any:
		d := bencode.NewDict()
		for k, e := range t {
			v, err := fromGeneric(e)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			d.Set(k, v)
		}
		return d, nil
	case map[any]any:
		d := bencode.NewDict()
		for k, e := range t {
			var key string
			switch kk := k.(type) {
			case string:
				key = kk
			case []byte:
				key = string(kk)
			default:
				return nil, fmt.Errorf("%w: map key %T", ErrUnsupportedType, k)
			}
			v, err := fromGeneric(e)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			d.Set(key, v)
		}
		return d, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, x)
}

func fromSigned(n int64) (bencode.Value, error) {
	if n < 0 {
		return nil, ErrNegativeInteger
	}
	return bencode.Integer(n), nil
}

func fromFloat(f float64) (bencode.Value, error) {
	switch {
	case f < 0:
		return nil, ErrNegativeInteger
	case f != math.Trunc(f) || f > maxExactFloat:
		return nil, fmt.Errorf("%w: %v", ErrIntegerRange, f)
	}
	return bencode.Integer(f), nil
}
