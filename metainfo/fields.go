package metainfo

import (
	"fmt"

	"github.com/unkn0wn-root/bencode"
)

// fields reads typed entries out of one dictionary. Every getter checks the
// kind first and only then projects, so the Must* calls cannot fire.
type fields struct {
	d      *bencode.Dict
	prefix string
}

func (f fields) path(key string) string {
	if f.prefix == "" {
		return key
	}
	return f.prefix + "." + key
}

func (f fields) get(key string, want bencode.Kind, required bool) (bencode.Value, error) {
	v, ok := f.d.Get(key)
	if !ok {
		if required {
			return nil, &FieldError{Field: f.path(key), Err: ErrMissingField}
		}
		return nil, nil
	}
	if v.Kind() != want {
		return nil, &FieldError{Field: f.path(key), Err: fmt.Errorf("%w: %s, want %s", ErrFieldType, v.Kind(), want)}
	}
	return v, nil
}

func (f fields) bytes(key string, required bool) ([]byte, error) {
	v, err := f.get(key, bencode.KindByteString, required)
	if err != nil || v == nil {
		return nil, err
	}
	return bencode.MustBytes(v), nil
}

func (f fields) text(key string, required bool) (string, error) {
	b, err := f.bytes(key, required)
	return string(b), err
}

func (f fields) integer(key string, required bool) (uint64, bool, error) {
	v, err := f.get(key, bencode.KindInteger, required)
	if err != nil || v == nil {
		return 0, false, err
	}
	return bencode.MustInteger(v), true, nil
}

func (f fields) list(key string, required bool) (bencode.List, error) {
	v, err := f.get(key, bencode.KindList, required)
	if err != nil || v == nil {
		return nil, err
	}
	return bencode.MustList(v), nil
}

func (f fields) dict(key string, required bool) (*bencode.Dict, error) {
	v, err := f.get(key, bencode.KindDict, required)
	if err != nil || v == nil {
		return nil, err
	}
	return bencode.MustDict(v), nil
}

// textList reads a list whose elements must all be byte strings.
func textList(l bencode.List, path string) ([]string, error) {
	out := make([]string, len(l))
	for i, e := range l {
		s, ok := e.(bencode.ByteString)
		if !ok {
			return nil, &FieldError{Field: fmt.Sprintf("%s[%d]", path, i), Err: ErrFieldType}
		}
		out[i] = string(s)
	}
	return out, nil
}
