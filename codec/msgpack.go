package codec

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/unkn0wn-root/bencode"
)

// Msgpack transcodes trees using vmihailenco/msgpack/v5. Byte strings are
// written as bin, integers in their smallest unsigned form, and map keys in
// sorted order so equal trees produce equal bytes. The zero value is ready to
// use.
type Msgpack struct{}

func (Msgpack) Encode(v bencode.Value) ([]byte, error) {
	g, err := toGeneric(v, keepBytes)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Msgpack) Decode(b []byte) (bencode.Value, error) {
	var x any
	if err := msgpack.Unmarshal(b, &x); err != nil {
		return nil, err
	}
	return fromGeneric(x)
}
