package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/unkn0wn-root/bencode"
)

// CBOR transcodes trees using fxamacker/cbor. Byte strings are written as
// CBOR byte strings; on decode both byte and text strings become ByteString,
// and negative integers, floats with a fraction, booleans and null are
// rejected. The zero value is NOT ready to use. Construct with NewCBOR or
// MustCBOR.
//
// Use deterministic=true for RFC 8949 Core Deterministic Encoding when the
// output is hashed or compared byte for byte.
type CBOR struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func NewCBOR(deterministic bool) (CBOR, error) {
	var eo cbor.EncOptions
	if deterministic {
		eo = cbor.CoreDetEncOptions()
	} else {
		eo = cbor.PreferredUnsortedEncOptions()
	}
	em, err := eo.EncMode()
	if err != nil {
		return CBOR{}, err
	}
	dm, err := cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		MaxNestedLevels: 256,
	}.DecMode()
	if err != nil {
		return CBOR{}, err
	}
	return CBOR{enc: em, dec: dm}, nil
}

// MustCBOR is like NewCBOR but panics on error.
// Handy for package-level variables in tests/examples.
func MustCBOR(deterministic bool) CBOR {
	c, err := NewCBOR(deterministic)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR) Encode(v bencode.Value) ([]byte, error) {
	g, err := toGeneric(v, keepBytes)
	if err != nil {
		return nil, err
	}
	return c.enc.Marshal(g)
}

func (c CBOR) Decode(b []byte) (bencode.Value, error) {
	var x any
	if err := c.dec.Unmarshal(b, &x); err != nil {
		return nil, err
	}
	return fromGeneric(x)
}
