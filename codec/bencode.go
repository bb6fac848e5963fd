package codec

import (
	"errors"

	"github.com/unkn0wn-root/bencode"
)

var ErrNilValue = errors.New("codec: nil value")

// Bencode is the native codec. The zero value decodes leniently; set Options
// (for example Options.Strict) to tighten validation.
type Bencode struct {
	Options bencode.DecodeOptions
}

func (Bencode) Encode(v bencode.Value) ([]byte, error) {
	if v == nil {
		return nil, ErrNilValue
	}
	return bencode.Encode(v), nil
}

func (c Bencode) Decode(b []byte) (bencode.Value, error) {
	return bencode.NewDecoder(c.Options).Parse(b)
}
