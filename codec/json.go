package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/unkn0wn-root/bencode"
)

var ErrTrailingJSON = errors.New("codec: data after json value")

// JSON transcodes trees to JSON. Every byte string must be valid UTF-8
// (ErrNotText otherwise); integers are written exactly and read back through
// json.Number, so the full uint64 range survives. Booleans, null and
// fractional numbers are rejected on decode.
type JSON struct{}

func (JSON) Encode(v bencode.Value) ([]byte, error) {
	g, err := toGeneric(v, requireText)
	if err != nil {
		return nil, err
	}
	return json.Marshal(g)
}

func (JSON) Decode(b []byte) (bencode.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return nil, err
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			err = ErrTrailingJSON
		}
		return nil, err
	}
	return fromGeneric(x)
}
