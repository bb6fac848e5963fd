package codec

import "github.com/unkn0wn-root/bencode"

// Raw is a codec for payloads that are already Bencode. Encode parses the
// input with Options and returns its canonical form. Decode returns the input
// unchanged after checking that it is exactly one canonical value.
type Raw struct {
	Options bencode.DecodeOptions
}

func (r Raw) Encode(b []byte) ([]byte, error) {
	v, err := bencode.NewDecoder(r.Options).Parse(b)
	if err != nil {
		return nil, err
	}
	return bencode.Encode(v), nil
}

func (Raw) Decode(b []byte) ([]byte, error) {
	if _, err := bencode.ParseStrict(b); err != nil {
		return nil, err
	}
	return b, nil
}
