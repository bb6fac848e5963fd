// Package codec converts bencode value trees to and from byte payloads.
//
// Bencode is the native codec. CBOR, Msgpack, JSON, Protobuf and YAML
// transcode a tree into another format and back; each documents which trees
// it can represent losslessly.
package codec

import "github.com/unkn0wn-root/bencode"

// Codec encodes/decodes values V to []byte.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

var (
	_ Codec[bencode.Value] = Bencode{}
	_ Codec[bencode.Value] = CBOR{}
	_ Codec[bencode.Value] = Msgpack{}
	_ Codec[bencode.Value] = JSON{}
	_ Codec[bencode.Value] = Protobuf{}
	_ Codec[bencode.Value] = YAML{}
	_ Codec[[]byte]        = Raw{}
)
