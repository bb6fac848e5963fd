package wire

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/klauspost/compress/zstd"
)

const (
	version    byte = 1
	kindSingle byte = 1
	kindBulk   byte = 2

	flagZstd  byte = 1 << 0
	knownFlag      = flagZstd

	HashSize = 20

	// maxInflate bounds the memory a single zstd frame may claim on decode.
	maxInflate = 256 << 20
)

var (
	ErrCorrupt = errors.New("bencode/store: corrupt entry")
	magic4     = [...]byte{'B', 'T', 'M', 'I'}
)

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("wire: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxInflate))
	if err != nil {
		panic("wire: zstd decoder initialization failed: " + err.Error())
	}
}

// Entry is one stored torrent: its info hash and the metainfo bytes.
type Entry struct {
	Hash    [HashSize]byte
	Payload []byte
}

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// pack returns the payload to store and its flags. Compression is kept only
// when it actually shrinks the payload.
func pack(payload []byte, compress bool) (byte, []byte) {
	if !compress || len(payload) == 0 {
		return 0, payload
	}
	z := zstdEncoder.EncodeAll(payload, nil)
	if len(z) >= len(payload) {
		return 0, payload
	}
	return flagZstd, z
}

// unpack reverses pack. Uncompressed payloads alias b.
func unpack(flags byte, payload []byte, maxPayload int) ([]byte, error) {
	if flags&^knownFlag != 0 {
		return nil, ErrCorrupt
	}
	if flags&flagZstd == 0 {
		if maxPayload > 0 && len(payload) > maxPayload {
			return nil, ErrCorrupt
		}
		return payload, nil
	}
	out, err := zstdDecoder.DecodeAll(payload, nil)
	if err != nil || (maxPayload > 0 && len(out) > maxPayload) {
		return nil, ErrCorrupt
	}
	return out, nil
}

func appendItem(buf *bytes.Buffer, e Entry, compress bool) {
	flags, p := pack(e.Payload, compress)
	var u4 [4]byte

	buf.WriteByte(flags)
	buf.Write(e.Hash[:])
	binary.BigEndian.PutUint32(u4[:], uint32(len(p)))
	buf.Write(u4[:])
	buf.Write(p)
}

// readItem parses one flags|hash|vlen|payload record at b[off:].
func readItem(b []byte, off, maxPayload int) (Entry, int, error) {
	const hdr = 1 + HashSize + 4
	if hdr > len(b)-off {
		return Entry{}, 0, ErrCorrupt
	}
	flags := b[off]
	off++

	var e Entry
	copy(e.Hash[:], b[off:off+HashSize])
	off += HashSize

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen > len(b)-off { // overflow-safe bound check
		return Entry{}, 0, ErrCorrupt
	}

	p, err := unpack(flags, b[off:off+vlen], maxPayload)
	if err != nil {
		return Entry{}, 0, err
	}
	e.Payload = p
	return e, off + vlen, nil
}

// Single: magic(4) | ver(1) | kind(1=single) | flags(1) | hash(20) | vlen(u32 be) | payload(vlen)
//
// Flag bit 0 marks a zstd-compressed payload.
func EncodeSingle(e Entry, compress bool) []byte {
	var buf bytes.Buffer
	buf.Grow(4 + 1 + 1 + 1 + HashSize + 4 + len(e.Payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindSingle)
	appendItem(&buf, e, compress)
	return buf.Bytes()
}

// DecodeSingle parses a single frame. maxPayload, when positive, caps the
// (decompressed) payload size.
func DecodeSingle(b []byte, maxPayload int) (Entry, error) {
	if len(b) < 6 || !hasMagic(b) || b[4] != version || b[5] != kindSingle {
		return Entry{}, ErrCorrupt
	}
	e, off, err := readItem(b, 6, maxPayload)
	if err != nil {
		return Entry{}, err
	}
	if off != len(b) {
		return Entry{}, ErrCorrupt
	}
	return e, nil
}

// Bulk:
//
//	magic(4) | ver(1) | kind(2=bulk) | n(u32 be)
//	flags(1) | hash(20) | vlen(u32 be) | payload(vlen) * n
func EncodeBulk(items []Entry, compress bool) []byte {
	total := 4 + 1 + 1 + 4
	for _, it := range items {
		total += 1 + HashSize + 4 + len(it.Payload)
	}

	var buf bytes.Buffer
	buf.Grow(total)

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindBulk)

	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], uint32(len(items)))
	buf.Write(u4[:])

	for _, it := range items {
		appendItem(&buf, it, compress)
	}
	return buf.Bytes()
}

func DecodeBulk(b []byte, maxPayload int) ([]Entry, error) {
	const hdr = 4 + 1 + 1 + 4
	if len(b) < hdr || !hasMagic(b) || b[4] != version || b[5] != kindBulk {
		return nil, ErrCorrupt
	}

	off := 6
	n := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	// every item needs at least its fixed header
	if n < 0 || n > (len(b)-off)/(1+HashSize+4) {
		return nil, ErrCorrupt
	}

	items := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		e, next, err := readItem(b, off, maxPayload)
		if err != nil {
			return nil, err
		}
		off = next
		items = append(items, e)
	}
	if off != len(b) {
		return nil, ErrCorrupt
	}
	return items, nil
}
