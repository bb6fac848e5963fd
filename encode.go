package bencode

import (
	"slices"
	"strconv"
)

// Encode returns the canonical encoding of v. Dictionary keys come out in
// ascending byte order and integers without leading zeros, so the result is
// the same for every tree that compares Equal.
//
// Encode never fails. A nil Value anywhere in the tree is a programming
// error and panics.
func Encode(v Value) []byte {
	mustValue(v)
	return v.appendTo(make([]byte, 0, v.encodedLen()))
}

// AppendEncode appends the canonical encoding of v to dst.
func AppendEncode(dst []byte, v Value) []byte {
	mustValue(v)
	return v.appendTo(slices.Grow(dst, v.encodedLen()))
}

// EncodedLen returns len(Encode(v)) without encoding.
func EncodedLen(v Value) int {
	mustValue(v)
	return v.encodedLen()
}

func mustValue(v Value) {
	if v == nil {
		panic("bencode: cannot encode nil value")
	}
}

func decimalLen(n uint64) int {
	l := 1
	for n >= 10 {
		n /= 10
		l++
	}
	return l
}

func stringLen(n int) int { return decimalLen(uint64(n)) + 1 + n }

func appendString(dst []byte, s string) []byte {
	dst = strconv.AppendUint(dst, uint64(len(s)), 10)
	dst = append(dst, ':')
	return append(dst, s...)
}

func (i Integer) encodedLen() int { return decimalLen(uint64(i)) + 2 }

func (i Integer) appendTo(dst []byte) []byte {
	dst = append(dst, 'i')
	dst = strconv.AppendUint(dst, uint64(i), 10)
	return append(dst, 'e')
}

func (s ByteString) encodedLen() int { return stringLen(len(s)) }

func (s ByteString) appendTo(dst []byte) []byte {
	dst = strconv.AppendUint(dst, uint64(len(s)), 10)
	dst = append(dst, ':')
	return append(dst, s...)
}

func (l List) encodedLen() int {
	n := 2
	for _, v := range l {
		mustValue(v)
		n += v.encodedLen()
	}
	return n
}

func (l List) appendTo(dst []byte) []byte {
	dst = append(dst, 'l')
	for _, v := range l {
		dst = v.appendTo(dst)
	}
	return append(dst, 'e')
}

func (d *Dict) encodedLen() int {
	n := 2
	for k, v := range d.All() {
		n += stringLen(len(k)) + v.encodedLen()
	}
	return n
}

func (d *Dict) appendTo(dst []byte) []byte {
	dst = append(dst, 'd')
	for k, v := range d.All() {
		dst = appendString(dst, k)
		dst = v.appendTo(dst)
	}
	return append(dst, 'e')
}
