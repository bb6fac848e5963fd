package bencode

import (
	"bytes"
	"strconv"
	"unicode/utf8"
)

// DefaultMaxDepth bounds list/dictionary nesting when DecodeOptions.MaxDepth
// is zero.
const DefaultMaxDepth = 4096

// DecodeOptions tune how strictly input is validated. The zero value accepts
// everything the format allows and tolerates the common non-canonical forms
// (leading zeros, duplicate or unsorted keys, trailing bytes).
type DecodeOptions struct {
	// Strict turns on every Reject* check below.
	Strict bool

	RejectNonCanonicalIntegers bool // leading zeros in integers and string lengths
	RejectDuplicateKeys        bool // otherwise the last value wins
	RejectUnsortedKeys         bool
	RejectTrailingData         bool // Parse only; ParseWithOffset reports the offset instead

	// MaxDepth limits container nesting. 0 => DefaultMaxDepth, <0 => unlimited.
	MaxDepth int
}

// Decoder parses Bencode with a fixed set of options. It holds no state
// between calls and is safe for concurrent use.
type Decoder struct {
	opts DecodeOptions
}

func NewDecoder(opts DecodeOptions) *Decoder {
	if opts.Strict {
		opts.RejectNonCanonicalIntegers = true
		opts.RejectDuplicateKeys = true
		opts.RejectUnsortedKeys = true
		opts.RejectTrailingData = true
	}
	opts.MaxDepth = coalesce(opts.MaxDepth, DefaultMaxDepth)
	return &Decoder{opts: opts}
}

// Options returns the effective options, with Strict expanded and defaults applied.
func (d *Decoder) Options() DecodeOptions { return d.opts }

var (
	lenientDecoder = NewDecoder(DecodeOptions{})
	strictDecoder  = NewDecoder(DecodeOptions{Strict: true})
)

// Parse decodes the value at the start of b. Bytes after that value are
// ignored. Nesting deeper than DefaultMaxDepth is ErrMaxDepth; use a Decoder
// with MaxDepth < 0 to lift the limit.
func Parse(b []byte) (Value, error) { return lenientDecoder.Parse(b) }

// ParseWithOffset decodes the value at the start of b and reports how many
// bytes it occupied, so a caller can continue right after it. It applies the
// same DefaultMaxDepth limit as Parse.
func ParseWithOffset(b []byte) (Value, int, error) { return lenientDecoder.ParseWithOffset(b) }

// ParseStrict decodes b, which must hold exactly one value in canonical form.
func ParseStrict(b []byte) (Value, error) { return strictDecoder.Parse(b) }

func (d *Decoder) Parse(b []byte) (Value, error) {
	v, n, err := d.ParseWithOffset(b)
	if err != nil {
		return nil, err
	}
	if d.opts.RejectTrailingData && n != len(b) {
		return nil, syntaxErr(n, ErrTrailingData)
	}
	return v, nil
}

func (d *Decoder) ParseWithOffset(b []byte) (Value, int, error) {
	if len(b) == 0 {
		return nil, 0, syntaxErr(0, ErrEmptyInput)
	}
	p := parser{buf: b, opts: &d.opts}
	v, err := p.value(0)
	if err != nil {
		return nil, 0, err
	}
	return v, p.pos, nil
}

type parser struct {
	buf  []byte
	pos  int
	opts *DecodeOptions
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// value dispatches on the byte at p.pos, which must be in range.
func (p *parser) value(depth int) (Value, error) {
	c := p.buf[p.pos]
	switch {
	case isDigit(c):
		s, err := p.byteString()
		if err != nil {
			return nil, err
		}
		return s, nil
	case c == 'i':
		return p.integer()
	case c == 'l':
		return p.list(depth + 1)
	case c == 'd':
		return p.dict(depth + 1)
	default:
		return nil, syntaxErr(p.pos, ErrInvalidFirstByte)
	}
}

// number parses an unsigned decimal. off is where digits starts in buf.
func (p *parser) number(digits []byte, off int) (uint64, error) {
	if len(digits) == 0 {
		return 0, syntaxErr(off, ErrInvalidAsciiInteger)
	}
	for i, c := range digits {
		if !isDigit(c) {
			return 0, syntaxErr(off+i, ErrInvalidAsciiInteger)
		}
	}
	n, err := strconv.ParseUint(string(digits), 10, 64)
	if err != nil {
		return 0, syntaxErr(off, ErrInvalidAsciiInteger)
	}
	if p.opts.RejectNonCanonicalIntegers && len(digits) > 1 && digits[0] == '0' {
		return 0, syntaxErr(off, ErrNonCanonical)
	}
	return n, nil
}

func (p *parser) integer() (Value, error) {
	start := p.pos
	end := bytes.IndexByte(p.buf[start+1:], 'e')
	if end < 0 {
		return nil, syntaxErr(start, ErrMissingTerminator)
	}
	n, err := p.number(p.buf[start+1:start+1+end], start+1)
	if err != nil {
		return nil, err
	}
	p.pos = start + end + 2 // 'i' + digits + 'e'
	return Integer(n), nil
}

// span locates the payload of the byte string at p.pos and advances past it.
func (p *parser) span() (lo, hi int, err error) {
	start := p.pos
	colon := bytes.IndexByte(p.buf[start:], ':')
	if colon < 0 {
		return 0, 0, syntaxErr(start, ErrInvalidByteString)
	}
	n, err := p.number(p.buf[start:start+colon], start)
	if err != nil {
		return 0, 0, err
	}
	lo = start + colon + 1
	if n > uint64(len(p.buf)-lo) {
		return 0, 0, syntaxErr(start, ErrByteStringTooLong)
	}
	hi = lo + int(n)
	p.pos = hi
	return lo, hi, nil
}

func (p *parser) byteString() (ByteString, error) {
	lo, hi, err := p.span()
	if err != nil {
		return nil, err
	}
	s := make(ByteString, hi-lo)
	copy(s, p.buf[lo:hi])
	return s, nil
}

func (p *parser) enter(depth int) error {
	if limit := p.opts.MaxDepth; limit > 0 && depth > limit {
		return syntaxErr(p.pos, ErrMaxDepth)
	}
	return nil
}

func (p *parser) list(depth int) (Value, error) {
	if err := p.enter(depth); err != nil {
		return nil, err
	}
	start := p.pos
	p.pos++
	l := make(List, 0)
	for {
		if p.pos >= len(p.buf) {
			return nil, syntaxErr(start, ErrMissingTerminator)
		}
		if p.buf[p.pos] == 'e' {
			p.pos++
			return l, nil
		}
		v, err := p.value(depth)
		if err != nil {
			return nil, err
		}
		l = append(l, v)
	}
}

func (p *parser) dict(depth int) (Value, error) {
	if err := p.enter(depth); err != nil {
		return nil, err
	}
	start := p.pos
	p.pos++
	d := NewDict()
	var prev string
	for {
		if p.pos >= len(p.buf) {
			return nil, syntaxErr(start, ErrMissingTerminator)
		}
		if p.buf[p.pos] == 'e' {
			p.pos++
			return d, nil
		}

		keyOff := p.pos
		if !isDigit(p.buf[keyOff]) {
			return nil, syntaxErr(keyOff, ErrInvalidFirstByte)
		}
		lo, hi, err := p.span()
		if err != nil {
			return nil, err
		}
		if p.pos >= len(p.buf) {
			// key with no value
			return nil, syntaxErr(keyOff, ErrInvalidBencodeDictionary)
		}
		raw := p.buf[lo:hi]
		if !utf8.Valid(raw) {
			return nil, syntaxErr(keyOff, ErrInvalidUtf8String)
		}
		key := string(raw)
		if p.opts.RejectDuplicateKeys && d.Has(key) {
			return nil, syntaxErr(keyOff, ErrDuplicateKey)
		}
		if p.opts.RejectUnsortedKeys && d.Len() > 0 && key < prev {
			return nil, syntaxErr(keyOff, ErrUnsortedKeys)
		}

		v, err := p.value(depth)
		if err != nil {
			return nil, err
		}
		d.Set(key, v)
		prev = key
	}
}

// LeadKind reports which kind of value a leading byte introduces, or
// KindInvalid.
func LeadKind(c byte) Kind {
	switch {
	case isDigit(c):
		return KindByteString
	case c == 'i':
		return KindInteger
	case c == 'l':
		return KindList
	case c == 'd':
		return KindDict
	}
	return KindInvalid
}

// ParseKind is ParseWithOffset for callers that expect a particular kind at
// the start of b. Any other leading byte is ErrInvalidFirstByte before the
// rest of the input is looked at.
func (d *Decoder) ParseKind(b []byte, want Kind) (Value, int, error) {
	if len(b) == 0 {
		return nil, 0, syntaxErr(0, ErrEmptyInput)
	}
	if LeadKind(b[0]) != want {
		return nil, 0, syntaxErr(0, ErrInvalidFirstByte)
	}
	return d.ParseWithOffset(b)
}

func ParseInteger(b []byte) (Integer, int, error) {
	v, n, err := lenientDecoder.ParseKind(b, KindInteger)
	if err != nil {
		return 0, 0, err
	}
	return v.(Integer), n, nil
}

func ParseByteString(b []byte) (ByteString, int, error) {
	v, n, err := lenientDecoder.ParseKind(b, KindByteString)
	if err != nil {
		return nil, 0, err
	}
	return v.(ByteString), n, nil
}

func ParseList(b []byte) (List, int, error) {
	v, n, err := lenientDecoder.ParseKind(b, KindList)
	if err != nil {
		return nil, 0, err
	}
	return v.(List), n, nil
}

func ParseDict(b []byte) (*Dict, int, error) {
	v, n, err := lenientDecoder.ParseKind(b, KindDict)
	if err != nil {
		return nil, 0, err
	}
	return v.(*Dict), n, nil
}
