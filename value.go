package bencode

import (
	"bytes"
	"iter"
	"sort"
)

// Kind identifies which of the four Bencode value kinds a Value holds.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInteger
	KindByteString
	KindList
	KindDict
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindByteString:
		return "byte string"
	case KindList:
		return "list"
	case KindDict:
		return "dictionary"
	default:
		return "invalid"
	}
}

// Value is a decoded Bencode value. The set of implementations is closed:
// Integer, ByteString, List and *Dict. Consumers switch on the concrete type.
type Value interface {
	Kind() Kind

	encodedLen() int
	appendTo(dst []byte) []byte
}

// Integer is an unsigned Bencode integer.
type Integer uint64

// ByteString is a length-prefixed run of raw bytes. It is not required to be
// valid UTF-8.
type ByteString []byte

// List is an ordered, heterogeneous sequence of values.
type List []Value

func (Integer) Kind() Kind    { return KindInteger }
func (ByteString) Kind() Kind { return KindByteString }
func (List) Kind() Kind       { return KindList }
func (*Dict) Kind() Kind      { return KindDict }

// Entry is one key/value pair of a Dict.
type Entry struct {
	Key   string
	Value Value
}

// Dict maps byte-string keys to values. Entries are kept sorted by key in
// ascending byte order at all times; iteration and encoding both observe that
// order. A nil *Dict reads as empty.
//
// Dict is not safe for concurrent mutation. Parsed dictionaries are never
// mutated by this package.
type Dict struct {
	entries []Entry
}

// NewDict returns an empty dictionary.
func NewDict() *Dict { return &Dict{} }

func (d *Dict) search(key string) (int, bool) {
	i := sort.Search(len(d.entries), func(i int) bool { return d.entries[i].Key >= key })
	return i, i < len(d.entries) && d.entries[i].Key == key
}

// Set inserts or replaces the value stored under key and returns d.
// Setting a nil value panics.
func (d *Dict) Set(key string, v Value) *Dict {
	if v == nil {
		panic("bencode: Dict.Set with nil value")
	}
	// appending in order is the common case for parsed input
	if n := len(d.entries); n == 0 || d.entries[n-1].Key < key {
		d.entries = append(d.entries, Entry{Key: key, Value: v})
		return d
	}
	i, found := d.search(key)
	if found {
		d.entries[i].Value = v
		return d
	}
	d.entries = append(d.entries, Entry{})
	copy(d.entries[i+1:], d.entries[i:])
	d.entries[i] = Entry{Key: key, Value: v}
	return d
}

// Get returns the value stored under key.
func (d *Dict) Get(key string) (Value, bool) {
	if d == nil {
		return nil, false
	}
	i, found := d.search(key)
	if !found {
		return nil, false
	}
	return d.entries[i].Value, true
}

func (d *Dict) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Keys returns the keys in ascending order.
func (d *Dict) Keys() []string {
	keys := make([]string, 0, d.Len())
	for k := range d.All() {
		keys = append(keys, k)
	}
	return keys
}

// Entries returns a copy of the entries in key order.
func (d *Dict) Entries() []Entry {
	if d == nil {
		return nil
	}
	return append([]Entry(nil), d.entries...)
}

// All yields every entry in ascending key order.
func (d *Dict) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if d == nil {
			return
		}
		for _, e := range d.entries {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

// Equal reports whether a and b are structurally equal. Two nil values are
// equal; a nil value never equals a non-nil one.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case Integer:
		y, ok := b.(Integer)
		return ok && x == y
	case ByteString:
		y, ok := b.(ByteString)
		return ok && bytes.Equal(x, y)
	case List:
		y, ok := b.(List)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Dict:
		y, ok := b.(*Dict)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for i := 0; i < x.Len(); i++ {
			ex, ey := x.entries[i], y.entries[i]
			if ex.Key != ey.Key || !Equal(ex.Value, ey.Value) {
				return false
			}
		}
		return true
	}
	return false
}
