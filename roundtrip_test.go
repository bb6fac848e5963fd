package bencode

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"
	"testing"

	jackpal "github.com/jackpal/bencode-go"
)

// randomValue builds a tree with at most depth levels of nesting.
func randomValue(r *rand.Rand, depth int) Value {
	kind := r.Intn(4)
	if depth == 0 {
		kind %= 2
	}
	switch kind {
	case 0:
		return Integer(r.Uint64() >> uint(r.Intn(64)))
	case 1:
		b := make([]byte, r.Intn(24))
		r.Read(b)
		return ByteString(b)
	case 2:
		l := make(List, r.Intn(5))
		for i := range l {
			l[i] = randomValue(r, depth-1)
		}
		return l
	default:
		d := NewDict()
		for i := r.Intn(5); i > 0; i-- {
			d.Set(fmt.Sprintf("k%d", r.Intn(50)), randomValue(r, depth-1))
		}
		return d
	}
}

func TestRoundTripRandomTrees(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		v := randomValue(r, 4)
		enc := Encode(v)
		got, n, err := ParseWithOffset(enc)
		if err != nil {
			t.Fatalf("tree %d: Parse(%q): %v", i, enc, err)
		}
		if n != len(enc) {
			t.Fatalf("tree %d: consumed %d of %d", i, n, len(enc))
		}
		if !Equal(got, v) {
			t.Fatalf("tree %d: round trip mismatch for %q", i, enc)
		}
		// canonical output is also accepted by the strict decoder
		if _, err := ParseStrict(enc); err != nil {
			t.Fatalf("tree %d: ParseStrict(%q): %v", i, enc, err)
		}
	}
}

func TestEncodeCanonicalizesInput(t *testing.T) {
	cases := map[string]string{
		"d3:fooi10e3:bari999ee": "d3:bari999e3:fooi10ee",
		"i0010e":                "i10e",
		"d1:ai1e1:ai2ee":        "d1:ai2ee",
		"li1e003:abce":          "li1e3:abce",
	}
	for in, want := range cases {
		v, err := Parse([]byte(in))
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if got := string(Encode(v)); got != want {
			t.Fatalf("Encode(Parse(%q)) = %q want %q", in, got, want)
		}
	}
}

// toJackpal converts to the generic shapes jackpal/bencode-go produces.
func toJackpal(v Value) any {
	switch x := v.(type) {
	case Integer:
		return int64(x)
	case ByteString:
		return string(x)
	case List:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = toJackpal(e)
		}
		return out
	case *Dict:
		out := make(map[string]any, x.Len())
		for k, e := range x.All() {
			out[k] = toJackpal(e)
		}
		return out
	}
	return nil
}

// fitsInt64 reports whether every integer in v is within jackpal's int64 range.
func fitsInt64(v Value) bool {
	switch x := v.(type) {
	case Integer:
		return x <= math.MaxInt64
	case List:
		for _, e := range x {
			if !fitsInt64(e) {
				return false
			}
		}
	case *Dict:
		for _, e := range x.All() {
			if !fitsInt64(e) {
				return false
			}
		}
	}
	return true
}

func TestMatchesIndependentImplementation(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		v := randomValue(r, 3)
		if !fitsInt64(v) {
			continue
		}
		generic := toJackpal(v)

		var buf bytes.Buffer
		if err := jackpal.Marshal(&buf, generic); err != nil {
			t.Fatalf("jackpal.Marshal: %v", err)
		}
		if ours := Encode(v); !bytes.Equal(ours, buf.Bytes()) {
			t.Fatalf("canonical encoding differs:\n ours   %q\n theirs %q", ours, buf.Bytes())
		}

		back, err := Parse(buf.Bytes())
		if err != nil {
			t.Fatalf("Parse(jackpal output): %v", err)
		}
		if !Equal(back, v) {
			t.Fatalf("parse of jackpal output differs for %q", buf.Bytes())
		}
	}
}
