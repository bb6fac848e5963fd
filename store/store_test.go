package store

import (
	"bytes"
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/unkn0wn-root/bencode"
	"github.com/unkn0wn-root/bencode/internal/util"
	"github.com/unkn0wn-root/bencode/internal/wire"
	pr "github.com/unkn0wn-root/bencode/provider"
)

type memEntry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

type memProvider struct {
	m      map[string]memEntry
	reject bool // Set returns ok=false
	setErr error
	delErr error
}

var _ pr.Provider = (*memProvider)(nil)

func newMemProvider() *memProvider { return &memProvider{m: make(map[string]memEntry)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := p.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		delete(p.m, key)
		return nil, false, nil
	}
	return e.v, true, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if p.setErr != nil {
		return false, p.setErr
	}
	if p.reject {
		return false, nil
	}
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	p.m[key] = memEntry{v: value, exp: exp}
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error {
	if p.delErr != nil {
		return p.delErr
	}
	delete(p.m, key)
	return nil
}
func (p *memProvider) Close(_ context.Context) error { return nil }

type recHooks struct {
	NopHooks
	heals    []string // reason per self-heal
	bulkRej  []string
	setRej   int
	tooLarge int
}

func (h *recHooks) SelfHeal(_, reason string)              { h.heals = append(h.heals, reason) }
func (h *recHooks) BulkRejected(_ string, _ int, r string) { h.bulkRej = append(h.bulkRej, r) }
func (h *recHooks) ProviderSetRejected(string, bool)       { h.setRej++ }
func (h *recHooks) PayloadRejected(int, int)               { h.tooLarge++ }

// torrentBytes builds a single-file metainfo whose info hash depends on name.
func torrentBytes(name string, pieces int) []byte {
	return bencode.Encode(bencode.NewDict().
		Set("announce", bencode.ByteString("http://tracker.example/announce")).
		Set("info", bencode.NewDict().
			Set("name", bencode.ByteString(name)).
			Set("piece length", bencode.Integer(16384)).
			Set("pieces", bencode.ByteString(bytes.Repeat([]byte{0x5a}, 20*pieces))).
			Set("length", bencode.Integer(uint64(16384*pieces)))))
}

func hashOf(t *testing.T, data []byte) Hash {
	t.Helper()
	root, err := bencode.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	info, _ := bencode.MustDict(root).Get("info")
	return sha1.Sum(bencode.Encode(info))
}

func newTestStore(t *testing.T, p pr.Provider, optsOpt func(*Options)) (Store, *recHooks) {
	t.Helper()
	h := &recHooks{}
	opts := Options{
		Namespace: "test",
		Provider:  p,
		Hooks:     h,
	}
	if optsOpt != nil {
		optsOpt(&opts)
	}
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, h
}

func TestPutGetInvalidate(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	s, h := newTestStore(t, mp, nil)
	defer s.Close(ctx)

	data := torrentBytes("a.iso", 3)
	hash := hashOf(t, data)

	if _, ok, err := s.Get(ctx, hash); err != nil || ok {
		t.Fatalf("Get miss expected, got ok=%v err=%v", ok, err)
	}

	put, err := s.Put(ctx, data)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if put.InfoHash != hash {
		t.Fatalf("Put hash = %x, want %x", put.InfoHash, hash)
	}
	if _, ok := mp.m[util.Key("test", hash)]; !ok {
		t.Fatalf("entry not stored under torrent key")
	}

	got, ok, err := s.Get(ctx, hash)
	if err != nil || !ok {
		t.Fatalf("Get after Put: ok=%v err=%v", ok, err)
	}
	if got.Info.Name != "a.iso" || got.NumPieces() != 3 || got.InfoHash != hash {
		t.Fatalf("Get returned %+v", got.Info)
	}

	if err := s.Invalidate(ctx, hash); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok, _ := s.Get(ctx, hash); ok {
		t.Fatalf("Get after Invalidate should miss")
	}
	if len(h.heals) != 0 {
		t.Fatalf("unexpected self-heals: %v", h.heals)
	}
}

func TestNonCanonicalBytesKeepTheirHash(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, newMemProvider(), nil)

	info := "d6:lengthi5e12:piece lengthi1e4:name1:x6:pieces0:e" // unsorted keys
	data := []byte("d8:announce3:url4:info" + info + "e")
	want := sha1.Sum([]byte(info))

	if _, err := s.Put(ctx, data); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := s.Get(ctx, want)
	if err != nil || !ok {
		t.Fatalf("Get by raw hash: ok=%v err=%v", ok, err)
	}
	if string(got.InfoBytes) != info {
		t.Fatalf("InfoBytes = %q", got.InfoBytes)
	}

	strict, _ := newTestStore(t, newMemProvider(), func(o *Options) {
		o.Decode = bencode.DecodeOptions{Strict: true}
	})
	if _, err := strict.Put(ctx, data); !errors.Is(err, bencode.ErrUnsortedKeys) {
		t.Fatalf("strict Put: err = %v", err)
	}
}

func TestSelfHealOnBadEntries(t *testing.T) {
	ctx := context.Background()
	a, b := torrentBytes("a", 1), torrentBytes("b", 1)
	ha, hb := hashOf(t, a), hashOf(t, b)

	cases := []struct {
		name   string
		raw    []byte
		reason string
	}{
		{"corrupt", []byte("garbage"), "corrupt"},
		{"truncated", wire.EncodeSingle(wire.Entry{Hash: ha, Payload: a}, false)[:20], "corrupt"},
		{"wrong frame hash", wire.EncodeSingle(wire.Entry{Hash: hb, Payload: b}, false), "hash_mismatch"},
		{"payload of another torrent", wire.EncodeSingle(wire.Entry{Hash: ha, Payload: b}, false), "hash_mismatch"},
		{"not metainfo", wire.EncodeSingle(wire.Entry{Hash: ha, Payload: []byte("i1e")}, false), "value_decode"},
	}
	for _, tc := range cases {
		mp := newMemProvider()
		s, h := newTestStore(t, mp, nil)
		k := util.Key("test", ha)
		mp.m[k] = memEntry{v: tc.raw}

		if _, ok, err := s.Get(ctx, ha); err != nil || ok {
			t.Fatalf("%s: expected miss, got ok=%v err=%v", tc.name, ok, err)
		}
		if _, ok := mp.m[k]; ok {
			t.Fatalf("%s: bad entry not deleted", tc.name)
		}
		if len(h.heals) != 1 || h.heals[0] != tc.reason {
			t.Fatalf("%s: heals = %v, want [%s]", tc.name, h.heals, tc.reason)
		}
	}
}

func TestCompressedFrames(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	s, _ := newTestStore(t, mp, func(o *Options) { o.Compress = true })

	data := torrentBytes("big", 500) // 10 KB of identical piece hashes
	hash := hashOf(t, data)
	if _, err := s.Put(ctx, data); err != nil {
		t.Fatalf("Put: %v", err)
	}
	stored := mp.m[util.Key("test", hash)].v
	if len(stored) >= len(data) {
		t.Fatalf("frame not compressed: %d >= %d", len(stored), len(data))
	}
	got, ok, err := s.Get(ctx, hash)
	if err != nil || !ok || !bytes.Equal(got.Info.Pieces, bytes.Repeat([]byte{0x5a}, 20*500)) {
		t.Fatalf("Get compressed: ok=%v err=%v", ok, err)
	}
}

func TestMaxPayload(t *testing.T) {
	ctx := context.Background()
	data := torrentBytes("x", 10)

	s, h := newTestStore(t, newMemProvider(), func(o *Options) { o.MaxPayload = len(data) - 1 })
	if _, err := s.Put(ctx, data); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Put over limit: err = %v", err)
	}
	if h.tooLarge != 1 {
		t.Fatalf("PayloadRejected calls = %d", h.tooLarge)
	}

	unlimited, _ := newTestStore(t, newMemProvider(), func(o *Options) { o.MaxPayload = -1 })
	if _, err := unlimited.Put(ctx, data); err != nil {
		t.Fatalf("unlimited Put: %v", err)
	}
}

func TestDisabledStore(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	s, _ := newTestStore(t, mp, func(o *Options) { o.Disabled = true })
	if s.Enabled() {
		t.Fatalf("Enabled() = true")
	}
	data := torrentBytes("d", 1)
	tor, err := s.Put(ctx, data)
	if err != nil || tor == nil {
		t.Fatalf("Put on disabled store should still parse: %v", err)
	}
	if len(mp.m) != 0 {
		t.Fatalf("disabled store wrote %d entries", len(mp.m))
	}
	if _, ok, _ := s.Get(ctx, tor.InfoHash); ok {
		t.Fatalf("disabled Get should miss")
	}
	_, missing, _ := s.GetBulk(ctx, []Hash{tor.InfoHash})
	if len(missing) != 1 {
		t.Fatalf("disabled GetBulk missing = %d", len(missing))
	}
}

func TestProviderRejectAndErrors(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	mp.reject = true
	s, h := newTestStore(t, mp, nil)
	if _, err := s.Put(ctx, torrentBytes("r", 1)); err != nil {
		t.Fatalf("rejected Put is not an error: %v", err)
	}
	if h.setRej != 1 {
		t.Fatalf("ProviderSetRejected calls = %d", h.setRej)
	}

	boom := errors.New("boom")
	mp = newMemProvider()
	mp.setErr = boom
	s, _ = newTestStore(t, mp, nil)
	if _, err := s.Put(ctx, torrentBytes("r", 1)); !errors.Is(err, boom) {
		t.Fatalf("Put provider error: %v", err)
	}

	mp = newMemProvider()
	mp.delErr = boom
	s, _ = newTestStore(t, mp, nil)
	if err := s.Invalidate(ctx, Hash{}); !errors.Is(err, boom) {
		t.Fatalf("Invalidate provider error: %v", err)
	}
}

func TestOptionsValidation(t *testing.T) {
	if _, err := New(Options{Namespace: "x"}); err == nil {
		t.Fatalf("expected error without provider")
	}
	if _, err := New(Options{Provider: newMemProvider()}); err == nil {
		t.Fatalf("expected error without namespace")
	}
	s, err := newStore(Options{Namespace: "x", Provider: newMemProvider()})
	if err != nil {
		t.Fatal(err)
	}
	if s.ttl != defaultTTL || s.bulkTTL != defaultTTL || s.maxPayload != defaultMaxPayload {
		t.Fatalf("defaults not applied: ttl=%v bulk=%v max=%d", s.ttl, s.bulkTTL, s.maxPayload)
	}
	if _, ok := s.log.(NopLogger); !ok {
		t.Fatalf("default logger = %T", s.log)
	}
}

func putMany(t *testing.T, s Store, n int) ([][]byte, []Hash) {
	t.Helper()
	var data [][]byte
	var hashes []Hash
	for i := 0; i < n; i++ {
		d := torrentBytes(fmt.Sprintf("t%d", i), 1)
		data = append(data, d)
		hashes = append(hashes, hashOf(t, d))
	}
	if _, err := s.PutBulk(context.Background(), data); err != nil {
		t.Fatalf("PutBulk: %v", err)
	}
	return data, hashes
}

func TestBulkHitServesWithoutSingles(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	s, h := newTestStore(t, mp, nil)
	_, hashes := putMany(t, s, 3)

	// drop singles so only the bulk entry can answer
	for _, hh := range hashes {
		delete(mp.m, util.Key("test", hh))
	}
	// request order and duplicates do not change the bulk key
	req := []Hash{hashes[2], hashes[0], hashes[1], hashes[0]}
	found, missing, err := s.GetBulk(ctx, req)
	if err != nil || len(missing) != 0 || len(found) != 3 {
		t.Fatalf("GetBulk: found=%d missing=%d err=%v", len(found), len(missing), err)
	}
	if len(h.bulkRej) != 0 {
		t.Fatalf("unexpected bulk rejections: %v", h.bulkRej)
	}
}

func TestBulkFallsBackToSingles(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	s, h := newTestStore(t, mp, nil)
	_, hashes := putMany(t, s, 2)

	bk := util.BulkKey("test", hashes)
	mp.m[bk] = memEntry{v: []byte("junk")}

	extra := sha1.Sum([]byte("absent"))
	found, missing, err := s.GetBulk(ctx, append(hashes, extra))
	if err != nil {
		t.Fatalf("GetBulk: %v", err)
	}
	if len(found) != 2 || len(missing) != 1 || missing[0] != extra {
		t.Fatalf("found=%d missing=%v", len(found), missing)
	}
	// the junk lives under a different key (3 hashes); ask for the exact set
	found, _, _ = s.GetBulk(ctx, hashes)
	if len(found) != 2 {
		t.Fatalf("fallback found %d", len(found))
	}
	if len(h.bulkRej) != 1 || h.bulkRej[0] != "decode_error" {
		t.Fatalf("bulkRej = %v", h.bulkRej)
	}
	if _, ok := mp.m[bk]; ok {
		t.Fatalf("rejected bulk not deleted")
	}
}

func TestBulkRejectsForeignItems(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	s, h := newTestStore(t, mp, nil)
	data, hashes := putMany(t, s, 2)

	// a bulk under the right key whose item claims the wrong hash
	bk := util.BulkKey("test", hashes)
	mp.m[bk] = memEntry{v: wire.EncodeBulk([]wire.Entry{
		{Hash: hashes[0], Payload: data[1]},
		{Hash: hashes[1], Payload: data[1]},
	}, false)}

	found, missing, _ := s.GetBulk(ctx, hashes)
	if len(found) != 2 || len(missing) != 0 {
		t.Fatalf("found=%d missing=%d", len(found), len(missing))
	}
	if found[hashes[0]].Info.Name != "t0" {
		t.Fatalf("served foreign payload for hash 0")
	}
	if len(h.bulkRej) != 1 || h.bulkRej[0] != "invalid" {
		t.Fatalf("bulkRej = %v", h.bulkRej)
	}
}

func TestBulkDisabled(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	s, _ := newTestStore(t, mp, func(o *Options) { o.DisableBulk = true })
	_, hashes := putMany(t, s, 2)
	if len(mp.m) != 2 {
		t.Fatalf("expected singles only, got %d entries", len(mp.m))
	}
	found, missing, _ := s.GetBulk(ctx, hashes)
	if len(found) != 2 || len(missing) != 0 {
		t.Fatalf("found=%d missing=%d", len(found), len(missing))
	}
}

func TestPutBulkReportsBadItem(t *testing.T) {
	s, _ := newTestStore(t, newMemProvider(), nil)
	_, err := s.PutBulk(context.Background(), [][]byte{torrentBytes("ok", 1), []byte("i1e")})
	if err == nil {
		t.Fatalf("expected error for non-metainfo item")
	}
}
