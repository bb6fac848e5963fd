package store

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/unkn0wn-root/bencode"
	"github.com/unkn0wn-root/bencode/internal/util"
	"github.com/unkn0wn-root/bencode/internal/wire"
	"github.com/unkn0wn-root/bencode/metainfo"
	pr "github.com/unkn0wn-root/bencode/provider"
)

type store struct {
	ns         string
	provider   pr.Provider
	log        Logger
	hooks      Hooks
	enabled    bool
	bulk       bool
	compress   bool
	ttl        time.Duration
	bulkTTL    time.Duration
	maxPayload int // 0 => unlimited
	decode     bencode.DecodeOptions
	setCost    SetCostFunc
}

func newStore(opts Options) (*store, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("store: provider is required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("store: namespace is required")
	}

	s := &store{
		ns:       opts.Namespace,
		provider: opts.Provider,
		enabled:  !opts.Disabled,
		bulk:     !opts.DisableBulk,
		compress: opts.Compress,
		decode:   opts.Decode,
	}

	// defaults
	s.log = coalesce[Logger](opts.Logger, NopLogger{})
	s.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	s.ttl = coalesce(opts.TTL, defaultTTL)
	s.bulkTTL = coalesce(opts.BulkTTL, s.ttl)
	if opts.MaxPayload >= 0 {
		s.maxPayload = coalesce(opts.MaxPayload, defaultMaxPayload)
	}

	if opts.ComputeSetCost != nil {
		s.setCost = opts.ComputeSetCost
	} else {
		s.setCost = func(_ string, raw []byte, _ bool, _ int) int64 { return int64(len(raw)) }
	}
	return s, nil
}

func (s *store) Enabled() bool { return s.enabled }

func (s *store) Close(ctx context.Context) error {
	return s.provider.Close(ctx)
}

// Put parses data and caches it under its info hash. The returned torrent
// aliases data.
func (s *store) Put(ctx context.Context, data []byte) (*metainfo.Torrent, error) {
	t, err := s.parse(data)
	if err != nil {
		return nil, err
	}
	if !s.enabled {
		return t, nil
	}
	if err := s.putSingle(ctx, t.InfoHash, data); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *store) Get(ctx context.Context, hash Hash) (*metainfo.Torrent, bool, error) {
	if !s.enabled {
		return nil, false, nil
	}
	k := s.key(hash)
	raw, ok, err := s.provider.Get(ctx, k)
	if err != nil || !ok {
		return nil, false, err
	}
	e, err := wire.DecodeSingle(raw, s.maxPayload)
	if err != nil {
		s.heal(ctx, k, "corrupt")
		return nil, false, nil
	}
	t, reason := s.verify(hash, e)
	if reason != "" {
		s.heal(ctx, k, reason)
		return nil, false, nil
	}
	return t, true, nil
}

func (s *store) Invalidate(ctx context.Context, hash Hash) error {
	if !s.enabled {
		return nil
	}
	k := s.key(hash)
	if err := s.provider.Del(ctx, k); err != nil {
		s.log.Warn("invalidate failed", Fields{"key": k, "err": err})
		return err
	}
	s.log.Debug("invalidated torrent", Fields{"key": k})
	return nil
}

func (s *store) PutBulk(ctx context.Context, data [][]byte) ([]*metainfo.Torrent, error) {
	torrents := make([]*metainfo.Torrent, 0, len(data))
	for i, d := range data {
		t, err := s.parse(d)
		if err != nil {
			return nil, fmt.Errorf("store: item %d: %w", i, err)
		}
		torrents = append(torrents, t)
	}
	if !s.enabled || len(torrents) == 0 {
		return torrents, nil
	}

	// seed singles first; the bulk is only an accelerator
	byHash := make(map[Hash][]byte, len(torrents))
	for i, t := range torrents {
		if err := s.putSingle(ctx, t.InfoHash, data[i]); err != nil {
			return nil, err
		}
		byHash[t.InfoHash] = data[i]
	}
	if !s.bulk {
		return torrents, nil
	}

	hashes := sortedUnique(byHash)
	items := make([]wire.Entry, len(hashes))
	for i, h := range hashes {
		items[i] = wire.Entry{Hash: h, Payload: byHash[h]}
	}
	wireb := wire.EncodeBulk(items, s.compress)

	bk := util.BulkKey(s.ns, hashes)
	ok, err := s.provider.Set(ctx, bk, wireb, s.setCost(bk, wireb, true, len(items)), s.bulkTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.hooks.ProviderSetRejected(bk, true)
		s.log.Debug("bulk Set rejected by provider (pressure)", Fields{"bulkKey": bk})
	}
	return torrents, nil
}

func (s *store) GetBulk(ctx context.Context, hashes []Hash) (map[Hash]*metainfo.Torrent, []Hash, error) {
	out := make(map[Hash]*metainfo.Torrent, len(hashes))
	if !s.enabled {
		missing := make([]Hash, 0, len(hashes))
		missing = append(missing, hashes...)
		return out, missing, nil
	}
	if len(hashes) == 0 {
		return out, nil, nil
	}

	if s.bulk {
		want := make(map[Hash][]byte, len(hashes))
		for _, h := range hashes {
			want[h] = nil
		}
		bk := util.BulkKey(s.ns, sortedUnique(want))
		if raw, ok, err := s.provider.Get(ctx, bk); err == nil && ok {
			found, reason := s.openBulk(raw, want)
			if reason == "" {
				var missing []Hash
				for _, h := range hashes {
					if t, ok := found[h]; ok {
						out[h] = t
					} else {
						missing = append(missing, h)
					}
				}
				return out, missing, nil
			}
			_ = s.provider.Del(ctx, bk)
			s.hooks.BulkRejected(s.ns, len(hashes), reason)
			s.log.Debug("bulk rejected; falling back to singles", Fields{"bulkKey": bk, "reason": reason})
		}
	}

	// Fallback: try singles
	var missing []Hash
	for _, h := range hashes {
		if t, ok, _ := s.Get(ctx, h); ok {
			out[h] = t
		} else {
			missing = append(missing, h)
		}
	}
	return out, missing, nil
}

func (s *store) parse(data []byte) (*metainfo.Torrent, error) {
	if s.maxPayload > 0 && len(data) > s.maxPayload {
		s.hooks.PayloadRejected(len(data), s.maxPayload)
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, len(data), s.maxPayload)
	}
	return metainfo.Parse(data, s.decode)
}

func (s *store) putSingle(ctx context.Context, hash Hash, data []byte) error {
	k := s.key(hash)
	wireb := wire.EncodeSingle(wire.Entry{Hash: hash, Payload: data}, s.compress)
	ok, err := s.provider.Set(ctx, k, wireb, s.setCost(k, wireb, false, 1), s.ttl)
	if err != nil {
		return err
	}
	if !ok {
		s.hooks.ProviderSetRejected(k, false)
		s.log.Debug("Put rejected by provider (pressure)", Fields{"key": k})
	}
	return nil
}

// verify re-parses a stored payload and checks it still hashes to want.
// It returns a self-heal reason on failure.
func (s *store) verify(want Hash, e wire.Entry) (*metainfo.Torrent, string) {
	if e.Hash != want {
		return nil, "hash_mismatch"
	}
	// detach from provider-owned memory
	t, err := metainfo.Parse(bytes.Clone(e.Payload), s.decode)
	if err != nil {
		return nil, "value_decode"
	}
	if t.InfoHash != want {
		return nil, "hash_mismatch"
	}
	return t, ""
}

func (s *store) openBulk(raw []byte, want map[Hash][]byte) (map[Hash]*metainfo.Torrent, string) {
	items, err := wire.DecodeBulk(raw, s.maxPayload)
	if err != nil {
		return nil, "decode_error"
	}
	found := make(map[Hash]*metainfo.Torrent, len(items))
	for _, it := range items {
		if _, ok := want[it.Hash]; !ok {
			return nil, "invalid"
		}
		t, reason := s.verify(it.Hash, it)
		if reason != "" {
			return nil, "invalid"
		}
		found[it.Hash] = t
	}
	return found, ""
}

func (s *store) heal(ctx context.Context, k, reason string) {
	_ = s.provider.Del(ctx, k)
	s.hooks.SelfHeal(k, reason)
	s.log.Debug("self-healed entry", Fields{"key": k, "reason": reason})
}

func (s *store) key(h Hash) string {
	// isolate by namespace
	return util.Key(s.ns, h)
}

func sortedUnique[V any](m map[Hash]V) []Hash {
	out := make([]Hash, 0, len(m))
	for h := range m {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}
