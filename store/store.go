// Package store is a content-addressed cache of BitTorrent metainfo files
// over a pluggable byte provider.
//
// Entries are keyed by info hash and hold the exact bytes that were put, so
// a torrent always comes back with the hash it went in with. Every read
// re-parses and re-hashes the stored bytes; an entry that fails either check
// is deleted and reported as a miss.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/unkn0wn-root/bencode"
	"github.com/unkn0wn-root/bencode/metainfo"
	pr "github.com/unkn0wn-root/bencode/provider"
)

// Hash is a SHA-1 info hash.
type Hash = [metainfo.HashSize]byte

var ErrTooLarge = errors.New("store: metainfo exceeds MaxPayload")

type SetCostFunc func(key string, raw []byte, isBulk bool, bulkCount int) int64

// Store caches metainfo files by info hash. Entries are immutable: the same
// hash always names the same info dictionary, so there is nothing to go stale.
type Store interface {
	Enabled() bool
	Close(context.Context) error

	// Single
	Put(ctx context.Context, data []byte) (*metainfo.Torrent, error)
	Get(ctx context.Context, hash Hash) (t *metainfo.Torrent, ok bool, err error)
	Invalidate(ctx context.Context, hash Hash) error

	// Bulk (order-agnostic return; use your own ordering by hashes slice)
	PutBulk(ctx context.Context, data [][]byte) ([]*metainfo.Torrent, error)
	GetBulk(ctx context.Context, hashes []Hash) (found map[Hash]*metainfo.Torrent, missing []Hash, err error)
}

// Options tune the store. Only Namespace and Provider are required; others
// have sensible defaults.
type Options struct {
	// Required
	Namespace string // logical namespace to avoid collisions. e.g. "tracker", "feed"
	Provider  pr.Provider

	Logger         Logger                // if nil, NopLogger is used
	Hooks          Hooks                 // if nil, NopHooks is used
	TTL            time.Duration         // singles; 0 => 1h
	BulkTTL        time.Duration         // bulks; 0 => TTL
	Compress       bool                  // zstd-compress frames when it helps
	Decode         bencode.DecodeOptions // how strictly stored bytes are parsed
	MaxPayload     int                   // bytes; 0 => 16 MiB, <0 => unlimited
	ComputeSetCost SetCostFunc           // default: frame size in bytes
	Disabled       bool                  // default false (enabled)
	DisableBulk    bool                  // default false => bulk enabled
}

const (
	defaultTTL        = time.Hour
	defaultMaxPayload = 16 << 20
)

func New(opts Options) (Store, error) {
	return newStore(opts)
}
