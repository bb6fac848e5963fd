package util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Key is the provider key for one torrent: "torrent:<ns>:<hex infohash>".
func Key(ns string, hash [20]byte) string {
	return "torrent:" + ns + ":" + hex.EncodeToString(hash[:])
}

// BulkKey returns a deterministic composite key of sorted members with a short hash.
func BulkKey(ns string, hashes [][20]byte) string {
	s := make([]string, len(hashes))
	for i, h := range hashes {
		s[i] = hex.EncodeToString(h[:])
	}
	sort.Strings(s)
	joined := strings.Join(s, ",")
	sum := sha256.Sum256([]byte(joined))
	prefix := "bulk:" + ns
	return fmt.Sprintf("%s:%x", prefix, sum)[:len(prefix)+1+16] // prefix + ":" + first 16 hex chars
}
