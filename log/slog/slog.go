//go:build go1.21

package slog

import (
	"context"
	"encoding/hex"
	stdslog "log/slog"

	"github.com/unkn0wn-root/bencode/store"
)

var _ store.Logger = Logger{}

type Logger struct{ L *stdslog.Logger }

func (s Logger) Debug(msg string, f store.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelDebug, msg, attrs(f)...)
}
func (s Logger) Info(msg string, f store.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelInfo, msg, attrs(f)...)
}
func (s Logger) Warn(msg string, f store.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelWarn, msg, attrs(f)...)
}
func (s Logger) Error(msg string, f store.Fields) {
	s.L.LogAttrs(context.Background(), stdslog.LevelError, msg, attrs(f)...)
}

// attrs renders fields; Hash values and raw bytes come out as hex.
func attrs(f store.Fields) []stdslog.Attr {
	if len(f) == 0 {
		return nil
	}
	out := make([]stdslog.Attr, 0, len(f))
	for k, v := range f {
		switch x := v.(type) {
		case store.Hash:
			out = append(out, stdslog.String(k, hex.EncodeToString(x[:])))
		case []byte:
			out = append(out, stdslog.String(k, hex.EncodeToString(x)))
		case error:
			out = append(out, stdslog.String(k, x.Error()))
		default:
			out = append(out, stdslog.Any(k, v))
		}
	}
	return out
}

