//go:build go1.21

package slog

import (
	"bytes"
	"errors"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/bencode/store"
)

func TestFieldsAndLevels(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{L: stdslog.New(stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelDebug}))}

	var h store.Hash
	h[0] = 0x0f
	l.Debug("self-healed entry", store.Fields{"hash": h})
	l.Error("invalidate failed", store.Fields{"err": errors.New("boom")})

	out := buf.String()
	for _, want := range []string{
		`level=DEBUG msg="self-healed entry" hash=0f00000000000000000000000000000000000000`,
		`level=ERROR msg="invalidate failed" err=boom`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}
