package sloghooks

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newBuf() (*bytes.Buffer, *slog.Logger) {
	var buf bytes.Buffer
	return &buf, slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestSamplingAndRedaction(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{SelfHealEvery: 3})
	for i := 0; i < 9; i++ {
		h.SelfHeal("torrent:ns:abcd", "corrupt")
	}
	out := buf.String()
	if n := strings.Count(out, "store.self_heal"); n != 3 {
		t.Fatalf("logged %d self-heals, want 3:\n%s", n, out)
	}
	if strings.Contains(out, "torrent:ns:abcd") {
		t.Fatalf("key not redacted:\n%s", out)
	}
}

func TestCustomRedactAndLevels(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{Redact: func(k string) string { return "K" }})
	h.ProviderSetRejected("torrent:ns:ff", true)
	h.PayloadRejected(100, 10)
	h.BulkRejected("ns", 4, "invalid")

	out := buf.String()
	for _, want := range []string{
		"level=WARN msg=store.provider_set_rejected key=K is_bulk=true",
		"level=WARN msg=store.payload_rejected size=100 limit=10",
		"level=INFO msg=store.bulk_rejected ns=ns requested=4 reason=invalid",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestNilLogger(t *testing.T) {
	h := New(nil, Options{})
	h.SelfHeal("k", "corrupt")
	h.BulkRejected("ns", 1, "invalid")
	h.ProviderSetRejected("k", false)
	h.PayloadRejected(1, 0)
}
