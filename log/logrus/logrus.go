package logrus

import (
	"encoding/hex"

	"github.com/sirupsen/logrus"
	"github.com/unkn0wn-root/bencode/store"
)

var _ store.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

func (l LogrusLogger) Debug(msg string, f store.Fields) { l.with(f).Debug(msg) }
func (l LogrusLogger) Info(msg string, f store.Fields)  { l.with(f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f store.Fields)  { l.with(f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f store.Fields) { l.with(f).Error(msg) }

func (l LogrusLogger) with(f store.Fields) *logrus.Entry {
	lf := make(logrus.Fields, len(f))
	for k, v := range f {
		if h, ok := v.(store.Hash); ok {
			v = hex.EncodeToString(h[:])
		}
		lf[k] = v
	}
	return l.E.WithFields(lf)
}
