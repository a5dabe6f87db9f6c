package fixtures

import (
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
)

type writer struct {
	tb testing.TB
}

var _ io.Writer = (*writer)(nil)

func (w writer) Write(p []byte) (int, error) {
	w.tb.Log(string(p))
	return len(p), nil
}

func NewTestLogger(tb testing.TB, opts ...func(logrus.FieldLogger)) logrus.FieldLogger {
	l := logrus.New()

	for _, opt := range opts {
		opt(l)
	}
	l.SetOutput(writer{tb: tb})

	return l
}

// CapturingHook records every entry logged through the logger it is attached
// to, so tests can assert on what was reported.
type CapturingHook struct {
	mu      sync.Mutex
	entries []*logrus.Entry
}

var _ logrus.Hook = (*CapturingHook)(nil)

func (h *CapturingHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *CapturingHook) Fire(entry *logrus.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entry)
	return nil
}

// Entries returns a copy of the recorded entries.
func (h *CapturingHook) Entries() []*logrus.Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*logrus.Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// NewCapturingLogger returns a test logger plus a hook recording everything
// logged through it. The logger runs at debug level so suppressed transport
// noise is captured too.
func NewCapturingLogger(tb testing.TB) (logrus.FieldLogger, *CapturingHook) {
	hook := &CapturingHook{}
	l := logrus.New()
	l.SetOutput(writer{tb: tb})
	l.SetLevel(logrus.DebugLevel)
	l.AddHook(hook)
	return l, hook
}
