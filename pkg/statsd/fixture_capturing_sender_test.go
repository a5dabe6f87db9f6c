package statsd

import (
	"testing"

	"github.com/atlassian/dogstatsd/internal/fixtures"
)

// capturingSender records every line handed to it, for tests asserting on
// the exact wire encoding without a socket.
type capturingSender struct {
	lines   []string
	flushes int
	closed  bool
}

func (s *capturingSender) SendLine(line []byte) {
	s.lines = append(s.lines, string(line))
}

func (s *capturingSender) Flush() {
	s.flushes++
}

func (s *capturingSender) Close() error {
	s.closed = true
	return nil
}

func newCapturingClient(tb testing.TB, options Options) (*Client, *capturingSender) {
	s := &capturingSender{}
	return NewClientWithSender(fixtures.NewTestLogger(tb), s, options), s
}
