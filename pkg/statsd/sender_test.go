package statsd

import (
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlassian/dogstatsd/internal/fixtures"
	"github.com/atlassian/dogstatsd/pkg/fakesocket"
)

func TestDirectSenderSendsEveryLineAlone(t *testing.T) {
	t.Parallel()
	conn := fakesocket.NewCapturingConn()
	s := NewDirectSender(&connWriter{conn: conn}, fixtures.NewTestLogger(t))
	s.SendLine([]byte("a:1|c"))
	s.SendLine([]byte("b:2|c"))
	s.Flush()
	require.NoError(t, s.Close())
	assert.Equal(t, []string{"a:1|c", "b:2|c"}, conn.Datagrams())
	assert.True(t, conn.Closed())
}

func TestBufferedSenderPacksLines(t *testing.T) {
	t.Parallel()
	conn := fakesocket.NewCapturingConn()
	s := NewBufferedSender(&connWriter{conn: conn}, fixtures.NewTestLogger(t), 2)

	s.SendLine([]byte("a:1|c"))
	s.SendLine([]byte("b:2|c"))
	assert.Empty(t, conn.Datagrams(), "the buffer holds threshold+1 lines before draining")

	s.SendLine([]byte("c:3|c"))
	assert.Equal(t, []string{"a:1|c\nb:2|c\nc:3|c"}, conn.Datagrams())

	s.SendLine([]byte("d:4|c"))
	assert.Equal(t, []string{"a:1|c\nb:2|c\nc:3|c"}, conn.Datagrams(), "a fresh buffer starts empty")

	s.Flush()
	assert.Equal(t, []string{"a:1|c\nb:2|c\nc:3|c", "d:4|c"}, conn.Datagrams())
}

func TestBufferedSenderFlushOnEmptyBufferSendsNothing(t *testing.T) {
	t.Parallel()
	conn := fakesocket.NewCapturingConn()
	s := NewBufferedSender(&connWriter{conn: conn}, fixtures.NewTestLogger(t), 2)
	s.Flush()
	s.Flush()
	assert.Empty(t, conn.Datagrams())
}

func TestBufferedSenderCloseDrainsTheBuffer(t *testing.T) {
	t.Parallel()
	conn := fakesocket.NewCapturingConn()
	s := NewBufferedSender(&connWriter{conn: conn}, fixtures.NewTestLogger(t), 10)
	s.SendLine([]byte("a:1|c"))
	require.NoError(t, s.Close())
	assert.Equal(t, []string{"a:1|c"}, conn.Datagrams())
	assert.True(t, conn.Closed())
}

func TestBufferedSenderThresholdChangeTakesEffectOnNextAppend(t *testing.T) {
	t.Parallel()
	conn := fakesocket.NewCapturingConn()
	s := NewBufferedSender(&connWriter{conn: conn}, fixtures.NewTestLogger(t), 10)

	s.SendLine([]byte("a:1|c"))
	s.(maxBufferLengthSetter).SetMaxBufferLength(0)
	assert.Empty(t, conn.Datagrams(), "lowering the threshold does not flush by itself")

	s.SendLine([]byte("b:2|c"))
	assert.Equal(t, []string{"a:1|c\nb:2|c"}, conn.Datagrams())
}

func TestSendersSwallowDeliveryFailures(t *testing.T) {
	t.Parallel()
	logger, hook := fixtures.NewCapturingLogger(t)
	s := NewDirectSender(&connWriter{conn: fakesocket.NewFailingConn(nil)}, logger)
	for i := 0; i < 20; i++ {
		s.SendLine([]byte("a:1|c"))
	}
	entries := hook.Entries()
	require.NotEmpty(t, entries, "failures are reported")
	assert.Less(t, len(entries), 20, "failure reporting is rate limited")
	for _, entry := range entries {
		assert.Equal(t, logrus.DebugLevel, entry.Level)
	}
}

func TestSynchronizedSenderUnderConcurrentUse(t *testing.T) {
	t.Parallel()
	conn := fakesocket.NewCapturingConn()
	s := NewSynchronizedSender(NewBufferedSender(&connWriter{conn: conn}, fixtures.NewTestLogger(t), 4))

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.SendLine([]byte("a:1|c"))
			}
		}()
	}
	wg.Wait()
	s.Flush()

	total := 0
	for _, datagram := range conn.Datagrams() {
		lines := 1
		for _, b := range datagram {
			if b == '\n' {
				lines++
			}
		}
		total += lines
	}
	assert.Equal(t, 1000, total)
}

func TestSynchronizedSenderForwardsThresholdChanges(t *testing.T) {
	t.Parallel()
	conn := fakesocket.NewCapturingConn()
	s := NewSynchronizedSender(NewBufferedSender(&connWriter{conn: conn}, fixtures.NewTestLogger(t), 10))
	s.(maxBufferLengthSetter).SetMaxBufferLength(0)
	s.SendLine([]byte("a:1|c"))
	assert.Equal(t, []string{"a:1|c"}, conn.Datagrams())
}
