package main

import (
	"context"
	"net"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlassian/dogstatsd/internal/fixtures"
	"github.com/atlassian/dogstatsd/pkg/fakesocket"
)

type loggedLine struct {
	message string
	level   logrus.Level
	fields  logrus.Fields
}

func TestHandleDatagramLogsEachLine(t *testing.T) {
	t.Parallel()
	input := map[string][]loggedLine{
		"": nil,
		"\n": nil,
		"\n\n": nil,
		"foo.bar:2|c": {
			{message: "metric", level: logrus.InfoLevel, fields: logrus.Fields{
				"name": "foo.bar", "value": "2", "type": "counter", "rate": float64(1), "tags": "",
			}},
		},
		"foo.bar:2|c\n": {
			{message: "metric", level: logrus.InfoLevel, fields: logrus.Fields{
				"name": "foo.bar", "value": "2", "type": "counter",
			}},
		},
		"hits:1|c|@0.5|#env:prod": {
			{message: "metric", level: logrus.InfoLevel, fields: logrus.Fields{
				"name": "hits", "rate": 0.5, "tags": "env:prod",
			}},
		},
		"a:1|c\nb:2.5|g|#env:prod": {
			{message: "metric", level: logrus.InfoLevel, fields: logrus.Fields{
				"name": "a", "value": "1", "type": "counter",
			}},
			{message: "metric", level: logrus.InfoLevel, fields: logrus.Fields{
				"name": "b", "value": "2.5", "type": "gauge", "tags": "env:prod",
			}},
		},
		"_e{5,4}:title|text": {
			{message: "event", level: logrus.InfoLevel, fields: logrus.Fields{
				"title": "title", "text": "text", "priority": "normal", "alert": "info",
			}},
		},
		"_sc|db.up|0|m:all good": {
			{message: "service check", level: logrus.InfoLevel, fields: logrus.Fields{
				"name": "db.up", "status": "ok", "message": "all good",
			}},
		},
		"garbage": {
			{message: "bad line", level: logrus.WarnLevel, fields: logrus.Fields{
				"line": "garbage",
			}},
		},
		"a:1|c\nnot a line\nb:1|c": {
			{message: "metric", level: logrus.InfoLevel, fields: logrus.Fields{"name": "a"}},
			{message: "bad line", level: logrus.WarnLevel, fields: logrus.Fields{"line": "not a line"}},
			{message: "metric", level: logrus.InfoLevel, fields: logrus.Fields{"name": "b"}},
		},
	}
	for datagram, expected := range input {
		datagram := datagram
		expected := expected
		t.Run(datagram, func(t *testing.T) {
			t.Parallel()
			logger, hook := fixtures.NewCapturingLogger(t)
			l := &listener{logger: logger}

			l.handleDatagram(fakesocket.FakeAddr, []byte(datagram))

			entries := hook.Entries()
			require.Len(t, entries, len(expected))
			for i, want := range expected {
				assert.Equal(t, want.message, entries[i].Message)
				assert.Equal(t, want.level, entries[i].Level)
				assert.Equal(t, fakesocket.FakeAddr.String(), entries[i].Data["from"])
				for key, value := range want.fields {
					assert.Equal(t, value, entries[i].Data[key], key)
				}
			}
		})
	}
}

func TestHandleDatagramWithoutAddress(t *testing.T) {
	t.Parallel()
	logger, hook := fixtures.NewCapturingLogger(t)
	l := &listener{logger: logger}

	l.handleDatagram(nil, []byte("foo.bar:2|c"))

	entries := hook.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "unknown", entries[0].Data["from"])
}

// countdownConn serves reads from the wrapped conn, failing once n reads were
// consumed.
type countdownConn struct {
	net.PacketConn
	remaining int
}

func (c *countdownConn) ReadFrom(b []byte) (int, net.Addr, error) {
	if c.remaining == 0 {
		return 0, nil, fakesocket.ErrClosedConnection
	}
	c.remaining--
	return c.PacketConn.ReadFrom(b)
}

func TestReceiveLogsUntilSocketFails(t *testing.T) {
	t.Parallel()
	logger, hook := fixtures.NewCapturingLogger(t)
	l := &listener{logger: logger}
	conn := &countdownConn{PacketConn: fakesocket.NewFakePacketConn(), remaining: 3}

	err := l.receive(context.Background(), conn)

	require.Equal(t, fakesocket.ErrClosedConnection, err)
	entries := hook.Entries()
	require.Len(t, entries, 3)
	for _, entry := range entries {
		assert.Equal(t, "metric", entry.Message)
		assert.Equal(t, "foo.bar.baz", entry.Data["name"])
		assert.Equal(t, "2", entry.Data["value"])
	}
}

func TestReceiveStopsQuietlyWhenCancelled(t *testing.T) {
	t.Parallel()
	logger, hook := fixtures.NewCapturingLogger(t)
	l := &listener{logger: logger}
	conn := &countdownConn{PacketConn: fakesocket.NewFakePacketConn(), remaining: 0}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.receive(ctx, conn)

	require.NoError(t, err)
	assert.Empty(t, hook.Entries())
}
