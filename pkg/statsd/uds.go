package statsd

import (
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/atlassian/dogstatsd/pkg/util"
)

// errDialPaused is returned for payloads arriving while the redial policy is
// holding dials back. The payload is dropped, never queued.
var errDialPaused = errors.New("dial paused by redial policy")

// udsWriter writes datagrams to a unix socket. The connection is established
// lazily on the first write and dropped on a write error, so an agent
// restart is picked up by a later write against the fresh socket. Failed
// dials are paced by the redial policy to avoid hammering a dead socket
// path on every metric; payloads themselves are never retried.
type udsWriter struct {
	path          string
	writeTimeout  time.Duration
	redialFactory util.BackoffFactory

	conn     net.Conn
	redial   backoff.BackOff
	resumeAt time.Time
	now      func() time.Time // time.Now() except in tests
}

func newUDSWriter(path string, writeTimeout time.Duration, redialFactory util.BackoffFactory) *udsWriter {
	return &udsWriter{
		path:          path,
		writeTimeout:  writeTimeout,
		redialFactory: redialFactory,
		now:           time.Now,
	}
}

func (w *udsWriter) WritePayload(payload []byte) error {
	conn, err := w.ensureConnection()
	if err != nil {
		return err
	}
	if w.writeTimeout > 0 {
		if err := conn.SetWriteDeadline(w.now().Add(w.writeTimeout)); err != nil {
			return err
		}
	}
	_, err = conn.Write(payload)
	if err != nil {
		// A timeout means the agent is alive but slow, keep the connection.
		// Anything else means it went away, drop the connection so a later
		// write redials.
		if netErr, ok := err.(net.Error); !ok || !netErr.Timeout() {
			w.dropConnection()
		}
	}
	return err
}

func (w *udsWriter) Close() error {
	if w.conn == nil {
		return nil
	}
	conn := w.conn
	w.conn = nil
	return conn.Close()
}

func (w *udsWriter) ensureConnection() (net.Conn, error) {
	if w.conn != nil {
		return w.conn, nil
	}
	if !w.resumeAt.IsZero() && w.now().Before(w.resumeAt) {
		return nil, errDialPaused
	}
	conn, err := net.Dial("unixgram", w.path)
	if err != nil {
		w.pauseDialing()
		return nil, err
	}
	w.conn = conn
	w.redial = nil
	w.resumeAt = time.Time{}
	return conn, nil
}

func (w *udsWriter) pauseDialing() {
	if w.redial == nil {
		w.redial = w.redialFactory()
	}
	next := w.redial.NextBackOff()
	if next == backoff.Stop {
		// Policy exhausted. Start a fresh cycle so a long dead socket is
		// still probed now and then rather than never again.
		w.redial = w.redialFactory()
		next = w.redial.NextBackOff()
		if next == backoff.Stop {
			// The disabled policy stops immediately, probe on every write.
			w.resumeAt = time.Time{}
			return
		}
	}
	w.resumeAt = w.now().Add(next)
}

func (w *udsWriter) dropConnection() {
	if w.conn != nil {
		_ = w.conn.Close()
		w.conn = nil
	}
}
