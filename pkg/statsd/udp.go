package statsd

import (
	"net"
	"time"
)

// connWriter adapts a connected datagram socket to the PayloadWriter
// interface. The write deadline keeps a full kernel buffer from blocking the
// caller, a timeout counts as an ordinary delivery failure.
type connWriter struct {
	conn         net.Conn
	writeTimeout time.Duration
}

func (w *connWriter) WritePayload(payload []byte) error {
	if w.writeTimeout > 0 {
		if err := w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout)); err != nil {
			return err
		}
	}
	_, err := w.conn.Write(payload)
	return err
}

func (w *connWriter) Close() error {
	return w.conn.Close()
}

// newUDPWriter dials addr and returns a writer over the connected socket.
// Dialing a UDP socket does not touch the network, so a missing agent is
// only noticed (and ignored) at write time.
func newUDPWriter(addr string, writeTimeout time.Duration) (*connWriter, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, err
	}
	return &connWriter{conn: conn, writeTimeout: writeTimeout}, nil
}
