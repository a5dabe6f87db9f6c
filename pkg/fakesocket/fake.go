package fakesocket

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"
)

// FakeMetric is a fake metric.
var FakeMetric = []byte("foo.bar.baz:2|c")

// FakeAddr is a fake net.Addr
var FakeAddr = &net.UDPAddr{
	IP:   net.IPv4(127, 0, 0, 1),
	Port: 8181,
}

var ErrClosedConnection = errors.New("connection is closed")
var ErrAlreadyClosedConnection = errors.New("connection is already closed")

// CapturingConn is a fake connected datagram socket recording every write,
// one payload per datagram. It stands in for the sending side in tests.
type CapturingConn struct {
	mu        sync.Mutex
	datagrams [][]byte
	deadlines int
	closed    bool
}

func NewCapturingConn() *CapturingConn {
	return &CapturingConn{}
}

// Write records b as one datagram.
func (c *CapturingConn) Write(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, ErrClosedConnection
	}
	c.datagrams = append(c.datagrams, append([]byte(nil), b...))
	return len(b), nil
}

// Datagrams returns the payloads written so far as strings, one element per
// datagram.
func (c *CapturingConn) Datagrams() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.datagrams))
	for _, d := range c.datagrams {
		out = append(out, string(d))
	}
	return out
}

// DeadlineCount returns how many times a write deadline was set.
func (c *CapturingConn) DeadlineCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deadlines
}

// Closed returns true once the connection was closed.
func (c *CapturingConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Read dummy impl.
func (c *CapturingConn) Read(b []byte) (int, error) { return 0, ErrClosedConnection }

// Close marks the connection closed, failing later writes.
func (c *CapturingConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrAlreadyClosedConnection
	}
	c.closed = true
	return nil
}

// LocalAddr dummy impl.
func (c *CapturingConn) LocalAddr() net.Addr { return FakeAddr }

// RemoteAddr dummy impl.
func (c *CapturingConn) RemoteAddr() net.Addr { return FakeAddr }

// SetDeadline dummy impl.
func (c *CapturingConn) SetDeadline(t time.Time) error { return nil }

// SetReadDeadline dummy impl.
func (c *CapturingConn) SetReadDeadline(t time.Time) error { return nil }

// SetWriteDeadline counts deadline updates so tests can assert writes are
// bounded.
func (c *CapturingConn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadlines++
	return nil
}

// FailingConn is a fake connected datagram socket whose writes always fail.
type FailingConn struct {
	Err error // returned from every Write, ErrClosedConnection when nil
}

func NewFailingConn(err error) *FailingConn {
	if err == nil {
		err = ErrClosedConnection
	}
	return &FailingConn{Err: err}
}

func (c *FailingConn) Read(b []byte) (int, error)         { return 0, c.Err }
func (c *FailingConn) Write(b []byte) (int, error)        { return 0, c.Err }
func (c *FailingConn) Close() error                       { return nil }
func (c *FailingConn) LocalAddr() net.Addr                { return FakeAddr }
func (c *FailingConn) RemoteAddr() net.Addr               { return FakeAddr }
func (c *FailingConn) SetDeadline(t time.Time) error      { return nil }
func (c *FailingConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *FailingConn) SetWriteDeadline(t time.Time) error { return nil }

// FakePacketConn is a fake net.PacketConn providing FakeMetric when read from.
type FakePacketConn struct {
	closed chan int
}

func (fpc *FakePacketConn) isClosed() bool {
	select {
	case _, _ = <-fpc.closed:
		return true
	default:
		return false
	}
}

// ReadFrom copies FakeMetric into b.
func (fpc *FakePacketConn) ReadFrom(b []byte) (int, net.Addr, error) {
	if fpc.isClosed() {
		return 0, nil, ErrClosedConnection
	}
	n := copy(b, FakeMetric)
	return n, FakeAddr, nil
}

// WriteTo dummy impl.
func (fpc *FakePacketConn) WriteTo(b []byte, addr net.Addr) (int, error) {
	if fpc.isClosed() {
		return 0, ErrClosedConnection
	}
	return 0, nil
}

// Close dummy impl.
func (fpc *FakePacketConn) Close() error {
	if fpc.isClosed() {
		return ErrAlreadyClosedConnection
	}
	// Potential race, but it's a test fixture anyway
	close(fpc.closed)
	return nil
}

// LocalAddr dummy impl.
func (fpc *FakePacketConn) LocalAddr() net.Addr { return FakeAddr }

// SetDeadline dummy impl.
func (fpc *FakePacketConn) SetDeadline(t time.Time) error { return nil }

// SetReadDeadline dummy impl.
func (fpc *FakePacketConn) SetReadDeadline(t time.Time) error { return nil }

// SetWriteDeadline dummy impl.
func (fpc *FakePacketConn) SetWriteDeadline(t time.Time) error { return nil }

// FakeRandomPacketConn is a fake net.PacketConn providing random fake metrics.
type FakeRandomPacketConn struct {
	FakePacketConn
}

// ReadFrom generates a random batched datagram and writes it into b.
func (frpc *FakeRandomPacketConn) ReadFrom(b []byte) (int, net.Addr, error) {
	if frpc.isClosed() {
		return 0, nil, ErrClosedConnection
	}

	num := rand.Int31n(10000) // Randomize metric name
	buf := new(bytes.Buffer)
	switch rand.Int31n(4) {
	case 0: // Counter
		fmt.Fprintf(buf, "fake.counter_%d:%f|c|#fake:yes\n", num, rand.Float64()*100) // #nosec
	case 1: // Gauge
		fmt.Fprintf(buf, "fake.gauge_%d:%f|g\n", num, rand.Float64()*100) // #nosec
	case 2: // Timer
		n := 10
		for i := 0; i < n; i++ {
			fmt.Fprintf(buf, "fake.timer_%d:%f|ms|@0.1\n", num, rand.Float64()*100) // #nosec
		}
	case 3: // Set
		for i := 0; i < 10; i++ {
			fmt.Fprintf(buf, "fake.set_%d:%d|s\n", num, rand.Int31n(9)+1) // #nosec
		}
	default:
		panic(errors.New("unreachable"))
	}
	n := copy(b, buf.Bytes())
	return n, FakeAddr, nil
}

// Factory is a replacement for net.ListenPacket() that produces instances of FakeRandomPacketConn.
func Factory() (net.PacketConn, error) {
	frpc := &FakeRandomPacketConn{
		FakePacketConn: FakePacketConn{
			closed: make(chan int),
		},
	}
	return frpc, nil
}

func NewFakePacketConn() net.PacketConn {
	return &FakePacketConn{
		closed: make(chan int),
	}
}
