package statsd

import (
	"bytes"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/atlassian/dogstatsd/pkg/pool"
)

// Sender is the delivery strategy between the client and its socket. SendLine
// takes one finished wire line without a trailing newline, the sender decides
// whether it travels alone or packed with others. Delivery failures are
// logged at debug level and swallowed, callers can never observe them.
type Sender interface {
	SendLine(line []byte)
	Flush()
	Close() error
}

// maxBufferLengthSetter is implemented by senders whose flush threshold can
// be changed at runtime.
type maxBufferLengthSetter interface {
	SetMaxBufferLength(maxBufferLength int)
}

// newDeliveryLogLimiter caps delivery failure logging, logging as debug and
// rate limited to avoid spamming logs when the agent is down.
func newDeliveryLogLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(time.Second), 5)
}

// directSender writes every line as its own datagram, immediately.
type directSender struct {
	writer     PayloadWriter
	logger     logrus.FieldLogger
	logLimiter *rate.Limiter
}

// NewDirectSender creates a sender which performs one datagram write per
// line.
func NewDirectSender(writer PayloadWriter, logger logrus.FieldLogger) Sender {
	return &directSender{
		writer:     writer,
		logger:     logger,
		logLimiter: newDeliveryLogLimiter(),
	}
}

func (s *directSender) SendLine(line []byte) {
	if err := s.writer.WritePayload(line); err != nil && s.logLimiter.Allow() {
		s.logger.WithError(err).Debug("failed to deliver datagram")
	}
}

func (s *directSender) Flush() {}

func (s *directSender) Close() error {
	return s.writer.Close()
}

// bufferedSender packs lines into a shared datagram, newline separated. The
// buffer drains once an append pushes the line count past the threshold, so
// it briefly holds threshold+1 lines. There is no timer: a quiet client
// keeps its buffered lines until the next append, an explicit Flush, or
// Close. Not safe for unsynchronized concurrent use, see
// NewSynchronizedSender.
type bufferedSender struct {
	writer     PayloadWriter
	logger     logrus.FieldLogger
	logLimiter *rate.Limiter
	datagrams  *pool.BytesBuffer

	buf   *bytes.Buffer
	count int
	max   int
}

// NewBufferedSender creates a sender which packs up to maxBufferLength+1
// lines into each datagram.
func NewBufferedSender(writer PayloadWriter, logger logrus.FieldLogger, maxBufferLength int) Sender {
	datagrams := pool.NewBytesBuffer((maxBufferLength + 1) * lineSizeHint)
	return &bufferedSender{
		writer:     writer,
		logger:     logger,
		logLimiter: newDeliveryLogLimiter(),
		datagrams:  datagrams,
		buf:        datagrams.Get(),
		max:        maxBufferLength,
	}
}

func (s *bufferedSender) SendLine(line []byte) {
	if s.count > 0 {
		s.buf.WriteByte('\n')
	}
	s.buf.Write(line)
	s.count++
	if s.count > s.max {
		s.Flush()
	}
}

// Flush drains the buffer as one datagram. An empty buffer sends nothing.
func (s *bufferedSender) Flush() {
	if s.count == 0 {
		return
	}
	if err := s.writer.WritePayload(s.buf.Bytes()); err != nil && s.logLimiter.Allow() {
		s.logger.WithError(err).Debug("failed to deliver datagram")
	}
	s.datagrams.Put(s.buf)
	s.buf = s.datagrams.Get()
	s.count = 0
}

// SetMaxBufferLength changes the flush threshold, effective at the next
// append. Lowering it below the current occupancy does not flush by itself.
func (s *bufferedSender) SetMaxBufferLength(maxBufferLength int) {
	s.max = maxBufferLength
}

func (s *bufferedSender) Close() error {
	s.Flush()
	return s.writer.Close()
}

// synchronizedSender serializes access to a wrapped sender, for callers who
// share one client between goroutines instead of using a client per
// goroutine.
type synchronizedSender struct {
	mu    sync.Mutex
	inner Sender
}

// NewSynchronizedSender wraps inner with a mutex.
func NewSynchronizedSender(inner Sender) Sender {
	return &synchronizedSender{inner: inner}
}

func (s *synchronizedSender) SendLine(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inner.SendLine(line)
}

func (s *synchronizedSender) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inner.Flush()
}

func (s *synchronizedSender) SetMaxBufferLength(maxBufferLength int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if setter, ok := s.inner.(maxBufferLengthSetter); ok {
		setter.SetMaxBufferLength(maxBufferLength)
	}
}

func (s *synchronizedSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Close()
}
