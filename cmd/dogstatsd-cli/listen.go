package main

import (
	"bytes"
	"context"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/atlassian/dogstatsd/internal/lexer"
)

const (
	// ParamListenAddr is the address listen mode binds.
	ParamListenAddr = "listen-addr"
	// DefaultListenAddr is the default address for listen mode.
	DefaultListenAddr = "127.0.0.1:8125"
)

// ip packet size is stored in two bytes and that is how big in theory the packet can be.
// In practice it is highly unlikely but still possible to get packets bigger than usual MTU of 1500.
const packetSizeUDP = 0xffff

// listener reads datagrams from a socket and logs every line it can parse.
// It is a debugging aid, pointing a client at it shows what actually goes
// over the wire.
type listener struct {
	logger logrus.FieldLogger
	lexer  lexer.Lexer
}

func listen(ctx context.Context, logger logrus.FieldLogger, addr string) error {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	logger.WithField("address", conn.LocalAddr().String()).Info("listening")
	l := &listener{logger: logger}
	return l.receive(ctx, conn)
}

// receive reads datagrams until the context is cancelled or the socket fails.
func (l *listener) receive(ctx context.Context, conn net.PacketConn) error {
	buf := make([]byte, packetSizeUDP)
	for {
		// This will error out when the socket is closed.
		nbytes, addr, err := conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if netErr, ok := err.(net.Error); ok && netErr.Temporary() {
				l.logger.WithError(err).Warn("error reading from socket")
				continue
			}
			return err
		}
		l.handleDatagram(addr, buf[:nbytes])
	}
}

// handleDatagram logs each line of a datagram. Lines are processed before the
// next read reuses the buffer.
func (l *listener) handleDatagram(addr net.Addr, msg []byte) {
	for {
		idx := bytes.IndexByte(msg, '\n')
		var line []byte
		// protocol does not require line to end in \n
		if idx == -1 {
			if len(msg) == 0 {
				break
			}
			line = msg
			msg = nil
		} else {
			line = msg[:idx]
			msg = msg[idx+1:]
		}
		if len(line) > 0 {
			l.logLine(addr, line)
		}
	}
}

func (l *listener) logLine(addr net.Addr, line []byte) {
	from := "unknown"
	if addr != nil {
		from = addr.String()
	}
	metric, event, check, err := l.lexer.Run(line, "")
	if err != nil {
		l.logger.WithError(err).WithFields(logrus.Fields{
			"from": from,
			"line": string(line),
		}).Warn("bad line")
		return
	}
	switch {
	case metric != nil:
		l.logger.WithFields(logrus.Fields{
			"from":  from,
			"name":  metric.Name,
			"value": metric.Value,
			"type":  metric.Type.String(),
			"rate":  metric.Rate,
			"tags":  metric.Tags.String(),
		}).Info("metric")
	case event != nil:
		l.logger.WithFields(logrus.Fields{
			"from":     from,
			"title":    event.Title,
			"text":     event.Text,
			"priority": event.Priority.String(),
			"alert":    event.AlertType.String(),
			"tags":     event.Tags.String(),
		}).Info("event")
	case check != nil:
		l.logger.WithFields(logrus.Fields{
			"from":    from,
			"name":    check.Name,
			"status":  check.Status.String(),
			"message": check.Message,
			"tags":    check.Tags.String(),
		}).Info("service check")
	}
}
