package statsd

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/atlassian/dogstatsd"
	"github.com/atlassian/dogstatsd/pkg/pool"
	"github.com/atlassian/dogstatsd/pkg/util"
)

// lineSizeHint is the initial capacity of line assembly buffers.
const lineSizeHint = 256

// Options carries the construction parameters of a Client.
type Options struct {
	// Namespace is prepended to every metric name, with a "." separator.
	// A trailing "." is accepted and ignored.
	Namespace string
	// Tags are constant tags appended to every metric, event and service
	// check emitted through the client.
	Tags dogstatsd.Tags
	// Buffered selects the sender strategy: false sends one datagram per
	// line, true packs lines into shared datagrams.
	Buffered bool
	// MaxBufferLength is the buffered sender's flush threshold, zero or
	// negative means DefaultMaxBufferLength. The buffer drains once an
	// append pushes the line count past the threshold.
	MaxBufferLength int
	// Synchronized wraps the sender with a mutex so one client can be
	// shared between goroutines. Leave false and use a client per
	// goroutine where throughput matters.
	Synchronized bool
	// WriteTimeout bounds each socket write, zero means no deadline.
	WriteTimeout time.Duration
}

// Client emits DogStatsD metrics, events and service checks through a Sender
// strategy. Every method is fire and forget: nothing blocks beyond a single
// socket write and the caller can never observe delivery.
//
// A Client is not safe for unsynchronized concurrent use unless constructed
// with Options.Synchronized.
type Client struct {
	logger    logrus.FieldLogger
	sender    Sender
	namespace string
	tags      dogstatsd.Tags
	lines     *pool.LineBuffer

	randFloat func() float64   // rand.Float64 except in tests
	now       func() time.Time // time.Now except in tests
	badInput  *rate.Limiter
}

// NewClient creates a Client sending to agentAddr. Addresses with the
// "unix://" prefix use a unix datagram socket, anything else is host:port
// over UDP. redial paces reconnection attempts of unix sockets and may be
// nil for UDP addresses.
func NewClient(logger logrus.FieldLogger, agentAddr string, redial util.BackoffFactory, options Options) (*Client, error) {
	writer, err := NewPayloadWriter(agentAddr, options.WriteTimeout, redial)
	if err != nil {
		return nil, fmt.Errorf("failed to open datagram socket %q: %v", agentAddr, err)
	}
	var sender Sender
	if options.Buffered {
		maxBufferLength := options.MaxBufferLength
		if maxBufferLength <= 0 {
			maxBufferLength = dogstatsd.DefaultMaxBufferLength
		}
		sender = NewBufferedSender(writer, logger, maxBufferLength)
	} else {
		sender = NewDirectSender(writer, logger)
	}
	if options.Synchronized {
		sender = NewSynchronizedSender(sender)
	}
	return NewClientWithSender(logger, sender, options), nil
}

// NewClientWithSender is an indirection layer over the sender strategies to
// allow for different implementations.
func NewClientWithSender(logger logrus.FieldLogger, sender Sender, options Options) *Client {
	return &Client{
		logger:    logger,
		sender:    sender,
		namespace: strings.TrimSuffix(options.Namespace, "."),
		tags:      options.Tags,
		lines:     pool.NewLineBuffer(lineSizeHint),
		randFloat: rand.Float64,
		now:       time.Now,
		badInput:  rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// Increment sends a counter increase of 1.
func (c *Client) Increment(name string, rate float64, tags dogstatsd.Tags) {
	c.Count(name, 1, rate, tags)
}

// Decrement sends a counter decrease of 1.
func (c *Client) Decrement(name string, rate float64, tags dogstatsd.Tags) {
	c.Count(name, -1, rate, tags)
}

// IncrementAll sends a counter increase of 1 for every name.
func (c *Client) IncrementAll(names []string, rate float64, tags dogstatsd.Tags) {
	c.CountAll(names, 1, rate, tags)
}

// DecrementAll sends a counter decrease of 1 for every name.
func (c *Client) DecrementAll(names []string, rate float64, tags dogstatsd.Tags) {
	c.CountAll(names, -1, rate, tags)
}

// Count sends a counter change.
func (c *Client) Count(name string, amount int64, rate float64, tags dogstatsd.Tags) {
	c.report(&dogstatsd.Metric{
		Name:  name,
		Value: strconv.FormatInt(amount, 10),
		Rate:  rate,
		Tags:  tags,
		Type:  dogstatsd.COUNTER,
	})
}

// CountAll sends the identical counter change for every name. Each name is
// sampled independently.
func (c *Client) CountAll(names []string, amount int64, rate float64, tags dogstatsd.Tags) {
	value := strconv.FormatInt(amount, 10)
	for _, name := range names {
		c.report(&dogstatsd.Metric{
			Name:  name,
			Value: value,
			Rate:  rate,
			Tags:  tags,
			Type:  dogstatsd.COUNTER,
		})
	}
}

// Gauge sends the current value of something measured.
func (c *Client) Gauge(name string, value float64, rate float64, tags dogstatsd.Tags) {
	c.reportFloat(name, value, rate, tags, dogstatsd.GAUGE)
}

// Histogram sends a value to be aggregated into statistical distributions
// on the agent.
func (c *Client) Histogram(name string, value float64, rate float64, tags dogstatsd.Tags) {
	c.reportFloat(name, value, rate, tags, dogstatsd.HISTOGRAM)
}

// Distribution sends a value to be aggregated into global distributions
// server side.
func (c *Client) Distribution(name string, value float64, rate float64, tags dogstatsd.Tags) {
	c.reportFloat(name, value, rate, tags, dogstatsd.DISTRIBUTION)
}

// Set sends a member of a set, for counting unique things.
func (c *Client) Set(name string, member string, rate float64, tags dogstatsd.Tags) {
	if member == "" || strings.ContainsAny(member, "|\n") {
		if c.badInput.Allow() {
			c.logger.WithFields(logrus.Fields{
				"name":   name,
				"member": member,
			}).Warn("dropping set metric with unframeable member")
		}
		return
	}
	c.report(&dogstatsd.Metric{
		Name:  name,
		Value: member,
		Rate:  rate,
		Tags:  tags,
		Type:  dogstatsd.SET,
	})
}

// TimingMS sends a timing metric from a millisecond value.
func (c *Client) TimingMS(name string, ms float64, rate float64, tags dogstatsd.Tags) {
	c.reportFloat(name, ms, rate, tags, dogstatsd.TIMER)
}

// TimingDuration sends a timing metric from a time.Duration.
func (c *Client) TimingDuration(name string, d time.Duration, rate float64, tags dogstatsd.Tags) {
	c.TimingMS(name, float64(d)/float64(time.Millisecond), rate, tags)
}

// Event sends an event over the datagram socket. Events with an empty title
// are dropped, a title is the one field the receiving end requires.
func (c *Client) Event(e *dogstatsd.Event) {
	if e.Title == "" {
		if c.badInput.Allow() {
			c.logger.Warn("dropping event without a title")
		}
		return
	}
	ev := *e
	ev.Tags = e.Tags.Concat(c.tags)
	line := c.lines.Get()
	*line = appendEvent(*line, &ev)
	c.sender.SendLine(*line)
	c.lines.Put(line)
}

// ServiceCheck sends the result of a check run over the datagram socket.
func (c *Client) ServiceCheck(sc *dogstatsd.ServiceCheck) {
	if sc.Name == "" || strings.ContainsAny(sc.Name, "|\n") {
		if c.badInput.Allow() {
			c.logger.WithField("name", sc.Name).Warn("dropping service check with unframeable name")
		}
		return
	}
	check := *sc
	check.Tags = sc.Tags.Concat(c.tags)
	line := c.lines.Get()
	*line = appendServiceCheck(*line, &check)
	c.sender.SendLine(*line)
	c.lines.Put(line)
}

// WithTags creates a new Client with additional constant tags. The new
// client shares this client's sender, closing either closes the shared
// socket.
func (c *Client) WithTags(tags dogstatsd.Tags) *Client {
	clone := *c
	clone.tags = c.tags.Concat(tags)
	return &clone
}

// SetMaxBufferLength changes the flush threshold of a buffered client,
// effective at the next metric. It does nothing on an unbuffered client.
func (c *Client) SetMaxBufferLength(maxBufferLength int) {
	if setter, ok := c.sender.(maxBufferLengthSetter); ok {
		setter.SetMaxBufferLength(maxBufferLength)
	}
}

// Flush drains any buffered lines. It does nothing on an unbuffered client.
func (c *Client) Flush() {
	c.sender.Flush()
}

// Close flushes buffered lines and releases the socket. The client must not
// be used afterwards.
func (c *Client) Close() error {
	return c.sender.Close()
}

// report runs the sampling decision and hands the assembled line to the
// sender. The sampling draw is per metric, a CountAll over several names
// rolls the dice once per name.
func (c *Client) report(m *dogstatsd.Metric) {
	if !c.checkName(m.Name) {
		return
	}
	if m.Rate < 1 && c.randFloat() >= m.Rate {
		return
	}
	m.Tags = m.Tags.Concat(c.tags)
	line := c.lines.Get()
	*line = appendMetric(*line, c.namespace, m)
	c.sender.SendLine(*line)
	c.lines.Put(line)
}

func (c *Client) reportFloat(name string, value float64, rate float64, tags dogstatsd.Tags, t dogstatsd.MetricType) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		if c.badInput.Allow() {
			c.logger.WithFields(logrus.Fields{
				"name":  name,
				"value": value,
			}).Warn("dropping metric with a non finite value")
		}
		return
	}
	c.report(&dogstatsd.Metric{
		Name:  name,
		Value: strconv.FormatFloat(value, 'g', -1, 64),
		Rate:  rate,
		Tags:  tags,
		Type:  t,
	})
}

// checkName drops metrics whose name would corrupt the line framing. Names
// are otherwise passed through untouched, different collectors have
// different ideas about valid characters so there are no restrictions on
// the input side beyond the protocol delimiters.
func (c *Client) checkName(name string) bool {
	if name != "" && !strings.ContainsAny(name, ":|\n") {
		return true
	}
	if c.badInput.Allow() {
		c.logger.WithField("name", name).Warn("dropping metric with unframeable name")
	}
	return false
}
