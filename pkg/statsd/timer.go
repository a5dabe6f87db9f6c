package statsd

import (
	"time"

	"github.com/atlassian/dogstatsd"
)

// Timer is a convenience for measuring and reporting a wallclock interval.
type Timer struct {
	client   *Client
	name     string
	rate     float64
	tags     dogstatsd.Tags
	start    time.Time
	duration time.Duration
}

// NewTimer returns a new timer with time set to now.
func (c *Client) NewTimer(name string, rate float64, tags dogstatsd.Tags) *Timer {
	return &Timer{
		client: c,
		name:   name,
		rate:   rate,
		tags:   tags,
		start:  c.now(),
	}
}

// Stop records the time elapsed since the timer was created. Stopping twice
// overwrites the first measurement.
func (t *Timer) Stop() {
	t.duration = t.client.now().Sub(t.start)
}

// Send reports the recorded duration as a timing metric. A timer which was
// never stopped reports zero.
func (t *Timer) Send() {
	t.client.TimingDuration(t.name, t.duration, t.rate, t.tags)
}

// StopSend stops the timer and reports it in one call.
func (t *Timer) StopSend() {
	t.Stop()
	t.Send()
}
