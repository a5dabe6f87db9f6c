package statsd

import (
	"strconv"
	"strings"

	"github.com/atlassian/dogstatsd"
)

// appendMetric renders m as a single wire line, without a trailing newline.
// The line is `[namespace.]name:value|type[|@rate][|#tags]`. The sample rate
// is only emitted when sampling actually happened, a rate of 1 (or an unset
// rate of 0) adds nothing.
func appendMetric(b []byte, namespace string, m *dogstatsd.Metric) []byte {
	if namespace != "" {
		b = append(b, namespace...)
		b = append(b, '.')
	}
	b = append(b, m.Name...)
	b = append(b, ':')
	b = append(b, m.Value...)
	b = append(b, '|')
	b = append(b, m.Type.WireName()...)
	if m.Rate > 0 && m.Rate < 1 {
		b = append(b, '|', '@')
		b = strconv.AppendFloat(b, m.Rate, 'g', -1, 64)
	}
	if !m.Tags.Empty() {
		b = append(b, '|', '#')
		b = m.Tags.AppendWire(b)
	}
	return b
}

// appendServiceCheck renders sc as `_sc|name|status` followed by the optional
// fields in their fixed order: d, h, #, m. The message field must come last
// because its escaping does not cover the field separator.
func appendServiceCheck(b []byte, sc *dogstatsd.ServiceCheck) []byte {
	b = append(b, "_sc|"...)
	b = append(b, sc.Name...)
	b = append(b, '|')
	b = strconv.AppendUint(b, uint64(sc.Status), 10)
	if sc.Timestamp != 0 {
		b = append(b, "|d:"...)
		b = strconv.AppendInt(b, sc.Timestamp, 10)
	}
	if sc.Hostname != "" {
		b = append(b, "|h:"...)
		b = append(b, sc.Hostname...)
	}
	if !sc.Tags.Empty() {
		b = append(b, "|#"...)
		b = sc.Tags.AppendWire(b)
	}
	if sc.Message != "" {
		b = append(b, "|m:"...)
		b = append(b, escapeMessage(sc.Message)...)
	}
	return b
}

// escapeMessage escapes a service check message. Newlines must be replaced
// before "m:" so the escape of one cannot manufacture the other.
func escapeMessage(msg string) string {
	msg = strings.Replace(msg, "\n", `\n`, -1)
	return strings.Replace(msg, "m:", `m\:`, -1)
}

// appendEvent renders e as `_e{titleLen,textLen}:title|text` followed by the
// optional fields d, h, k, p, s, t, #. Newlines in the title and text are
// escaped so the line never spans datagram lines, and the declared lengths
// are byte lengths of the escaped strings.
func appendEvent(b []byte, e *dogstatsd.Event) []byte {
	title := strings.Replace(e.Title, "\n", `\n`, -1)
	text := strings.Replace(e.Text, "\n", `\n`, -1)
	b = append(b, "_e{"...)
	b = strconv.AppendInt(b, int64(len(title)), 10)
	b = append(b, ',')
	b = strconv.AppendInt(b, int64(len(text)), 10)
	b = append(b, "}:"...)
	b = append(b, title...)
	b = append(b, '|')
	b = append(b, text...)
	if e.DateHappened != 0 {
		b = append(b, "|d:"...)
		b = strconv.AppendInt(b, e.DateHappened, 10)
	}
	if e.Hostname != "" {
		b = append(b, "|h:"...)
		b = append(b, e.Hostname...)
	}
	if e.AggregationKey != "" {
		b = append(b, "|k:"...)
		b = append(b, e.AggregationKey...)
	}
	if p := e.Priority.StringWithEmptyDefault(); p != "" {
		b = append(b, "|p:"...)
		b = append(b, p...)
	}
	if e.SourceTypeName != "" {
		b = append(b, "|s:"...)
		b = append(b, e.SourceTypeName...)
	}
	if t := e.AlertType.StringWithEmptyDefault(); t != "" {
		b = append(b, "|t:"...)
		b = append(b, t...)
	}
	if !e.Tags.Empty() {
		b = append(b, "|#"...)
		b = e.Tags.AppendWire(b)
	}
	return b
}
