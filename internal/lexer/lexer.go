package lexer

import (
	"bytes"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/atlassian/dogstatsd"
)

type Lexer struct {
	// any field added must be considered in Lexer.reset
	input         []byte
	len           uint32
	start         uint32
	pos           uint32
	eventTitleLen uint32
	eventTextLen  uint32
	m             *dogstatsd.Metric
	e             *dogstatsd.Event
	sc            *dogstatsd.ServiceCheck
	tags          []string
	namespace     string
	err           error
	sampling      float64
}

// assumes we don't have \x00 bytes in input.
const eof byte = 0

var (
	errMissingKeySep     = errors.New("missing key separator")
	errEmptyKey          = errors.New("key zero len")
	errMissingValueSep   = errors.New("missing value separator")
	errInvalidType       = errors.New("invalid type")
	errInvalidFormat     = errors.New("invalid format")
	errInvalidAttributes = errors.New("invalid event attributes")
	errInvalidStatus     = errors.New("invalid service check status")
	errOverflow          = errors.New("overflow")
	errNotEnoughData     = errors.New("not enough data")
	errNaN               = errors.New("invalid value NaN")
)

var escapedNewline = []byte("\\n")
var newline = []byte("\n")

var escapedMessagePrefix = []byte("m\\:")
var messagePrefix = []byte("m:")

var priorityNormal = []byte("normal")
var priorityLow = []byte("low")

var alertInfo = []byte("info")
var alertError = []byte("error")
var alertWarning = []byte("warning")
var alertSuccess = []byte("success")

func (l *Lexer) next() byte {
	if l.pos >= l.len {
		return eof
	}
	b := l.input[l.pos]
	l.pos++
	return b
}

func (l *Lexer) reset() {
	// l.input = nil       // re-initialized by Run
	// l.len = 0           // re-initialized by Run
	// l.eventTitleLen = 0 // re-initialized by lexDatadogSpecial before lexEventBody
	// l.eventTextLen = 0  // re-initialized by lexDatadogSpecial before lexEventBody
	// l.namespace = ""    // re-initialized by Run
	// l.sampling = 1      // re-initialized by Run

	l.start = 0
	l.pos = 0
	l.m = nil
	l.e = nil
	l.sc = nil
	l.tags = nil
	l.err = nil
}

func (l *Lexer) appendTag(start, end uint32) {
	data := l.input[start:end]
	if len(data) > 0 {
		l.tags = append(l.tags, string(data))
	}
}

// Run parses a single wire line into exactly one of a Metric, an Event or a
// ServiceCheck. namespace, when not empty, is prepended to metric names.
func (l *Lexer) Run(input []byte, namespace string) (*dogstatsd.Metric, *dogstatsd.Event, *dogstatsd.ServiceCheck, error) {
	l.reset()
	l.input = input
	l.namespace = namespace
	l.len = uint32(len(l.input))
	l.sampling = float64(1)

	for state := lexSpecial; state != nil; {
		state = state(l)
	}
	if l.err != nil {
		return nil, nil, nil, l.err
	}
	tags := dogstatsd.RawTags(strings.Join(l.tags, ","))
	switch {
	case l.m != nil:
		l.m.Rate = l.sampling
		if l.m.Type != dogstatsd.SET {
			v, err := strconv.ParseFloat(l.m.Value, 64)
			if err != nil {
				return nil, nil, nil, err
			}
			if math.IsNaN(v) {
				return nil, nil, nil, errNaN
			}
		}
		l.m.Tags = tags
	case l.e != nil:
		l.e.Tags = tags
	case l.sc != nil:
		l.sc.Tags = tags
	}
	return l.m, l.e, l.sc, nil
}

type stateFn func(*Lexer) stateFn

// check the first byte for special Datadog type.
func lexSpecial(l *Lexer) stateFn {
	switch b := l.next(); b {
	case '_':
		return lexDatadogSpecial
	case eof:
		l.err = errInvalidType
		return nil
	default:
		l.pos--
		l.m = new(dogstatsd.Metric)
		return lexKeySep
	}
}

// lex until we find the colon separator between key and value.
func lexKeySep(l *Lexer) stateFn {
	for {
		switch b := l.next(); b {
		case '/':
			l.input[l.pos-1] = '-'
		case ' ', '\t':
			l.input[l.pos-1] = '_'
		case ':':
			return lexKey
		case eof:
			l.err = errMissingKeySep
			return nil
		case '.', '-', '_':
			continue
		default:
			r := rune(b)
			if (97 <= r && 122 >= r) || (65 <= r && 90 >= r) || (48 <= r && 57 >= r) {
				continue
			}
			l.input = append(l.input[0:l.pos-1], l.input[l.pos:]...)
			l.len--
			l.pos--
		}
	}
}

// lex Datadog special types.
func lexDatadogSpecial(l *Lexer) stateFn {
	switch b := l.next(); b {
	// _e{title.length,text.length}:title|text|d:date_happened|h:hostname|p:priority|t:alert_type|#tag1,tag2
	case 'e':
		l.e = new(dogstatsd.Event)
		return lexAssert('{',
			lexUint32(&l.eventTitleLen,
				lexAssert(',',
					lexUint32(&l.eventTextLen,
						lexAssert('}', lexAssert(':', lexEventBody))))))
	// _sc|name|status|d:timestamp|h:hostname|#tag1,tag2|m:message
	case 's':
		l.sc = new(dogstatsd.ServiceCheck)
		return lexAssert('c', lexAssert('|', lexServiceCheckName))
	default:
		l.err = errInvalidType
		return nil
	}
}

func lexEventBody(l *Lexer) stateFn {
	if l.len-l.pos < l.eventTitleLen+1+l.eventTextLen {
		l.err = errNotEnoughData
		return nil
	}
	if l.input[l.pos+l.eventTitleLen] != '|' {
		l.err = errInvalidFormat
		return nil
	}
	l.e.Title = string(l.input[l.pos : l.pos+l.eventTitleLen])
	l.pos += l.eventTitleLen + 1
	l.e.Text = string(bytes.Replace(l.input[l.pos:l.pos+l.eventTextLen], escapedNewline, newline, -1))
	l.pos += l.eventTextLen
	return lexEventAttributes
}

func lexEventAttributes(l *Lexer) stateFn {
	switch b := l.next(); b {
	case '|':
		return lexEventAttribute(l)
	case eof:
	default:
		l.err = errInvalidAttributes
	}
	return nil
}

func lexEventAttribute(l *Lexer) stateFn {
	// d:date_happened|h:hostname|k:agg_key|p:priority|s:source_type|t:alert_type|#tag1,tag2
	switch b := l.next(); b {
	case 'd':
		return lexAssert(':', lexUint(func(l *Lexer, value uint64) stateFn {
			if value > math.MaxInt64 {
				l.err = errOverflow
				return nil
			}
			l.e.DateHappened = int64(value)
			return lexEventAttributes
		}))
	case 'h':
		return lexAssert(':', lexUntil('|', func(l *Lexer, data []byte) stateFn {
			l.e.Hostname = string(data)
			return lexEventAttributes
		}))
	case 'k':
		return lexAssert(':', lexUntil('|', func(l *Lexer, data []byte) stateFn {
			l.e.AggregationKey = string(data)
			return lexEventAttributes
		}))
	case 'p':
		return lexAssert(':', lexUntil('|', func(l *Lexer, data []byte) stateFn {
			if bytes.Equal(data, priorityLow) {
				l.e.Priority = dogstatsd.PriLow
			} else if bytes.Equal(data, priorityNormal) {
				// Normal is default
			} else {
				l.err = errInvalidAttributes
				return nil
			}
			return lexEventAttributes
		}))
	case 's':
		return lexAssert(':', lexUntil('|', func(l *Lexer, data []byte) stateFn {
			l.e.SourceTypeName = string(data)
			return lexEventAttributes
		}))
	case 't':
		return lexAssert(':', lexUntil('|', func(l *Lexer, data []byte) stateFn {
			if bytes.Equal(data, alertError) {
				l.e.AlertType = dogstatsd.AlertError
			} else if bytes.Equal(data, alertWarning) {
				l.e.AlertType = dogstatsd.AlertWarning
			} else if bytes.Equal(data, alertSuccess) {
				l.e.AlertType = dogstatsd.AlertSuccess
			} else if bytes.Equal(data, alertInfo) {
				// Info is default
			} else {
				l.err = errInvalidAttributes
				return nil
			}
			return lexEventAttributes
		}))
	case '#':
		return lexTags(l, lexEventAttributes)
	case eof:
	default:
		// unrecognised fields are consumed and ignored so new fields can be sent
		return lexUnknown(l, lexEventAttributes)
	}
	return nil
}

func lexServiceCheckName(l *Lexer) stateFn {
	start := l.pos
	p := bytes.IndexByte(l.input[l.pos:], '|')
	if p == -1 {
		l.err = errNotEnoughData
		return nil
	}
	l.pos += uint32(p)
	if start == l.pos {
		l.err = errEmptyKey
		return nil
	}
	l.sc.Name = string(l.input[start:l.pos])
	l.pos++ // consume the separator
	return lexServiceCheckStatus
}

func lexServiceCheckStatus(l *Lexer) stateFn {
	return lexUint(func(l *Lexer, value uint64) stateFn {
		if value > uint64(dogstatsd.ServiceCheckUnknown) {
			l.err = errInvalidStatus
			return nil
		}
		l.sc.Status = dogstatsd.ServiceCheckStatus(value)
		return lexServiceCheckFields
	})(l)
}

// lex the possible separator between service check fields.
func lexServiceCheckFields(l *Lexer) stateFn {
	switch b := l.next(); b {
	case '|':
		return lexServiceCheckField(l)
	case eof:
	default:
		l.err = errInvalidFormat
	}
	return nil
}

func lexServiceCheckField(l *Lexer) stateFn {
	// d:timestamp|h:hostname|#tag1,tag2|m:message
	switch b := l.next(); b {
	case 'd':
		return lexAssert(':', lexUint(func(l *Lexer, value uint64) stateFn {
			if value > math.MaxInt64 {
				l.err = errOverflow
				return nil
			}
			l.sc.Timestamp = int64(value)
			return lexServiceCheckFields
		}))
	case 'h':
		return lexAssert(':', lexUntil('|', func(l *Lexer, data []byte) stateFn {
			l.sc.Hostname = string(data)
			return lexServiceCheckFields
		}))
	case '#':
		return lexTags(l, lexServiceCheckFields)
	case 'm':
		return lexAssert(':', lexServiceCheckMessage)
	case eof:
	default:
		// unrecognised fields are consumed and ignored so new fields can be sent
		return lexUnknown(l, lexServiceCheckFields)
	}
	return nil
}

// lexServiceCheckMessage consumes the rest of the input. The message field is
// always last, so a message may contain the field separator.
func lexServiceCheckMessage(l *Lexer) stateFn {
	data := bytes.Replace(l.input[l.pos:], escapedMessagePrefix, messagePrefix, -1)
	data = bytes.Replace(data, escapedNewline, newline, -1)
	l.sc.Message = string(data)
	l.pos = l.len
	return nil
}

func lexUint32(target *uint32, next stateFn) stateFn {
	return lexUint(func(l *Lexer, value uint64) stateFn {
		if value > math.MaxUint32 {
			l.err = errOverflow
			return nil
		}
		*target = uint32(value)
		return next
	})
}

func lexUint(handler func(*Lexer, uint64) stateFn) stateFn {
	return func(l *Lexer) stateFn {
		var value uint64
		start := l.pos
	loop:
		for {
			switch b := l.next(); {
			case '0' <= b && b <= '9':
				n := value*10 + uint64(b-'0')
				if n < value {
					l.err = errOverflow
					return nil
				}
				value = n
			case b == eof:
				break loop
			default:
				l.pos--
				break loop
			}
		}
		if start == l.pos {
			l.err = errInvalidFormat
			return nil
		}
		return handler(l, value)
	}
}

// lexAssert returns a function that checks if the next byte matches the provided byte and returns next in that case.
func lexAssert(nextByte byte, next stateFn) stateFn {
	return func(l *Lexer) stateFn {
		switch b := l.next(); b {
		case nextByte:
			return next
		default:
			l.err = errInvalidFormat
			return nil
		}
	}
}

// lexUntil invokes handler with all bytes up to the stop byte or an eof.
// The stop byte is not consumed.
func lexUntil(stop byte, handler func(*Lexer, []byte) stateFn) stateFn {
	return func(l *Lexer) stateFn {
		start := l.pos
		p := bytes.IndexByte(l.input[l.pos:], stop)
		switch p {
		case -1:
			l.pos = l.len
		default:
			l.pos += uint32(p)
		}
		return handler(l, l.input[start:l.pos])
	}
}

// lex the key.
func lexKey(l *Lexer) stateFn {
	if l.start == l.pos-1 {
		l.err = errEmptyKey
		return nil
	}
	l.m.Name = string(l.input[l.start : l.pos-1])
	if l.namespace != "" {
		l.m.Name = l.namespace + "." + l.m.Name
	}
	l.start = l.pos
	return lexValueSep
}

// lex until we find the pipe separator between value and modifier.
func lexValueSep(l *Lexer) stateFn {
	for {
		// cheap check here. ParseFloat will do it.
		switch b := l.next(); b {
		case '|':
			return lexValue
		case eof:
			l.err = errMissingValueSep
			return nil
		}
	}
}

// lex the value.
func lexValue(l *Lexer) stateFn {
	l.m.Value = string(l.input[l.start : l.pos-1])
	l.start = l.pos
	return lexType
}

// lex the type.
func lexType(l *Lexer) stateFn {
	b := l.next()
	switch b {
	case 'c':
		l.m.Type = dogstatsd.COUNTER
		l.start = l.pos
		return lexMetricFields
	case 'g':
		l.m.Type = dogstatsd.GAUGE
		l.start = l.pos
		return lexMetricFields
	case 'm':
		if b := l.next(); b != 's' {
			l.err = errInvalidType
			return nil
		}
		l.start = l.pos
		l.m.Type = dogstatsd.TIMER
		return lexMetricFields
	case 'h':
		l.start = l.pos
		l.m.Type = dogstatsd.HISTOGRAM
		return lexMetricFields
	case 'd':
		l.start = l.pos
		l.m.Type = dogstatsd.DISTRIBUTION
		return lexMetricFields
	case 's':
		l.m.Type = dogstatsd.SET
		l.start = l.pos
		return lexMetricFields
	default:
		l.err = errInvalidType
		return nil
	}
}

// lex the possible separator between type and the optional fields.
func lexMetricFields(l *Lexer) stateFn {
	b := l.next()
	switch b {
	case '|':
		l.start = l.pos
		return lexMetricField
	case eof:
	default:
		l.err = errInvalidType
	}
	return nil
}

// lexMetricField lexes the optional fields sample rate and/or tags. Unrecognised fields are ignored.
// To avoid unnecessary func pointer dereferences while supporting reuse, lex functions are being called statically
// rather than being returned to the Run function
func lexMetricField(l *Lexer) stateFn {
	b := l.next()
	switch b {
	case '@':
		return lexSampleRate(l, lexMetricFields)
	case '#':
		return lexTags(l, lexMetricFields)
	default:
		// unrecognised fields are consumed and ignored so new fields can be sent
		return lexUnknown(l, lexMetricFields)
	}
}

// lexSampleRate Expects a float value which will be used to set lexer.sampling and returns the parameter next.
// If value cannot be parsed, l.err will be set and nil returned.
// Consumes all bytes up to the stop byte ('|') or an eof. The stop byte is not consumed.
func lexSampleRate(l *Lexer, next stateFn) stateFn {
	l.start = l.pos
	for {
		switch b := l.next(); b {
		case '|':
			return lexSampleRateValue(l, next)
		case eof:
			l.pos++
			return lexSampleRateValue(l, next)
		}
	}
}

// lexSampleRateValue Expects a float value which will be used to set lexer.sampling and returns the parameter next.
// If value cannot be parsed, l.err will be set and nil returned.
// Does not consume the stop value '|'.
func lexSampleRateValue(l *Lexer, next stateFn) stateFn {
	v, err := strconv.ParseFloat(string(l.input[l.start:l.pos-1]), 64)
	if err != nil {
		l.err = err
		return nil
	}
	l.sampling = v
	l.pos--
	return next
}

// lexTags Expects comma separated list of tags. Tags have no defined format.
// An empty list or a tag with an empty value is simply ignored.
// Will end processing by returning nil if eof is reached.
// Consumes all bytes up to the stop byte ('|') or an eof. The stop byte is not consumed.
func lexTags(l *Lexer, next stateFn) stateFn {
	l.start = l.pos
	for {
		switch b := l.next(); b {
		case ',':
			l.appendTag(l.start, l.pos-1)
			l.start = l.pos

		case '|':
			l.appendTag(l.start, l.pos-1)
			l.pos-- //reverse one position to support same pattern as lexUntil
			return next

		case eof:
			l.appendTag(l.start, l.pos) // next does not increment pos when at eof
			return nil
		}
	}
}

// lexUnknown Consumes and discards all bytes up to the stop byte ('|') or an eof,
// then returns the parameter next. The stop byte is not consumed.
// Avoids returning a function pointer such as using
// lexUntil('|', ...
// to keep performance inline with Sample Rate processing
func lexUnknown(l *Lexer, next stateFn) stateFn {
	p := bytes.IndexByte(l.input[l.pos:], '|')
	switch p {
	case -1:
		l.pos = l.len
	default:
		l.pos += uint32(p)
	}
	return next
}
