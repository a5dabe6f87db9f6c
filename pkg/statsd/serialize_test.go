package statsd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlassian/dogstatsd"
	"github.com/atlassian/dogstatsd/internal/fixtures"
	"github.com/atlassian/dogstatsd/internal/lexer"
)

func TestAppendMetric(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		namespace string
		metric    *dogstatsd.Metric
		expected  string
	}{
		"counter": {
			metric:   fixtures.MakeMetric(fixtures.Name("foo.bar"), fixtures.Value("2"), fixtures.Tags(dogstatsd.NoTags)),
			expected: "foo.bar:2|c",
		},
		"gauge": {
			metric:   fixtures.MakeMetric(fixtures.Name("heap"), fixtures.Value("3.5"), fixtures.Type(dogstatsd.GAUGE), fixtures.Tags(dogstatsd.NoTags)),
			expected: "heap:3.5|g",
		},
		"timer": {
			metric:   fixtures.MakeMetric(fixtures.Name("latency"), fixtures.Value("150"), fixtures.Type(dogstatsd.TIMER), fixtures.Tags(dogstatsd.NoTags)),
			expected: "latency:150|ms",
		},
		"histogram": {
			metric:   fixtures.MakeMetric(fixtures.Name("size"), fixtures.Value("1.5"), fixtures.Type(dogstatsd.HISTOGRAM), fixtures.Tags(dogstatsd.NoTags)),
			expected: "size:1.5|h",
		},
		"distribution": {
			metric:   fixtures.MakeMetric(fixtures.Name("size"), fixtures.Value("2.5"), fixtures.Type(dogstatsd.DISTRIBUTION), fixtures.Tags(dogstatsd.NoTags)),
			expected: "size:2.5|d",
		},
		"set": {
			metric:   fixtures.MakeMetric(fixtures.Name("users"), fixtures.Value("bob"), fixtures.Type(dogstatsd.SET), fixtures.Tags(dogstatsd.NoTags)),
			expected: "users:bob|s",
		},
		"sampled": {
			metric:   fixtures.MakeMetric(fixtures.Name("hits"), fixtures.Value("1"), fixtures.Rate(0.5), fixtures.Tags(dogstatsd.NoTags)),
			expected: "hits:1|c|@0.5",
		},
		"rate of one is omitted": {
			metric:   fixtures.MakeMetric(fixtures.Name("hits"), fixtures.Value("1"), fixtures.Rate(1), fixtures.Tags(dogstatsd.NoTags)),
			expected: "hits:1|c",
		},
		"unset rate is omitted": {
			metric:   fixtures.MakeMetric(fixtures.Name("hits"), fixtures.Value("1"), fixtures.Rate(0), fixtures.Tags(dogstatsd.NoTags)),
			expected: "hits:1|c",
		},
		"keyed tags keep order": {
			metric: fixtures.MakeMetric(
				fixtures.Name("x"), fixtures.Value("1"), fixtures.Type(dogstatsd.GAUGE),
				fixtures.Tags(fixtures.TagsKV("env", "prod", "region", "us")),
			),
			expected: "x:1|g|#env:prod,region:us",
		},
		"raw tags verbatim": {
			metric: fixtures.MakeMetric(
				fixtures.Name("x"), fixtures.Value("1"), fixtures.Type(dogstatsd.GAUGE),
				fixtures.Tags(dogstatsd.RawTags("env:prod,debug")),
			),
			expected: "x:1|g|#env:prod,debug",
		},
		"bare tag": {
			metric: fixtures.MakeMetric(
				fixtures.Name("x"), fixtures.Value("1"), fixtures.Type(dogstatsd.GAUGE),
				fixtures.Tags(fixtures.TagsKV("debug")),
			),
			expected: "x:1|g|#debug",
		},
		"rate before tags": {
			metric: fixtures.MakeMetric(
				fixtures.Name("hits"), fixtures.Value("1"), fixtures.Rate(0.25),
				fixtures.Tags(fixtures.TagsKV("env", "prod")),
			),
			expected: "hits:1|c|@0.25|#env:prod",
		},
		"namespace": {
			namespace: "svc",
			metric:    fixtures.MakeMetric(fixtures.Name("foo"), fixtures.Value("1"), fixtures.Tags(dogstatsd.NoTags)),
			expected:  "svc.foo:1|c",
		},
	}
	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, string(appendMetric(nil, tc.namespace, tc.metric)))
		})
	}
}

func TestAppendServiceCheck(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		check    *dogstatsd.ServiceCheck
		expected string
	}{
		"minimal": {
			check:    &dogstatsd.ServiceCheck{Name: "db.can_connect", Status: dogstatsd.ServiceCheckOK},
			expected: "_sc|db.can_connect|0",
		},
		"every field in order": {
			check: &dogstatsd.ServiceCheck{
				Name:      "db.can_connect",
				Status:    dogstatsd.ServiceCheckCritical,
				Timestamp: 1492000000,
				Hostname:  "web1",
				Tags:      fixtures.TagsKV("env", "prod"),
				Message:   "connection refused",
			},
			expected: "_sc|db.can_connect|2|d:1492000000|h:web1|#env:prod|m:connection refused",
		},
		"warning status": {
			check:    &dogstatsd.ServiceCheck{Name: "disk", Status: dogstatsd.ServiceCheckWarning},
			expected: "_sc|disk|1",
		},
		"unknown status": {
			check:    &dogstatsd.ServiceCheck{Name: "disk", Status: dogstatsd.ServiceCheckUnknown},
			expected: "_sc|disk|3",
		},
		"message newline escaped before m colon": {
			check: &dogstatsd.ServiceCheck{
				Name:    "disk",
				Status:  dogstatsd.ServiceCheckOK,
				Message: "line1\nm:line2",
			},
			expected: `_sc|disk|0|m:line1\nm\:line2`,
		},
	}
	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, string(appendServiceCheck(nil, tc.check)))
		})
	}
}

func TestAppendEvent(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		event    *dogstatsd.Event
		expected string
	}{
		"minimal": {
			event:    &dogstatsd.Event{Title: "deploy", Text: "done"},
			expected: "_e{6,4}:deploy|done",
		},
		"empty text": {
			event:    &dogstatsd.Event{Title: "deploy"},
			expected: "_e{6,0}:deploy|",
		},
		"text newline escaped and counted": {
			event:    &dogstatsd.Event{Title: "title", Text: "a\nb"},
			expected: `_e{5,4}:title|a\nb`,
		},
		"every field in order": {
			event: &dogstatsd.Event{
				Title:          "deploy",
				Text:           "done",
				DateHappened:   1492000000,
				Hostname:       "web1",
				AggregationKey: "deploys",
				SourceTypeName: "ci",
				Tags:           fixtures.TagsKV("env", "prod"),
				Priority:       dogstatsd.PriLow,
				AlertType:      dogstatsd.AlertError,
			},
			expected: "_e{6,4}:deploy|done|d:1492000000|h:web1|k:deploys|p:low|s:ci|t:error|#env:prod",
		},
		"default priority and alert type omitted": {
			event:    &dogstatsd.Event{Title: "deploy", Text: "done", Priority: dogstatsd.PriNormal, AlertType: dogstatsd.AlertInfo},
			expected: "_e{6,4}:deploy|done",
		},
	}
	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, string(appendEvent(nil, tc.event)))
		})
	}
}

func TestMetricRoundTrip(t *testing.T) {
	t.Parallel()
	l := &lexer.Lexer{}
	m := fixtures.MakeMetric(
		fixtures.Name("views"),
		fixtures.Value("42.5"),
		fixtures.Rate(0.25),
		fixtures.Type(dogstatsd.HISTOGRAM),
		fixtures.Tags(dogstatsd.RawTags("env:prod,debug")),
	)
	line := appendMetric(nil, "svc", m)
	parsed, e, sc, err := l.Run(line, "")
	require.NoError(t, err)
	require.NotNil(t, parsed)
	require.Nil(t, e)
	require.Nil(t, sc)
	assert.Equal(t, "svc.views", parsed.Name)
	assert.Equal(t, "42.5", parsed.Value)
	assert.Equal(t, 0.25, parsed.Rate)
	assert.Equal(t, "env:prod,debug", parsed.Tags.String())
	assert.Equal(t, dogstatsd.HISTOGRAM, parsed.Type)
}

func TestServiceCheckRoundTrip(t *testing.T) {
	t.Parallel()
	l := &lexer.Lexer{}
	check := &dogstatsd.ServiceCheck{
		Name:      "db.can_connect",
		Status:    dogstatsd.ServiceCheckWarning,
		Timestamp: 1492000000,
		Hostname:  "web1",
		Tags:      dogstatsd.RawTags("env:prod"),
		Message:   "slow\nm:really",
	}
	line := appendServiceCheck(nil, check)
	m, e, parsed, err := l.Run(line, "")
	require.NoError(t, err)
	require.Nil(t, m)
	require.Nil(t, e)
	require.NotNil(t, parsed)
	assert.Equal(t, check.Name, parsed.Name)
	assert.Equal(t, check.Status, parsed.Status)
	assert.Equal(t, check.Timestamp, parsed.Timestamp)
	assert.Equal(t, check.Hostname, parsed.Hostname)
	assert.Equal(t, "env:prod", parsed.Tags.String())
	assert.Equal(t, check.Message, parsed.Message)
}

func TestEventRoundTrip(t *testing.T) {
	t.Parallel()
	l := &lexer.Lexer{}
	event := &dogstatsd.Event{
		Title:          "deploy",
		Text:           "rolled\nback",
		DateHappened:   1492000000,
		Hostname:       "web1",
		AggregationKey: "deploys",
		SourceTypeName: "ci",
		Tags:           dogstatsd.RawTags("env:prod"),
		Priority:       dogstatsd.PriLow,
		AlertType:      dogstatsd.AlertWarning,
	}
	line := appendEvent(nil, event)
	m, parsed, sc, err := l.Run(line, "")
	require.NoError(t, err)
	require.Nil(t, m)
	require.Nil(t, sc)
	require.NotNil(t, parsed)
	assert.Equal(t, event.Title, parsed.Title)
	assert.Equal(t, event.Text, parsed.Text)
	assert.Equal(t, event.DateHappened, parsed.DateHappened)
	assert.Equal(t, event.Hostname, parsed.Hostname)
	assert.Equal(t, event.AggregationKey, parsed.AggregationKey)
	assert.Equal(t, event.SourceTypeName, parsed.SourceTypeName)
	assert.Equal(t, "env:prod", parsed.Tags.String())
	assert.Equal(t, event.Priority, parsed.Priority)
	assert.Equal(t, event.AlertType, parsed.AlertType)
}

func BenchmarkAppendMetric(b *testing.B) {
	m := fixtures.MakeMetric(
		fixtures.Name("foo.bar.baz"),
		fixtures.Value("42.5"),
		fixtures.Rate(0.5),
		fixtures.Type(dogstatsd.TIMER),
	)
	buf := make([]byte, 0, 256)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf = appendMetric(buf[:0], "svc", m)
	}
}
