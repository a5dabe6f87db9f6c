package fixtures

import (
	"github.com/atlassian/dogstatsd"
)

type MetricOpt func(m *dogstatsd.Metric)

// MakeMetric provides a way to build a metric for tests.  Hopefully over
// time this will be used more, bringing more consistency to tests.
func MakeMetric(opts ...MetricOpt) *dogstatsd.Metric {
	m := &dogstatsd.Metric{
		Type:  dogstatsd.COUNTER,
		Name:  "name",
		Value: "1",
		Rate:  1,
		Tags: dogstatsd.KeyedTags(
			dogstatsd.Tag{Name: "foo", Value: "bar"},
			dogstatsd.Tag{Name: "host", Value: "baz"},
		),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func Name(n string) MetricOpt {
	return func(m *dogstatsd.Metric) {
		m.Name = n
	}
}

func Value(v string) MetricOpt {
	return func(m *dogstatsd.Metric) {
		m.Value = v
	}
}

func Rate(r float64) MetricOpt {
	return func(m *dogstatsd.Metric) {
		m.Rate = r
	}
}

func Type(t dogstatsd.MetricType) MetricOpt {
	return func(m *dogstatsd.Metric) {
		m.Type = t
	}
}

func Tags(tags dogstatsd.Tags) MetricOpt {
	return func(m *dogstatsd.Metric) {
		m.Tags = tags
	}
}

// TagsKV builds keyed Tags from alternating name, value arguments. An odd
// trailing name becomes a bare tag.
func TagsKV(kv ...string) dogstatsd.Tags {
	pairs := make([]dogstatsd.Tag, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		tag := dogstatsd.Tag{Name: kv[i]}
		if i+1 < len(kv) {
			tag.Value = kv[i+1]
		}
		pairs = append(pairs, tag)
	}
	return dogstatsd.KeyedTags(pairs...)
}
