package dogstatsd

import (
	"fmt"
)

// MetricType is an enumeration of all the possible types of Metric.
type MetricType byte

const (
	_ = iota
	// COUNTER is statsd counter type
	COUNTER MetricType = iota
	// TIMER is statsd timer type
	TIMER
	// GAUGE is statsd gauge type
	GAUGE
	// SET is statsd set type
	SET
	// HISTOGRAM is DogStatsD histogram type
	HISTOGRAM
	// DISTRIBUTION is DogStatsD global distribution type
	DISTRIBUTION
)

func (m MetricType) String() string {
	switch m {
	case SET:
		return "set"
	case GAUGE:
		return "gauge"
	case TIMER:
		return "timer"
	case COUNTER:
		return "counter"
	case HISTOGRAM:
		return "histogram"
	case DISTRIBUTION:
		return "distribution"
	}
	return "unknown"
}

// WireName returns the type marker used in the datagram format.
func (m MetricType) WireName() string {
	switch m {
	case SET:
		return "s"
	case GAUGE:
		return "g"
	case TIMER:
		return "ms"
	case COUNTER:
		return "c"
	case HISTOGRAM:
		return "h"
	case DISTRIBUTION:
		return "d"
	}
	return ""
}

// Metric represents a single datapoint, either prepared for the wire or
// parsed back from it. The value is carried pre-rendered so that numbers
// and set members travel through the same field.
type Metric struct {
	Name  string     // The name of the metric
	Value string     // The rendered value of the metric, or the set member
	Rate  float64    // The sampling rate of the metric
	Tags  Tags       // The tags for the metric
	Type  MetricType // The type of metric
}

func (m *Metric) String() string {
	return fmt.Sprintf("{%s, %s, %s, %v}", m.Type, m.Name, m.Value, m.Tags)
}
