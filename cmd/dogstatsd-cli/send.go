package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/atlassian/dogstatsd"
	"github.com/atlassian/dogstatsd/pkg/datadog"
	"github.com/atlassian/dogstatsd/pkg/statsd"
	"github.com/atlassian/dogstatsd/pkg/transport"
)

const (
	// ParamMetricName is the name of the metric emitted in send mode.
	ParamMetricName = "metric-name"
	// ParamMetricValue is the value of the metric emitted in send mode.
	ParamMetricValue = "metric-value"
	// ParamMetricType is the type of the metric emitted in send mode.
	ParamMetricType = "metric-type"
	// ParamMetricRate is the sample rate of the metric emitted in send mode.
	ParamMetricRate = "metric-rate"
	// ParamMetricTags is the list of tags of the metric emitted in send mode.
	ParamMetricTags = "metric-tags"

	// ParamEventTitle is the title of the event emitted in event mode.
	ParamEventTitle = "event-title"
	// ParamEventText is the text of the event emitted in event mode.
	ParamEventText = "event-text"
	// ParamEventHost is the hostname of the event emitted in event mode.
	ParamEventHost = "event-host"
	// ParamEventAggregationKey groups the event with others sharing the key.
	ParamEventAggregationKey = "event-aggregation-key"
	// ParamEventSourceTypeName is the source type of the event.
	ParamEventSourceTypeName = "event-source-type-name"
	// ParamEventPriority is the priority of the event, normal or low.
	ParamEventPriority = "event-priority"
	// ParamEventAlertType is the alert type of the event.
	ParamEventAlertType = "event-alert-type"
	// ParamEventAPI makes event mode post through the Datadog events API
	// instead of the agent socket.
	ParamEventAPI = "event-api"

	// ParamCheckName is the name of the service check emitted in check mode.
	ParamCheckName = "check-name"
	// ParamCheckStatus is the reported state, ok, warning, critical or unknown.
	ParamCheckStatus = "check-status"
	// ParamCheckMessage describes the current state of the check.
	ParamCheckMessage = "check-message"
	// ParamCheckHost is the hostname the check ran on.
	ParamCheckHost = "check-host"
)

func addCommandFlags(fs *pflag.FlagSet) {
	fs.String(ParamMetricName, "", "Name of the metric to send")
	fs.String(ParamMetricValue, "1", "Value of the metric to send, a set member for set metrics")
	fs.String(ParamMetricType, "count", "Type of the metric to send: count, gauge, timer, histogram, distribution or set")
	fs.Float64(ParamMetricRate, 1, "Sample rate to report with the metric")
	fs.String(ParamMetricTags, "", "Comma-separated list of tags to add to the metric")

	fs.String(ParamEventTitle, "", "Title of the event to send")
	fs.String(ParamEventText, "", "Text of the event to send")
	fs.String(ParamEventHost, "", "Hostname of the event to send")
	fs.String(ParamEventAggregationKey, "", "Key to aggregate the event with others")
	fs.String(ParamEventSourceTypeName, "", "Source type of the event to send")
	fs.String(ParamEventPriority, "normal", "Priority of the event to send: normal or low")
	fs.String(ParamEventAlertType, "info", "Alert type of the event to send: info, warning, error or success")
	fs.Bool(ParamEventAPI, false, "Post the event through the Datadog events API instead of the agent socket")

	fs.String(ParamCheckName, "", "Name of the service check to send")
	fs.String(ParamCheckStatus, "ok", "Status of the service check to send: ok, warning, critical or unknown")
	fs.String(ParamCheckMessage, "", "Message describing the state of the service check")
	fs.String(ParamCheckHost, "", "Hostname the service check ran on")

	fs.String(ParamListenAddr, DefaultListenAddr, "Address for listen mode to bind")
}

func sendMetric(v *viper.Viper, logger logrus.FieldLogger) error {
	name := v.GetString(ParamMetricName)
	if name == "" {
		return fmt.Errorf("--%s is required in send mode", ParamMetricName)
	}
	client, err := statsd.NewClientFromViper(v, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	raw := v.GetString(ParamMetricValue)
	rate := v.GetFloat64(ParamMetricRate)
	tags := dogstatsd.RawTags(v.GetString(ParamMetricTags))

	switch metricType := v.GetString(ParamMetricType); metricType {
	case "c", "count", "counter":
		amount, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid counter value %q: %v", raw, err)
		}
		client.Count(name, amount, rate, tags)
	case "g", "gauge":
		value, err := parseMetricValue(raw)
		if err != nil {
			return err
		}
		client.Gauge(name, value, rate, tags)
	case "ms", "timer":
		value, err := parseMetricValue(raw)
		if err != nil {
			return err
		}
		client.TimingMS(name, value, rate, tags)
	case "h", "histogram":
		value, err := parseMetricValue(raw)
		if err != nil {
			return err
		}
		client.Histogram(name, value, rate, tags)
	case "d", "distribution":
		value, err := parseMetricValue(raw)
		if err != nil {
			return err
		}
		client.Distribution(name, value, rate, tags)
	case "s", "set":
		client.Set(name, raw, rate, tags)
	default:
		return fmt.Errorf("unknown metric type %q", metricType)
	}
	return nil
}

func sendEvent(ctx context.Context, v *viper.Viper, logger logrus.FieldLogger) error {
	priority, err := parsePriority(v.GetString(ParamEventPriority))
	if err != nil {
		return err
	}
	alertType, err := parseAlertType(v.GetString(ParamEventAlertType))
	if err != nil {
		return err
	}
	e := &dogstatsd.Event{
		Title:          v.GetString(ParamEventTitle),
		Text:           v.GetString(ParamEventText),
		Hostname:       v.GetString(ParamEventHost),
		AggregationKey: v.GetString(ParamEventAggregationKey),
		SourceTypeName: v.GetString(ParamEventSourceTypeName),
		Priority:       priority,
		AlertType:      alertType,
	}
	if e.Title == "" {
		return fmt.Errorf("--%s is required in event mode", ParamEventTitle)
	}

	if v.GetBool(ParamEventAPI) {
		// The agent socket is not involved, so the shared tags are attached
		// here rather than by a client.
		e.Tags = dogstatsd.RawTags(v.GetString(dogstatsd.ParamTags))
		pool := transport.NewTransportPool(logger, v)
		dd, err := datadog.NewClientFromViper(v, logger, pool)
		if err != nil {
			return err
		}
		return dd.SendEvent(ctx, e)
	}

	client, err := statsd.NewClientFromViper(v, logger)
	if err != nil {
		return err
	}
	defer client.Close()
	client.Event(e)
	return nil
}

func sendServiceCheck(v *viper.Viper, logger logrus.FieldLogger) error {
	name := v.GetString(ParamCheckName)
	if name == "" {
		return fmt.Errorf("--%s is required in check mode", ParamCheckName)
	}
	status, err := parseCheckStatus(v.GetString(ParamCheckStatus))
	if err != nil {
		return err
	}
	client, err := statsd.NewClientFromViper(v, logger)
	if err != nil {
		return err
	}
	defer client.Close()
	client.ServiceCheck(&dogstatsd.ServiceCheck{
		Name:     name,
		Status:   status,
		Hostname: v.GetString(ParamCheckHost),
		Message:  v.GetString(ParamCheckMessage),
	})
	return nil
}

func parseMetricValue(raw string) (float64, error) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid metric value %q: %v", raw, err)
	}
	return value, nil
}

func parsePriority(s string) (dogstatsd.Priority, error) {
	switch s {
	case "", "normal":
		return dogstatsd.PriNormal, nil
	case "low":
		return dogstatsd.PriLow, nil
	}
	return dogstatsd.PriNormal, fmt.Errorf("unknown event priority %q", s)
}

func parseAlertType(s string) (dogstatsd.AlertType, error) {
	switch s {
	case "", "info":
		return dogstatsd.AlertInfo, nil
	case "warning":
		return dogstatsd.AlertWarning, nil
	case "error":
		return dogstatsd.AlertError, nil
	case "success":
		return dogstatsd.AlertSuccess, nil
	}
	return dogstatsd.AlertInfo, fmt.Errorf("unknown event alert type %q", s)
}

func parseCheckStatus(s string) (dogstatsd.ServiceCheckStatus, error) {
	switch s {
	case "0", "ok":
		return dogstatsd.ServiceCheckOK, nil
	case "1", "warning":
		return dogstatsd.ServiceCheckWarning, nil
	case "2", "critical":
		return dogstatsd.ServiceCheckCritical, nil
	case "3", "unknown":
		return dogstatsd.ServiceCheckUnknown, nil
	}
	return dogstatsd.ServiceCheckUnknown, fmt.Errorf("unknown service check status %q", s)
}
