package datadog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/tilinna/clock"

	"github.com/atlassian/dogstatsd"
	"github.com/atlassian/dogstatsd/internal/util"
	"github.com/atlassian/dogstatsd/pkg/transport"
)

const (
	// BackendName is the name of this event sink.
	BackendName = "datadog"

	eventsPath = "/api/v1/events"

	// ParamAPIEndpoint is the base URL of the Datadog API.
	ParamAPIEndpoint = "api_endpoint"
	// ParamAPIKey is the Datadog API key, required.
	ParamAPIKey = "api_key"
	// ParamApplicationKey is the Datadog application key, optional.
	ParamApplicationKey = "application_key"
	// ParamTransport is the name of the transport to request from the pool.
	ParamTransport = "transport"

	// DefaultAPIEndpoint is the API of the hosted Datadog service.
	DefaultAPIEndpoint = "https://app.datadoghq.com"
	// DefaultTransport is the default transport name.
	DefaultTransport = "default"
)

// EventsClient submits events to the Datadog events API. It is an external
// collaborator, fully independent of the datagram path: errors are returned
// to the caller rather than swallowed, and nothing is retried.
type EventsClient struct {
	logger         logrus.FieldLogger
	apiKey         string
	applicationKey string
	apiEndpoint    string
	client         *transport.Client
}

// event is the wire shape of the events API.
type event struct {
	Title          string   `json:"title"`
	Text           string   `json:"text"`
	DateHappened   int64    `json:"date_happened,omitempty"`
	Hostname       string   `json:"host,omitempty"`
	AggregationKey string   `json:"aggregation_key,omitempty"`
	SourceTypeName string   `json:"source_type_name,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	Priority       string   `json:"priority,omitempty"`
	AlertType      string   `json:"alert_type,omitempty"`
}

// SendEvent posts e to the events API. A missing DateHappened is filled in
// from the context clock. transport.BadStatusError stays visible through
// errors.As, any other transport error is flattened with the API key masked
// out, it is part of the request URL.
func (d *EventsClient) SendEvent(ctx context.Context, e *dogstatsd.Event) error {
	if e.Title == "" {
		return fmt.Errorf("[%s] event title is required", BackendName)
	}
	dateHappened := e.DateHappened
	if dateHappened == 0 {
		dateHappened = clock.FromContext(ctx).Now().Unix()
	}
	d.logger.WithField("title", e.Title).Debug("sending event")
	err := d.client.PostJSON(ctx, d.authenticatedURL(eventsPath), &event{
		Title:          e.Title,
		Text:           e.Text,
		DateHappened:   dateHappened,
		Hostname:       e.Hostname,
		AggregationKey: e.AggregationKey,
		SourceTypeName: e.SourceTypeName,
		Tags:           e.Tags.Split(),
		Priority:       e.Priority.StringWithEmptyDefault(),
		AlertType:      e.AlertType.StringWithEmptyDefault(),
	})
	if err != nil {
		var bad *transport.BadStatusError
		if errors.As(err, &bad) {
			return fmt.Errorf("[%s] failed to send event: %w", BackendName, bad)
		}
		return fmt.Errorf("[%s] failed to send event: %s", BackendName, strings.Replace(err.Error(), d.apiKey, "*****", -1))
	}
	return nil
}

func (d *EventsClient) authenticatedURL(path string) string {
	q := url.Values{
		"api_key": []string{d.apiKey},
	}
	if d.applicationKey != "" {
		q.Set("application_key", d.applicationKey)
	}
	return fmt.Sprintf("%s%s?%s", d.apiEndpoint, path, q.Encode())
}

// LogAndDiscard logs err and swallows it, for callers which treat event
// delivery as fire and forget.
func LogAndDiscard(logger logrus.FieldLogger, err error) {
	if err != nil {
		logger.WithError(err).Warn("failed to send event")
	}
}

// NewClientFromViper returns a new events client, configured from the
// "datadog" sub-tree of the provided configuration.
func NewClientFromViper(v *viper.Viper, logger logrus.FieldLogger, pool *transport.TransportPool) (*EventsClient, error) {
	dd := util.GetSubViper(v, "datadog")
	dd.SetDefault(ParamAPIEndpoint, DefaultAPIEndpoint)
	dd.SetDefault(ParamTransport, DefaultTransport)

	hc, err := pool.Get(dd.GetString(ParamTransport))
	if err != nil {
		return nil, err
	}

	return NewClient(
		logger,
		hc,
		dd.GetString(ParamAPIEndpoint),
		dd.GetString(ParamAPIKey),
		dd.GetString(ParamApplicationKey),
	)
}

// NewClient returns a new events client.
func NewClient(logger logrus.FieldLogger, hc *transport.Client, apiEndpoint, apiKey, applicationKey string) (*EventsClient, error) {
	if apiEndpoint == "" {
		return nil, fmt.Errorf("[%s] apiEndpoint is required", BackendName)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("[%s] apiKey is required", BackendName)
	}
	return &EventsClient{
		logger:         logger,
		apiKey:         apiKey,
		applicationKey: applicationKey,
		apiEndpoint:    strings.TrimSuffix(apiEndpoint, "/"),
		client:         hc,
	}, nil
}
