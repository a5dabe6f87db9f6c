// Package dogstatsd holds the protocol level types shared by the statsd
// client in pkg/statsd, the wire parser in internal/lexer and the Datadog
// event API client in pkg/datadog.
package dogstatsd
