package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Client posts payloads over HTTP with the conventions shared by every
// collaborator: JSON rendering, optional zlib compression, and a configured
// header set. Every post is a single attempt, there is no retry machinery.
// The underlying http.Client is exposed so that things that require a real
// http.Client can still utilize the TransportPool.
type Client struct {
	logger        logrus.FieldLogger
	compress      bool
	customHeaders map[string]string
	debugBody     bool
	userAgent     string

	Client *http.Client
}

// BadStatusError is returned when the remote side answers outside the 2xx
// range. Body carries the start of the response body for diagnostics.
type BadStatusError struct {
	Status int
	Body   string
}

func (e *BadStatusError) Error() string {
	return fmt.Sprintf("received bad status code %d", e.Status)
}

// PostJSON renders data as JSON and posts it to the provided URL. The body
// is compressed unless the transport is configured otherwise. The error of
// the single attempt is returned, the caller decides what failure means.
func (hc *Client) PostJSON(ctx context.Context, url string, data interface{}) error {
	body, err := marshalJson(data, hc.debugBody)
	if err != nil {
		return fmt.Errorf("unable to marshal body: %v", err)
	}

	encoding := "identity"
	if hc.compress && !hc.debugBody { // debug is always uncompressed
		body, err = compress(body)
		if err != nil {
			return fmt.Errorf("unable to compress body: %v", err)
		}
		encoding = "deflate"
	}

	return hc.PostRaw(ctx, url, "application/json", encoding, nil, body)
}

// PostRaw will POST the provided body to the provided URL, exactly once.
func (hc *Client) PostRaw(ctx context.Context, url, contentType, encoding string, headers map[string]string, body []byte) error {
	req, err := http.NewRequest("POST", url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("unable to create http.Request: %v", err)
	}

	req = req.WithContext(ctx)

	// Base headers
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Content-Encoding", encoding)
	req.Header.Set("User-Agent", hc.userAgent)

	// Caller headers
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	// Custom headers always win
	for key, value := range hc.customHeaders {
		if value == "" { // Provide a way to delete headers
			req.Header.Del(key)
		} else {
			req.Header.Set(key, value)
		}
	}

	resp, err := hc.Client.Do(req)
	if err != nil {
		return fmt.Errorf("error POSTing: %v", err)
	}
	defer consumeAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyStart, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 512))
		hc.logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   string(bodyStart),
		}).Info("failed request")
		return &BadStatusError{Status: resp.StatusCode, Body: string(bodyStart)}
	}
	return nil
}
