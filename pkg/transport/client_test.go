package transport

import (
	"bytes"
	"compress/zlib"
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func poolFromConfig(t *testing.T, config string) *TransportPool {
	v := viper.New()
	v.SetConfigType("toml")
	err := v.ReadConfig(bytes.NewBufferString(config))
	require.NoError(t, err)
	p := NewTransportPool(logrus.New(), v)
	return p
}

func TestClientBasicPost(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/test", func(w http.ResponseWriter, r *http.Request) {
		// Remove the headers added by the library
		r.Header.Del("accept-encoding")
		r.Header.Del("content-length")

		expected := http.Header{}
		expected.Set("content-type", "text/plain")
		expected.Set("content-encoding", "identity")
		expected.Set("user-agent", "dogstatsd")
		require.EqualValues(t, expected, r.Header)

		data, err := ioutil.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, r.Body.Close())
		require.EqualValues(t, "body", string(data))
		w.WriteHeader(200)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	p := poolFromConfig(t, "")
	c, err := p.Get("default")
	require.NoError(t, err)
	err = c.PostRaw(context.Background(), ts.URL+"/test", "text/plain", "identity", nil, []byte("body"))
	require.NoError(t, err)
}

func TestClientCallerHeaders(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/test", func(w http.ResponseWriter, r *http.Request) {
		// Remove the headers added by the library
		r.Header.Del("accept-encoding")
		r.Header.Del("content-length")

		expected := http.Header{}
		expected.Set("content-type", "text/plain")
		expected.Set("content-encoding", "identity")
		expected.Set("user-agent", "custom") // caller override
		expected.Set("key", "value")         // caller added
		require.EqualValues(t, expected, r.Header)

		consumeAndClose(r.Body)
		w.WriteHeader(200)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	p := poolFromConfig(t, "")
	c, err := p.Get("default")
	require.NoError(t, err)
	headers := map[string]string{
		"key":        "value",
		"user-agent": "custom",
	}
	err = c.PostRaw(context.Background(), ts.URL+"/test", "text/plain", "identity", headers, nil)
	require.NoError(t, err)
}

func TestClientUserAddHeaders(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/test", func(w http.ResponseWriter, r *http.Request) {
		// Remove the headers added by the library
		r.Header.Del("accept-encoding")
		r.Header.Del("content-length")

		expected := http.Header{}
		expected.Set("content-type", "text/plain")
		expected.Set("content-encoding", "identity")
		// key1 not present, removed by user
		expected.Set("key2", "value2")       // caller added
		expected.Set("user-agent", "custom") // caller added + user override
		expected.Set("foo", "bar")           // user added
		require.EqualValues(t, expected, r.Header)

		consumeAndClose(r.Body)
		w.WriteHeader(200)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	p := poolFromConfig(t, `
[transport.default]
custom-headers = {"foo"="bar", "key1"=""}
`)
	c, err := p.Get("default")
	require.NoError(t, err)
	headers := map[string]string{
		"key1":       "value1",
		"key2":       "value2",
		"user-agent": "custom",
	}
	err = c.PostRaw(context.Background(), ts.URL+"/test", "text/plain", "identity", headers, nil)
	require.NoError(t, err)
}

func TestClientPostJSONCompressed(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/test", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("content-type"))
		require.Equal(t, "deflate", r.Header.Get("content-encoding"))

		decompressor, err := zlib.NewReader(r.Body)
		require.NoError(t, err)
		data, err := ioutil.ReadAll(decompressor)
		require.NoError(t, err)
		require.JSONEq(t, `{"title":"deploy","text":"done"}`, string(data))
		w.WriteHeader(202)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	p := poolFromConfig(t, "")
	c, err := p.Get("default")
	require.NoError(t, err)
	err = c.PostJSON(context.Background(), ts.URL+"/test", map[string]string{
		"title": "deploy",
		"text":  "done",
	})
	require.NoError(t, err)
}

func TestClientPostJSONUncompressed(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/test", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "identity", r.Header.Get("content-encoding"))

		data, err := ioutil.ReadAll(r.Body)
		require.NoError(t, err)
		require.JSONEq(t, `{"title":"deploy"}`, string(data))
		w.WriteHeader(202)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	p := poolFromConfig(t, `
[transport.default]
compress = false
`)
	c, err := p.Get("default")
	require.NoError(t, err)
	err = c.PostJSON(context.Background(), ts.URL+"/test", map[string]string{"title": "deploy"})
	require.NoError(t, err)
}

func TestClientReportsBadStatus(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/test", func(w http.ResponseWriter, r *http.Request) {
		consumeAndClose(r.Body)
		w.WriteHeader(503)
		_, _ = w.Write([]byte("try later"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	p := poolFromConfig(t, "")
	c, err := p.Get("default")
	require.NoError(t, err)
	err = c.PostRaw(context.Background(), ts.URL+"/test", "text/plain", "identity", nil, nil)
	require.Error(t, err)

	var bad *BadStatusError
	require.ErrorAs(t, err, &bad)
	require.Equal(t, 503, bad.Status)
	require.Equal(t, "try later", bad.Body)
}

func TestClientPostIsSingleShot(t *testing.T) {
	t.Parallel()

	var requests int64
	mux := http.NewServeMux()
	mux.HandleFunc("/test", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		consumeAndClose(r.Body)
		w.WriteHeader(500)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	p := poolFromConfig(t, "")
	c, err := p.Get("default")
	require.NoError(t, err)
	err = c.PostRaw(context.Background(), ts.URL+"/test", "text/plain", "identity", nil, nil)
	require.Error(t, err)
	require.EqualValues(t, 1, atomic.LoadInt64(&requests), "failed posts are not retried")
}
