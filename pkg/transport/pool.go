package transport

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const paramTransportClientTimeout = "client-timeout"
const paramTransportCompress = "compress"
const paramTransportCustomHeaders = "custom-headers"
const paramTransportDebugBody = "debug-body"
const paramTransportType = "type"
const paramTransportUserAgent = "user-agent"

const defaultTransportClientTimeout = 10 * time.Second
const defaultTransportCompress = true
const defaultTransportDebugBody = false
const transportTypeHttp = "http"
const defaultTransportType = transportTypeHttp
const defaultTransportUserAgent = "dogstatsd"

// TransportPool creates Clients as required, using the provided viper.Viper
// for configuration.  Clients are configured per name under the
// "transport.<name>" sub-tree and shared between requesters of the same name.
type TransportPool struct {
	config *viper.Viper
	logger logrus.FieldLogger

	mu      sync.Mutex
	clients map[string]*Client
}

func NewTransportPool(logger logrus.FieldLogger, config *viper.Viper) *TransportPool {
	config.SetDefault("transport.default", viper.New())
	return &TransportPool{
		logger:  logger,
		clients: map[string]*Client{},
		config:  config,
	}
}

func (tp *TransportPool) Get(name string) (*Client, error) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	if hc, ok := tp.clients[name]; ok {
		return hc, nil
	}

	hc, err := tp.newClient(name)
	if err == nil {
		tp.clients[name] = hc
	}
	return hc, err
}

func (tp *TransportPool) newClient(name string) (*Client, error) {
	sub := tp.config.Sub("transport." + name)
	if sub == nil {
		tp.logger.WithField("name", name).Warn("request for non-configured transport, using transport.default")
		sub = tp.config.Sub("transport.default")
	}

	sub.SetDefault(paramTransportClientTimeout, defaultTransportClientTimeout)
	sub.SetDefault(paramTransportCompress, defaultTransportCompress)
	sub.SetDefault(paramTransportDebugBody, defaultTransportDebugBody)
	sub.SetDefault(paramTransportType, defaultTransportType)
	sub.SetDefault(paramTransportUserAgent, defaultTransportUserAgent)

	clientTimeout := sub.GetDuration(paramTransportClientTimeout)
	compress := sub.GetBool(paramTransportCompress)
	customHeaders := sub.GetStringMapString(paramTransportCustomHeaders)
	debugBody := sub.GetBool(paramTransportDebugBody)
	transportType := sub.Get(paramTransportType)
	userAgent := sub.GetString(paramTransportUserAgent)

	if clientTimeout < 0 {
		return nil, errors.New("client-timeout must not be negative") // 0 = no timeout
	}

	var transport *http.Transport
	var err error

	switch transportType {
	case transportTypeHttp:
		transport, err = tp.newHttpTransport(name, sub)
	default:
		err = errors.New("type must be http")
	}
	if err != nil {
		return nil, err
	}

	tp.logger.WithFields(logrus.Fields{
		"name":                      name,
		paramTransportType:          transportType,
		paramTransportClientTimeout: clientTimeout,
		paramTransportCompress:      compress,
		paramTransportUserAgent:     userAgent,
	}).Info("created client")

	return &Client{
		logger:        tp.logger.WithField("transport", name),
		compress:      compress,
		customHeaders: customHeaders,
		debugBody:     debugBody,
		userAgent:     userAgent,
		Client: &http.Client{
			Transport: transport,
			Timeout:   clientTimeout,
		},
	}, nil
}
