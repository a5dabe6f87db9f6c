package statsd

import (
	"strings"
	"time"

	"github.com/atlassian/dogstatsd/pkg/util"
)

// UnixAddressPrefix marks an agent address as a unix datagram socket path,
// ie "unix:///var/run/datadog/dsd.socket".
const UnixAddressPrefix = "unix://"

// PayloadWriter delivers one finished payload as a single datagram. Writers
// never retry and never block beyond their write deadline, failures surface
// as errors for the caller to swallow or report.
type PayloadWriter interface {
	WritePayload(payload []byte) error
	Close() error
}

// NewPayloadWriter is an indirection layer over the datagram socket types.
// Addresses carrying the unix prefix use a unix datagram socket with a lazy
// connect, anything else is dialed immediately as host:port over UDP.
func NewPayloadWriter(addr string, writeTimeout time.Duration, redial util.BackoffFactory) (PayloadWriter, error) {
	if strings.HasPrefix(addr, UnixAddressPrefix) {
		return newUDSWriter(strings.TrimPrefix(addr, UnixAddressPrefix), writeTimeout, redial), nil
	}
	return newUDPWriter(addr, writeTimeout)
}
