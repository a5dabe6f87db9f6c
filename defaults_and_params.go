package dogstatsd

import (
	"time"

	"github.com/spf13/pflag"
)

const (
	// DefaultAgentAddr is the default address of the agent's datagram socket.
	DefaultAgentAddr = "127.0.0.1:8125"
	// DefaultMaxBufferLength is the default number of buffered lines which trigger a flush when exceeded.
	DefaultMaxBufferLength = 50
	// DefaultWriteTimeout is the default bound on a single datagram write.
	DefaultWriteTimeout = 100 * time.Millisecond
	// DefaultBuffered controls whether lines are packed into shared datagrams.
	DefaultBuffered = false
	// DefaultSynchronized controls whether one client may be shared between goroutines.
	DefaultSynchronized = false
)

const (
	// ParamAgentAddr is the name of parameter with the agent address.
	ParamAgentAddr = "agent-addr"
	// ParamNamespace is the name of parameter with the prefix for all metric names.
	ParamNamespace = "namespace"
	// ParamTags is the name of parameter with the list of tags to add to all metrics.
	ParamTags = "tags"
	// ParamBuffered is the name of parameter which selects the buffered sender.
	ParamBuffered = "buffered"
	// ParamMaxBufferLength is the name of parameter with the buffered flush threshold.
	ParamMaxBufferLength = "max-buffer-length"
	// ParamSynchronized is the name of parameter which makes one client safe to share between goroutines.
	ParamSynchronized = "synchronized"
	// ParamWriteTimeout is the name of parameter with the bound on a single datagram write.
	ParamWriteTimeout = "write-timeout"
)

// AddFlags adds flags to the specified FlagSet.
func AddFlags(fs *pflag.FlagSet) {
	fs.String(ParamAgentAddr, DefaultAgentAddr, "Address of the agent datagram socket, host:port or unix:///path")
	fs.String(ParamNamespace, "", "Namespace all metrics")
	fs.String(ParamTags, "", "Comma-separated list of tags to add to all metrics")
	fs.Bool(ParamBuffered, DefaultBuffered, "Pack metrics into shared datagrams")
	fs.Int(ParamMaxBufferLength, DefaultMaxBufferLength, "Number of buffered lines which trigger a flush when exceeded")
	fs.Bool(ParamSynchronized, DefaultSynchronized, "Make one client safe to share between goroutines")
	fs.Duration(ParamWriteTimeout, DefaultWriteTimeout, "Time to wait for a datagram write (0 to disable)")
}
