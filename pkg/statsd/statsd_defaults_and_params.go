package statsd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/atlassian/dogstatsd"
	"github.com/atlassian/dogstatsd/pkg/util"
)

// DefaultOptions returns the Options every client starts from.
func DefaultOptions() Options {
	return Options{
		Buffered:        dogstatsd.DefaultBuffered,
		MaxBufferLength: dogstatsd.DefaultMaxBufferLength,
		Synchronized:    dogstatsd.DefaultSynchronized,
		WriteTimeout:    dogstatsd.DefaultWriteTimeout,
	}
}

// NewClientFromViper creates a Client from the supplied configuration. The
// client parameters live at the top level of the configuration, the redial
// pacing parameters are read by util.GetRedialFromViper.
func NewClientFromViper(v *viper.Viper, logger logrus.FieldLogger) (*Client, error) {
	v.SetDefault(dogstatsd.ParamAgentAddr, dogstatsd.DefaultAgentAddr)
	v.SetDefault(dogstatsd.ParamNamespace, "")
	v.SetDefault(dogstatsd.ParamTags, "")
	v.SetDefault(dogstatsd.ParamBuffered, dogstatsd.DefaultBuffered)
	v.SetDefault(dogstatsd.ParamMaxBufferLength, dogstatsd.DefaultMaxBufferLength)
	v.SetDefault(dogstatsd.ParamSynchronized, dogstatsd.DefaultSynchronized)
	v.SetDefault(dogstatsd.ParamWriteTimeout, dogstatsd.DefaultWriteTimeout)

	redial, err := util.GetRedialFromViper(v)
	if err != nil {
		return nil, err
	}

	return NewClient(logger, v.GetString(dogstatsd.ParamAgentAddr), redial, Options{
		Namespace:       v.GetString(dogstatsd.ParamNamespace),
		Tags:            dogstatsd.RawTags(v.GetString(dogstatsd.ParamTags)),
		Buffered:        v.GetBool(dogstatsd.ParamBuffered),
		MaxBufferLength: v.GetInt(dogstatsd.ParamMaxBufferLength),
		Synchronized:    v.GetBool(dogstatsd.ParamSynchronized),
		WriteTimeout:    v.GetDuration(dogstatsd.ParamWriteTimeout),
	})
}
