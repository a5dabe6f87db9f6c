package dogstatsd

// ServiceCheckStatus is the reported state of a service check.
type ServiceCheckStatus byte

const (
	// ServiceCheckOK means the check passed.
	ServiceCheckOK ServiceCheckStatus = iota // Must be zero to work as default
	// ServiceCheckWarning means the check passed but is close to its limits.
	ServiceCheckWarning
	// ServiceCheckCritical means the check failed.
	ServiceCheckCritical
	// ServiceCheckUnknown means the check could not determine a state.
	ServiceCheckUnknown
)

func (s ServiceCheckStatus) String() string {
	switch s {
	case ServiceCheckWarning:
		return "warning"
	case ServiceCheckCritical:
		return "critical"
	case ServiceCheckUnknown:
		return "unknown"
	default:
		return "ok"
	}
}

// ServiceCheck represents the result of one run of a check, described at
// http://docs.datadoghq.com/guides/dogstatsd/
type ServiceCheck struct {
	// Name of the check.
	Name string
	// Status reported by the check.
	Status ServiceCheckStatus
	// Timestamp of the check run. Unix epoch timestamp, zero means unset.
	Timestamp int64
	// Hostname the check ran on.
	Hostname string
	// Tags of the check.
	Tags Tags
	// Message describing the current state of the check.
	Message string
}
