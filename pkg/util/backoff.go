package util

import (
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/spf13/viper"
)

const (
	paramRedialInterval = "redial-interval"  // constant
	paramRedialMaxCount = "redial-max-count" // constant + exponential
	paramRedialMaxTime  = "redial-max-time"  // constant + exponential
	paramRedialPolicy   = "redial-policy"

	defaultRedialInterval = 1 * time.Second  // constant
	defaultRedialMaxCount = 0                // constant + exponential
	defaultRedialMaxTime  = 15 * time.Second // constant + exponential
	defaultRedialPolicy   = policyExponential

	policyConstant    = "constant"
	policyDisabled    = "disabled"
	policyExponential = "exponential"
)

type BackoffFactory func() backoff.BackOff

// NewStopBackoffFactory creates a BackoffFactory whose policy stops
// immediately, which disables pacing entirely.
func NewStopBackoffFactory() BackoffFactory {
	return func() backoff.BackOff { return &backoff.StopBackOff{} }
}

// NewBackoffFactory creates a new BackoffFactory based on a backoff.ExponentialBackoff
//
// backoff.ConstantBackoff appears to be more of a debug/testing backoff policy, rather than a real
// implementation.  It lacks features such as randomization of interval, and a maximum duration. Therefore,
// we use a backoff.ExponentialBackOff with a Multiplier of 1.0 as a replacement.
func NewBackoffFactory(multiplier float64, maxElapsedTime, interval time.Duration, maxRetries uint64) BackoffFactory {
	return func() backoff.BackOff {
		bo := backoff.NewExponentialBackOff()
		bo.Multiplier = multiplier
		bo.MaxElapsedTime = maxElapsedTime
		bo.InitialInterval = interval
		bo.Reset() // Reset is required to make the InitialInterval change take effect.
		if maxRetries == 0 {
			return bo
		}
		return backoff.WithMaxRetries(bo, maxRetries)
	}
}

// GetRedialFromViper builds the BackoffFactory which paces reconnection
// attempts after a datagram socket goes away.  It paces dials only, payloads
// are never retried.
func GetRedialFromViper(v *viper.Viper) (BackoffFactory, error) {
	v.SetDefault(paramRedialInterval, defaultRedialInterval) // constant
	v.SetDefault(paramRedialMaxCount, defaultRedialMaxCount) // constant + exponential
	v.SetDefault(paramRedialMaxTime, defaultRedialMaxTime)   // constant + exponential
	v.SetDefault(paramRedialPolicy, defaultRedialPolicy)

	redialInterval := v.GetDuration(paramRedialInterval) // constant
	redialMaxCount := v.GetInt64(paramRedialMaxCount)    // constant + exponential
	redialMaxTime := v.GetDuration(paramRedialMaxTime)   // constant + exponential
	redialPolicy := v.GetString(paramRedialPolicy)

	if redialInterval <= 0 {
		return nil, errors.New(paramRedialInterval + " must be positive")
	}

	if redialMaxCount < 0 {
		return nil, errors.New(paramRedialMaxCount + " must be zero or positive")
	}

	if redialMaxTime <= 0 {
		return nil, errors.New(paramRedialMaxTime + " must be positive")
	}

	switch redialPolicy {
	case policyDisabled:
		return NewStopBackoffFactory(), nil
	case policyExponential:
		return NewBackoffFactory(backoff.DefaultMultiplier, redialMaxTime, backoff.DefaultInitialInterval, uint64(redialMaxCount)), nil
	case policyConstant:
		return NewBackoffFactory(1.0, redialMaxTime, redialInterval, uint64(redialMaxCount)), nil
	default:
		return nil, fmt.Errorf("%s (%s) not one of %s, %s, or %s", paramRedialPolicy, redialPolicy, policyDisabled, policyConstant, policyExponential)
	}
}
