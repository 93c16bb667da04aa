package ifixit

import (
	"net/http"
	"strconv"
	"time"
)

const (
	// DefaultRetryAttempts is the attempt cap for one request.
	DefaultRetryAttempts = 3
	// DefaultBackoffBase is the first retry delay.
	DefaultBackoffBase = 750 * time.Millisecond
	// MaxBackoffDelay caps the exponential growth.
	MaxBackoffDelay = 30 * time.Second
)

// BackoffPolicy configures the retry loop for a single request.
type BackoffPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultBackoffPolicy returns the policy used when the config leaves
// the zero value.
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		MaxAttempts: DefaultRetryAttempts,
		BaseDelay:   DefaultBackoffBase,
		MaxDelay:    MaxBackoffDelay,
		Multiplier:  2.0,
	}
}

// attemptOutcome classifies one request attempt. The retry loop is an
// explicit state machine: every attempt ends in success, a retryable
// failure with a delay, or a terminal failure.
type attemptOutcome int

const (
	attemptSuccess attemptOutcome = iota
	attemptRetry
	attemptTerminal
)

// retryableStatus reports whether an HTTP status justifies another
// attempt: rate limiting and transient server errors do, anything else
// is terminal.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// delayForAttempt returns the wait before the next attempt. A
// server-provided Retry-After hint wins over the exponential schedule.
func (p BackoffPolicy) delayForAttempt(attempt int, retryAfter string) time.Duration {
	if retryAfter != "" {
		if secs, err := strconv.ParseFloat(retryAfter, 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	delay := p.BaseDelay
	for i := 0; i < attempt; i++ {
		delay = time.Duration(float64(delay) * p.Multiplier)
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}
