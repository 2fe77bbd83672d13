package client

import (
	"math"
	"time"
)

// RetryPolicy is a geometric backoff with a ceiling: delay(k) =
// min(max_delay, initial_delay * backoff_factor^k), applied for up to
// max_attempts total attempts (spec §4.6).
type RetryPolicy struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	BackoffFactor  float64
	MaxDelay       time.Duration
}

// DefaultRetryPolicy mirrors the original SDK's conservative defaults
// for a transport prone to brief MQTT hiccups.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		BackoffFactor: 2.0,
		MaxDelay:      5 * time.Second,
	}
}

// delay returns the sleep duration before retry attempt k (0-based:
// k=0 is the delay after the first failed attempt).
func (p RetryPolicy) delay(k int) time.Duration {
	d := float64(p.InitialDelay) * math.Pow(p.BackoffFactor, float64(k))
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	return time.Duration(d)
}
