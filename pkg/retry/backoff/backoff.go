// Package backoff provides delay schedules for retry.Backoff. Attempts are
// counted from 1.
package backoff

import (
	"math"
	"time"
)

// Strategy maps the number of attempts made so far to the delay before the
// next one.
type Strategy func(attempts uint) time.Duration

const maxDelay = time.Duration(math.MaxInt64)

// Constant always waits interval.
func Constant(interval time.Duration) Strategy {
	return func(uint) time.Duration {
		return interval
	}
}

// Exponential waits baseDelay * factor^(attempts-1), saturating at the
// largest time.Duration.
//
// Ex. Exponential(2*time.Second, 3) = 2s, 6s, 18s, 54s, ...
func Exponential(baseDelay time.Duration, factor float64) Strategy {
	return func(attempts uint) time.Duration {
		if attempts <= 1 {
			return baseDelay
		}

		delay := float64(baseDelay) * math.Pow(factor, float64(attempts-1))
		if math.IsNaN(delay) || delay >= float64(maxDelay) {
			return maxDelay
		}
		return time.Duration(delay)
	}
}

// BinaryExponential doubles the delay after every attempt.
//
// Ex. BinaryExponential(time.Second) = 1s, 2s, 4s, 8s, ...
func BinaryExponential(baseDelay time.Duration) Strategy {
	return Exponential(baseDelay, 2)
}
