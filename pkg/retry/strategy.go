package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/code-payments/greeter/pkg/retry/backoff"
)

// Strategy decides whether an action should be attempted again. Strategies
// may delay or cause other side effects.
type Strategy func(attempts uint, err error) bool

// Limit caps the total number of attempts. maxAttempts should be >= 1, since
// the action always runs once.
func Limit(maxAttempts uint) Strategy {
	return func(attempts uint, err error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors only retries errors matching one of retriableErrors.
func RetriableErrors(retriableErrors ...error) Strategy {
	return func(attempts uint, err error) bool {
		for _, e := range retriableErrors {
			if errors.Is(err, e) {
				return true
			}
		}

		return false
	}
}

// NonRetriableErrors retries everything except errors matching one of
// nonRetriableErrors.
func NonRetriableErrors(nonRetriableErrors ...error) Strategy {
	return func(attempts uint, err error) bool {
		for _, e := range nonRetriableErrors {
			if errors.Is(err, e) {
				return false
			}
		}

		return true
	}
}

// WhileActive stops retrying once ctx is done, and never retries the
// context's own errors.
func WhileActive(ctx context.Context) Strategy {
	return func(attempts uint, err error) bool {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		return ctx.Err() == nil
	}
}

// Backoff sleeps for the strategy's delay, capped at maxBackoff, before the
// next attempt.
func Backoff(strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return func(attempts uint, err error) bool {
		sleeperImpl.Sleep(capDelay(strategy(attempts), maxBackoff))
		return true
	}
}

// BackoffWithJitter is Backoff with the capped delay randomly shifted by up to
// jitter (a fraction of the delay) in either direction. 100ms with a jitter of
// 0.1 sleeps somewhere in [90ms, 110ms].
func BackoffWithJitter(strategy backoff.Strategy, maxBackoff time.Duration, jitter float64) Strategy {
	return func(attempts uint, err error) bool {
		delay := capDelay(strategy(attempts), maxBackoff)
		sleeperImpl.Sleep(time.Duration(float64(delay) * (1 + (rand.Float64()*jitter*2 - jitter))))
		return true
	}
}

func capDelay(delay, max time.Duration) time.Duration {
	return time.Duration(math.Min(float64(max), float64(delay)))
}

type sleeper interface {
	Sleep(time.Duration)
}

type realSleeper struct{}

func (r *realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

var sleeperImpl sleeper = &realSleeper{}
