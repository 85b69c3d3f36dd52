package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// RateLimiter throttles login attempts by counting recent failures in the
// durable attempt log, keyed independently by email and by source IP.
// Either limit tripping blocks the attempt. The read-then-append sequence
// can under-count under concurrency; that is acceptable for a throttle.
type RateLimiter struct {
	attempts    LoginAttemptRepo
	maxAttempts int
	window      time.Duration
	nowTime     func() time.Time
}

type RateLimiterOption func(*RateLimiter)

// WithRateLimiterNowTime sets the now time function (primarily for testing).
func WithRateLimiterNowTime(nowFunc func() time.Time) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.nowTime = nowFunc
	}
}

func NewRateLimiter(attempts LoginAttemptRepo, maxAttempts int, window time.Duration, options ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		attempts:    attempts,
		maxAttempts: maxAttempts,
		window:      window,
		nowTime:     time.Now,
	}
	for _, opt := range options {
		opt(rl)
	}
	return rl
}

// Allow reports whether a login attempt for the email/IP pair may proceed.
// Successful attempts never count against the limit; they simply stop
// contributing further failures.
func (rl *RateLimiter) Allow(ctx context.Context, email, ipAddress string) (bool, error) {
	since := rl.nowTime().Add(-rl.window)

	byEmail, err := rl.attempts.CountFailuresByEmail(ctx, email, since)
	if err != nil {
		return false, errors.Wrap(err, "[RateLimiter.Allow] CountFailuresByEmail")
	}
	if byEmail >= rl.maxAttempts {
		return false, nil
	}

	if ipAddress != "" {
		byIP, err := rl.attempts.CountFailuresByIP(ctx, ipAddress, since)
		if err != nil {
			return false, errors.Wrap(err, "[RateLimiter.Allow] CountFailuresByIP")
		}
		if byIP >= rl.maxAttempts {
			return false, nil
		}
	}
	return true, nil
}

// RetryAfter is the hint surfaced alongside RateLimitedErr.
func (rl *RateLimiter) RetryAfter() time.Duration {
	return rl.window
}
