// Package retrylimit retries platform REST calls behind an adaptive rate limit.
//
// The limit grows slowly while calls succeed and is cut down when the remote
// side answers 429 or 5xx, so bursts of bulk submissions back off on their own.
//
//	lim := retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5)
//	err := retrylimit.Do(ctx, lim, retrylimit.DefaultPolicy(), func() error {
//	    return submit()
//	})
package retrylimit

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// recoveryWindow is how long after the last failure the limit stays put.
const recoveryWindow = 10 * time.Second

// AdaptiveLimiter is a token bucket whose rate follows call outcomes.
// It is safe for concurrent use.
type AdaptiveLimiter struct {
	mu        sync.RWMutex
	limiter   *rate.Limiter
	min       rate.Limit
	max       rate.Limit
	stepUp    rate.Limit
	stepDown  float64
	lastError time.Time
}

// NewAdaptiveLimiter starts at initial requests per second and stays within
// [min, max]. Each success adds stepUp, each throttle multiplies by stepDown.
func NewAdaptiveLimiter(initial, min, max, stepUp rate.Limit, stepDown float64) *AdaptiveLimiter {
	if min < 1 {
		min = 1
	}
	if max < min {
		max = min
	}
	initial = clamp(initial, min, max)
	return &AdaptiveLimiter{
		limiter:  rate.NewLimiter(initial, burstFor(initial)),
		min:      min,
		max:      max,
		stepUp:   stepUp,
		stepDown: stepDown,
	}
}

// Wait blocks until a token is available or ctx is done.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// Success raises the limit, unless a failure happened recently.
func (a *AdaptiveLimiter) Success() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if time.Since(a.lastError) > recoveryWindow {
		a.set(a.limiter.Limit() + a.stepUp)
	}
}

// RateLimited lowers the limit after the remote side pushed back.
func (a *AdaptiveLimiter) RateLimited() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastError = time.Now()
	a.set(rate.Limit(float64(a.limiter.Limit()) * a.stepDown))
}

// Limit returns the current requests per second.
func (a *AdaptiveLimiter) Limit() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return float64(a.limiter.Limit())
}

// Burst returns the current bucket size.
func (a *AdaptiveLimiter) Burst() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.limiter.Burst()
}

func (a *AdaptiveLimiter) set(l rate.Limit) {
	l = clamp(l, a.min, a.max)
	if l == a.limiter.Limit() {
		return
	}
	a.limiter.SetLimit(l)
	a.limiter.SetBurst(burstFor(l))
}

func clamp(l, min, max rate.Limit) rate.Limit {
	switch {
	case l < min:
		return min
	case l > max:
		return max
	default:
		return l
	}
}

func burstFor(l rate.Limit) int {
	return max(1, int(l))
}

// HTTPError is implemented by errors that carry a response status.
type HTTPError interface {
	error
	StatusCode() int
}

// PermanentError stops Do at once.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// StatusFunc extracts an HTTP status from err, or 0 when there is none.
type StatusFunc func(error) int

// StatusOf is the default StatusFunc, reading HTTPError anywhere in the chain.
func StatusOf(err error) int {
	var herr HTTPError
	if errors.As(err, &herr) {
		return herr.StatusCode()
	}
	return 0
}

// Policy configures Do.
type Policy struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	RateLimitDelay time.Duration
	Multiplier     float64
	Jitter         bool
	// Status reads the status of a failed call; nil means StatusOf.
	Status StatusFunc
	// Retryable decides whether a failure with no status is retried; nil retries everything.
	Retryable func(error) bool
	OnRetry   func(attempt int, err error)
	Log       *zerolog.Logger
}

// DefaultPolicy suits a handful of REST submissions at startup.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    5,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       10 * time.Second,
		RateLimitDelay: time.Second,
		Multiplier:     2,
		Jitter:         true,
	}
}

// Do calls fn until it succeeds, returns a PermanentError, ctx is done or the
// attempts run out. lim may be nil.
func Do(ctx context.Context, lim *AdaptiveLimiter, p Policy, fn func() error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.Status == nil {
		p.Status = StatusOf
	}
	log := zerolog.Nop()
	if p.Log != nil {
		log = *p.Log
	}

	delay := p.InitialDelay
	var last error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lim != nil {
			if err := lim.Wait(ctx); err != nil {
				return err
			}
		}

		last = fn()
		if last == nil {
			if lim != nil {
				lim.Success()
			}
			if attempt > 1 {
				log.Info().Int("attempt", attempt).Msg("Request succeeded after retrying")
			}
			return nil
		}

		var perm *PermanentError
		if errors.As(last, &perm) {
			return perm.Err
		}

		status := p.Status(last)
		if status == 0 && p.Retryable != nil && !p.Retryable(last) {
			return last
		}
		if status != 0 && status != http.StatusTooManyRequests && status < 500 {
			return last
		}
		if attempt == p.MaxAttempts {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, last)
		}

		wait := delay
		switch {
		case status == http.StatusTooManyRequests:
			if lim != nil {
				lim.RateLimited()
			}
			wait = p.RateLimitDelay
			log.Warn().Int("attempt", attempt).Float64("limit_rps", limitOf(lim)).Msg("Rate limited")
		case status >= 500:
			if lim != nil {
				lim.RateLimited()
			}
			log.Warn().Err(last).Int("attempt", attempt).Int("status", status).Dur("sleep", wait).Msg("Server error")
		default:
			log.Warn().Err(last).Int("attempt", attempt).Dur("sleep", wait).Msg("Request failed")
		}
		if p.Jitter {
			wait = jitter(wait)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		if status != http.StatusTooManyRequests {
			delay = time.Duration(float64(delay) * p.Multiplier)
			if p.MaxDelay > 0 && delay > p.MaxDelay {
				delay = p.MaxDelay
			}
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", p.MaxAttempts, last)
}

func limitOf(lim *AdaptiveLimiter) float64 {
	if lim == nil {
		return 0
	}
	return lim.Limit()
}

// jitter adds up to a quarter of d.
func jitter(d time.Duration) time.Duration {
	if d < 4 {
		return d
	}
	return d + rand.N(d/4)
}
