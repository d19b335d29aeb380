package microsoft

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ServiceType identifies a Microsoft Graph API service for rate limiting purposes.
type ServiceType string

const (
	// ServiceCalendar covers calendar view reads and event creation.
	ServiceCalendar ServiceType = "calendar"
	// ServiceProfile covers /me and profile photo reads at sign-in.
	ServiceProfile ServiceType = "profile"
)

// RateLimitConfig holds rate limiting configuration for a service.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// DefaultRateLimits holds the per-service defaults.
// Microsoft Graph allows ~10,000 requests per 10 minutes (~16.67/sec).
var DefaultRateLimits = map[ServiceType]RateLimitConfig{
	ServiceCalendar: {RequestsPerSecond: 10.0, BurstSize: 15},
	ServiceProfile:  {RequestsPerSecond: 5.0, BurstSize: 10},
}

// fallbackRateLimit applies to unknown services and invalid configurations.
var fallbackRateLimit = RateLimitConfig{RequestsPerSecond: 10.0, BurstSize: 15}

const defaultRetryAfterSeconds = 60

// RateLimiter provides rate limiting for Microsoft Graph API requests.
// It uses a token bucket algorithm with optional backoff for 429 responses.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	service ServiceType
}

// NewRateLimiter creates a rate limiter for service. Positive fields of
// override replace the service defaults; unknown services start from the
// fallback limits.
func NewRateLimiter(service ServiceType, override RateLimitConfig) *RateLimiter {
	cfg, ok := DefaultRateLimits[service]
	if !ok {
		cfg = fallbackRateLimit
	}
	if override.RequestsPerSecond > 0 {
		cfg.RequestsPerSecond = override.RequestsPerSecond
	}
	if override.BurstSize > 0 {
		cfg.BurstSize = override.BurstSize
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		service: service,
	}
}

// Service returns the service the limiter was created for.
func (r *RateLimiter) Service() ServiceType {
	return r.service
}

// Wait blocks until a request can be made without exceeding the rate limit.
// It also respects any backoff period set by RecordRateLimitError.
func (r *RateLimiter) Wait(ctx context.Context) error {
	// First, check for backoff from previous rate limit errors
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(retryAt)):
		}
	}

	// Then wait for the token bucket
	return r.limiter.Wait(ctx)
}

// RecordRateLimitError records a rate limit error and sets a backoff period.
// Call this when receiving a 429 response from Microsoft Graph APIs.
// The retryAfterSeconds parameter should come from the Retry-After header.
func (r *RateLimiter) RecordRateLimitError(retryAfterSeconds int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if retryAfterSeconds <= 0 {
		retryAfterSeconds = defaultRetryAfterSeconds
	}

	r.retryAt = time.Now().Add(time.Duration(retryAfterSeconds) * time.Second)
}

// RetryAt returns the end of the current backoff period, zero if none was recorded.
func (r *RateLimiter) RetryAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retryAt
}
