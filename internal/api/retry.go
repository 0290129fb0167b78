package api

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	DefaultMaxRateLimitRetries     = 3
	DefaultMax5xxRetries           = 1
	DefaultRateLimitBaseDelay      = 3 * time.Second
	DefaultServerErrorRetryDelay   = 1 * time.Second
	DefaultCircuitBreakerThreshold = 5
	DefaultCircuitBreakerResetTime = 30 * time.Second
)

// RetryConfig holds transport retry and circuit breaker settings.
type RetryConfig struct {
	MaxRateLimitRetries     int
	Max5xxRetries           int
	RateLimitBaseDelay      time.Duration
	ServerErrorRetryDelay   time.Duration
	CircuitBreakerThreshold int
	CircuitBreakerResetTime time.Duration
}

// RetryConfigFromEnv returns the defaults, overridden by
// PLENTY_MAX_RATE_LIMIT_RETRIES, PLENTY_MAX_5XX_RETRIES,
// PLENTY_RATE_LIMIT_DELAY, PLENTY_SERVER_ERROR_DELAY,
// PLENTY_CIRCUIT_BREAKER_THRESHOLD and PLENTY_CIRCUIT_BREAKER_RESET_TIME.
// Unparsable values are ignored.
func RetryConfigFromEnv() RetryConfig {
	cfg := RetryConfig{
		MaxRateLimitRetries:     DefaultMaxRateLimitRetries,
		Max5xxRetries:           DefaultMax5xxRetries,
		RateLimitBaseDelay:      DefaultRateLimitBaseDelay,
		ServerErrorRetryDelay:   DefaultServerErrorRetryDelay,
		CircuitBreakerThreshold: DefaultCircuitBreakerThreshold,
		CircuitBreakerResetTime: DefaultCircuitBreakerResetTime,
	}
	ints := map[string]*int{
		"PLENTY_MAX_RATE_LIMIT_RETRIES":    &cfg.MaxRateLimitRetries,
		"PLENTY_MAX_5XX_RETRIES":           &cfg.Max5xxRetries,
		"PLENTY_CIRCUIT_BREAKER_THRESHOLD": &cfg.CircuitBreakerThreshold,
	}
	for key, dst := range ints {
		if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
			*dst = n
		}
	}
	durations := map[string]*time.Duration{
		"PLENTY_RATE_LIMIT_DELAY":           &cfg.RateLimitBaseDelay,
		"PLENTY_SERVER_ERROR_DELAY":         &cfg.ServerErrorRetryDelay,
		"PLENTY_CIRCUIT_BREAKER_RESET_TIME": &cfg.CircuitBreakerResetTime,
	}
	for key, dst := range durations {
		if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
			*dst = d
		}
	}
	return cfg
}

// rateLimitDelay is the wait before retry number attempt (zero based) of a
// throttled call. Retry-After wins over exponential backoff from base.
func rateLimitDelay(h http.Header, base time.Duration, attempt int) time.Duration {
	if d, ok := retryAfterDuration(h); ok {
		return d
	}
	return base << attempt
}

// retryAfterDuration parses Retry-After as seconds or an HTTP date.
func retryAfterDuration(h http.Header) (time.Duration, bool) {
	value := strings.TrimSpace(h.Get("Retry-After"))
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(max(secs, 0)) * time.Second, true
	}
	if at, err := http.ParseTime(value); err == nil {
		return max(time.Until(at), 0), true
	}
	return 0, false
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerProbing
)

// breaker stops traffic after repeated server failures. After the cooldown
// one probe is let through; its outcome closes or re-opens the circuit.
type breaker struct {
	mu        sync.Mutex
	state     breakerState
	failures  int
	openedAt  time.Time
	threshold int
	cooldown  time.Duration
	now       func() time.Time
}

func newBreaker(threshold int, cooldown time.Duration) *breaker {
	return &breaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

func (b *breaker) configure(threshold int, cooldown time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.threshold, b.cooldown = threshold, cooldown
}

// allow reports whether a request may be sent.
func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != breakerOpen {
		return true
	}
	cooldown := b.cooldown
	if cooldown <= 0 {
		cooldown = DefaultCircuitBreakerResetTime
	}
	if b.now().Sub(b.openedAt) < cooldown {
		return false
	}
	b.state = breakerProbing
	return true
}

func (b *breaker) succeeded() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state, b.failures = breakerClosed, 0
}

// failed records a server failure and reports whether the circuit opened.
func (b *breaker) failed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	threshold := b.threshold
	if threshold <= 0 {
		threshold = DefaultCircuitBreakerThreshold
	}
	if b.state == breakerOpen || (b.state == breakerClosed && b.failures < threshold) {
		return false
	}
	b.state, b.openedAt = breakerOpen, b.now()
	return true
}

func (b *breaker) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state, b.failures, b.openedAt = breakerClosed, 0, time.Time{}
}
