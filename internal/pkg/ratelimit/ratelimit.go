// internal/pkg/ratelimit/ratelimit.go
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Class names a limit bucket. Each class has its own ceiling and window.
type Class string

const (
	ClassGeneral  Class = "general"
	ClassUpload   Class = "upload"
	ClassAnalysis Class = "analysis"
	ClassAuth     Class = "auth"
)

// FailMode is the explicit policy for what happens when the counting
// store is unreachable. The limiter fails open: availability wins over
// strict enforcement. This is asymmetric with the trial quota gate, which
// fails closed; both are asserted on by tests as documented behavior.
type FailMode string

const (
	FailOpen   FailMode = "open"
	FailClosed FailMode = "closed"
)

type Limit struct {
	Requests int64
	Window   time.Duration
}

// Limits per class, matching the platform's admission ceilings.
var defaultLimits = map[Class]Limit{
	ClassGeneral:  {Requests: 100, Window: time.Minute},
	ClassUpload:   {Requests: 10, Window: time.Minute},
	ClassAnalysis: {Requests: 5, Window: time.Minute},
	ClassAuth:     {Requests: 20, Window: time.Minute},
}

// Limiter is a fixed-window counter over Redis. The key's expiry IS the
// window: the first request in a window creates the key with a TTL equal
// to the window length, so boundaries are request-triggered rather than
// wall-clock aligned.
type Limiter struct {
	client   *redis.Client
	limits   map[Class]Limit
	failMode FailMode
}

func New(client *redis.Client) *Limiter {
	return &Limiter{client: client, limits: defaultLimits, failMode: FailOpen}
}

// NewWithLimits builds a limiter with custom ceilings, used by tests.
func NewWithLimits(client *redis.Client, limits map[Class]Limit, failMode FailMode) *Limiter {
	return &Limiter{client: client, limits: limits, failMode: failMode}
}

// Mode returns the limiter's failure policy.
func (l *Limiter) Mode() FailMode {
	return l.failMode
}

// Allow atomically counts a request for (class, clientID) in the current
// window and reports whether it is admitted.
func (l *Limiter) Allow(ctx context.Context, class Class, clientID string) (allowed bool, remaining int64, err error) {
	limit, ok := l.limits[class]
	if !ok {
		limit = l.limits[ClassGeneral]
	}

	key := fmt.Sprintf("ratelimit:%s:%s", class, clientID)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		if l.failMode == FailOpen {
			return true, limit.Requests, nil
		}
		return false, 0, fmt.Errorf("rate limit store unavailable: %w", err)
	}

	// First hit starts the window.
	if count == 1 {
		l.client.Expire(ctx, key, limit.Window)
	}

	remaining = limit.Requests - count
	if remaining < 0 {
		remaining = 0
	}

	return count <= limit.Requests, remaining, nil
}
