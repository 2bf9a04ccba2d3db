package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableClient dials a port nothing listens on, so every command
// errors immediately.
func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestAllowFailsOpenOnStoreError(t *testing.T) {
	limiter := New(unreachableClient())

	allowed, remaining, err := limiter.Allow(context.Background(), ClassGeneral, "client-1")
	require.NoError(t, err)
	assert.True(t, allowed, "an unreachable store must not reject traffic")
	assert.Equal(t, int64(100), remaining)
}

func TestAllowFailClosedSurfacesStoreError(t *testing.T) {
	limiter := NewWithLimits(unreachableClient(), map[Class]Limit{
		ClassGeneral: {Requests: 5, Window: time.Minute},
	}, FailClosed)

	allowed, _, err := limiter.Allow(context.Background(), ClassGeneral, "client-1")
	assert.Error(t, err)
	assert.False(t, allowed)
}

func TestMode(t *testing.T) {
	assert.Equal(t, FailOpen, New(unreachableClient()).Mode())
}

// Window semantics need a real store; skipped unless one is reachable at
// the default address.
func TestAllowFixedWindow(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DialTimeout: 200 * time.Millisecond})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skip("redis not available")
	}

	limiter := NewWithLimits(client, map[Class]Limit{
		ClassAnalysis: {Requests: 3, Window: 2 * time.Second},
	}, FailClosed)

	clientID := fmt.Sprintf("test-%d", time.Now().UnixNano())
	for i := 0; i < 3; i++ {
		allowed, remaining, err := limiter.Allow(context.Background(), ClassAnalysis, clientID)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, int64(2-i), remaining)
	}

	allowed, remaining, err := limiter.Allow(context.Background(), ClassAnalysis, clientID)
	require.NoError(t, err)
	assert.False(t, allowed, "request over the ceiling must be rejected")
	assert.Equal(t, int64(0), remaining)

	time.Sleep(2100 * time.Millisecond)

	allowed, _, err = limiter.Allow(context.Background(), ClassAnalysis, clientID)
	require.NoError(t, err)
	assert.True(t, allowed, "a fresh window admits again")
}
