// internal/middleware/ratelimit_middleware.go
package middleware

import (
	"net/http"
	"strconv"

	"helloaca-service/internal/pkg/ratelimit"
	"helloaca-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type RateLimitMiddleware struct {
	limiter *ratelimit.Limiter
}

func NewRateLimitMiddleware(limiter *ratelimit.Limiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter}
}

// Limit admits or rejects the request against the class's fixed window.
// The authenticated user id keys the bucket when present; anonymous
// traffic falls back to the client IP.
func (m *RateLimitMiddleware) Limit(class ratelimit.Class) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.ClientIP()
		if id, ok := GetUserID(c); ok {
			clientID = id.String()
		}

		allowed, remaining, err := m.limiter.Allow(c.Request.Context(), class, clientID)
		if err != nil {
			// Only reachable in fail-closed mode.
			response.Error(c, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "rate limit check unavailable")
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if !allowed {
			response.Error(c, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "too many requests, slow down")
			return
		}

		c.Next()
	}
}
