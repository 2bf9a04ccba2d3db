// internal/middleware/helpers.go
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetUserID returns the authenticated user's id from the context.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// MustGetUserID returns the user id set by the Auth middleware. Only
// valid on routes behind Auth; nil means a wiring bug, not bad input.
func MustGetUserID(c *gin.Context) uuid.UUID {
	id, _ := GetUserID(c)
	return id
}

// GetEmail returns the authenticated user's email from the context.
func GetEmail(c *gin.Context) string {
	return c.GetString("email")
}
