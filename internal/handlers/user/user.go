// internal/handlers/user/user.go
package user

import (
	"net/http"

	"helloaca-service/internal/domain/user"
	"helloaca-service/internal/middleware"
	"helloaca-service/internal/pkg/response"
	subsvc "helloaca-service/internal/service/subscription"
	usersvc "helloaca-service/internal/service/user"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *usersvc.Service
	subService  *subsvc.Service
}

func NewUserHandler(userService *usersvc.Service, subService *subsvc.Service) *UserHandler {
	return &UserHandler{userService: userService, subService: subService}
}

// GetProfile returns the caller's profile.
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	profile, err := h.userService.GetProfile(c.Request.Context(), userID, middleware.GetEmail(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile)
}

// UpdateProfile applies a partial profile update.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req user.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err.Error())
		return
	}

	profile, err := h.userService.UpdateProfile(c.Request.Context(), userID, middleware.GetEmail(c), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile)
}

// GetSubscription returns the caller's subscription and trial state.
func (h *UserHandler) GetSubscription(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	sub, err := h.subService.GetForUser(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub)
}
