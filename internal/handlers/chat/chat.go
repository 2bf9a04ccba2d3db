// internal/handlers/chat/chat.go
package chat

import (
	"net/http"

	"helloaca-service/internal/domain/chat"
	"helloaca-service/internal/middleware"
	"helloaca-service/internal/pkg/response"
	chatsvc "helloaca-service/internal/service/chat"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ChatHandler struct {
	chatService *chatsvc.Service
}

func NewChatHandler(chatService *chatsvc.Service) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// History returns the conversation for a contract.
func (h *ChatHandler) History(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid contract id", nil)
		return
	}

	resp, err := h.chatService.History(c.Request.Context(), userID, contractID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// Send asks the assistant a question about a contract.
func (h *ChatHandler) Send(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid contract id", nil)
		return
	}

	var req chat.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "message is required", err.Error())
		return
	}

	resp, err := h.chatService.Send(c.Request.Context(), userID, contractID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}
