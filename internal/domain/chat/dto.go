// internal/domain/chat/dto.go
package chat

type SendMessageRequest struct {
	Message string `json:"message" binding:"required,max=4000"`
}

type HistoryResponse struct {
	Chat     *Session  `json:"chat"`
	Messages []Message `json:"messages"`
}

type SendMessageResponse struct {
	UserMessage      *Message `json:"user_message"`
	AssistantMessage *Message `json:"assistant_message"`
}
