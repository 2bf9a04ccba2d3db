// internal/service/chat/service.go
package chat

import (
	"context"
	"fmt"

	"helloaca-service/internal/ai"
	"helloaca-service/internal/domain/chat"
	"helloaca-service/internal/domain/contract"
	xerrors "helloaca-service/internal/pkg/errors"

	"github.com/google/uuid"
)

// Store is the chat persistence surface.
type Store interface {
	FindOrCreateSession(ctx context.Context, userID, contractID uuid.UUID, title string) (*chat.Session, error)
	ListMessages(ctx context.Context, sessionID uuid.UUID) ([]chat.Message, error)
	InsertMessage(ctx context.Context, sessionID uuid.UUID, role chat.Role, content string) (*chat.Message, error)
}

// ContractStore resolves contract ownership and prompt context.
type ContractStore interface {
	FindByID(ctx context.Context, userID, id uuid.UUID) (*contract.Contract, error)
}

type Service struct {
	store     Store
	contracts ContractStore
	model     ai.Analyzer
}

func NewService(store Store, contracts ContractStore, model ai.Analyzer) *Service {
	return &Service{store: store, contracts: contracts, model: model}
}

// History returns the conversation for a contract, creating the session
// on first access.
func (s *Service) History(ctx context.Context, userID, contractID uuid.UUID) (*chat.HistoryResponse, error) {
	c, err := s.contracts.FindByID(ctx, userID, contractID)
	if err != nil {
		return nil, err
	}

	session, err := s.store.FindOrCreateSession(ctx, userID, contractID, "Chat: "+c.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to open chat session: %w", err)
	}

	messages, err := s.store.ListMessages(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	if messages == nil {
		messages = []chat.Message{}
	}

	return &chat.HistoryResponse{Chat: session, Messages: messages}, nil
}

// Send records the user's question, asks the model and records its
// answer. The user message persists even when the model call fails, so
// the thread reflects what was actually asked.
func (s *Service) Send(ctx context.Context, userID, contractID uuid.UUID, req *chat.SendMessageRequest) (*chat.SendMessageResponse, error) {
	c, err := s.contracts.FindByID(ctx, userID, contractID)
	if err != nil {
		return nil, err
	}

	session, err := s.store.FindOrCreateSession(ctx, userID, contractID, "Chat: "+c.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to open chat session: %w", err)
	}

	userMsg, err := s.store.InsertMessage(ctx, session.ID, chat.RoleUser, req.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	answer, err := s.model.AnswerQuestion(ctx, c.Title, c.ContentPreview.String, req.Message)
	if err != nil {
		return nil, xerrors.NewAPIError(500, "CHAT_FAILED", "assistant is unavailable, please try again").
			WithCause(err)
	}

	assistantMsg, err := s.store.InsertMessage(ctx, session.ID, chat.RoleAssistant, answer)
	if err != nil {
		return nil, fmt.Errorf("failed to store assistant reply: %w", err)
	}

	return &chat.SendMessageResponse{UserMessage: userMsg, AssistantMessage: assistantMsg}, nil
}
