// internal/service/user/service.go
package user

import (
	"context"
	"fmt"
	"time"

	"helloaca-service/internal/domain/user"

	"github.com/google/uuid"
)

// Store is the user persistence surface.
type Store interface {
	Upsert(ctx context.Context, id uuid.UUID, email string) (*user.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, fullName, avatarURL *string) (*user.User, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// GetProfile returns the user's profile, creating the mirror row on
// first access. The identity provider owns the canonical record; the
// local row exists so foreign keys have something to point at.
func (s *Service) GetProfile(ctx context.Context, id uuid.UUID, email string) (*user.ProfileResponse, error) {
	u, err := s.store.Upsert(ctx, id, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return toProfileResponse(u), nil
}

// UpdateProfile applies a partial update. Nil fields keep their value.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, email string, req *user.UpdateProfileRequest) (*user.ProfileResponse, error) {
	if _, err := s.store.Upsert(ctx, id, email); err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	u, err := s.store.UpdateProfile(ctx, id, req.FullName, req.AvatarURL)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return toProfileResponse(u), nil
}

func toProfileResponse(u *user.User) *user.ProfileResponse {
	return &user.ProfileResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		FullName:  u.FullName.String,
		AvatarURL: u.AvatarURL.String,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}
