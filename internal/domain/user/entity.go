// internal/domain/user/entity.go
package user

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// User mirrors the identity provider's subject. Rows are lazily upserted
// on first authenticated request; the provider remains the source of
// truth for credentials and sessions.
type User struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	Email     string         `json:"email" db:"email"`
	FullName  sql.NullString `json:"full_name,omitempty" db:"full_name"`
	AvatarURL sql.NullString `json:"avatar_url,omitempty" db:"avatar_url"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}
