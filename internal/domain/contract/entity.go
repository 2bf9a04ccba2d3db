// internal/domain/contract/entity.go
package contract

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusUploaded  Status = "uploaded"
	StatusAnalyzing Status = "analyzing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

type Type string

const (
	TypeEmployment  Type = "employment"
	TypeService     Type = "service"
	TypeNDA         Type = "nda"
	TypePartnership Type = "partnership"
	TypeLease       Type = "lease"
	TypeOther       Type = "other"
)

// Contract is an uploaded document owned by a single user. The file
// itself lives in blob storage; this row holds metadata and lifecycle
// status.
type Contract struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	UserID       uuid.UUID      `json:"user_id" db:"user_id"`
	Title        string         `json:"title" db:"title"`
	Description  sql.NullString `json:"description,omitempty" db:"description"`
	ContractType Type           `json:"contract_type" db:"contract_type"`

	FileName       string         `json:"file_name" db:"file_name"`
	FileSize       int64          `json:"file_size" db:"file_size"`
	FileType       string         `json:"file_type" db:"file_type"`
	StoragePath    string         `json:"-" db:"storage_path"`
	FileURL        string         `json:"file_url" db:"file_url"`
	ContentPreview sql.NullString `json:"content_preview,omitempty" db:"content_preview"`

	Status    Status    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
