// internal/domain/analysis/entity.go
package analysis

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Analysis is one completed model run for a contract. There is at most
// one analysis per contract; a failed run leaves no analysis row, only a
// failed contract status.
type Analysis struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ContractID uuid.UUID `json:"contract_id" db:"contract_id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Status     Status    `json:"status" db:"status"`

	OverallRiskScore int      `json:"overall_risk_score" db:"overall_risk_score"`
	Summary          string   `json:"summary" db:"summary"`
	KeyFindings      []string `json:"key_findings" db:"key_findings"`
	Recommendations  []string `json:"recommendations" db:"recommendations"`

	ModelUsed    sql.NullString `json:"model_used,omitempty" db:"model_used"`
	DurationMS   int64          `json:"analysis_duration_ms" db:"analysis_duration_ms"`
	ErrorMessage sql.NullString `json:"error_message,omitempty" db:"error_message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RiskClause is a model-flagged risky clause belonging to an analysis.
type RiskClause struct {
	ID             uuid.UUID `json:"id" db:"id"`
	AnalysisID     uuid.UUID `json:"analysis_id" db:"analysis_id"`
	ClauseText     string    `json:"clause_text" db:"clause_text"`
	RiskLevel      RiskLevel `json:"risk_level" db:"risk_level"`
	RiskCategory   string    `json:"risk_category" db:"risk_category"`
	Explanation    string    `json:"explanation" db:"explanation"`
	Recommendation string    `json:"recommendation" db:"recommendation"`
	Location       string    `json:"location" db:"location"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// MissingClause is a protection the model found absent from a contract.
type MissingClause struct {
	ID            uuid.UUID `json:"id" db:"id"`
	AnalysisID    uuid.UUID `json:"analysis_id" db:"analysis_id"`
	ClauseType    string    `json:"clause_type" db:"clause_type"`
	Importance    RiskLevel `json:"importance" db:"importance"`
	Description   string    `json:"description" db:"description"`
	SuggestedText string    `json:"suggested_text" db:"suggested_text"`
	LegalImpact   string    `json:"legal_impact" db:"legal_impact"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
