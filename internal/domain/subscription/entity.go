// internal/domain/subscription/entity.go
package subscription

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Plan string

const (
	PlanTrial        Plan = "trial"
	PlanBasic        Plan = "basic"
	PlanProfessional Plan = "professional"
	PlanEnterprise   Plan = "enterprise"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusPending   Status = "pending"
	StatusCancelled Status = "cancelled"
	StatusPastDue   Status = "past_due"
	StatusFailed    Status = "failed"
)

type BillingCycle string

const (
	CycleMonthly BillingCycle = "monthly"
	CycleYearly  BillingCycle = "yearly"
)

// Unlimited is the sentinel for plans without a monthly cap.
const Unlimited = -1

// DefaultTrialLimit is the number of billable actions a fresh trial
// record may consume before upgrading.
const DefaultTrialLimit = 3

// Subscription is the per-user usage/subscription ledger row. At most one
// row per user is active at a time; rows are never hard-deleted.
type Subscription struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Plan       Plan      `json:"plan" db:"plan"`
	Status     Status    `json:"status" db:"status"`
	TrialUsed  int       `json:"trial_used" db:"trial_used"`
	TrialLimit int       `json:"trial_limit" db:"trial_limit"`

	BillingCycle       BillingCycle `json:"billing_cycle" db:"billing_cycle"`
	CurrentPeriodStart sql.NullTime `json:"current_period_start,omitempty" db:"current_period_start"`
	CurrentPeriodEnd   sql.NullTime `json:"current_period_end,omitempty" db:"current_period_end"`

	PaymentReference         sql.NullString `json:"-" db:"payment_reference"`
	ProviderCustomerCode     sql.NullString `json:"-" db:"provider_customer_code"`
	ProviderSubscriptionCode sql.NullString `json:"-" db:"provider_subscription_code"`

	CancelledAt sql.NullTime `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// IsTrial reports whether the row is still on the free tier.
func (s *Subscription) IsTrial() bool {
	return s.Plan == PlanTrial
}

// RemainingTrials returns how many trial actions are left. Paid plans
// report the unlimited sentinel.
func (s *Subscription) RemainingTrials() int {
	if !s.IsTrial() {
		return Unlimited
	}
	remaining := s.TrialLimit - s.TrialUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// PlanLimits describes the monthly caps of a plan.
type PlanLimits struct {
	ContractsPerMonth int
	AnalysesPerMonth  int
	FileSizeMB        int
}

// Limits returns the monthly caps for each plan tier.
func Limits(p Plan) PlanLimits {
	switch p {
	case PlanBasic:
		return PlanLimits{ContractsPerMonth: 25, AnalysesPerMonth: 25, FileSizeMB: 10}
	case PlanProfessional:
		return PlanLimits{ContractsPerMonth: 100, AnalysesPerMonth: 100, FileSizeMB: 25}
	case PlanEnterprise:
		return PlanLimits{ContractsPerMonth: Unlimited, AnalysesPerMonth: Unlimited, FileSizeMB: 50}
	default:
		return PlanLimits{ContractsPerMonth: 3, AnalysesPerMonth: 3, FileSizeMB: 5}
	}
}
