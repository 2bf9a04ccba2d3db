// internal/domain/subscription/dto.go
package subscription

// Action is a billable action metered against quota.
type Action string

const (
	ActionContract Action = "contract"
	ActionAnalysis Action = "analysis"
)

// Decision is the outcome of evaluating a billable action for a user.
type Decision struct {
	Allowed         bool   `json:"allowed"`
	Reason          string `json:"reason,omitempty"`
	RemainingTrials int    `json:"remaining_trials"`
	MonthlyLimit    int    `json:"monthly_limit,omitempty"`
	MonthlyUsed     int    `json:"monthly_used,omitempty"`
}

type SubscriptionResponse struct {
	Subscription    *Subscription `json:"subscription"`
	RemainingTrials int           `json:"remainingTrials"`
	IsTrialUser     bool          `json:"isTrialUser"`
}

type SubscribeRequest struct {
	Plan         Plan         `json:"plan" binding:"required,oneof=basic professional enterprise"`
	BillingCycle BillingCycle `json:"billing_cycle" binding:"omitempty,oneof=monthly yearly"`
}

type SubscribeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}
