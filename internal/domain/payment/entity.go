// internal/domain/payment/entity.go
package payment

import (
	"time"

	"github.com/google/uuid"
)

// Event records a processed webhook delivery. The (event_type, reference)
// pair is unique so replayed deliveries apply their side effects exactly
// once.
type Event struct {
	ID        uuid.UUID `json:"id" db:"id"`
	EventType string    `json:"event_type" db:"event_type"`
	Reference string    `json:"reference" db:"reference"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// WebhookEvent is the shape of a gateway webhook delivery. Only the
// fields the handlers read are modeled.
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

type WebhookData struct {
	ID        int64           `json:"id"`
	Status    string          `json:"status"`
	Reference string          `json:"reference"`
	Amount    int64           `json:"amount"`
	PaidAt    string          `json:"paid_at"`
	Customer  WebhookCustomer `json:"customer"`
	Plan      *WebhookPlan    `json:"plan,omitempty"`
}

type WebhookCustomer struct {
	Email        string `json:"email"`
	CustomerCode string `json:"customer_code"`
}

type WebhookPlan struct {
	Name     string `json:"name"`
	PlanCode string `json:"plan_code"`
	Interval string `json:"interval"`
}
