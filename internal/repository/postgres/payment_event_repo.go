// internal/repository/postgres/payment_event_repo.go
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentEventRepository struct {
	db *pgxpool.Pool
}

func NewPaymentEventRepository(db *pgxpool.Pool) *PaymentEventRepository {
	return &PaymentEventRepository{db: db}
}

// MarkProcessed records a webhook delivery and reports whether this is
// the first time the (event type, reference) pair was seen. Duplicate
// deliveries return false so their side effects are skipped.
func (r *PaymentEventRepository) MarkProcessed(ctx context.Context, eventType, reference string) (bool, error) {
	query := `
		INSERT INTO payment_events (event_type, reference)
		VALUES ($1, $2)
		ON CONFLICT (event_type, reference) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, eventType, reference)
	if err != nil {
		return false, fmt.Errorf("failed to record payment event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
