// internal/repository/postgres/subscription_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"helloaca-service/internal/domain/subscription"
	xerrors "helloaca-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const subscriptionColumns = `
	id, user_id, plan, status, trial_used, trial_limit,
	billing_cycle, current_period_start, current_period_end,
	payment_reference, provider_customer_code, provider_subscription_code,
	cancelled_at, created_at, updated_at
`

type SubscriptionRepository struct {
	db *pgxpool.Pool
}

func NewSubscriptionRepository(db *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func scanSubscription(row pgx.Row) (*subscription.Subscription, error) {
	var s subscription.Subscription
	err := row.Scan(
		&s.ID, &s.UserID, &s.Plan, &s.Status, &s.TrialUsed, &s.TrialLimit,
		&s.BillingCycle, &s.CurrentPeriodStart, &s.CurrentPeriodEnd,
		&s.PaymentReference, &s.ProviderCustomerCode, &s.ProviderSubscriptionCode,
		&s.CancelledAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan subscription: %w", err)
	}
	return &s, nil
}

// EnsureForUser lazily creates the trial ledger row for a user and
// returns the current active row. The insert is a no-op when one already
// exists, so concurrent first requests converge on a single row. A user
// whose paid plan was cancelled falls back to trial with their old usage
// carried over, not a fresh quota.
func (r *SubscriptionRepository) EnsureForUser(ctx context.Context, userID uuid.UUID, trialLimit int) (*subscription.Subscription, error) {
	insert := `
		INSERT INTO subscriptions (user_id, plan, status, trial_used, trial_limit)
		SELECT $1, 'trial', 'active',
		       COALESCE((SELECT MAX(trial_used) FROM subscriptions WHERE user_id = $1), 0),
		       $2
		ON CONFLICT (user_id) WHERE status = 'active' DO NOTHING
	`
	if _, err := r.db.Exec(ctx, insert, userID, trialLimit); err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	return r.FindActiveByUser(ctx, userID)
}

// FindActiveByUser retrieves the single active subscription for a user.
func (r *SubscriptionRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*subscription.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanSubscription(r.db.QueryRow(ctx, query, userID))
}

// TryConsumeTrial atomically spends one trial action. The counter is only
// incremented when it is still below the limit, in a single statement, so
// concurrent requests cannot overspend the quota. Returns the remaining
// count and whether the increment happened.
func (r *SubscriptionRepository) TryConsumeTrial(ctx context.Context, userID uuid.UUID) (consumed bool, remaining int, err error) {
	query := `
		UPDATE subscriptions
		SET trial_used = trial_used + 1, updated_at = NOW()
		WHERE user_id = $1 AND status = 'active' AND plan = 'trial'
		  AND trial_used < trial_limit
		RETURNING trial_limit - trial_used
	`

	err = r.db.QueryRow(ctx, query, userID).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("failed to consume trial quota: %w", err)
	}
	return true, remaining, nil
}

// CreatePending inserts a pending subscription row for a payment-in-flight.
func (r *SubscriptionRepository) CreatePending(ctx context.Context, userID uuid.UUID, plan subscription.Plan, cycle subscription.BillingCycle, reference string) (*subscription.Subscription, error) {
	query := `
		INSERT INTO subscriptions (user_id, plan, status, trial_used, trial_limit, billing_cycle, payment_reference)
		VALUES ($1, $2, 'pending', 0, 0, $3, $4)
		RETURNING ` + subscriptionColumns

	return scanSubscription(r.db.QueryRow(ctx, query, userID, plan, cycle, reference))
}

// FindByReference retrieves a subscription by its payment reference.
func (r *SubscriptionRepository) FindByReference(ctx context.Context, reference string) (*subscription.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE payment_reference = $1
	`
	return scanSubscription(r.db.QueryRow(ctx, query, reference))
}

// FindActiveByCustomerCode retrieves the active subscription attached to
// a gateway customer code.
func (r *SubscriptionRepository) FindActiveByCustomerCode(ctx context.Context, customerCode string) (*subscription.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE provider_customer_code = $1 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanSubscription(r.db.QueryRow(ctx, query, customerCode))
}

// Activate marks a subscription active with its billing period and
// provider codes, and cancels any other active rows for the same user so
// the one-active-row invariant holds. Both statements run in one
// transaction.
func (r *SubscriptionRepository) Activate(ctx context.Context, id uuid.UUID, userID uuid.UUID, periodStart, periodEnd time.Time, customerCode, subscriptionCode string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	activate := `
		UPDATE subscriptions
		SET status = 'active',
		    current_period_start = $2,
		    current_period_end = $3,
		    provider_customer_code = $4,
		    provider_subscription_code = NULLIF($5, ''),
		    updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, activate, id, periodStart, periodEnd, customerCode, subscriptionCode); err != nil {
		return fmt.Errorf("failed to activate subscription: %w", err)
	}

	deactivate := `
		UPDATE subscriptions
		SET status = 'cancelled', cancelled_at = NOW(), updated_at = NOW()
		WHERE user_id = $1 AND id <> $2 AND status = 'active'
	`
	if _, err := tx.Exec(ctx, deactivate, userID, id); err != nil {
		return fmt.Errorf("failed to deactivate prior subscriptions: %w", err)
	}

	return tx.Commit(ctx)
}

// UpdateStatus transitions a subscription's status.
func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status subscription.Status) error {
	query := `
		UPDATE subscriptions
		SET status = $2,
		    cancelled_at = CASE WHEN $2 = 'cancelled' THEN NOW() ELSE cancelled_at END,
		    updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
