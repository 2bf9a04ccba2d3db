// internal/repository/postgres/subscription_repo_test.go
package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"helloaca-service/internal/domain/subscription"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ledger semantics live in SQL; skipped unless a database with the
// schema applied is reachable via TEST_DATABASE_URL.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	if err := pool.Ping(context.Background()); err != nil {
		t.Skipf("database not reachable: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestEnsureForUserCarriesTrialUsageAcrossCancel(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewSubscriptionRepository(pool)
	userID := uuid.New()
	t.Cleanup(func() {
		pool.Exec(context.Background(), "DELETE FROM subscriptions WHERE user_id = $1", userID)
	})

	first, err := repo.EnsureForUser(ctx, userID, 3)
	require.NoError(t, err)
	assert.Equal(t, subscription.PlanTrial, first.Plan)
	assert.Equal(t, 0, first.TrialUsed)

	for i := 0; i < 3; i++ {
		consumed, _, err := repo.TryConsumeTrial(ctx, userID)
		require.NoError(t, err)
		require.True(t, consumed)
	}
	consumed, _, err := repo.TryConsumeTrial(ctx, userID)
	require.NoError(t, err)
	require.False(t, consumed)

	// Upgrade, then cancel the paid plan.
	pending, err := repo.CreatePending(ctx, userID, subscription.PlanBasic, subscription.CycleMonthly, "HCA-TEST-"+userID.String())
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, repo.Activate(ctx, pending.ID, userID, now, now.AddDate(0, 1, 0), "CUS_test", "SUB_test"))
	require.NoError(t, repo.UpdateStatus(ctx, pending.ID, subscription.StatusCancelled))

	// The recreated trial keeps the spent quota.
	back, err := repo.EnsureForUser(ctx, userID, 3)
	require.NoError(t, err)
	assert.Equal(t, subscription.PlanTrial, back.Plan)
	assert.Equal(t, 3, back.TrialUsed)

	consumed, _, err = repo.TryConsumeTrial(ctx, userID)
	require.NoError(t, err)
	assert.False(t, consumed, "a cancel-and-return user must not get fresh quota")
}
