// internal/service/subscription/service.go
package subscription

import (
	"context"
	"fmt"
	"time"

	"helloaca-service/internal/domain/subscription"
	"helloaca-service/internal/pkg/cache"
	xerrors "helloaca-service/internal/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the subscription persistence surface the gate needs.
type Store interface {
	EnsureForUser(ctx context.Context, userID uuid.UUID, trialLimit int) (*subscription.Subscription, error)
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*subscription.Subscription, error)
	TryConsumeTrial(ctx context.Context, userID uuid.UUID) (consumed bool, remaining int, err error)
}

// UsageCounter reports how many rows a user created since a point in
// time. Contract and analysis repositories both satisfy it.
type UsageCounter interface {
	CountCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
}

// FailMode names what a quota check does when its backing store errors.
// The trial counter fails closed (an unmetered free action is revenue
// leakage); the paid monthly cap fails open (a paying customer blocked
// by our infrastructure is worse than a few uncounted actions).
type FailMode string

const (
	FailOpen   FailMode = "open"
	FailClosed FailMode = "closed"

	TrialCheckFailMode   = FailClosed
	MonthlyCheckFailMode = FailOpen
)

// Service is the usage gate: every billable action passes through
// Evaluate before it runs.
type Service struct {
	store      Store
	contracts  UsageCounter
	analyses   UsageCounter
	cache      *cache.Cache
	trialLimit int
	logger     *zap.Logger

	// now is swapped in tests to pin the calendar month.
	now func() time.Time
}

func NewService(store Store, contracts, analyses UsageCounter, c *cache.Cache, trialLimit int, logger *zap.Logger) *Service {
	if trialLimit <= 0 {
		trialLimit = subscription.DefaultTrialLimit
	}
	return &Service{
		store:      store,
		contracts:  contracts,
		analyses:   analyses,
		cache:      c,
		trialLimit: trialLimit,
		logger:     logger,
		now:        time.Now,
	}
}

// Evaluate decides whether a billable action may proceed and, for trial
// users, spends one unit of quota. The trial spend is a single
// conditional UPDATE, so two racing requests on the last unit cannot
// both be admitted.
func (s *Service) Evaluate(ctx context.Context, userID uuid.UUID, action subscription.Action) (*subscription.Decision, error) {
	sub, err := s.store.EnsureForUser(ctx, userID, s.trialLimit)
	if err != nil {
		// Trial path fails closed.
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	if !sub.IsTrial() {
		return s.evaluatePaid(ctx, userID, sub, action)
	}

	consumed, remaining, err := s.store.TryConsumeTrial(ctx, userID)
	if err != nil {
		if TrialCheckFailMode == FailClosed {
			return nil, fmt.Errorf("failed to consume trial quota: %w", err)
		}
		consumed, remaining = true, 0
	}
	if !consumed {
		return &subscription.Decision{
			Allowed:         false,
			Reason:          fmt.Sprintf("trial limit of %d analyses reached, please upgrade your plan", sub.TrialLimit),
			RemainingTrials: 0,
		}, nil
	}

	s.invalidate(ctx, userID)
	return &subscription.Decision{Allowed: true, RemainingTrials: remaining}, nil
}

func (s *Service) evaluatePaid(ctx context.Context, userID uuid.UUID, sub *subscription.Subscription, action subscription.Action) (*subscription.Decision, error) {
	limits := subscription.Limits(sub.Plan)

	limit := limits.ContractsPerMonth
	counter := s.contracts
	if action == subscription.ActionAnalysis {
		limit = limits.AnalysesPerMonth
		counter = s.analyses
	}

	if limit == subscription.Unlimited {
		return &subscription.Decision{Allowed: true, RemainingTrials: subscription.Unlimited, MonthlyLimit: limit}, nil
	}

	used, err := counter.CountCreatedSince(ctx, userID, s.monthStart())
	if err != nil {
		if MonthlyCheckFailMode == FailOpen {
			s.logger.Warn("monthly usage count failed, admitting",
				zap.String("user_id", userID.String()),
				zap.String("action", string(action)),
				zap.Error(err))
			return &subscription.Decision{Allowed: true, RemainingTrials: subscription.Unlimited, MonthlyLimit: limit}, nil
		}
		return nil, fmt.Errorf("failed to count monthly usage: %w", err)
	}

	if used >= limit {
		return &subscription.Decision{
			Allowed:         false,
			Reason:          fmt.Sprintf("monthly limit of %d reached for the %s plan", limit, sub.Plan),
			RemainingTrials: subscription.Unlimited,
			MonthlyLimit:    limit,
			MonthlyUsed:     used,
		}, nil
	}

	return &subscription.Decision{
		Allowed:         true,
		RemainingTrials: subscription.Unlimited,
		MonthlyLimit:    limit,
		MonthlyUsed:     used,
	}, nil
}

// GetForUser returns the user's current subscription, serving from
// cache when possible.
func (s *Service) GetForUser(ctx context.Context, userID uuid.UUID) (*subscription.SubscriptionResponse, error) {
	key := cache.SubscriptionKey(userID.String())

	var cached subscription.SubscriptionResponse
	if s.cache != nil && s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	sub, err := s.store.EnsureForUser(ctx, userID, s.trialLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	resp := &subscription.SubscriptionResponse{
		Subscription:    sub,
		RemainingTrials: sub.RemainingTrials(),
		IsTrialUser:     sub.IsTrial(),
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, resp, cache.SubscriptionTTL)
	}
	return resp, nil
}

// MaxFileSize returns the upload cap in bytes for the user's plan.
func (s *Service) MaxFileSize(ctx context.Context, userID uuid.UUID) (int64, error) {
	sub, err := s.store.EnsureForUser(ctx, userID, s.trialLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to load subscription: %w", err)
	}
	return int64(subscription.Limits(sub.Plan).FileSizeMB) << 20, nil
}

// DecisionError converts a denial into the API error the handler
// returns: 403 with the quota code.
func DecisionError(d *subscription.Decision) error {
	return xerrors.NewAPIError(403, "SUBSCRIPTION_LIMIT_EXCEEDED", d.Reason).
		WithCause(xerrors.ErrQuotaExceeded)
}

// Invalidate drops the cached subscription view, for webhook and
// upgrade paths that change the row out-of-band.
func (s *Service) Invalidate(ctx context.Context, userID uuid.UUID) {
	s.invalidate(ctx, userID)
}

func (s *Service) invalidate(ctx context.Context, userID uuid.UUID) {
	if s.cache != nil {
		s.cache.Delete(ctx, cache.SubscriptionKey(userID.String()))
	}
}

func (s *Service) monthStart() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}
