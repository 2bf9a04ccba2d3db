// internal/service/payment/service.go
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"helloaca-service/internal/domain/payment"
	"helloaca-service/internal/domain/subscription"
	xerrors "helloaca-service/internal/pkg/errors"
	"helloaca-service/internal/payments"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Plan prices in subunits (cents), monthly. Yearly is ten months.
var monthlyPrices = map[subscription.Plan]int64{
	subscription.PlanBasic:        2900,
	subscription.PlanProfessional: 7900,
	subscription.PlanEnterprise:   19900,
}

// SubscriptionStore is the subscription persistence the billing flows
// need.
type SubscriptionStore interface {
	CreatePending(ctx context.Context, userID uuid.UUID, plan subscription.Plan, cycle subscription.BillingCycle, reference string) (*subscription.Subscription, error)
	FindByReference(ctx context.Context, reference string) (*subscription.Subscription, error)
	FindActiveByCustomerCode(ctx context.Context, customerCode string) (*subscription.Subscription, error)
	Activate(ctx context.Context, id uuid.UUID, userID uuid.UUID, periodStart, periodEnd time.Time, customerCode, subscriptionCode string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status subscription.Status) error
}

// EventStore records processed webhook deliveries.
type EventStore interface {
	MarkProcessed(ctx context.Context, eventType, reference string) (bool, error)
}

// Gateway initializes checkout sessions with the payment provider.
type Gateway interface {
	InitializeTransaction(ctx context.Context, req payments.InitializeRequest) (*payments.InitializeResult, error)
}

// Invalidator drops cached subscription state after out-of-band changes.
type Invalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID)
}

type Config struct {
	WebhookSecret string
	Production    bool
}

type Service struct {
	subs        SubscriptionStore
	events      EventStore
	gateway     Gateway
	invalidator Invalidator
	cfg         Config
	logger      *zap.Logger
}

func NewService(subs SubscriptionStore, events EventStore, gateway Gateway, invalidator Invalidator, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		subs:        subs,
		events:      events,
		gateway:     gateway,
		invalidator: invalidator,
		cfg:         cfg,
		logger:      logger,
	}
}

// Subscribe creates a pending subscription and a checkout session. The
// subscription only becomes active when the gateway confirms the charge
// via webhook.
func (s *Service) Subscribe(ctx context.Context, userID uuid.UUID, email string, req *subscription.SubscribeRequest) (*subscription.SubscribeResponse, error) {
	price, ok := monthlyPrices[req.Plan]
	if !ok {
		return nil, xerrors.NewAPIError(400, "VALIDATION_ERROR", "unknown plan").
			WithCause(xerrors.ErrInvalidInput)
	}

	cycle := req.BillingCycle
	if cycle == "" {
		cycle = subscription.CycleMonthly
	}
	amount := price
	if cycle == subscription.CycleYearly {
		amount = price * 10
	}

	reference := payments.NewReference()
	if _, err := s.subs.CreatePending(ctx, userID, req.Plan, cycle, reference); err != nil {
		return nil, fmt.Errorf("failed to create pending subscription: %w", err)
	}

	result, err := s.gateway.InitializeTransaction(ctx, payments.InitializeRequest{
		Email:     email,
		Amount:    amount,
		Reference: reference,
	})
	if err != nil {
		return nil, xerrors.NewAPIError(500, "PAYMENT_INIT_FAILED", "could not start checkout, please try again").
			WithCause(err)
	}

	return &subscription.SubscribeResponse{
		AuthorizationURL: result.AuthorizationURL,
		AccessCode:       result.AccessCode,
		Reference:        result.Reference,
	}, nil
}

// VerifyWebhook enforces the signature policy on a raw delivery. A
// configured secret is always enforced; an absent signature is tolerated
// only outside production when no secret is configured.
func (s *Service) VerifyWebhook(raw []byte, signature string) error {
	if s.cfg.WebhookSecret != "" {
		if !payments.VerifySignature(raw, signature, s.cfg.WebhookSecret) {
			return xerrors.NewAPIError(401, "INVALID_SIGNATURE", "webhook signature verification failed").
				WithCause(xerrors.ErrUnauthorized)
		}
		return nil
	}
	if s.cfg.Production {
		return xerrors.NewAPIError(401, "INVALID_SIGNATURE", "webhook signature verification failed").
			WithCause(xerrors.ErrUnauthorized)
	}
	s.logger.Warn("webhook accepted without signature verification, no secret configured")
	return nil
}

// ProcessWebhook applies one verified delivery. Unknown events are
// ignored; per-event failures are logged and swallowed so the gateway
// never retries into a storm. Replayed deliveries are no-ops via the
// processed-event guard.
func (s *Service) ProcessWebhook(ctx context.Context, raw []byte) {
	var event payment.WebhookEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		s.logger.Warn("unparseable webhook payload", zap.Error(err))
		return
	}
	if event.Data.Reference == "" {
		s.logger.Warn("webhook event without reference", zap.String("event", event.Event))
		return
	}

	fresh, err := s.events.MarkProcessed(ctx, event.Event, event.Data.Reference)
	if err != nil {
		s.logger.Error("failed to record webhook event",
			zap.String("event", event.Event),
			zap.String("reference", event.Data.Reference),
			zap.Error(err))
		return
	}
	if !fresh {
		s.logger.Info("duplicate webhook delivery ignored",
			zap.String("event", event.Event),
			zap.String("reference", event.Data.Reference))
		return
	}

	switch event.Event {
	case "charge.success":
		err = s.handleChargeSuccess(ctx, &event.Data)
	case "charge.failed":
		err = s.handleChargeFailed(ctx, &event.Data)
	case "subscription.disable":
		err = s.handleSubscriptionDisable(ctx, &event.Data)
	default:
		s.logger.Debug("ignoring webhook event", zap.String("event", event.Event))
		return
	}

	if err != nil {
		s.logger.Error("webhook event processing failed",
			zap.String("event", event.Event),
			zap.String("reference", event.Data.Reference),
			zap.Error(err))
	}
}

func (s *Service) handleChargeSuccess(ctx context.Context, data *payment.WebhookData) error {
	sub, err := s.subs.FindByReference(ctx, data.Reference)
	if err != nil {
		return fmt.Errorf("no subscription for reference %s: %w", data.Reference, err)
	}

	periodStart := time.Now().UTC()
	periodEnd := periodStart.AddDate(0, 1, 0)
	if sub.BillingCycle == subscription.CycleYearly {
		periodEnd = periodStart.AddDate(1, 0, 0)
	}

	subscriptionCode := ""
	if data.Plan != nil {
		subscriptionCode = data.Plan.PlanCode
	}
	if err := s.subs.Activate(ctx, sub.ID, sub.UserID, periodStart, periodEnd, data.Customer.CustomerCode, subscriptionCode); err != nil {
		return err
	}

	s.invalidate(ctx, sub.UserID)
	s.logger.Info("subscription activated",
		zap.String("user_id", sub.UserID.String()),
		zap.String("plan", string(sub.Plan)),
		zap.String("reference", data.Reference))
	return nil
}

func (s *Service) handleChargeFailed(ctx context.Context, data *payment.WebhookData) error {
	sub, err := s.subs.FindByReference(ctx, data.Reference)
	if err != nil {
		return fmt.Errorf("no subscription for reference %s: %w", data.Reference, err)
	}
	if err := s.subs.UpdateStatus(ctx, sub.ID, subscription.StatusFailed); err != nil {
		return err
	}
	s.invalidate(ctx, sub.UserID)
	return nil
}

func (s *Service) handleSubscriptionDisable(ctx context.Context, data *payment.WebhookData) error {
	sub, err := s.subs.FindActiveByCustomerCode(ctx, data.Customer.CustomerCode)
	if err != nil {
		return fmt.Errorf("no active subscription for customer %s: %w", data.Customer.CustomerCode, err)
	}
	if err := s.subs.UpdateStatus(ctx, sub.ID, subscription.StatusCancelled); err != nil {
		return err
	}
	s.invalidate(ctx, sub.UserID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, userID uuid.UUID) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, userID)
	}
}
