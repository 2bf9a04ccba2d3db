package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"
	"time"

	"helloaca-service/internal/domain/subscription"
	xerrors "helloaca-service/internal/pkg/errors"
	"helloaca-service/internal/payments"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSubs struct {
	byReference map[string]*subscription.Subscription
	byCustomer  map[string]*subscription.Subscription

	activations int
	statuses    map[uuid.UUID]subscription.Status
}

func newFakeSubs() *fakeSubs {
	return &fakeSubs{
		byReference: make(map[string]*subscription.Subscription),
		byCustomer:  make(map[string]*subscription.Subscription),
		statuses:    make(map[uuid.UUID]subscription.Status),
	}
}

func (f *fakeSubs) CreatePending(ctx context.Context, userID uuid.UUID, plan subscription.Plan, cycle subscription.BillingCycle, reference string) (*subscription.Subscription, error) {
	sub := &subscription.Subscription{
		ID: uuid.New(), UserID: userID, Plan: plan,
		Status: subscription.StatusPending, BillingCycle: cycle,
	}
	f.byReference[reference] = sub
	return sub, nil
}

func (f *fakeSubs) FindByReference(ctx context.Context, reference string) (*subscription.Subscription, error) {
	sub, ok := f.byReference[reference]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return sub, nil
}

func (f *fakeSubs) FindActiveByCustomerCode(ctx context.Context, customerCode string) (*subscription.Subscription, error) {
	sub, ok := f.byCustomer[customerCode]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return sub, nil
}

func (f *fakeSubs) Activate(ctx context.Context, id uuid.UUID, userID uuid.UUID, periodStart, periodEnd time.Time, customerCode, subscriptionCode string) error {
	f.activations++
	f.statuses[id] = subscription.StatusActive
	return nil
}

func (f *fakeSubs) UpdateStatus(ctx context.Context, id uuid.UUID, status subscription.Status) error {
	f.statuses[id] = status
	return nil
}

type fakeEvents struct {
	seen map[string]bool
}

func (f *fakeEvents) MarkProcessed(ctx context.Context, eventType, reference string) (bool, error) {
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	key := eventType + "|" + reference
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

type fakeGateway struct {
	lastAmount int64
}

func (f *fakeGateway) InitializeTransaction(ctx context.Context, req payments.InitializeRequest) (*payments.InitializeResult, error) {
	f.lastAmount = req.Amount
	return &payments.InitializeResult{
		AuthorizationURL: "https://checkout.example/" + req.Reference,
		AccessCode:       "AC_test",
		Reference:        req.Reference,
	}, nil
}

func signPayload(payload []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestService(subs *fakeSubs, events *fakeEvents, gateway *fakeGateway, cfg Config) *Service {
	return NewService(subs, events, gateway, nil, cfg, zap.NewNop())
}

func TestSubscribeCreatesPendingAndCheckout(t *testing.T) {
	subs := newFakeSubs()
	gateway := &fakeGateway{}
	svc := newTestService(subs, &fakeEvents{}, gateway, Config{})

	resp, err := svc.Subscribe(context.Background(), uuid.New(), "buyer@example.com", &subscription.SubscribeRequest{
		Plan: subscription.PlanProfessional,
	})
	require.NoError(t, err)
	assert.Contains(t, resp.AuthorizationURL, resp.Reference)
	assert.Equal(t, int64(7900), gateway.lastAmount)

	sub, err := subs.FindByReference(context.Background(), resp.Reference)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusPending, sub.Status)
	assert.Equal(t, subscription.CycleMonthly, sub.BillingCycle)
}

func TestSubscribeYearlyPricing(t *testing.T) {
	gateway := &fakeGateway{}
	svc := newTestService(newFakeSubs(), &fakeEvents{}, gateway, Config{})

	_, err := svc.Subscribe(context.Background(), uuid.New(), "buyer@example.com", &subscription.SubscribeRequest{
		Plan:         subscription.PlanBasic,
		BillingCycle: subscription.CycleYearly,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(29000), gateway.lastAmount)
}

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"event":"charge.success"}`)
	secret := "whsec_test"

	svc := newTestService(newFakeSubs(), &fakeEvents{}, &fakeGateway{}, Config{WebhookSecret: secret, Production: true})

	assert.NoError(t, svc.VerifyWebhook(payload, signPayload(payload, secret)))

	err := svc.VerifyWebhook(payload, signPayload(payload, "forged"))
	require.Error(t, err)
	apiErr, ok := xerrors.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 401, apiErr.Status)

	assert.Error(t, svc.VerifyWebhook(payload, ""))
}

func TestVerifyWebhookNoSecretOutsideProduction(t *testing.T) {
	payload := []byte(`{"event":"charge.success"}`)

	dev := newTestService(newFakeSubs(), &fakeEvents{}, &fakeGateway{}, Config{})
	assert.NoError(t, dev.VerifyWebhook(payload, ""))

	prod := newTestService(newFakeSubs(), &fakeEvents{}, &fakeGateway{}, Config{Production: true})
	assert.Error(t, prod.VerifyWebhook(payload, ""))
}

func TestProcessWebhookChargeSuccessAppliedOnce(t *testing.T) {
	subs := newFakeSubs()
	svc := newTestService(subs, &fakeEvents{}, &fakeGateway{}, Config{})

	sub, _ := subs.CreatePending(context.Background(), uuid.New(), subscription.PlanBasic, subscription.CycleMonthly, "HCA-REF1")
	raw := []byte(`{"event":"charge.success","data":{"reference":"HCA-REF1","status":"success","customer":{"email":"b@example.com","customer_code":"CUS_1"}}}`)

	svc.ProcessWebhook(context.Background(), raw)
	svc.ProcessWebhook(context.Background(), raw)

	assert.Equal(t, 1, subs.activations, "replayed delivery must not re-apply")
	assert.Equal(t, subscription.StatusActive, subs.statuses[sub.ID])
}

func TestProcessWebhookChargeFailed(t *testing.T) {
	subs := newFakeSubs()
	svc := newTestService(subs, &fakeEvents{}, &fakeGateway{}, Config{})

	sub, _ := subs.CreatePending(context.Background(), uuid.New(), subscription.PlanBasic, subscription.CycleMonthly, "HCA-REF2")
	svc.ProcessWebhook(context.Background(), []byte(`{"event":"charge.failed","data":{"reference":"HCA-REF2"}}`))

	assert.Equal(t, subscription.StatusFailed, subs.statuses[sub.ID])
}

func TestProcessWebhookSubscriptionDisable(t *testing.T) {
	subs := newFakeSubs()
	svc := newTestService(subs, &fakeEvents{}, &fakeGateway{}, Config{})

	sub := &subscription.Subscription{ID: uuid.New(), UserID: uuid.New(), Status: subscription.StatusActive}
	subs.byCustomer["CUS_9"] = sub

	svc.ProcessWebhook(context.Background(), []byte(`{"event":"subscription.disable","data":{"reference":"SUB_REF","customer":{"customer_code":"CUS_9"}}}`))

	assert.Equal(t, subscription.StatusCancelled, subs.statuses[sub.ID])
}

func TestProcessWebhookUnknownEventAndBadPayloadAreSwallowed(t *testing.T) {
	subs := newFakeSubs()
	svc := newTestService(subs, &fakeEvents{}, &fakeGateway{}, Config{})

	svc.ProcessWebhook(context.Background(), []byte(`{"event":"transfer.success","data":{"reference":"X"}}`))
	svc.ProcessWebhook(context.Background(), []byte(`not json`))

	assert.Equal(t, 0, subs.activations)
}
