// internal/payments/paystack.go
package payments

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
)

const defaultBaseURL = "https://api.paystack.co"

// Config carries the provider credentials and callback target.
type Config struct {
	SecretKey   string
	BaseURL     string
	CallbackURL string
}

// Client talks to the Paystack REST API for transaction initialization
// and verification. Subscription state changes arrive via webhook, not
// through this client.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewReference mints a unique, sortable transaction reference.
func NewReference() string {
	return "HCA-" + ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// InitializeRequest is the payload for creating a checkout session.
type InitializeRequest struct {
	Email     string `json:"email"`
	Amount    int64  `json:"amount"` // subunits (kobo/cents)
	Reference string `json:"reference"`
	Currency  string `json:"currency,omitempty"`
	Plan      string `json:"plan,omitempty"`
	Callback  string `json:"callback_url,omitempty"`
}

// InitializeResult carries the checkout URL the caller redirects to.
type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type initializeResponse struct {
	Status  bool             `json:"status"`
	Message string           `json:"message"`
	Data    InitializeResult `json:"data"`
}

// InitializeTransaction creates a hosted checkout session and returns
// the authorization URL.
func (c *Client) InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	if req.Callback == "" {
		req.Callback = c.cfg.CallbackURL
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode initialize request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build initialize request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payment provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read initialize response: %w", err)
	}

	var parsed initializeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode initialize response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !parsed.Status {
		return nil, fmt.Errorf("transaction initialize rejected: %s", parsed.Message)
	}

	return &parsed.Data, nil
}
