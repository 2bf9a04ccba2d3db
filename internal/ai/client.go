// internal/ai/client.go
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// ErrMalformedReply marks a reply that arrived but could not be parsed
// into the expected schema. It is distinct from transport errors so
// callers can tell a broken model answer from a failed call.
var ErrMalformedReply = errors.New("ai: malformed model reply")

const systemPrompt = "You are an expert legal contract analyst. Analyze contracts for risks, missing clauses, and provide actionable recommendations."

// Analyzer is the external model behind the contract analysis and chat
// features. Implemented by Client; tests substitute fakes.
type Analyzer interface {
	AnalyzeContract(ctx context.Context, contractText, contractType string) (*AnalysisReply, error)
	AnswerQuestion(ctx context.Context, contractTitle, contractPreview, question string) (string, error)
	Model() string
}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// Client wraps the hosted model API. One request, one reply, no retries:
// failures propagate to the caller, which marks the owning contract
// failed.
type Client struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ai: API key not configured")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4000
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func (c *Client) Model() string {
	return c.model
}

// AnalyzeContract sends the contract text through the analysis prompt and
// parses the JSON reply into a typed result.
func (c *Client) AnalyzeContract(ctx context.Context, contractText, contractType string) (*AnalysisReply, error) {
	reply, err := c.complete(ctx, BuildAnalysisPrompt(contractText, contractType))
	if err != nil {
		return nil, err
	}
	return ParseAnalysisReply(reply)
}

// AnswerQuestion answers a user question about a contract in plain text.
func (c *Client) AnswerQuestion(ctx context.Context, contractTitle, contractPreview, question string) (string, error) {
	return c.complete(ctx, BuildChatPrompt(contractTitle, contractPreview, question))
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("ai: completion call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("ai: model returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
