package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/morphic/api/internal/metrics"
	"go.uber.org/zap"
)

// ChatMessage is one turn in a chat-completions request
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the chat-completions request body
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

// ChatChoice is one completion in a chat response
type ChatChoice struct {
	Message ChatMessage `json:"message"`
}

// ChatUsage is the provider-reported token accounting
type ChatUsage struct {
	TotalTokens int `json:"total_tokens"`
}

// ChatResponse is the chat-completions response body
type ChatResponse struct {
	Choices []ChatChoice `json:"choices"`
	Usage   *ChatUsage   `json:"usage,omitempty"`
}

// TotalTokens returns reported usage, zero when the provider omits it
func (r *ChatResponse) TotalTokens() int {
	if r.Usage == nil {
		return 0
	}
	return r.Usage.TotalTokens
}

// CredentialSource supplies the bearer token for the model endpoint.
// An empty string means no credential is available.
type CredentialSource interface {
	Credential() string
}

// Breaker guards the model endpoint against repeated failures
type Breaker interface {
	Allow() bool
	RecordSuccess()
	RecordFailure()
}

// Client calls an OpenAI-compatible chat-completions endpoint.
// No request timeout is enforced here; callers that need one wrap the
// context themselves.
type Client struct {
	endpoint string
	creds    CredentialSource
	breaker  Breaker
	http     *http.Client
	logger   *zap.Logger
}

// NewClient creates a model client. breaker may be nil.
func NewClient(endpoint string, creds CredentialSource, breaker Breaker, logger *zap.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		creds:    creds,
		breaker:  breaker,
		http:     &http.Client{},
		logger:   logger,
	}
}

// Chat performs one chat-completions call
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	key := c.creds.Credential()
	if key == "" {
		return nil, ErrMissingCredential
	}

	if c.breaker != nil && !c.breaker.Allow() {
		return nil, &UpstreamError{Reason: "circuit open"}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+key)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	metrics.ModelCallDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.recordFailure()
		return nil, &UpstreamError{Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		c.recordFailure()
		c.logger.Warn("model call failed",
			zap.String("model", req.Model),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &UpstreamError{Status: resp.StatusCode}
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		c.recordFailure()
		return nil, &UpstreamError{Reason: "undecodable response body"}
	}

	if len(chatResp.Choices) == 0 {
		c.recordFailure()
		return nil, &UpstreamError{Reason: "empty response"}
	}

	c.recordSuccess()
	return &chatResp, nil
}

func (c *Client) recordSuccess() {
	if c.breaker != nil {
		c.breaker.RecordSuccess()
	}
}

func (c *Client) recordFailure() {
	if c.breaker != nil {
		c.breaker.RecordFailure()
	}
}
