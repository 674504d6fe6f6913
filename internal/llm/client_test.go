package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

type staticCreds string

func (c staticCreds) Credential() string { return string(c) }

func TestChatMissingCredential(t *testing.T) {
	client := NewClient("http://unused", staticCreds(""), nil, zap.NewNop())

	_, err := client.Chat(context.Background(), ChatRequest{Model: "m"})
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestChatSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}],"usage":{"total_tokens":12}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticCreds("sk-test"), nil, zap.NewNop())
	resp, err := client.Chat(context.Background(), ChatRequest{Model: "m", Messages: []ChatMessage{{Role: "user", Content: "hi"}}})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Choices[0].Message.Content != "hello" {
		t.Errorf("unexpected content %q", resp.Choices[0].Message.Content)
	}
	if resp.TotalTokens() != 12 {
		t.Errorf("expected 12 tokens, got %d", resp.TotalTokens())
	}
}

func TestChatNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticCreds("sk-test"), nil, zap.NewNop())
	_, err := client.Chat(context.Background(), ChatRequest{Model: "m"})

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Status != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", upstream.Status)
	}
}

func TestChatEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticCreds("sk-test"), nil, zap.NewNop())
	_, err := client.Chat(context.Background(), ChatRequest{Model: "m"})

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Reason != "empty response" {
		t.Errorf("unexpected reason %q", upstream.Reason)
	}
}

type stubBreaker struct {
	allow     bool
	successes int
	failures  int
}

func (b *stubBreaker) Allow() bool    { return b.allow }
func (b *stubBreaker) RecordSuccess() { b.successes++ }
func (b *stubBreaker) RecordFailure() { b.failures++ }

func TestChatRespectsBreaker(t *testing.T) {
	breaker := &stubBreaker{allow: false}
	client := NewClient("http://unused", staticCreds("sk-test"), breaker, zap.NewNop())

	_, err := client.Chat(context.Background(), ChatRequest{Model: "m"})
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	breaker.allow = true
	client = NewClient(srv.URL, staticCreds("sk-test"), breaker, zap.NewNop())
	if _, err := client.Chat(context.Background(), ChatRequest{Model: "m"}); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if breaker.successes != 1 {
		t.Errorf("expected breaker success recorded, got %d", breaker.successes)
	}
}
