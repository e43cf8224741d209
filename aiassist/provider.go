package aiassist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/c360/flowbridge/errors"
)

// Request is one completion request to the language-model provider
type Request struct {
	System string
	User   string
}

// Provider is the external language-model boundary. Implementations must
// honor context cancellation; the returned string is the raw model output.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ChatProvider calls an OpenAI-compatible chat-completions endpoint
type ChatProvider struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

// ChatProviderConfig configures the HTTP provider
type ChatProviderConfig struct {
	Endpoint string        // chat-completions URL
	Model    string        // model identifier
	APIKey   string        // bearer token
	Timeout  time.Duration // per-attempt timeout, defaults to 60s
}

// NewChatProvider creates an OpenAI-compatible provider
func NewChatProvider(cfg ChatProviderConfig) *ChatProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &ChatProvider{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
	}
}

// Complete posts the request and returns the first choice's content.
// Transport failures and provider 5xx responses are transient; 4xx
// responses are invalid and not worth retrying.
func (p *ChatProvider) Complete(ctx context.Context, req Request) (string, error) {
	payload := map[string]any{
		"model": p.model,
		"messages": []map[string]string{
			{"role": "system", "content": req.System},
			{"role": "user", "content": req.User},
		},
		"temperature": 0.0,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", errors.WrapFatal(err, "aiassist", "Complete", "marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(data))
	if err != nil {
		return "", errors.WrapInvalid(err, "aiassist", "Complete", "build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", errors.WrapTransient(
			fmt.Errorf("%v: %w", err, errors.ErrAIInvocation),
			"aiassist", "Complete", "post chat request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		return "", errors.WrapTransient(
			fmt.Errorf("provider status %s: %w", resp.Status, errors.ErrAIInvocation),
			"aiassist", "Complete", "post chat request")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.WrapInvalid(
			fmt.Errorf("provider status %s: %w", resp.Status, errors.ErrAIInvocation),
			"aiassist", "Complete", "post chat request")
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", errors.WrapTransient(
			fmt.Errorf("%v: %w", err, errors.ErrAIResponseParse),
			"aiassist", "Complete", "decode provider response")
	}
	if len(parsed.Choices) == 0 {
		return "", errors.WrapTransient(
			fmt.Errorf("provider returned no choices: %w", errors.ErrAIResponseParse),
			"aiassist", "Complete", "decode provider response")
	}
	return parsed.Choices[0].Message.Content, nil
}
