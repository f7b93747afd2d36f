// Package executor performs the model call for an authorized decision.
// It is the external collaborator invoked after the pipeline emits a
// DecisionRecord; provider failures are returned verbatim, no retry.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/gatewise-ai/gatewise/pkg/config"
)

// ErrCredentialMissing means no provider credential is configured. The
// decision pipeline still completes; only execution is refused.
var ErrCredentialMissing = errors.New("provider credential missing")

const completionsPath = "/v1/chat/completions"

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	url    string
	apiKey string
	http   *http.Client
}

// New creates a Client for the configured provider.
func New(provider config.ProviderConfig) *Client {
	return &Client{
		url:    provider.URL,
		apiKey: provider.APIKey,
		http:   http.DefaultClient,
	}
}

// Result holds a non-streaming upstream response.
type Result struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

func (c *Client) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	if c.apiKey == "" {
		return nil, ErrCredentialMissing
	}

	target, err := url.Parse(c.url)
	if err != nil {
		return nil, fmt.Errorf("invalid provider URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String()+completionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return req, nil
}

// Invoke sends a chat completion request and returns the full response.
func (c *Client) Invoke(ctx context.Context, body []byte) (*Result, error) {
	req, err := c.newRequest(ctx, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Result{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Header:     resp.Header,
	}, nil
}

// InvokeStream sends a streaming chat completion request and returns the
// raw response. The caller owns resp.Body and must close it.
func (c *Client) InvokeStream(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := c.newRequest(ctx, body)
	if err != nil {
		return nil, err
	}
	return c.http.Do(req)
}
