package executor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gatewise-ai/gatewise/pkg/config"
)

func TestInvokeMissingCredential(t *testing.T) {
	c := New(config.ProviderConfig{URL: "https://api.openai.com"})
	_, err := c.Invoke(context.Background(), []byte(`{}`))
	if err != ErrCredentialMissing {
		t.Fatalf("expected ErrCredentialMissing, got %v", err)
	}
}

func TestInvoke(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-provider" {
			t.Error("expected provider API key in upstream request")
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"chatcmpl-1"}`))
	}))
	defer upstream.Close()

	c := New(config.ProviderConfig{URL: upstream.URL, APIKey: "sk-provider"})
	res, err := c.Invoke(context.Background(), []byte(`{"model":"gpt-4o-mini"}`))
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", res.StatusCode)
	}
	if string(res.Body) != `{"id":"chatcmpl-1"}` {
		t.Errorf("unexpected body: %s", res.Body)
	}
}

func TestInvokeUpstreamErrorVerbatim(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"overloaded"}`))
	}))
	defer upstream.Close()

	c := New(config.ProviderConfig{URL: upstream.URL, APIKey: "sk-provider"})
	res, err := c.Invoke(context.Background(), []byte(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	// Provider errors propagate verbatim: status and body untouched.
	if res.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", res.StatusCode)
	}
	if string(res.Body) != `{"error":"overloaded"}` {
		t.Errorf("unexpected body: %s", res.Body)
	}
}
