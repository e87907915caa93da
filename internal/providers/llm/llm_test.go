package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/velvetcove/amora/internal/core"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*OpenAICompatible, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewOpenAICompatible(OpenAICompatibleConfig{
		Name:       "test",
		BaseURL:    server.URL,
		APIKey:     "sk-test",
		Timeout:    5 * time.Second,
		AuthHeader: "Authorization",
		AuthPrefix: "Bearer ",
	})
	return client, server
}

func TestChat_Success(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"hello there"}}]}`)
	})

	reply, err := client.Chat(context.Background(), "gpt-4o-mini",
		[]core.Message{core.User("hi")}, core.DefaultSampling())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Content != "hello there" {
		t.Errorf("got content %q, want %q", reply.Content, "hello there")
	}
	if reply.Role != core.RoleAssistant {
		t.Errorf("got role %q, want assistant", reply.Role)
	}
}

func TestChat_InBandErrorIsHardFailure(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"error":{"code":429,"message":"rate limited"}}`)
	})

	_, err := client.Chat(context.Background(), "gpt-4o-mini",
		[]core.Message{core.User("hi")}, core.DefaultSampling())
	if err == nil {
		t.Fatal("expected error for in-band error body")
	}
	var inband *core.InBandError
	if !errors.As(err, &inband) {
		t.Fatalf("expected InBandError, got %T: %v", err, err)
	}
	if inband.Message != "rate limited" {
		t.Errorf("got message %q", inband.Message)
	}
	if calls != 1 {
		t.Errorf("in-band error was retried: %d calls", calls)
	}
}

func TestChat_ClientErrorNotRetried(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key"}}`)
	})

	_, err := client.Chat(context.Background(), "gpt-4o-mini",
		[]core.Message{core.User("hi")}, core.DefaultSampling())
	var httpErr *core.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %T: %v", err, err)
	}
	if httpErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("got status %d", httpErr.StatusCode)
	}
	if calls != 1 {
		t.Errorf("4xx was retried: %d calls", calls)
	}
}

func TestChat_ServerErrorRetriedOnce(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"recovered"}}]}`)
	})

	reply, err := client.Chat(context.Background(), "gpt-4o-mini",
		[]core.Message{core.User("hi")}, core.DefaultSampling())
	if err != nil {
		t.Fatalf("unexpected error after retry: %v", err)
	}
	if reply.Content != "recovered" {
		t.Errorf("got content %q", reply.Content)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestChat_ServerErrorExhaustsRetries(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Chat(context.Background(), "gpt-4o-mini",
		[]core.Message{core.User("hi")}, core.DefaultSampling())
	var transport *core.TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if calls != 2 {
		t.Errorf("expected initial call plus one retry, got %d calls", calls)
	}
}

func TestChat_EmptyChoicesYieldsEmptyMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	})

	reply, err := client.Chat(context.Background(), "gpt-4o-mini",
		[]core.Message{core.User("hi")}, core.DefaultSampling())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Content != "" {
		t.Errorf("expected empty content, got %q", reply.Content)
	}
	if reply.Role != core.RoleAssistant {
		t.Errorf("expected assistant role, got %q", reply.Role)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		model        string
		wantProvider string
		wantModel    string
		wantErr      bool
	}{
		{"openrouter/mistralai/mistral-nemo", ProviderOpenRouter, "mistralai/mistral-nemo", false},
		{"grok-3-mini", ProviderXAI, "grok-3-mini", false},
		{"gpt-4o", ProviderOpenAI, "gpt-4o", false},
		{"o1-preview", ProviderOpenAI, "o1-preview", false},
		{"chatgpt-4o-latest", ProviderOpenAI, "chatgpt-4o-latest", false},
		{"claude-3-haiku", "", "", true},
		{"", "", "", true},
	}
	for _, tt := range tests {
		provider, model, err := Resolve(tt.model)
		if tt.wantErr {
			if !errors.Is(err, core.ErrNoProvider) {
				t.Errorf("Resolve(%q): expected ErrNoProvider, got %v", tt.model, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Resolve(%q): unexpected error %v", tt.model, err)
			continue
		}
		if provider != tt.wantProvider || model != tt.wantModel {
			t.Errorf("Resolve(%q) = (%q, %q), want (%q, %q)",
				tt.model, provider, model, tt.wantProvider, tt.wantModel)
		}
	}
}

type fakeProvider struct {
	name      string
	lastModel string
	reply     core.Message
	err       error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Chat(_ context.Context, model string, _ []core.Message, _ core.SamplingParams) (core.Message, error) {
	f.lastModel = model
	return f.reply, f.err
}

func TestRouter_StrictWhenProviderMissing(t *testing.T) {
	router := NewRouterWithProviders(&fakeProvider{name: ProviderOpenAI})

	_, _, _, err := router.Route(context.Background(), "openrouter/some/model",
		[]core.Message{core.User("hi")}, core.DefaultSampling())
	if !errors.Is(err, core.ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider, got %v", err)
	}
}

func TestRouter_RoutesAndStripsPrefix(t *testing.T) {
	fake := &fakeProvider{
		name:  ProviderOpenRouter,
		reply: core.Assistant("routed"),
	}
	router := NewRouterWithProviders(fake)

	reply, resolvedModel, providerName, err := router.Route(context.Background(),
		"openrouter/mistralai/mistral-nemo", []core.Message{core.User("hi")}, core.DefaultSampling())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Content != "routed" {
		t.Errorf("got reply %q", reply.Content)
	}
	if resolvedModel != "mistralai/mistral-nemo" {
		t.Errorf("got resolved model %q", resolvedModel)
	}
	if providerName != ProviderOpenRouter {
		t.Errorf("got provider %q", providerName)
	}
	if fake.lastModel != "mistralai/mistral-nemo" {
		t.Errorf("provider received model %q, prefix not stripped", fake.lastModel)
	}
}

func TestRouter_PropagatesProviderError(t *testing.T) {
	fake := &fakeProvider{
		name: ProviderXAI,
		err:  &core.InBandError{Provider: ProviderXAI, Message: "overloaded"},
	}
	router := NewRouterWithProviders(fake)

	_, _, _, err := router.Route(context.Background(), "grok-3",
		[]core.Message{core.User("hi")}, core.DefaultSampling())
	var inband *core.InBandError
	if !errors.As(err, &inband) {
		t.Fatalf("expected InBandError, got %T: %v", err, err)
	}
}
