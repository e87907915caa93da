package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/velvetcove/amora/internal/config"
	"github.com/velvetcove/amora/internal/core"
	"github.com/velvetcove/amora/pkg/log"
)

const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderXAI        = "xai"
)

type ChatProvider interface {
	Name() string
	Chat(ctx context.Context, model string, msgs []core.Message, params core.SamplingParams) (core.Message, error)
}

// Router selects a provider deterministically from the model name. The
// policy is strict: an unmapped or unconfigured model fails with
// core.ErrNoProvider, there is no silent fallback.
type Router struct {
	providers map[string]ChatProvider
}

// NewRouter registers one client per configured API key. Missing keys just
// shrink the routable set; they never fail startup.
func NewRouter(ctx context.Context, cfg *config.ProvidersConfig, timeout time.Duration) *Router {
	r := &Router{providers: make(map[string]ChatProvider)}

	if cfg.OpenAIAPIKey != "" {
		r.providers[ProviderOpenAI] = NewOpenAI(cfg.OpenAIAPIKey, timeout)
	}
	if cfg.OpenRouterAPIKey != "" {
		r.providers[ProviderOpenRouter] = NewOpenRouter(cfg.OpenRouterAPIKey, timeout)
	}
	if cfg.XAIAPIKey != "" {
		r.providers[ProviderXAI] = NewXAI(cfg.XAIAPIKey, timeout)
	}

	log.FromCtx(ctx).Info().
		Strs("providers", r.Providers()).
		Msg("llm router initialized")

	return r
}

// NewRouterWithProviders wires pre-built clients, used by tests.
func NewRouterWithProviders(providers ...ChatProvider) *Router {
	r := &Router{providers: make(map[string]ChatProvider)}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

func (r *Router) Providers() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve maps a model name to (provider name, provider-local model name).
func Resolve(model string) (string, string, error) {
	switch {
	case strings.HasPrefix(model, "openrouter/"):
		return ProviderOpenRouter, strings.TrimPrefix(model, "openrouter/"), nil
	case strings.HasPrefix(model, "grok"):
		return ProviderXAI, model, nil
	case strings.HasPrefix(model, "gpt-"), strings.HasPrefix(model, "o1"),
		strings.HasPrefix(model, "o3"), strings.HasPrefix(model, "chatgpt"):
		return ProviderOpenAI, model, nil
	default:
		return "", "", fmt.Errorf("%w: %q matches no provider convention", core.ErrNoProvider, model)
	}
}

// Route dispatches msgs to the provider serving model and returns the reply
// together with the resolved model and provider names.
func (r *Router) Route(ctx context.Context, model string, msgs []core.Message, params core.SamplingParams) (core.Message, string, string, error) {
	providerName, resolvedModel, err := Resolve(model)
	if err != nil {
		return core.Message{}, "", "", err
	}

	provider, ok := r.providers[providerName]
	if !ok {
		return core.Message{}, "", "", fmt.Errorf("%w: %q needs provider %s which has no API key", core.ErrNoProvider, model, providerName)
	}

	reply, err := provider.Chat(ctx, resolvedModel, msgs, params)
	if err != nil {
		return core.Message{}, "", "", err
	}
	return reply, resolvedModel, providerName, nil
}
