package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/velvetcove/amora/internal/core"
	"github.com/velvetcove/amora/pkg/retry"
)

// OpenAICompatible speaks the /v1/chat/completions dialect shared by every
// provider we route to. Transient transport failures are retried exactly
// once; 4xx responses and in-band errors never are.
type OpenAICompatible struct {
	baseProvider
	name         string
	authHeader   string
	authPrefix   string
	extraHeaders map[string]string
	retrier      *retry.Retrier
}

type OpenAICompatibleConfig struct {
	Name         string
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	AuthHeader   string // e.g., "Authorization"
	AuthPrefix   string // e.g., "Bearer "
	ExtraHeaders map[string]string
}

func NewOpenAICompatible(cfg OpenAICompatibleConfig) *OpenAICompatible {
	return &OpenAICompatible{
		baseProvider: newBaseProvider(cfg.BaseURL, cfg.APIKey, cfg.Timeout),
		name:         cfg.Name,
		authHeader:   cfg.AuthHeader,
		authPrefix:   cfg.AuthPrefix,
		extraHeaders: cfg.ExtraHeaders,
		retrier:      retry.NewRetrier(retry.NewTransportConfig()),
	}
}

func (o *OpenAICompatible) Name() string {
	return o.name
}

func (o *OpenAICompatible) Chat(ctx context.Context, model string, msgs []core.Message, params core.SamplingParams) (core.Message, error) {
	payload := map[string]any{
		"model":       model,
		"messages":    msgs,
		"max_tokens":  params.MaxTokens,
		"temperature": params.Temperature,
		"top_p":       params.TopP,
	}

	headers := map[string]string{
		"User-Agent": core.AmoraUserAgent,
	}
	if o.authHeader != "" && o.apiKey != "" {
		headers[o.authHeader] = o.authPrefix + o.apiKey
	}
	for k, v := range o.extraHeaders {
		headers[k] = v
	}

	var reply core.Message
	err := o.retrier.Do(ctx, func() error {
		resp, err := o.doRequest(ctx, http.MethodPost, "/v1/chat/completions", payload, headers)
		if err != nil {
			return &core.TransportError{Provider: o.name, Err: err}
		}
		defer resp.Body.Close()

		reply, err = o.parseResponse(resp)
		return err
	})
	if err != nil {
		return core.Message{}, err
	}
	return reply, nil
}

func (o *OpenAICompatible) parseResponse(resp *http.Response) (core.Message, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.Message{}, &core.TransportError{Provider: o.name, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode >= 500 {
		return core.Message{}, &core.TransportError{
			Provider: o.name,
			Err:      fmt.Errorf("http %d: %s", resp.StatusCode, truncateBody(data)),
		}
	}
	if resp.StatusCode != http.StatusOK {
		// Client errors are never retried.
		return core.Message{}, retry.Permanent(&core.HTTPError{
			Provider:   o.name,
			StatusCode: resp.StatusCode,
			Body:       truncateBody(data),
		})
	}

	var result struct {
		Error *struct {
			Code    json.RawMessage `json:"code"`
			Message string          `json:"message"`
		} `json:"error"`
		Choices []struct {
			Message core.Message `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return core.Message{}, retry.Permanent(fmt.Errorf("%s: decode: %w", o.name, err))
	}

	// Some providers return HTTP 200 with an error object in the body.
	// That is a hard failure, not an empty success.
	if result.Error != nil {
		return core.Message{}, retry.Permanent(&core.InBandError{
			Provider: o.name,
			Code:     string(result.Error.Code),
			Message:  result.Error.Message,
		})
	}

	// Missing or empty content degrades to an empty assistant message; the
	// pipeline decides what to do with it.
	if len(result.Choices) == 0 {
		return core.Message{Role: core.RoleAssistant}, nil
	}
	return result.Choices[0].Message, nil
}

func truncateBody(data []byte) string {
	const maxLen = 512
	if len(data) <= maxLen {
		return string(data)
	}
	return string(data[:maxLen]) + "..."
}
