// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mirrorpanel/server/cliparse"
	"github.com/mirrorpanel/server/models"
)

// Backend identifies a model provider family.
type Backend int

const (
	BackendMock Backend = iota
	BackendOpenAI
	BackendAnthropic
	BackendGemini
)

func (b Backend) String() string {
	switch b {
	case BackendOpenAI:
		return "openai"
	case BackendAnthropic:
		return "anthropic"
	case BackendGemini:
		return "gemini"
	default:
		return "mock"
	}
}

// ResolveBackend maps a free-form model name to a provider family by
// case-insensitive substring match. Unknown names route to the mock
// synthesis path.
func ResolveBackend(model string) Backend {
	m := strings.ToLower(model)
	switch {
	case strings.Contains(m, "openai"), strings.Contains(m, "gpt"):
		return BackendOpenAI
	case strings.Contains(m, "anthropic"), strings.Contains(m, "claude"):
		return BackendAnthropic
	case strings.Contains(m, "gemini"), strings.Contains(m, "google"):
		return BackendGemini
	default:
		return BackendMock
	}
}

var (
	errNoBackend = errors.New("no real backend for model")
	errNoAPIKey  = errors.New("api key not configured")
)

// Gateway sends prompts to model provider backends and always returns a
// usable answer set: provider outages, missing credentials, and
// unparseable responses all degrade to mock synthesis, never to an error.
// Construct one per process and inject it; credentials are immutable
// after New.
type Gateway struct {
	httpClient *http.Client

	openAIKey    string
	anthropicKey string
	geminiKey    string

	// One limiter per provider family. Replication traffic must keep a
	// minimum spacing between calls to the same provider; the mock path
	// is not throttled.
	limiters map[Backend]*rate.Limiter
}

// New builds a Gateway from configuration. A zero ReplicateDelay
// disables throttling.
func New(cfg cliparse.Config) *Gateway {
	limit := rate.Inf
	if cfg.ReplicateDelay > 0 {
		limit = rate.Every(cfg.ReplicateDelay)
	}
	return &Gateway{
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		openAIKey:    cfg.OpenAIAPIKey,
		anthropicKey: cfg.AnthropicAPIKey,
		geminiKey:    cfg.GeminiAPIKey,
		limiters: map[Backend]*rate.Limiter{
			BackendOpenAI:    rate.NewLimiter(limit, 1),
			BackendAnthropic: rate.NewLimiter(limit, 1),
			BackendGemini:    rate.NewLimiter(limit, 1),
		},
	}
}

// Generate sends the prompt to the backend resolved from the model name
// and returns a structured answer set. The returned set is never empty:
// any failure along the way synthesizes answers instead.
func (g *Gateway) Generate(ctx context.Context, model, prompt string) models.StructuredAnswerSet {
	backend := ResolveBackend(model)

	raw, err := g.call(ctx, backend, model, prompt)
	if err != nil {
		if !errors.Is(err, errNoBackend) {
			slog.Warn("model backend unavailable, synthesizing answers",
				"model", model, "backend", backend.String(), "error", err)
		}
		return MockAnswerSet(backend, prompt)
	}

	set, err := ExtractAnswerSet(raw)
	if err != nil {
		slog.Warn("unparseable model response, synthesizing answers",
			"model", model, "backend", backend.String(), "error", err)
		return MockAnswerSet(backend, prompt)
	}

	return set
}

// call dispatches to the provider client for the backend family. The
// returned string is the provider's raw completion text.
func (g *Gateway) call(ctx context.Context, backend Backend, model, prompt string) (string, error) {
	switch backend {
	case BackendOpenAI:
		if g.openAIKey == "" {
			return "", errNoAPIKey
		}
		if err := g.wait(ctx, backend); err != nil {
			return "", err
		}
		return g.callOpenAI(ctx, model, prompt)
	case BackendAnthropic:
		if g.anthropicKey == "" {
			return "", errNoAPIKey
		}
		if err := g.wait(ctx, backend); err != nil {
			return "", err
		}
		return g.callAnthropic(ctx, model, prompt)
	case BackendGemini:
		if g.geminiKey == "" {
			return "", errNoAPIKey
		}
		if err := g.wait(ctx, backend); err != nil {
			return "", err
		}
		return g.callGemini(ctx, model, prompt)
	default:
		return "", errNoBackend
	}
}

func (g *Gateway) wait(ctx context.Context, backend Backend) error {
	limiter, ok := g.limiters[backend]
	if !ok {
		return nil
	}
	return limiter.Wait(ctx)
}

// providerModel converts a family label ("OpenAI", "Claude") into a
// concrete provider model ID, passing through names that already look
// like one.
func providerModel(backend Backend, model string) string {
	m := strings.ToLower(model)
	switch backend {
	case BackendOpenAI:
		if strings.HasPrefix(m, "gpt-") || strings.HasPrefix(m, "o1") || strings.HasPrefix(m, "o3") {
			return m
		}
		return "gpt-4o-mini"
	case BackendAnthropic:
		if strings.HasPrefix(m, "claude-") {
			return m
		}
		return "claude-3-5-sonnet-20240620"
	case BackendGemini:
		if strings.HasPrefix(m, "gemini-") {
			return m
		}
		return "gemini-1.5-flash"
	default:
		return m
	}
}
