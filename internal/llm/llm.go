// Package llm wraps the text-generation providers behind one interface.
package llm

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"FinanceDesk/internal/config"
	"FinanceDesk/internal/model"
)

// Provider names accepted by New.
const (
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
)

// ErrNoAPIKey is returned by Generate when the provider key is not configured.
var ErrNoAPIKey = errors.New("llm api key not configured")

// Message is one prior conversation turn sent with a request.
type Message struct {
	Role    model.Role
	Content string
}

// Request is a single completion request.
type Request struct {
	System    string
	Messages  []Message
	MaxTokens int
}

// Prompt builds a request with one user message.
func Prompt(system, user string, maxTokens int) *Request {
	return &Request{
		System:    system,
		Messages:  []Message{{Role: model.RoleUser, Content: user}},
		MaxTokens: maxTokens,
	}
}

// Generator produces text for a request.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req *Request) (string, error)
}

// New returns the configured provider. A missing key is reported by Generate
// so the rest of the service can still start.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Generator, error) {
	logger = logger.With(zap.String("component", "llm"))
	switch cfg.LLM.Provider {
	case ProviderClaude:
		logger.Info("llm provider initialised", zap.String("provider", ProviderClaude), zap.String("model", cfg.LLM.Model))
		return NewClaude(cfg.LLM.AnthropicKey, cfg.LLM.Model), nil
	case ProviderGemini:
		g, err := NewGemini(ctx, cfg.LLM.GeminiKey, cfg.LLM.Model)
		if err != nil {
			return nil, err
		}
		logger.Info("llm provider initialised", zap.String("provider", ProviderGemini), zap.String("model", cfg.LLM.Model))
		return g, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}
