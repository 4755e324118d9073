package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/galiihajiip/tulis.in/client/openai"
	"github.com/galiihajiip/tulis.in/logger"
	"github.com/galiihajiip/tulis.in/types"
)

// Compile-time check that Provider implements types.Provider
var _ types.Provider = (*Provider)(nil)

// Client interface for API calls (enables mocking in tests)
type Client interface {
	DoChatCompletion(ctx context.Context, req *openai.ChatRequest) (*openai.ChatResponse, error)
}

// Backend defaults. OpenAI and Groq speak the same chat completions
// format and differ only in endpoint and model.
const (
	OpenAIBaseURL = "https://api.openai.com/v1"
	OpenAIModel   = "gpt-4o-mini"
	GroqBaseURL   = "https://api.groq.com/openai/v1"
	GroqModel     = "llama-3.3-70b-versatile"

	defaultMaxTokens = 4000

	// Sampling temperatures by strictness: high strictness samples
	// conservatively.
	strictTemperature  = 0.3
	defaultTemperature = 0.7
)

// Provider implements types.Provider over a chat completions backend.
// The protected-span instruction it sends is best-effort; the engine
// validates the result afterwards.
type Provider struct {
	Name   string
	Config *types.ProviderConfig
	Client Client
}

// NewOpenAI creates a provider against the OpenAI API. Zero-value
// config fields fall back to backend defaults.
func NewOpenAI(cfg types.ProviderConfig) *Provider {
	return newProvider("openai", cfg, OpenAIBaseURL, OpenAIModel)
}

// NewGroq creates a provider against the Groq API.
func NewGroq(cfg types.ProviderConfig) *Provider {
	return newProvider("groq", cfg, GroqBaseURL, GroqModel)
}

func newProvider(name string, cfg types.ProviderConfig, defaultURL, defaultModel string) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	return &Provider{
		Name:   name,
		Config: &cfg,
		Client: openai.NewClient(cfg.BaseURL, cfg.APIKey, cfg.TimeoutMs),
	}
}

// Rewrite implements types.Provider. An empty or whitespace-only model
// response is treated as "no change" and returns the input text.
func (p *Provider) Rewrite(ctx context.Context, text string, params types.RewriteParams, spans []types.ProtectedSpan) (string, error) {
	req := &openai.ChatRequest{
		Model: p.Config.Model,
		Messages: []openai.Message{
			{Role: "system", Content: BuildSystemPrompt(params, spans)},
			{Role: "user", Content: BuildUserPrompt(text)},
		},
		Temperature: p.temperature(params),
		MaxTokens:   p.Config.MaxTokens,
	}
	p.logRequest(req)

	resp, err := p.Client.DoChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.Name, err)
	}

	var out string
	if len(resp.Choices) > 0 {
		out = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	p.logResponse(resp, out)

	if out == "" {
		logger.Debug("%s provider: empty completion, keeping input unchanged", p.Name)
		return text, nil
	}
	return out, nil
}

// temperature resolves the sampling temperature: an explicit config
// override wins, otherwise strictness decides.
func (p *Provider) temperature(params types.RewriteParams) float64 {
	if p.Config.Temperature > 0 {
		return p.Config.Temperature
	}
	if params.Strictness == types.StrictnessHigh {
		return strictTemperature
	}
	return defaultTemperature
}

func (p *Provider) logRequest(req *openai.ChatRequest) {
	promptLen := 0
	for _, m := range req.Messages {
		promptLen += len(m.Content)
	}
	logger.Debug("%s provider request:\n  URL: %s\n  Model: %s\n  Temperature: %.2f\n  MaxTokens: %d\n  Prompt length: %d chars",
		p.Name,
		p.Config.BaseURL,
		req.Model,
		req.Temperature,
		req.MaxTokens,
		promptLen)
}

func (p *Provider) logResponse(resp *openai.ChatResponse, out string) {
	finishReason := ""
	if len(resp.Choices) > 0 {
		finishReason = resp.Choices[0].FinishReason
	}
	logger.Debug("%s provider response:\n  Text length: %d chars\n  FinishReason: %s\n  TotalTokens: %d",
		p.Name,
		len(out),
		finishReason,
		resp.Usage.TotalTokens)
}
