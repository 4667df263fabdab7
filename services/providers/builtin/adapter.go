package builtin

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/upb/lingflow/services/providers"
)

const (
	// DefaultEndpoint is the operator proxy that holds the free-tier credential
	DefaultEndpoint = "https://link-flow-proxy.vercel.app/api/chat"
)

// Adapter sends prompts to the free-tier proxy. It carries no credential and
// cannot process images.
type Adapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
}

// NewAdapter creates a new proxy adapter. config.BaseURL is the full chat endpoint.
func NewAdapter(config providers.ProviderConfig) *Adapter {
	if config.BaseURL == "" {
		config.BaseURL = DefaultEndpoint
	}
	return &Adapter{
		config:     config,
		httpClient: config.Client(),
	}
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return string(providers.KindBuiltin)
}

// Complete posts the exchange to the proxy
func (a *Adapter) Complete(ctx context.Context, req *providers.CompletionRequest) (string, error) {
	body := chatRequest{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemInstruction},
			{Role: "user", Content: req.UserPrompt},
		},
		Temperature: req.Options.Temperature,
		MaxTokens:   req.Options.MaxTokens,
	}

	respBody, err := providers.PostJSON(ctx, a.httpClient, a.Name(), a.config.BaseURL, a.config.Headers, body)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", providers.NewProviderError(a.Name(), providers.CodeUnmarshal, "failed to unmarshal response", http.StatusOK, err)
	}
	if len(resp.Choices) == 0 {
		return "", providers.NewProviderError(a.Name(), providers.CodeEmptyContent, "response contained no choices", http.StatusOK, nil)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", providers.NewProviderError(a.Name(), providers.CodeEmptyContent, "response contained no text", http.StatusOK, nil)
	}
	return text, nil
}

// ConfigURL derives the remote configuration endpoint from the chat endpoint
func ConfigURL(chatEndpoint string) string {
	if chatEndpoint == "" {
		chatEndpoint = DefaultEndpoint
	}
	return strings.Replace(chatEndpoint, "/chat", "/config", 1)
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
