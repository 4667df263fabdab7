package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/upb/lingflow/services/providers"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
)

// VisionChecker reports whether a model accepts images
type VisionChecker interface {
	SupportsVision(kind providers.Kind, model string) bool
}

// OpenAIAdapter implements providers.VisionProvider for OpenAI-style chat completions
type OpenAIAdapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
	vision     VisionChecker
}

// NewOpenAIAdapter creates a new OpenAI adapter. vision may be nil, in which case
// every image request uses the fallback vision model.
func NewOpenAIAdapter(config providers.ProviderConfig, vision VisionChecker) *OpenAIAdapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	return &OpenAIAdapter{
		config:     config,
		httpClient: config.Client(),
		vision:     vision,
	}
}

// Name returns the provider name
func (a *OpenAIAdapter) Name() string {
	return string(providers.KindOpenAI)
}

// Complete performs a text-only chat completion
func (a *OpenAIAdapter) Complete(ctx context.Context, req *providers.CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = providers.VisionFallbackModel
	}

	openaiReq := a.buildRequest(model, req, []OpenAIMessage{
		{Role: "system", Content: req.SystemInstruction},
		{Role: "user", Content: req.UserPrompt},
	})
	return a.send(ctx, openaiReq)
}

// CompleteWithImage sends the prompt with an inline image as content parts
func (a *OpenAIAdapter) CompleteWithImage(ctx context.Context, req *providers.CompletionRequest, img providers.Image) (string, error) {
	model := req.Model
	if model == "" || a.vision == nil || !a.vision.SupportsVision(providers.KindOpenAI, model) {
		model = providers.VisionFallbackModel
	}

	openaiReq := a.buildRequest(model, req, []OpenAIMessage{
		{Role: "system", Content: req.SystemInstruction},
		{Role: "user", Content: []OpenAIContentPart{
			{Type: "text", Text: req.UserPrompt},
			{Type: "image_url", ImageURL: &OpenAIImageURL{URL: img.DataURL()}},
		}},
	})
	return a.send(ctx, openaiReq)
}

func (a *OpenAIAdapter) send(ctx context.Context, openaiReq *OpenAIChatRequest) (string, error) {
	if a.config.APIKey == "" {
		return "", providers.MissingKeyError(a.Name())
	}

	headers := map[string]string{"Authorization": "Bearer " + a.config.APIKey}
	for k, v := range a.config.Headers {
		headers[k] = v
	}

	respBody, err := providers.PostJSON(ctx, a.httpClient, a.Name(), a.config.BaseURL+"/chat/completions", headers, openaiReq)
	if err != nil {
		return "", err
	}

	var openaiResp OpenAIChatResponse
	if err := json.Unmarshal(respBody, &openaiResp); err != nil {
		return "", providers.NewProviderError(a.Name(), providers.CodeUnmarshal, "failed to unmarshal response", http.StatusOK, err)
	}
	if len(openaiResp.Choices) == 0 {
		return "", providers.NewProviderError(a.Name(), providers.CodeEmptyContent, "response contained no choices", http.StatusOK, nil)
	}

	text := strings.TrimSpace(openaiResp.Choices[0].Message.Content)
	if text == "" {
		return "", providers.NewProviderError(a.Name(), providers.CodeEmptyContent, "response contained no text", http.StatusOK, nil)
	}
	return text, nil
}

// buildRequest converts the neutral request to OpenAI format
func (a *OpenAIAdapter) buildRequest(model string, req *providers.CompletionRequest, messages []OpenAIMessage) *OpenAIChatRequest {
	openaiReq := &OpenAIChatRequest{
		Model:    model,
		Messages: messages,
	}

	if req.Options.MaxTokens > 0 {
		openaiReq.MaxTokens = &req.Options.MaxTokens
	}
	if req.Options.Temperature > 0 {
		openaiReq.Temperature = &req.Options.Temperature
	}
	if req.Options.TopP > 0 {
		openaiReq.TopP = &req.Options.TopP
	}

	return openaiReq
}

// OpenAI-specific request/response types

type OpenAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []OpenAIMessage `json:"messages"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	TopP        *float64        `json:"top_p,omitempty"`
}

// OpenAIMessage content is either a string or a list of OpenAIContentPart
type OpenAIMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type OpenAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *OpenAIImageURL `json:"image_url,omitempty"`
}

type OpenAIImageURL struct {
	URL string `json:"url"`
}

type OpenAIChatResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []OpenAIChoice `json:"choices"`
}

type OpenAIChoice struct {
	Index        int                   `json:"index"`
	Message      OpenAIResponseMessage `json:"message"`
	FinishReason string                `json:"finish_reason"`
}

type OpenAIResponseMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
