package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/upb/lingflow/services/providers"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.0-flash"

	// defaultTopK applies when the request leaves TopK unset
	defaultTopK = 40
)

// Adapter implements providers.VisionProvider for the Gemini generateContent API
type Adapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
}

// NewAdapter creates a new Gemini adapter
func NewAdapter(config providers.ProviderConfig) *Adapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	return &Adapter{
		config:     config,
		httpClient: config.Client(),
	}
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return string(providers.KindGemini)
}

// Complete sends a text-only prompt
func (a *Adapter) Complete(ctx context.Context, req *providers.CompletionRequest) (string, error) {
	return a.generate(ctx, req, []part{{Text: req.UserPrompt}})
}

// CompleteWithImage sends the prompt followed by one inline image
func (a *Adapter) CompleteWithImage(ctx context.Context, req *providers.CompletionRequest, img providers.Image) (string, error) {
	return a.generate(ctx, req, []part{
		{Text: req.UserPrompt},
		{InlineData: &inlineData{MIMEType: img.MIMEType, Data: img.Data}},
	})
}

func (a *Adapter) generate(ctx context.Context, req *providers.CompletionRequest, parts []part) (string, error) {
	if a.config.APIKey == "" {
		return "", providers.MissingKeyError(a.Name())
	}

	model := req.Model
	if model == "" {
		model = defaultModel
	}

	body := a.buildRequest(req, parts)

	headers := map[string]string{"x-goog-api-key": a.config.APIKey}
	for k, v := range a.config.Headers {
		headers[k] = v
	}

	endpoint := a.config.BaseURL + "/models/" + url.PathEscape(model) + ":generateContent"
	respBody, err := providers.PostJSON(ctx, a.httpClient, a.Name(), endpoint, headers, body)
	if err != nil {
		return "", err
	}

	var resp generateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", providers.NewProviderError(a.Name(), providers.CodeUnmarshal, "failed to unmarshal response", http.StatusOK, err)
	}

	text := resp.text()
	if text == "" {
		msg := "response contained no text"
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			msg = "prompt blocked: " + resp.PromptFeedback.BlockReason
		}
		return "", providers.NewProviderError(a.Name(), providers.CodeEmptyContent, msg, http.StatusOK, nil)
	}

	return strings.TrimSpace(text), nil
}

func (a *Adapter) buildRequest(req *providers.CompletionRequest, parts []part) *generateRequest {
	topK := req.Options.TopK
	if topK == 0 {
		topK = defaultTopK
	}

	body := &generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			Temperature:     req.Options.Temperature,
			MaxOutputTokens: req.Options.MaxTokens,
			TopP:            req.Options.TopP,
			TopK:            topK,
		},
	}
	if req.SystemInstruction != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: req.SystemInstruction}}}
	}
	return body
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
}

type generateRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// text joins the text parts of the first candidate
func (r *generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}
