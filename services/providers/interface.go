package providers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Kind identifies a backend family
type Kind string

const (
	// KindBuiltin is the free tier served through the operator proxy
	KindBuiltin Kind = "builtin"

	// KindOpenAI is the direct OpenAI-style chat API
	KindOpenAI Kind = "openai"

	// KindGemini is the direct Gemini multimodal API
	KindGemini Kind = "gemini"
)

// ErrUnknownKind is returned for provider names that are not supported
var ErrUnknownKind = errors.New("unknown provider")

// ParseKind converts a settings value into a Kind. Empty means builtin.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindBuiltin:
		return KindBuiltin, nil
	case KindOpenAI:
		return KindOpenAI, nil
	case KindGemini:
		return KindGemini, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Provider is a single backend reachable with plain text prompts
type Provider interface {
	// Name returns the provider name (e.g. "builtin", "openai", "gemini")
	Name() string

	// Complete sends one system+user exchange and returns the trimmed reply text
	Complete(ctx context.Context, req *CompletionRequest) (string, error)
}

// VisionProvider is a Provider that also accepts an image alongside the prompt
type VisionProvider interface {
	Provider

	// CompleteWithImage sends the prompt with one inline image
	CompleteWithImage(ctx context.Context, req *CompletionRequest, img Image) (string, error)
}

// Options are the generation parameters of a request. Zero values are omitted on the wire.
type Options struct {
	Temperature float64
	MaxTokens   int
	TopP        float64
	TopK        int
}

// CompletionRequest is a provider-neutral prompt
type CompletionRequest struct {
	Model             string
	SystemInstruction string
	UserPrompt        string
	Options           Options
}

// DefaultImageMIMEType is used when the caller does not say what the image is
const DefaultImageMIMEType = "image/png"

// Image is a base64 payload without any data URL prefix
type Image struct {
	MIMEType string
	Data     string
}

// DataURL renders the image as a data URL
func (i Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + i.Data
}

// Bytes decodes the payload
func (i Image) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(i.Data)
}

// ParseImage accepts raw base64 or a data URL. Everything up to the first comma is
// treated as the data URL header.
func ParseImage(s string) (Image, error) {
	img := Image{MIMEType: DefaultImageMIMEType, Data: strings.TrimSpace(s)}

	if header, data, found := strings.Cut(img.Data, ","); found {
		img.Data = data
		if strings.HasPrefix(header, "data:") {
			mime := strings.TrimPrefix(header, "data:")
			mime, _, _ = strings.Cut(mime, ";")
			if mime != "" {
				img.MIMEType = mime
			}
		}
	}

	if img.Data == "" {
		return Image{}, errors.New("image payload is empty")
	}
	if _, err := img.Bytes(); err != nil {
		return Image{}, fmt.Errorf("image payload is not valid base64: %w", err)
	}
	return img, nil
}

// ProviderConfig holds common configuration for adapters
type ProviderConfig struct {
	// APIKey for authentication; unused by the builtin proxy
	APIKey string

	// BaseURL for the API (optional override)
	BaseURL string

	// Timeout for requests
	Timeout time.Duration

	// Additional headers
	Headers map[string]string

	// HTTPClient overrides the client built from Timeout
	HTTPClient *http.Client
}

// Client returns the configured HTTP client
func (c ProviderConfig) Client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// DefaultProviderConfig returns a sensible default configuration
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Timeout: 60 * time.Second,
		Headers: make(map[string]string),
	}
}
