package classifier

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/upb/lingflow/services"
	"github.com/upb/lingflow/services/retry"
	"go.uber.org/zap"
)

// DefaultLogSize is the number of classified errors kept in memory
const DefaultLogSize = 50

// User-facing messages, one per kind
const (
	MessageRateLimited     = "Too many requests. Please wait a moment and try again."
	MessageUnauthorized    = "Invalid API key. Please check your settings and ensure your API key is correct."
	MessageQuotaExceeded   = "API quota exceeded. Please check your API account billing and limits."
	MessageNetworkError    = "Network error. Please check your internet connection and try again."
	MessageTimeout         = "Request timed out. Please try again with a shorter text."
	MessagePayloadTooLarge = "Text is too long. Please try with a shorter text."
)

// ClassifiedError is a raw failure mapped to a stable kind and user message
type ClassifiedError struct {
	Kind        services.ErrorType `json:"kind"`
	RawMessage  string             `json:"raw_message"`
	UserMessage string             `json:"user_message"`
	Context     string             `json:"context"`
	Timestamp   time.Time          `json:"timestamp"`
}

// DomainError converts the classification into the error returned to callers.
// Only the user message is exposed; the raw cause stays reachable through Unwrap.
func (c ClassifiedError) DomainError(cause error) *services.DomainError {
	return services.NewDomainError(c.Kind, c.UserMessage, cause).
		WithDetail("context", c.Context)
}

type rule struct {
	kind     services.ErrorType
	status   int
	keywords []string
	message  string
}

// first match wins
var rules = []rule{
	{kind: services.ErrorTypeRateLimited, status: http.StatusTooManyRequests, keywords: []string{"rate limit"}, message: MessageRateLimited},
	{kind: services.ErrorTypeUnauthorized, status: http.StatusUnauthorized, keywords: []string{"api key", "unauthorized"}, message: MessageUnauthorized},
	{kind: services.ErrorTypeQuotaExceeded, status: http.StatusPaymentRequired, keywords: []string{"quota", "billing"}, message: MessageQuotaExceeded},
	{kind: services.ErrorTypeNetwork, keywords: []string{"network", "fetch"}, message: MessageNetworkError},
	{kind: services.ErrorTypeTimeout, keywords: []string{"timeout"}, message: MessageTimeout},
	{kind: services.ErrorTypePayloadTooLarge, keywords: []string{"too large", "max tokens"}, message: MessagePayloadTooLarge},
}

// Classifier maps raw failures to ClassifiedErrors and keeps the most recent ones.
// Safe for concurrent use.
type Classifier struct {
	mu      sync.Mutex
	log     []ClassifiedError // newest first
	maxSize int
	now     func() time.Time
	logger  *zap.Logger
}

// New creates a Classifier with the default log size
func New(logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		log:     make([]ClassifiedError, 0, DefaultLogSize),
		maxSize: DefaultLogSize,
		now:     time.Now,
		logger:  logger,
	}
}

// Classify maps err to a ClassifiedError, records it and returns it.
// context names the operation that failed (e.g. "Translation").
func (c *Classifier) Classify(err error, context string) ClassifiedError {
	raw := ""
	if err != nil {
		raw = Redact(err.Error())
	}
	status := statusOf(err)
	lower := strings.ToLower(raw)

	classified := ClassifiedError{
		Kind:        services.ErrorTypeUnknown,
		RawMessage:  raw,
		UserMessage: "Error: " + raw + ". Please try again.",
		Context:     context,
		Timestamp:   c.now(),
	}
	for _, r := range rules {
		if r.matches(status, lower) {
			classified.Kind = r.kind
			classified.UserMessage = r.message
			break
		}
	}

	c.record(classified)

	c.logger.Error("request failed",
		zap.String("context", context),
		zap.String("kind", string(classified.Kind)),
		zap.Int("status", status),
		zap.String("error", raw))

	return classified
}

// Log returns a snapshot of recorded errors, newest first
func (c *Classifier) Log() []ClassifiedError {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]ClassifiedError, len(c.log))
	copy(out, c.log)
	return out
}

// ClearLog drops all recorded errors
func (c *Classifier) ClearLog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = c.log[:0]
}

func (c *Classifier) record(e ClassifiedError) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.log = append([]ClassifiedError{e}, c.log...)
	if len(c.log) > c.maxSize {
		c.log = c.log[:c.maxSize]
	}
}

func (r rule) matches(status int, lowerMessage string) bool {
	if r.status != 0 && status == r.status {
		return true
	}
	for _, kw := range r.keywords {
		if strings.Contains(lowerMessage, kw) {
			return true
		}
	}
	return false
}

func statusOf(err error) int {
	var sc retry.StatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatus()
	}
	return 0
}
