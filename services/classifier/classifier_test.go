package classifier

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/lingflow/services"
	"go.uber.org/zap"
)

type statusErr struct {
	status int
	msg    string
}

func (e *statusErr) Error() string   { return e.msg }
func (e *statusErr) HTTPStatus() int { return e.status }

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantKind    services.ErrorType
		wantMessage string
	}{
		{
			name:        "rate limit message without status",
			err:         errors.New("Rate limit exceeded"),
			wantKind:    services.ErrorTypeRateLimited,
			wantMessage: MessageRateLimited,
		},
		{
			name:        "status 429",
			err:         &statusErr{status: 429, msg: "slow down"},
			wantKind:    services.ErrorTypeRateLimited,
			wantMessage: MessageRateLimited,
		},
		{
			name:        "status 401",
			err:         &statusErr{status: 401, msg: "nope"},
			wantKind:    services.ErrorTypeUnauthorized,
			wantMessage: MessageUnauthorized,
		},
		{
			name:        "api key mention",
			err:         errors.New("Incorrect API key provided"),
			wantKind:    services.ErrorTypeUnauthorized,
			wantMessage: MessageUnauthorized,
		},
		{
			name:        "status 402 with any message",
			err:         &statusErr{status: 402, msg: "whatever"},
			wantKind:    services.ErrorTypeQuotaExceeded,
			wantMessage: MessageQuotaExceeded,
		},
		{
			name:        "billing mention",
			err:         errors.New("Check your Billing details"),
			wantKind:    services.ErrorTypeQuotaExceeded,
			wantMessage: MessageQuotaExceeded,
		},
		{
			name:        "network",
			err:         errors.New("network error: dial tcp: connection refused"),
			wantKind:    services.ErrorTypeNetwork,
			wantMessage: MessageNetworkError,
		},
		{
			name:        "failed to fetch",
			err:         errors.New("Failed to fetch"),
			wantKind:    services.ErrorTypeNetwork,
			wantMessage: MessageNetworkError,
		},
		{
			name:        "request timeout",
			err:         errors.New("request timeout"),
			wantKind:    services.ErrorTypeTimeout,
			wantMessage: MessageTimeout,
		},
		{
			name:        "too large",
			err:         errors.New("Payload Too Large"),
			wantKind:    services.ErrorTypePayloadTooLarge,
			wantMessage: MessagePayloadTooLarge,
		},
		{
			name:        "max tokens",
			err:         errors.New("exceeds max tokens"),
			wantKind:    services.ErrorTypePayloadTooLarge,
			wantMessage: MessagePayloadTooLarge,
		},
		{
			name:        "unknown",
			err:         errors.New("model overloaded"),
			wantKind:    services.ErrorTypeUnknown,
			wantMessage: "Error: model overloaded. Please try again.",
		},
		{
			name:        "rate limit wins over api key",
			err:         errors.New("rate limit reached for api key"),
			wantKind:    services.ErrorTypeRateLimited,
			wantMessage: MessageRateLimited,
		},
		{
			name:        "wrapped status error",
			err:         fmt.Errorf("call failed: %w", &statusErr{status: 402, msg: "x"}),
			wantKind:    services.ErrorTypeQuotaExceeded,
			wantMessage: MessageQuotaExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(zap.NewNop())

			got := c.Classify(tt.err, "Translation")

			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantMessage, got.UserMessage)
			assert.Equal(t, tt.err.Error(), got.RawMessage)
			assert.Equal(t, "Translation", got.Context)
			assert.False(t, got.Timestamp.IsZero())
		})
	}
}

func TestClassifier_LogIsNewestFirstAndBounded(t *testing.T) {
	c := New(zap.NewNop())

	for i := 0; i < DefaultLogSize+10; i++ {
		c.Classify(fmt.Errorf("failure %d", i), "Translation")
	}

	log := c.Log()
	require.Len(t, log, DefaultLogSize)
	assert.Equal(t, fmt.Sprintf("failure %d", DefaultLogSize+9), log[0].RawMessage)
	assert.Equal(t, "failure 10", log[DefaultLogSize-1].RawMessage)
}

func TestClassifier_LogSnapshotIsCopy(t *testing.T) {
	c := New(nil)
	c.Classify(errors.New("one"), "Translation")

	snapshot := c.Log()
	snapshot[0].RawMessage = "mutated"

	assert.Equal(t, "one", c.Log()[0].RawMessage)
}

func TestClassifier_ClearLog(t *testing.T) {
	c := New(zap.NewNop())
	c.Classify(errors.New("one"), "Translation")
	c.Classify(errors.New("two"), "Text Correction")

	c.ClearLog()

	assert.Empty(t, c.Log())
}

func TestClassifiedError_DomainError(t *testing.T) {
	c := New(zap.NewNop())
	cause := &statusErr{status: 429, msg: "upstream said {\"error\":\"secret\"}"}

	domainErr := c.Classify(cause, "Translation").DomainError(cause)

	assert.Equal(t, MessageRateLimited, domainErr.Error())
	assert.True(t, services.IsRateLimitedError(domainErr))
	assert.ErrorIs(t, domainErr, cause)
	assert.Equal(t, "Translation", domainErr.Details["context"])
}

func TestClassifier_ConcurrentClassify(t *testing.T) {
	c := New(zap.NewNop())
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				c.Classify(fmt.Errorf("err %d-%d", n, j), "Translation")
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, c.Log(), DefaultLogSize)
}
