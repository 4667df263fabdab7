package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator("test-secret", "lingflow-test")
	require.NoError(t, err)
	return v
}

func TestNewValidator_RequiresSecret(t *testing.T) {
	_, err := NewValidator("", "x")
	assert.ErrorIs(t, err, ErrMissingSecret)

	v, err := NewValidator("s", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultIssuer, v.issuer)
}

func TestValidator_IssueAndValidate(t *testing.T) {
	v := newTestValidator(t)

	token, err := v.IssueToken("extension", time.Hour)
	require.NoError(t, err)

	principal, err := v.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "extension", principal.Subject)
	assert.NotEmpty(t, principal.TokenID)
	assert.WithinDuration(t, principal.IssuedAt.Add(time.Hour), principal.ExpiresAt, time.Second)
}

func TestValidator_ExpiredToken(t *testing.T) {
	v := newTestValidator(t)
	v.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := v.IssueToken("extension", time.Hour)
	require.NoError(t, err)

	v.now = time.Now
	_, err = v.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidator_Rejections(t *testing.T) {
	v := newTestValidator(t)
	now := time.Now()

	sign := func(method jwt.SigningMethod, key interface{}, claims jwt.RegisteredClaims) string {
		s, err := jwt.NewWithClaims(method, Claims{RegisteredClaims: claims}).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := jwt.RegisteredClaims{
		Subject:   "cli",
		Issuer:    "lingflow-test",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{
			name:    "garbage",
			token:   "not-a-token",
			wantErr: ErrInvalidToken,
		},
		{
			name:    "wrong secret",
			token:   sign(jwt.SigningMethodHS256, []byte("other"), valid),
			wantErr: ErrInvalidToken,
		},
		{
			name: "wrong issuer",
			token: sign(jwt.SigningMethodHS256, []byte("test-secret"), jwt.RegisteredClaims{
				Subject: "cli", Issuer: "someone-else", ExpiresAt: valid.ExpiresAt,
			}),
			wantErr: ErrInvalidIssuer,
		},
		{
			name: "no expiry",
			token: sign(jwt.SigningMethodHS256, []byte("test-secret"), jwt.RegisteredClaims{
				Subject: "cli", Issuer: "lingflow-test",
			}),
			wantErr: ErrInvalidToken,
		},
		{
			name: "no subject",
			token: sign(jwt.SigningMethodHS256, []byte("test-secret"), jwt.RegisteredClaims{
				Issuer: "lingflow-test", ExpiresAt: valid.ExpiresAt,
			}),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "unsigned",
			token:   sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid),
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.ValidateToken(context.Background(), tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidator_IssueTokenArguments(t *testing.T) {
	v := newTestValidator(t)

	_, err := v.IssueToken("", time.Hour)
	assert.Error(t, err)

	_, err = v.IssueToken("cli", 0)
	assert.Error(t, err)
}
