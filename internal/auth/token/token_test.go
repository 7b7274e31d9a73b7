package token

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlibekovAA/authify/backend/internal/common/clock"
	commonerrors "github.com/AlibekovAA/authify/backend/internal/common/errors"
	"github.com/AlibekovAA/authify/backend/internal/common/logger"
)

const testSecret = "test-secret-key-must-be-at-least-32-bytes-long"

var issuedAt = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *clock.MockClock) {
	t.Helper()
	mockClock := clock.NewMockClock(issuedAt)
	return New(Config{Secret: testSecret, TTL: time.Hour, Clock: mockClock}, nil), mockClock
}

func aliceClaims() Claims {
	return Claims{Subject: "user-123", Username: "alice", Email: "alice@example.com"}
}

func TestService_IssueAndVerify(t *testing.T) {
	svc, _ := newTestService(t)

	tok, err := svc.Issue(aliceClaims())
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	got, err := svc.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", got.Subject)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.True(t, got.IssuedAt.Equal(issuedAt))
	assert.True(t, got.ExpiresAt.Equal(issuedAt.Add(time.Hour)))
}

func TestService_IssueRequiresSubject(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Issue(Claims{Username: "alice", Email: "alice@example.com"})
	assert.Error(t, err)
}

func TestService_Expiry(t *testing.T) {
	svc, mockClock := newTestService(t)

	tok, err := svc.Issue(aliceClaims())
	require.NoError(t, err)

	mockClock.Advance(59 * time.Minute)
	_, err = svc.Verify(tok)
	require.NoError(t, err)

	mockClock.Advance(time.Minute + time.Second)
	_, err = svc.Verify(tok)
	require.ErrorIs(t, err, commonerrors.ErrInvalidToken)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestService_Verify_Rejects(t *testing.T) {
	svc, _ := newTestService(t)
	valid, err := svc.Issue(aliceClaims())
	require.NoError(t, err)

	foreign := New(Config{Secret: "another-secret-key-that-is-also-32-bytes", Clock: clock.NewMockClock(issuedAt)}, nil)
	foreignToken, err := foreign.Issue(aliceClaims())
	require.NoError(t, err)

	claims := sessionClaims{
		Username: "alice",
		Email:    "alice@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
		},
	}

	hs384, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry := claims
	noExpiry.ExpiresAt = nil
	withoutExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, noExpiry).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noSubject := claims
	noSubject.Subject = ""
	withoutSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, noSubject).SignedString([]byte(testSecret))
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	tests := map[string]string{
		"empty":             "",
		"garbage":           "not-a-token",
		"foreign signature": foreignToken,
		"tampered payload":  tampered,
		"other hmac alg":    hs384,
		"alg none":          none,
		"missing exp":       withoutExp,
		"missing subject":   withoutSub,
	}

	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Verify(tok)
			require.Error(t, err)
			assert.ErrorIs(t, err, commonerrors.ErrInvalidToken)
		})
	}
}

func TestNew_DefaultSecretIsFlagged(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "test", "DEBUG")

	svc := New(Config{Clock: clock.NewMockClock(issuedAt)}, log)

	assert.True(t, svc.UsesDefaultSecret())
	assert.Equal(t, time.Hour, svc.TTL())
	assert.Contains(t, buf.String(), "action=token_default_secret")

	tok, err := svc.Issue(aliceClaims())
	require.NoError(t, err)

	explicit := New(Config{Secret: "jwtsecret", Clock: clock.NewMockClock(issuedAt)}, nil)
	_, err = explicit.Verify(tok)
	assert.NoError(t, err)
	assert.True(t, explicit.UsesDefaultSecret())

	configured, _ := newTestService(t)
	assert.False(t, configured.UsesDefaultSecret())
}
