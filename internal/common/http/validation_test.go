package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "github.com/AlibekovAA/authify/backend/internal/common/errors"
)

type sampleRequest struct {
	Email           string  `json:"email" validate:"required,email"`
	CurrentPassword string  `json:"currentPassword" validate:"required,min=8,maxbytes=12"`
	Nickname        *string `json:"nickname" validate:"omitnil,max=5"`
}

func decodeBody(t *testing.T, body string) (sampleRequest, error) {
	t.Helper()
	var dst sampleRequest
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	return dst, DecodeAndValidate(req, &dst)
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		code    string
		message string
	}{
		{name: "valid", body: `{"email":"a@b.co","currentPassword":"12345678"}`},
		{name: "missing email", body: `{"currentPassword":"12345678"}`, code: "VALIDATION_FAILED", message: "Email is required"},
		{name: "bad email", body: `{"email":"x","currentPassword":"12345678"}`, code: "VALIDATION_FAILED", message: "Invalid email address format"},
		{name: "short password", body: `{"email":"a@b.co","currentPassword":"1"}`, code: "VALIDATION_FAILED", message: "Current password must be at least 8 characters long"},
		{name: "multibyte password over byte limit", body: `{"email":"a@b.co","currentPassword":"éééééééé"}`, code: "VALIDATION_FAILED", message: "Current password must be at most 12 bytes long"},
		{name: "password at byte limit", body: `{"email":"a@b.co","currentPassword":"123456789012"}`},
		{name: "long nickname", body: `{"email":"a@b.co","currentPassword":"12345678","nickname":"toolong"}`, code: "VALIDATION_FAILED", message: "Nickname must be at most 5 characters long"},
		{name: "unknown field", body: `{"email":"a@b.co","currentPassword":"12345678","role":"admin"}`, code: CodeInvalidJSON, message: "invalid request body"},
		{name: "trailing data", body: `{"email":"a@b.co","currentPassword":"12345678"}{}`, code: CodeInvalidJSON, message: "invalid request body"},
		{name: "not json", body: `email=a`, code: CodeInvalidJSON, message: "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeBody(t, tt.body)
			if tt.code == "" {
				require.NoError(t, err)
				return
			}
			de, ok := commonerrors.AsDomainError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, de.Code())
			assert.Equal(t, tt.message, de.Message())
			assert.Equal(t, http.StatusBadRequest, de.HTTPStatus())
		})
	}
}

func TestDecodeAndValidate_ValidationMatchesSentinel(t *testing.T) {
	_, err := decodeBody(t, `{"email":"x","currentPassword":"12345678"}`)
	assert.ErrorIs(t, err, commonerrors.ErrValidation)
}

func TestDecodeAndValidate_TooLarge(t *testing.T) {
	rec := httptest.NewRecorder()
	body := `{"email":"` + strings.Repeat("a", 64) + `@b.co","currentPassword":"12345678"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.ContentLength = -1
	req.Body = http.MaxBytesReader(rec, req.Body, 16)

	var dst sampleRequest
	err := DecodeAndValidate(req, &dst)
	de, ok := commonerrors.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusRequestEntityTooLarge, de.HTTPStatus())
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Password", humanize("password"))
	assert.Equal(t, "New password", humanize("newPassword"))
	assert.Equal(t, "", humanize(""))
}
