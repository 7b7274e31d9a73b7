package jwtverify

import (
	"context"
	"net/http"
	"strings"

	"github.com/AlibekovAA/authify/backend/internal/auth/token"
	"github.com/AlibekovAA/authify/backend/internal/common/constants"
	commonhttp "github.com/AlibekovAA/authify/backend/internal/common/http"
	"github.com/AlibekovAA/authify/backend/internal/common/logger"
)

type contextKey string

const claimsKey contextKey = "jwt_claims"

// Middleware authorizes a request from the Authorization: Bearer header or,
// failing that, the accessToken cookie. Verified claims are stored in the
// request context.
func Middleware(verifier token.Verifier, log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, ok := extractToken(r)
			if !ok {
				log.WithFields(ctx, logger.Fields{
					"path":   r.URL.Path,
					"action": "jwt_missing",
				}).Warn("jwt auth failed: missing token")
				commonhttp.WriteErrorEnvelope(w, http.StatusUnauthorized, commonhttp.CodeMissingAuthorization, "missing or invalid authorization", nil, commonhttp.TraceIDFromContext(ctx))
				return
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				log.WithFields(ctx, logger.Fields{
					"path":   r.URL.Path,
					"action": "jwt_invalid",
				}).Warnf("jwt auth failed: %v", err)
				commonhttp.WriteErrorEnvelope(w, http.StatusUnauthorized, commonhttp.CodeInvalidToken, "invalid token", nil, commonhttp.TraceIDFromContext(ctx))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
		})
	}
}

func WithClaims(ctx context.Context, claims token.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func FromContext(ctx context.Context) (token.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(token.Claims)
	return claims, ok
}

func extractToken(r *http.Request) (string, bool) {
	if raw := r.Header.Get("Authorization"); raw != "" {
		scheme, value, found := strings.Cut(raw, " ")
		if found && strings.EqualFold(scheme, "Bearer") && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value), true
		}
		return "", false
	}

	cookie, err := r.Cookie(constants.AccessTokenCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
