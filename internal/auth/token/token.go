package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AlibekovAA/authify/backend/internal/common/clock"
	"github.com/AlibekovAA/authify/backend/internal/common/constants"
	commonerrors "github.com/AlibekovAA/authify/backend/internal/common/errors"
	"github.com/AlibekovAA/authify/backend/internal/common/logger"
	"github.com/AlibekovAA/authify/backend/internal/observability/metrics"
)

// Claims identify the user a session token was issued to.
type Claims struct {
	Subject   string
	Username  string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type Config struct {
	Secret string
	TTL    time.Duration
	Clock  clock.Clock
}

type Issuer interface {
	Issue(claims Claims) (string, error)
}

type Verifier interface {
	Verify(token string) (Claims, error)
}

type Service struct {
	secret        []byte
	ttl           time.Duration
	clock         clock.Clock
	defaultSecret bool
}

type sessionClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// New builds the token service. An empty secret falls back to the built-in
// default, which is logged as a warning and reported by UsesDefaultSecret.
func New(cfg Config, log *logger.Logger) *Service {
	s := &Service{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		clock:  cfg.Clock,
	}

	if cfg.Secret == "" || cfg.Secret == constants.DefaultJWTSecret {
		s.secret = []byte(constants.DefaultJWTSecret)
		s.defaultSecret = true
		if log != nil {
			log.WithFields(context.Background(), logger.Fields{"action": "token_default_secret"}).
				Warn("JWT_SECRET is not set, signing tokens with the built-in default secret")
		}
	}
	if s.ttl <= 0 {
		s.ttl = constants.DefaultAccessTokenTTL
	}
	if s.clock == nil {
		s.clock = clock.NewRealClock()
	}
	return s
}

func (s *Service) UsesDefaultSecret() bool {
	return s.defaultSecret
}

func (s *Service) TTL() time.Duration {
	return s.ttl
}

func (s *Service) Issue(claims Claims) (string, error) {
	if claims.Subject == "" {
		return "", errors.New("token subject is required")
	}

	now := s.clock.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Username: claims.Username,
		Email:    claims.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	metrics.AccessTokensIssued.Inc()
	return signed, nil
}

// Verify checks signature, algorithm and expiry. Every failure is reported
// as commonerrors.ErrInvalidToken with the parser error as cause.
func (s *Service) Verify(tokenString string) (Claims, error) {
	metrics.JWTValidationsTotal.Inc()

	claims, err := s.parse(tokenString)
	if err != nil {
		metrics.JWTValidationsFailed.Inc()
		return Claims{}, commonerrors.ErrInvalidToken.WithCause(err)
	}
	return claims, nil
}

func (s *Service) parse(tokenString string) (Claims, error) {
	var parsed sessionClaims
	_, err := jwt.ParseWithClaims(
		tokenString,
		&parsed,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return Claims{}, err
	}

	if parsed.Subject == "" || parsed.Username == "" || parsed.Email == "" {
		return Claims{}, errors.New("missing identity claims")
	}

	claims := Claims{
		Subject:  parsed.Subject,
		Username: parsed.Username,
		Email:    parsed.Email,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time
	}
	claims.ExpiresAt = parsed.ExpiresAt.Time
	return claims, nil
}
