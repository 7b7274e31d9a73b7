package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlibekovAA/authify/backend/internal/auth/token"
	"github.com/AlibekovAA/authify/backend/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/authify/backend/internal/common/crypto"
	"github.com/AlibekovAA/authify/backend/internal/common/logger"
	userdomain "github.com/AlibekovAA/authify/backend/internal/user/domain"
	userrepo "github.com/AlibekovAA/authify/backend/internal/user/repository"
)

type AuthService struct {
	repo        userrepo.Repository
	hasher      commoncrypto.PasswordHasher
	tokens      token.Issuer
	idGenerator commoncrypto.IDGenerator
	clock       clock.Clock
	log         *logger.Logger
}

func NewAuthService(
	repo userrepo.Repository,
	hasher commoncrypto.PasswordHasher,
	tokens token.Issuer,
	idGenerator commoncrypto.IDGenerator,
	clk clock.Clock,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		repo:        repo,
		hasher:      hasher,
		tokens:      tokens,
		idGenerator: idGenerator,
		clock:       clk,
		log:         log,
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginResult struct {
	AccessToken string
	User        userdomain.Public
}

// Register stores a new user. Password length is validated by the caller.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (userdomain.Public, error) {
	s.log.WithFields(ctx, logger.Fields{
		"username": input.Username,
		"action":   "register_attempt",
	}).Info("register attempt")

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_hash_failed",
		}).Errorf("register failed: password hash error: %v", err)
		recordRegistration(resultError)
		return userdomain.Public{}, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.idGenerator.NewID()
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_id_generation_failed",
		}).Errorf("register failed: id generation error: %v", err)
		recordRegistration(resultError)
		return userdomain.Public{}, fmt.Errorf("generate user id: %w", err)
	}

	created, err := s.repo.Create(ctx, userdomain.User{
		ID:           userdomain.ID(id),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		CreatedAt:    s.clock.Now(),
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrUniqueViolation) {
			s.log.WithFields(ctx, logger.Fields{
				"username": input.Username,
				"action":   "register_conflict",
			}).Warnf("register failed: %v", err)
			recordRegistration(resultConflict)
			return userdomain.Public{}, ErrUserAlreadyExists.WithCause(err)
		}
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_create_failed",
		}).Errorf("register failed: %v", err)
		recordRegistration(resultError)
		return userdomain.Public{}, fmt.Errorf("create user: %w", err)
	}

	s.log.WithFields(ctx, logger.Fields{
		"username": created.Username,
		"user_id":  string(created.ID),
		"action":   "register_success",
	}).Info("register success")
	recordRegistration(resultSuccess)

	return created.Public(), nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	s.log.WithFields(ctx, logger.Fields{
		"action": "login_attempt",
	}).Info("login attempt")

	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			s.log.WithFields(ctx, logger.Fields{
				"action": "login_invalid_credentials",
				"reason": "unknown_email",
			}).Warn("login failed: invalid credentials")
			recordLogin(resultInvalid)
			return LoginResult{}, ErrInvalidCredentials
		}
		s.log.WithFields(ctx, logger.Fields{
			"action": "login_fetch_failed",
		}).Errorf("login failed: %v", err)
		recordLogin(resultError)
		return LoginResult{}, fmt.Errorf("find user by email: %w", err)
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "login_invalid_credentials",
			"reason":  "wrong_password",
		}).Warn("login failed: invalid credentials")
		recordLogin(resultInvalid)
		return LoginResult{}, ErrInvalidCredentials
	}

	accessToken, err := s.tokens.Issue(token.Claims{
		Subject:  string(user.ID),
		Username: user.Username,
		Email:    user.Email,
	})
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "login_token_issue_failed",
		}).Errorf("login failed: token issue error: %v", err)
		recordLogin(resultError)
		return LoginResult{}, fmt.Errorf("issue access token: %w", err)
	}

	s.log.WithFields(ctx, logger.Fields{
		"username": user.Username,
		"user_id":  string(user.ID),
		"action":   "login_success",
	}).Info("login success")
	recordLogin(resultSuccess)

	return LoginResult{
		AccessToken: accessToken,
		User:        user.Public(),
	}, nil
}
