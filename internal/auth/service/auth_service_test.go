package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/AlibekovAA/authify/backend/internal/auth/token"
	"github.com/AlibekovAA/authify/backend/internal/common/clock"
	"github.com/AlibekovAA/authify/backend/internal/common/logger"
	userdomain "github.com/AlibekovAA/authify/backend/internal/user/domain"
	userrepo "github.com/AlibekovAA/authify/backend/internal/user/repository"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *AuthService
	repo   userrepo.Repository
	logBuf *bytes.Buffer
}

func newFixture(t *testing.T, repo userrepo.Repository, tokens token.Issuer) fixture {
	t.Helper()
	if repo == nil {
		repo = userrepo.NewMemoryRepository()
	}
	if tokens == nil {
		tokens = &mockIssuer{}
	}
	buf := &bytes.Buffer{}
	log := logger.NewWithWriter(buf, "auth-test", "DEBUG")
	svc := NewAuthService(repo, &mockHasher{}, tokens, &mockIDGenerator{}, clock.NewMockClock(now), log)
	return fixture{svc: svc, repo: repo, logBuf: buf}
}

func TestAuthService_Register_Success(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()

	got, err := f.svc.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Passw0rd!",
	})
	require.NoError(t, err)
	assert.Equal(t, userdomain.Public{ID: "user-123", Username: "alice", Email: "alice@example.com"}, got)

	stored, err := f.repo.FindByID(ctx, "user-123")
	require.NoError(t, err)
	assert.Equal(t, "hashed:Passw0rd!", stored.PasswordHash)
	assert.Equal(t, now, stored.CreatedAt)
	assert.NotContains(t, f.logBuf.String(), "Passw0rd!")
}

func TestAuthService_Register_Conflict(t *testing.T) {
	for name, storeErr := range map[string]error{
		"email":    userrepo.ErrEmailAlreadyExists,
		"username": userrepo.ErrUsernameAlreadyExists,
	} {
		t.Run(name, func(t *testing.T) {
			repo := &mockUserRepo{
				createFunc: func(context.Context, userdomain.User) (userdomain.User, error) {
					return userdomain.User{}, storeErr
				},
			}
			f := newFixture(t, repo, nil)

			_, err := f.svc.Register(context.Background(), RegisterInput{
				Username: "alice",
				Email:    "alice@example.com",
				Password: "Passw0rd!",
			})
			require.ErrorIs(t, err, ErrUserAlreadyExists)
			assert.Equal(t, "A user with this email or username already exists", ErrUserAlreadyExists.Message())
			assert.Contains(t, f.logBuf.String(), "action=register_conflict")
		})
	}
}

func TestAuthService_Register_SecondRegistrationConflicts(t *testing.T) {
	repo := userrepo.NewMemoryRepository()
	ids := []string{"id-1", "id-2"}
	svc := NewAuthService(repo, &mockHasher{}, &mockIssuer{}, &mockIDGenerator{
		newIDFunc: func() (string, error) {
			id := ids[0]
			ids = ids[1:]
			return id, nil
		},
	}, clock.NewMockClock(now), logger.NewWithWriter(&bytes.Buffer{}, "test", "INFO"))

	input := RegisterInput{Username: "alice", Email: "alice@example.com", Password: "Passw0rd!"}
	_, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), input)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
	assert.Equal(t, 1, repo.Count())
}

func TestAuthService_Register_StoreFailureIsFatal(t *testing.T) {
	storeErr := errors.New("connection reset")
	repo := &mockUserRepo{
		createFunc: func(context.Context, userdomain.User) (userdomain.User, error) {
			return userdomain.User{}, storeErr
		},
	}
	f := newFixture(t, repo, nil)

	_, err := f.svc.Register(context.Background(), RegisterInput{Username: "a", Email: "a@b.c", Password: "Passw0rd!"})
	require.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, ErrUserAlreadyExists)
}

func TestAuthService_Register_HashFailure(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.svc.hasher = &mockHasher{hashFunc: func(string) (string, error) { return "", errors.New("boom") }}

	_, err := f.svc.Register(context.Background(), RegisterInput{Username: "a", Email: "a@b.c", Password: "Passw0rd!"})
	assert.EqualError(t, err, "hash password: boom")
}

func TestAuthService_Login_Success(t *testing.T) {
	mockClock := clock.NewMockClock(now)
	tokens := token.New(token.Config{Secret: "test-secret-key-must-be-at-least-32-bytes-long", Clock: mockClock}, nil)
	f := newFixture(t, nil, tokens)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "Passw0rd!"})
	require.NoError(t, err)

	result, err := f.svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "Passw0rd!"})
	require.NoError(t, err)
	assert.Equal(t, userdomain.Public{ID: "user-123", Username: "alice", Email: "alice@example.com"}, result.User)

	claims, err := tokens.Verify(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt))
}

func TestAuthService_Login_InvalidCredentialsAreIndistinguishable(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "Passw0rd!"})
	require.NoError(t, err)

	_, unknownErr := f.svc.Login(ctx, LoginInput{Email: "bob@example.com", Password: "Passw0rd!"})
	_, wrongErr := f.svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong"})

	require.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	require.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	assert.Equal(t, "Invalid email or password", wrongErr.Error())
}

func TestAuthService_Login_StoreFailureIsFatal(t *testing.T) {
	storeErr := errors.New("timeout")
	repo := &mockUserRepo{
		findByEmailFunc: func(context.Context, string) (userdomain.User, error) {
			return userdomain.User{}, storeErr
		},
	}
	f := newFixture(t, repo, nil)

	_, err := f.svc.Login(context.Background(), LoginInput{Email: "a@b.c", Password: "x"})
	require.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_TokenFailure(t *testing.T) {
	repo := &mockUserRepo{
		findByEmailFunc: func(context.Context, string) (userdomain.User, error) {
			return userdomain.User{ID: "u1", Username: "alice", Email: "a@b.c", PasswordHash: "hashed:pw"}, nil
		},
	}
	tokens := &mockIssuer{issueFunc: func(token.Claims) (string, error) { return "", errors.New("sign failed") }}
	f := newFixture(t, repo, tokens)

	_, err := f.svc.Login(context.Background(), LoginInput{Email: "a@b.c", Password: "pw"})
	assert.EqualError(t, err, "issue access token: sign failed")
	assert.Contains(t, f.logBuf.String(), "action=login_token_issue_failed")
}
