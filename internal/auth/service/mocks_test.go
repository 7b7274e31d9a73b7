package service

import (
	"context"
	"strings"

	"github.com/AlibekovAA/authify/backend/internal/auth/token"
	userdomain "github.com/AlibekovAA/authify/backend/internal/user/domain"
	userrepo "github.com/AlibekovAA/authify/backend/internal/user/repository"
)

type mockUserRepo struct {
	createFunc         func(ctx context.Context, user userdomain.User) (userdomain.User, error)
	findByIDFunc       func(ctx context.Context, id userdomain.ID) (userdomain.User, error)
	findByEmailFunc    func(ctx context.Context, email string) (userdomain.User, error)
	findByUsernameFunc func(ctx context.Context, username string) (userdomain.User, error)
	updateFunc         func(ctx context.Context, id userdomain.ID, update userdomain.Update) (userdomain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user userdomain.User) (userdomain.User, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return user, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (userdomain.User, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (userdomain.User, error) {
	if m.findByUsernameFunc != nil {
		return m.findByUsernameFunc(ctx, username)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) Update(ctx context.Context, id userdomain.ID, update userdomain.Update) (userdomain.User, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, update)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

// mockHasher prefixes instead of hashing so tests stay fast.
type mockHasher struct {
	hashFunc func(password string) (string, error)
}

func (m *mockHasher) Hash(password string) (string, error) {
	if m.hashFunc != nil {
		return m.hashFunc(password)
	}
	return "hashed:" + password, nil
}

func (m *mockHasher) Verify(password, hash string) bool {
	return strings.TrimPrefix(hash, "hashed:") == password && strings.HasPrefix(hash, "hashed:")
}

type mockIDGenerator struct {
	newIDFunc func() (string, error)
}

func (m *mockIDGenerator) NewID() (string, error) {
	if m.newIDFunc != nil {
		return m.newIDFunc()
	}
	return "user-123", nil
}

type mockIssuer struct {
	issueFunc func(claims token.Claims) (string, error)
}

func (m *mockIssuer) Issue(claims token.Claims) (string, error) {
	if m.issueFunc != nil {
		return m.issueFunc(claims)
	}
	return "token-for-" + claims.Subject, nil
}
