package repository

import (
	"context"
	"sync"

	"github.com/AlibekovAA/authify/backend/internal/user/domain"
)

// MemoryRepository keeps users in process memory. It enforces the same
// uniqueness rules as the users table and is used by `serve --store=memory`
// and the service tests.
type MemoryRepository struct {
	mu         sync.RWMutex
	byID       map[domain.ID]domain.User
	byEmail    map[string]domain.ID
	byUsername map[string]domain.ID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:       make(map[domain.ID]domain.User),
		byEmail:    make(map[string]domain.ID),
		byUsername: make(map[string]domain.ID),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return domain.User{}, ErrEmailAlreadyExists
	}
	if _, ok := r.byUsername[user.Username]; ok {
		return domain.User{}, ErrUsernameAlreadyExists
	}
	if _, ok := r.byID[user.ID]; ok {
		return domain.User{}, ErrUniqueViolation
	}

	r.byID[user.ID] = user
	r.byEmail[user.Email] = user.ID
	r.byUsername[user.Username] = user.ID
	return user, nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return user, nil
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.findByIndex(ctx, func() (domain.ID, bool) {
		id, ok := r.byEmail[email]
		return id, ok
	})
}

func (r *MemoryRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.findByIndex(ctx, func() (domain.ID, bool) {
		id, ok := r.byUsername[username]
		return id, ok
	})
}

func (r *MemoryRepository) Update(ctx context.Context, id domain.ID, update domain.Update) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[id]
	if !ok {
		return domain.User{}, ErrUserNotFound
	}

	if update.Email != nil {
		if owner, taken := r.byEmail[*update.Email]; taken && owner != id {
			return domain.User{}, ErrEmailAlreadyExists
		}
	}
	if update.Username != nil {
		if owner, taken := r.byUsername[*update.Username]; taken && owner != id {
			return domain.User{}, ErrUsernameAlreadyExists
		}
	}

	updated := update.Apply(current)
	delete(r.byEmail, current.Email)
	delete(r.byUsername, current.Username)
	r.byID[id] = updated
	r.byEmail[updated.Email] = id
	r.byUsername[updated.Username] = id
	return updated, nil
}

func (r *MemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *MemoryRepository) findByIndex(ctx context.Context, lookup func() (domain.ID, bool)) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := lookup()
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return r.byID[id], nil
}
