package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AlibekovAA/authify/backend/internal/common/db"
	"github.com/AlibekovAA/authify/backend/internal/observability/metrics"
	"github.com/AlibekovAA/authify/backend/internal/user/domain"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUniqueViolation = errors.New("unique constraint violation")

	ErrEmailAlreadyExists    = fmt.Errorf("%w: email already exists", ErrUniqueViolation)
	ErrUsernameAlreadyExists = fmt.Errorf("%w: username already exists", ErrUniqueViolation)
)

const (
	emailConstraint    = "users_email_key"
	usernameConstraint = "users_username_key"
)

// Repository is the persistent collection of users. Implementations must
// enforce email and username uniqueness atomically and report collisions as
// errors wrapping ErrUniqueViolation.
type Repository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByID(ctx context.Context, id domain.ID) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByUsername(ctx context.Context, username string) (domain.User, error)
	Update(ctx context.Context, id domain.ID, update domain.Update) (domain.User, error)
}

// pgPool is the subset of *pgxpool.Pool used here; pgxmock satisfies it too.
type pgPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PgRepository struct {
	pool pgPool
}

func NewPgRepository(pool pgPool) *PgRepository {
	return &PgRepository{pool: pool}
}

const userColumns = `id::text, username, email, password_hash, created_at`

func (r *PgRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO users (id, username, email, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+userColumns,
		string(user.ID),
		user.Username,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
	)

	created, err := scanUser(row)
	if err != nil {
		if uniqueErr := translateUniqueViolation(err); uniqueErr != nil {
			db.MeasureQueryDuration("create user", start)
			return domain.User{}, uniqueErr
		}
		return domain.User{}, db.HandleExecError(err, "create user", start)
	}
	db.MeasureQueryDuration("create user", start)
	return created, nil
}

func (r *PgRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	return r.findOne(ctx, "find user by id", `SELECT `+userColumns+` FROM users WHERE id = $1`, string(id))
}

func (r *PgRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.findOne(ctx, "find user by email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PgRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.findOne(ctx, "find user by username", `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

// Update writes only the non-nil fields and returns the refreshed record.
func (r *PgRepository) Update(ctx context.Context, id domain.ID, update domain.Update) (domain.User, error) {
	if update.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	sets := make([]string, 0, 3)
	args := []any{string(id)}
	if update.Username != nil {
		args = append(args, *update.Username)
		sets = append(sets, fmt.Sprintf("username = $%d", len(args)))
	}
	if update.Email != nil {
		args = append(args, *update.Email)
		sets = append(sets, fmt.Sprintf("email = $%d", len(args)))
	}
	if update.PasswordHash != nil {
		args = append(args, *update.PasswordHash)
		sets = append(sets, fmt.Sprintf("password_hash = $%d", len(args)))
	}

	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = $1 RETURNING `+userColumns,
		args...,
	)

	updated, err := scanUser(row)
	if err != nil {
		if uniqueErr := translateUniqueViolation(err); uniqueErr != nil {
			db.MeasureQueryDuration("update user", start)
			return domain.User{}, uniqueErr
		}
		return domain.User{}, db.HandleQueryError(err, ErrUserNotFound, "update user", start)
	}
	db.MeasureQueryDuration("update user", start)
	return updated, nil
}

func (r *PgRepository) findOne(ctx context.Context, operation, query string, arg any) (domain.User, error) {
	start := time.Now()
	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		return domain.User{}, db.HandleQueryError(err, ErrUserNotFound, operation, start)
	}
	db.MeasureQueryDuration(operation, start)
	return user, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		id   string
		user domain.User
	)
	if err := row.Scan(&id, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
		return domain.User{}, err
	}
	user.ID = domain.ID(id)
	return user, nil
}

func translateUniqueViolation(err error) error {
	constraint, ok := db.UniqueViolation(err)
	if !ok {
		return nil
	}
	switch constraint {
	case emailConstraint:
		metrics.UserStoreConflicts.WithLabelValues("email").Inc()
		return ErrEmailAlreadyExists
	case usernameConstraint:
		metrics.UserStoreConflicts.WithLabelValues("username").Inc()
		return ErrUsernameAlreadyExists
	default:
		metrics.UserStoreConflicts.WithLabelValues("unknown").Inc()
		return fmt.Errorf("%w: %s", ErrUniqueViolation, constraint)
	}
}
