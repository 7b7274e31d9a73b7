package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AlibekovAA/authify/backend/internal/observability/metrics"
)

// HandleQueryError records the query duration and maps pgx.ErrNoRows to notFoundErr.
// Any other failure is wrapped with the operation name.
func HandleQueryError(err error, notFoundErr error, operation string, startTime time.Time) error {
	metrics.DBQueryDurationSeconds.WithLabelValues(operation).Observe(time.Since(startTime).Seconds())

	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notFoundErr
	}
	metrics.DBQueryErrors.WithLabelValues(operation, fmt.Sprintf("%T", err)).Inc()
	return fmt.Errorf("failed to %s: %w", operation, err)
}

func HandleExecError(err error, operation string, startTime time.Time) error {
	metrics.DBQueryDurationSeconds.WithLabelValues(operation).Observe(time.Since(startTime).Seconds())

	if err == nil {
		return nil
	}
	metrics.DBQueryErrors.WithLabelValues(operation, fmt.Sprintf("%T", err)).Inc()
	return fmt.Errorf("failed to %s: %w", operation, err)
}

// UniqueViolation returns the violated constraint name, if err is a 23505.
func UniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

func MeasureQueryDuration(operation string, startTime time.Time) {
	metrics.DBQueryDurationSeconds.WithLabelValues(operation).Observe(time.Since(startTime).Seconds())
}
