package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"

	"github.com/AlibekovAA/authify/backend/internal/common/constants"
	"github.com/AlibekovAA/authify/backend/internal/common/logger"
	"github.com/AlibekovAA/authify/backend/internal/observability/metrics"
)

// NewPool connects to Postgres, retrying at a constant interval while the
// database comes up. Only startup is retried; queries never are.
func NewPool(ctx context.Context, log *logger.Logger, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	cfg.MaxConns = constants.DBPoolMaxConns
	cfg.MinConns = constants.DBPoolMinConns
	cfg.MaxConnLifetime = constants.DBPoolConnMaxLifetime
	cfg.MaxConnIdleTime = constants.DBPoolConnMaxIdleTime
	cfg.HealthCheckPeriod = constants.DBPoolHealthCheck
	cfg.ConnConfig.ConnectTimeout = constants.DBPoolConnectTimeout
	cfg.ConnConfig.RuntimeParams["application_name"] = "authify"

	backoff := retry.WithMaxRetries(
		constants.DBPoolMaxAttempts-1,
		retry.NewConstant(constants.DBPoolRetryDelay),
	)

	var pool *pgxpool.Pool
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		p, err := pgxpool.NewWithConfig(ctx, cfg)
		if err == nil {
			err = p.Ping(ctx)
			if err != nil {
				p.Close()
			}
		}
		if err != nil {
			metrics.DBConnectAttempts.WithLabelValues("failure").Inc()
			log.Warnf("failed to connect to database (attempt %d/%d): %v", attempt, constants.DBPoolMaxAttempts, err)
			return retry.RetryableError(err)
		}
		metrics.DBConnectAttempts.WithLabelValues("success").Inc()
		pool = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempt, err)
	}

	log.Infof("database connection pool initialized: max=%d, min=%d", cfg.MaxConns, cfg.MinConns)
	return pool, nil
}
