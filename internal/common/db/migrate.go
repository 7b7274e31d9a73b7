package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	// Registers the "pgx" database/sql driver used by goose.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/AlibekovAA/authify/backend/internal/common/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type MigrateDirection string

const (
	MigrateUp     MigrateDirection = "up"
	MigrateDown   MigrateDirection = "down"
	MigrateStatus MigrateDirection = "status"
)

// gooseRun is a seam so the direction dispatch can be tested without a database.
var gooseRun = func(ctx context.Context, direction MigrateDirection, db *sql.DB) error {
	switch direction {
	case MigrateUp:
		return goose.UpContext(ctx, db, "migrations")
	case MigrateDown:
		return goose.DownContext(ctx, db, "migrations")
	case MigrateStatus:
		return goose.StatusContext(ctx, db, "migrations")
	default:
		return fmt.Errorf("unknown migration direction %q", direction)
	}
}

func Migrate(ctx context.Context, log *logger.Logger, databaseURL string, direction MigrateDirection) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	log.Infof("running migrations: %s", direction)
	if err := gooseRun(ctx, direction, db); err != nil {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}
	return nil
}
