package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	"subgate/migrations"
)

// Migrate applies all embedded schema migrations with goose.
func Migrate(ctx context.Context, pool *Pool, log *slog.Logger) error {
	if pool == nil {
		return fmt.Errorf("database not configured")
	}

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, pool.DB(), "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, pool.DB())
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}
	log.InfoContext(ctx, "database migrations applied", "version", version)
	return nil
}
