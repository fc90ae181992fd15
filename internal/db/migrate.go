package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/udisondev/l2pledge/internal/db/migrations"
)

// RunMigrations applies pending schema migrations to the database at dsn.
func RunMigrations(ctx context.Context, dsn string) error {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("opening sql connection for migrations: %w", err)
	}
	defer sqlDB.Close()

	version, err := migrations.Up(ctx, sqlDB)
	if err != nil {
		return err
	}
	slog.Info("schema up to date", "version", version)
	return nil
}
