// Package migrations embeds the goose SQL migrations.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
)

// FS holds every *.sql migration, applied in filename order.
//
//go:embed *.sql
var FS embed.FS

// Up applies pending migrations and returns the resulting schema version.
func Up(ctx context.Context, sqlDB *sql.DB) (int64, error) {
	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, FS)
	if err != nil {
		return 0, fmt.Errorf("creating migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("applying migrations: %w", err)
	}
	for _, res := range results {
		slog.Info("migration applied",
			"version", res.Source.Version,
			"path", res.Source.Path,
			"duration", res.Duration)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}
