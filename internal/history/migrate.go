package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies every pending goose migration embedded under
// migrations/ to the database at postgresURL.
func RunMigrations(ctx context.Context, postgresURL string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("pgx", postgresURL)
	if err != nil {
		return fmt.Errorf("history: open migration connection: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("history: set goose dialect: %w", err)
	}

	logger.Info("applying resolution history migrations")
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("history: run migrations: %w", err)
	}
	logger.Info("resolution history migrations applied")
	return nil
}
