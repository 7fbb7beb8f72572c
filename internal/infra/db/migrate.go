package db

import (
	"embed"
	"errors"
	"log/slog"

	"handicraft-store/internal/pkg/config"
	"handicraft-store/internal/pkg/errs"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // pgx5:// driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate applies every pending up migration. An up-to-date schema is not an error.
func Migrate(cfg config.DBConfig, logger *slog.Logger) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return errs.Wrap(err, "could not open embedded migrations")
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.BuildMigrateURL())
	if err != nil {
		return errs.Wrap(err, "could not create migrate instance")
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn("failed to close migrator", "source_error", srcErr, "db_error", dbErr)
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errs.Wrap(err, "could not run migrations")
	}

	version, dirty, err := m.Version()
	if err == nil {
		logger.Info("database schema ready", "version", version, "dirty", dirty)
	}
	return nil
}
