package db

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql" // register mysql driver
	_ "github.com/golang-migrate/migrate/v4/source/file"    // register file source driver
)

// RunMigrations applies every pending migration under migrationsDir
// (e.g. "file://migrations"). dsn uses the mysql:// scheme. No pending
// migrations is not an error.
func RunMigrations(dsn, migrationsDir string) error {
	m, err := migrate.New(migrationsDir, dsn)
	if err != nil {
		return fmt.Errorf("mysql: create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("mysql: run migrations up: %w", err)
	}
	return nil
}

func RunMigrationsDown(dsn, migrationsDir string) error {
	m, err := migrate.New(migrationsDir, dsn)
	if err != nil {
		return fmt.Errorf("mysql: create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("mysql: run migrations down: %w", err)
	}
	return nil
}
