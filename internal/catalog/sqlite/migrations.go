package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/sibylcommerce/sibyl/migrations"
)

// RunMigrations applies all pending schema migrations using goose,
// reading the embedded SQL files from the migrations package.
func RunMigrations(db *sql.DB) error {
	// Disable goose's default logging to avoid stdout noise
	goose.SetLogger(goose.NopLogger())

	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
