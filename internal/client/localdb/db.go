// Package localdb opens the client's SQLite database and brings its schema
// up to date with the embedded goose migrations.
package localdb

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/escrowagent/internal/client/migrations"
	"github.com/dmitrijs2005/escrowagent/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// DefaultDir is the working-directory subfolder holding the client database.
const DefaultDir = ".escrow-agent"

// DefaultFile is the database file name inside DefaultDir.
const DefaultFile = "session.db"

// RunMigrations applies all pending migrations. It is idempotent.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the SQLite database at dsn and migrates it.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return db, nil
}

// DefaultDSN returns DefaultDir/DefaultFile under the working directory,
// creating the directory if needed.
func DefaultDSN() (string, error) {
	dir, err := filex.EnsureSubdDir(DefaultDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultFile), nil
}
