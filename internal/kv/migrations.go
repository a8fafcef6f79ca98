package kv

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/fatali-fataliyev/expense_manager/logging"
)

//go:embed migrations
var migrationFS embed.FS

func runMigrations(ctx context.Context, db *sql.DB, d dialect) error {
	dir := path.Join("migrations", d.name)

	migrationFiles, err := getMigrationFiles(migrationFS, dir)
	if err != nil {
		return fmt.Errorf("failed to get migration files: %w", err)
	}

	lastAppliedMigration, err := getLastAppliedMigration(ctx, db, d)
	if err != nil {
		return fmt.Errorf("failed to get last applied migration name: %w", err)
	}

	newMigrations := filterNewMigrations(migrationFiles, lastAppliedMigration)
	if len(newMigrations) == 0 {
		logging.Logger.Debugf("%s: no new migration", d.name)
		return nil
	}

	for _, migrationFile := range newMigrations {
		logging.Logger.Infof("%s: applying migration %s", d.name, migrationFile)
		content, err := fs.ReadFile(migrationFS, path.Join(dir, migrationFile))
		if err != nil {
			return fmt.Errorf("failed to read migration file %q: %w", migrationFile, err)
		}
		if err := applyMigration(ctx, db, migrationFile, string(content)); err != nil {
			return fmt.Errorf("failed to apply migration file %q: %w", migrationFile, err)
		}
	}

	logging.Logger.Infof("%s: all migrations applied successfully", d.name)
	return nil
}

func getMigrationFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func getLastAppliedMigration(ctx context.Context, db *sql.DB, d dialect) (string, error) {
	if _, err := db.ExecContext(ctx, d.migrationTable); err != nil {
		return "", err
	}

	var last string
	err := db.QueryRowContext(ctx, "SELECT migration_name FROM migration ORDER BY migration_name DESC LIMIT 1").Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return last, err
}

func filterNewMigrations(all []string, lastApplied string) []string {
	if lastApplied == "" {
		return all
	}

	var result []string
	for _, migration := range all {
		if migration > lastApplied {
			result = append(result, migration)
		}
	}
	return result
}

func applyMigration(ctx context.Context, db *sql.DB, name, content string) error {
	txn, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	for _, statement := range strings.Split(content, ";") {
		stmt := strings.TrimSpace(statement)
		if stmt == "" {
			continue
		}
		if _, err := txn.ExecContext(ctx, stmt); err != nil {
			txn.Rollback()
			return fmt.Errorf("migration statement failed: %w\nStatement: %s", err, stmt)
		}
	}

	if _, err := txn.ExecContext(ctx, "INSERT INTO migration (migration_name) VALUES (?)", name); err != nil {
		txn.Rollback()
		return fmt.Errorf("failed to record migration name: %w", err)
	}
	return txn.Commit()
}
