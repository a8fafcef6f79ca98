package kv

import (
	"context"
	"database/sql"
	"errors"
	"time"

	appErrors "github.com/fatali-fataliyev/expense_manager/customErrors"
	"github.com/go-sql-driver/mysql"
)

type dialect struct {
	name           string
	migrationTable string
	upsert         string
}

var sqliteDialect = dialect{
	name: "sqlite",
	migrationTable: `CREATE TABLE IF NOT EXISTS migration (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        migration_name TEXT NOT NULL UNIQUE,
        applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    )`,
	upsert: `INSERT INTO kv_item (item_key, item_value, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(item_key) DO UPDATE SET item_value = excluded.item_value, updated_at = excluded.updated_at`,
}

var mysqlDialect = dialect{
	name: "mysql",
	migrationTable: `CREATE TABLE IF NOT EXISTS migration (
        id INT AUTO_INCREMENT PRIMARY KEY,
        migration_name VARCHAR(255) NOT NULL UNIQUE,
        applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    )`,
	upsert: `INSERT INTO kv_item (item_key, item_value, updated_at) VALUES (?, ?, ?)
        ON DUPLICATE KEY UPDATE item_value = VALUES(item_value), updated_at = VALUES(updated_at)`,
}

// SQLBackend stores every key as one row of the kv_item table.
type SQLBackend struct {
	db      *sql.DB
	dialect dialect
}

func newSQLBackend(ctx context.Context, db *sql.DB, d dialect) (*SQLBackend, error) {
	if err := runMigrations(ctx, db, d); err != nil {
		return nil, err
	}
	return &SQLBackend{db: db, dialect: d}, nil
}

func (s *SQLBackend) Load(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT item_value FROM kv_item WHERE item_key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLBackend) Save(ctx context.Context, key string, value string) error {
	_, err := s.db.ExecContext(ctx, s.dialect.upsert, key, value, time.Now().UTC().Unix())
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1406 {
			return appErrors.ErrorResponse{
				Code:    appErrors.ErrInvalidInput,
				Message: "The value is too large to be stored.",
			}
		}
		return err
	}
	return nil
}

func (s *SQLBackend) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv_item WHERE item_key = ?", key)
	return err
}

func (s *SQLBackend) Purge(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv_item")
	return err
}

func (s *SQLBackend) Close() error {
	return s.db.Close()
}
