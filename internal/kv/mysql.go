package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatali-fataliyev/expense_manager/internal/config"
	"github.com/fatali-fataliyev/expense_manager/logging"
	"github.com/go-sql-driver/mysql"
)

const (
	mysqlPingAttempts = 15
	mysqlPingInterval = 3 * time.Second
)

// OpenMySQL connects to the server, creates the database when missing and applies
// pending migrations.
func OpenMySQL(ctx context.Context, cfg config.MySQLConfig) (*SQLBackend, error) {
	adminDsn, finalDsn, err := mysqlDSNs(cfg)
	if err != nil {
		return nil, err
	}

	logging.Logger.Info("Connecting to MySQL server for initialization...")
	adminDb, err := sql.Open("mysql", adminDsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open admin mysql handle: %w", err)
	}
	defer adminDb.Close()

	if err := waitForMySQL(ctx, adminDb); err != nil {
		return nil, err
	}

	var existing string
	err = adminDb.QueryRowContext(ctx, "SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?", cfg.Name).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		logging.Logger.Infof("Database '%s' does not exist, creating...", cfg.Name)
		createDbSql := fmt.Sprintf("CREATE DATABASE `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_general_ci", cfg.Name)
		if _, err := adminDb.ExecContext(ctx, createDbSql); err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to check database existence: %w", err)
	}

	logging.Logger.Info("Connecting to database...")
	db, err := sql.Open("mysql", finalDsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database handle: %w", err)
	}

	backend, err := newSQLBackend(ctx, db, mysqlDialect)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logging.Logger.Info("Connected to database successfully")
	return backend, nil
}

func waitForMySQL(ctx context.Context, db *sql.DB) error {
	for i := 0; i < mysqlPingAttempts; i++ {
		if err := db.PingContext(ctx); err == nil {
			return nil
		}
		logging.Logger.Warnf("Database not ready, retrying... (%d/%d)", i+1, mysqlPingAttempts)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(mysqlPingInterval):
		}
	}
	return fmt.Errorf("database unreachable after multiple attempts")
}

// mysqlDSNs returns the server-level DSN used to create the database and the DSN
// of the database itself.
func mysqlDSNs(cfg config.MySQLConfig) (string, string, error) {
	if cfg.FullDSN != "" {
		parsed, err := mysql.ParseDSN(cfg.FullDSN)
		if err != nil {
			return "", "", fmt.Errorf("invalid FULL_DSN: %w", err)
		}
		if parsed.DBName == "" {
			parsed.DBName = cfg.Name
		}
		final := parsed.FormatDSN()
		parsed.DBName = ""
		return parsed.FormatDSN(), final, nil
	}

	if cfg.User == "" || cfg.Pass == "" || cfg.Host == "" || cfg.Port == "" {
		return "", "", fmt.Errorf("missing required DB environment variables")
	}

	dsn := mysql.NewConfig()
	dsn.User = cfg.User
	dsn.Passwd = cfg.Pass
	dsn.Net = "tcp"
	dsn.Addr = strings.Join([]string{cfg.Host, cfg.Port}, ":")
	dsn.ParseTime = true
	admin := dsn.FormatDSN()
	dsn.DBName = cfg.Name
	return admin, dsn.FormatDSN(), nil
}
