package kv

import (
	"context"
	"fmt"

	"github.com/fatali-fataliyev/expense_manager/internal/config"
)

// Open builds the Store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg config.Config) (*Store, error) {
	var (
		backend Backend
		err     error
	)

	switch cfg.StoreDriver {
	case config.DriverMemory:
		backend = NewMemoryBackend()
	case config.DriverFile:
		backend, err = NewFileBackend(cfg.StorePath)
	case config.DriverSQLite:
		backend, err = OpenSQLite(ctx, cfg.StorePath)
	case config.DriverMySQL:
		backend, err = OpenMySQL(ctx, cfg.MySQL)
	case config.DriverRedis:
		backend, err = OpenRedis(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StoreDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.StoreDriver, err)
	}
	return New(backend), nil
}
