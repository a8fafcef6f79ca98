// Package kv is the persistent key/value profile store. Values are JSON documents
// kept as strings by a pluggable Backend.
package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/fatali-fataliyev/expense_manager/internal/contextutil"
	"github.com/fatali-fataliyev/expense_manager/logging"
)

// Well-known keys of a profile.
const (
	KeyCurrentUser     = "currentUser"
	KeyUsers           = "users"
	KeyExpenses        = "expenses"
	KeyCards           = "cards"
	KeyThemePreference = "theme_preference"
	budgetKeyPrefix    = "monthly_budget_"
)

func BudgetKey(userID string) string {
	return budgetKeyPrefix + userID
}

// Backend persists raw string values. Implementations must be safe for concurrent use.
type Backend interface {
	Load(ctx context.Context, key string) (value string, found bool, err error)
	Save(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	Purge(ctx context.Context) error
	Close() error
}

type Store struct {
	backend Backend
	mu      sync.Mutex
}

func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// Get decodes the value under key into dst and reports whether it did. Missing keys,
// backend failures and malformed values all read as absent; the latter two are logged.
func (s *Store) Get(ctx context.Context, key string, dst any) bool {
	traceID := contextutil.TraceIDFromContext(ctx)

	raw, found, err := s.backend.Load(ctx, key)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to read key %q from storage | Error: %v", traceID, key, err)
		return false
	}
	if !found {
		return false
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		logging.Logger.Warnf("[TraceID=%s] | malformed value under key %q ignored | Error: %v", traceID, key, err)
		resetValue(dst)
		return false
	}
	return true
}

func (s *Store) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value for key %q: %w", key, err)
	}
	if err := s.backend.Save(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.backend.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to remove key %q: %w", key, err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Purge(ctx); err != nil {
		return fmt.Errorf("failed to clear storage: %w", err)
	}
	return nil
}

// Atomic runs fn while holding the store's write lock. Read-modify-write sequences on
// list keys go through here so concurrent requests in this process cannot drop writes.
func (s *Store) Atomic(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) Close() error {
	return s.backend.Close()
}

func resetValue(dst any) {
	v := reflect.ValueOf(dst)
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		v.Elem().SetZero()
	}
}
