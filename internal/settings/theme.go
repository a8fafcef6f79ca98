// Package settings keeps profile-wide preferences that do not belong to a user.
package settings

import (
	"context"
	"strings"

	appErrors "github.com/fatali-fataliyev/expense_manager/customErrors"
	"github.com/fatali-fataliyev/expense_manager/internal/contextutil"
	"github.com/fatali-fataliyev/expense_manager/internal/kv"
	"github.com/fatali-fataliyev/expense_manager/logging"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

type Settings struct {
	store *kv.Store
}

func New(store *kv.Store) *Settings {
	return &Settings{store: store}
}

// Theme returns the saved theme, or light when nothing valid was saved.
func (s *Settings) Theme(ctx context.Context) string {
	var theme string
	if !s.store.Get(ctx, kv.KeyThemePreference, &theme) {
		return ThemeLight
	}
	if theme != ThemeDark && theme != ThemeLight {
		return ThemeLight
	}
	return theme
}

func (s *Settings) SetTheme(ctx context.Context, theme string) (string, error) {
	theme = strings.ToLower(strings.TrimSpace(theme))
	if theme != ThemeDark && theme != ThemeLight {
		return "", appErrors.Invalid("Theme must be light or dark.", map[string]string{"theme": "Theme must be light or dark"})
	}

	if err := s.store.Set(ctx, kv.KeyThemePreference, theme); err != nil {
		traceID := contextutil.TraceIDFromContext(ctx)
		logging.Logger.Errorf("[TraceID=%s] | failed to save theme in Settings.SetTheme() | Error: %v", traceID, err)
		return "", appErrors.ErrorResponse{
			Code:    appErrors.ErrInternal,
			Message: "Failed to save the theme, try again later.",
		}
	}
	return theme, nil
}
