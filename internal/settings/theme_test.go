package settings

import (
	"context"
	"testing"

	appErrors "github.com/fatali-fataliyev/expense_manager/customErrors"
	"github.com/fatali-fataliyev/expense_manager/internal/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeDefaultsToLight(t *testing.T) {
	s := New(kv.New(kv.NewMemoryBackend()))
	assert.Equal(t, ThemeLight, s.Theme(context.Background()))
}

func TestSetTheme(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"dark", ThemeDark, false},
		{" Light ", ThemeLight, false},
		{"DARK", ThemeDark, false},
		{"blue", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := New(kv.New(kv.NewMemoryBackend()))

			got, err := s.SetTheme(ctx, tt.input)
			if tt.wantErr {
				assert.Equal(t, appErrors.ErrInvalidInput, appErrors.CodeOf(err))
				assert.Equal(t, ThemeLight, s.Theme(ctx))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, s.Theme(ctx))
		})
	}
}

func TestUnknownStoredThemeReadsAsLight(t *testing.T) {
	ctx := context.Background()
	store := kv.New(kv.NewMemoryBackend())
	require.NoError(t, store.Set(ctx, kv.KeyThemePreference, "sepia"))

	assert.Equal(t, ThemeLight, New(store).Theme(ctx))
}
