package config

import (
	"os"
	"path/filepath"
	"testing"

	"voterdesk/internal/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalConfig = `{
	"provider": {
		"apiBaseUrl": "https://graph.example.com/v19.0",
		"phoneNumberId": "1234567890"
	},
	"database": {
		"path": "/tmp/voterdesk.db"
	},
	"media": {
		"storeDir": "/tmp/voterdesk-media"
	}
}`

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfigFile(t, minimalConfig)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, constants.DefaultSendsPerSecond, cfg.Provider.SendsPerSecond)
	assert.Equal(t, constants.DefaultCountryCode, cfg.Provider.CountryCode)
	assert.Equal(t, constants.DefaultReengagementWindowHours, cfg.Provider.ReengagementWindowHours)
	assert.Equal(t, constants.DefaultMaxImageSizeMB, cfg.Media.MaxSizeMB.ImageMB)
	assert.Equal(t, constants.DefaultMaxDocumentSizeMB, cfg.Media.MaxSizeMB.DocumentMB)
	assert.NotEmpty(t, cfg.Media.AllowedTypes.Image)
	assert.Equal(t, constants.DefaultRetentionDays, cfg.RetentionDays)
	assert.Equal(t, constants.DefaultOperatorRPS, cfg.RateLimit.OperatorRPS)
}

func TestLoadConfigMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "missing provider URL",
			content: `{"provider": {"phoneNumberId": "1"}, "database": {"path": "x"}, "media": {"storeDir": "y"}}`,
			wantErr: ErrMissingProviderURL,
		},
		{
			name:    "missing phone number id",
			content: `{"provider": {"apiBaseUrl": "https://x"}, "database": {"path": "x"}, "media": {"storeDir": "y"}}`,
			wantErr: ErrMissingPhoneNumberID,
		},
		{
			name:    "missing database path",
			content: `{"provider": {"apiBaseUrl": "https://x", "phoneNumberId": "1"}, "media": {"storeDir": "y"}}`,
			wantErr: ErrMissingDBPath,
		},
		{
			name:    "missing media dir",
			content: `{"provider": {"apiBaseUrl": "https://x", "phoneNumberId": "1"}, "database": {"path": "x"}}`,
			wantErr: ErrMissingMediaDir,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			_, err := LoadConfig(path)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	path := writeConfigFile(t, minimalConfig)

	t.Setenv("PROVIDER_API_URL", "https://override.example.com")
	t.Setenv("PROVIDER_ACCESS_TOKEN", "env-access-token")
	t.Setenv("WEBHOOK_VERIFY_TOKEN", "env-verify-token")
	t.Setenv("DB_PATH", "/tmp/override.db")
	t.Setenv("MEDIA_DIR", "/tmp/override-media")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://override.example.com", cfg.Provider.APIBaseURL)
	assert.Equal(t, "env-access-token", cfg.Provider.AccessToken)
	assert.Equal(t, "env-verify-token", cfg.Provider.VerifyToken)
	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
	assert.Equal(t, "/tmp/override-media", cfg.Media.StoreDir)
}

func TestLoadConfigProductionValidation(t *testing.T) {
	path := writeConfigFile(t, minimalConfig)

	t.Setenv("VOTERDESK_ENV", "production")
	t.Setenv("PROVIDER_ACCESS_TOKEN", "env-access-token")
	t.Setenv("WEBHOOK_VERIFY_TOKEN", "short")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 characters")

	t.Setenv("WEBHOOK_VERIFY_TOKEN", "a-sufficiently-long-verify-token-for-production")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Provider.VerifyToken)
}

func TestLoadConfigInvalidFile(t *testing.T) {
	t.Run("nonexistent", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeConfigFile(t, "{not json")
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})
}
