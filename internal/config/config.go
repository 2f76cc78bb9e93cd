package config

import (
	"encoding/json"
	"fmt"
	"os"

	"voterdesk/internal/constants"
	"voterdesk/internal/models"
	"voterdesk/internal/security"
)

var (
	ErrMissingProviderURL   = models.ConfigError{Message: "missing provider API base URL"}
	ErrMissingPhoneNumberID = models.ConfigError{Message: "missing provider phone number id"}
	ErrMissingDBPath        = models.ConfigError{Message: "missing database path"}
	ErrMissingMediaDir      = models.ConfigError{Message: "missing media store directory"}
)

func LoadConfig(path string) (*models.Config, error) {
	// Validate config file path to prevent directory traversal
	if err := security.ValidateFilePath(path); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	file, err := os.ReadFile(path) // #nosec G304 - Path validated by security.ValidateFilePath above
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(&config)

	if err := validateSecurity(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(c *models.Config) error {
	if c.Provider.APIBaseURL == "" {
		return ErrMissingProviderURL
	}
	if c.Provider.PhoneNumberID == "" {
		return ErrMissingPhoneNumberID
	}
	if c.Database.Path == "" {
		return ErrMissingDBPath
	}
	if c.Media.StoreDir == "" {
		return ErrMissingMediaDir
	}

	if c.Server.Port <= 0 {
		c.Server.Port = constants.DefaultServerPort
	}
	if c.Server.ReadTimeoutSec <= 0 {
		c.Server.ReadTimeoutSec = constants.DefaultServerReadTimeoutSec
	}
	if c.Server.WriteTimeoutSec <= 0 {
		c.Server.WriteTimeoutSec = constants.DefaultServerWriteTimeoutSec
	}
	if c.Server.IdleTimeoutSec <= 0 {
		c.Server.IdleTimeoutSec = constants.DefaultServerIdleTimeoutSec
	}

	if c.Provider.SendsPerSecond <= 0 {
		c.Provider.SendsPerSecond = constants.DefaultSendsPerSecond
	}
	if c.Provider.TimeoutSec <= 0 {
		c.Provider.TimeoutSec = constants.DefaultProviderTimeoutSec
	}
	if c.Provider.CountryCode == "" {
		c.Provider.CountryCode = constants.DefaultCountryCode
	}
	if c.Provider.ReengagementWindowHours <= 0 {
		c.Provider.ReengagementWindowHours = constants.DefaultReengagementWindowHours
	}

	if c.Media.MaxSizeMB.ImageMB == 0 {
		c.Media.MaxSizeMB.ImageMB = constants.DefaultMaxImageSizeMB
	}
	if c.Media.MaxSizeMB.AudioMB == 0 {
		c.Media.MaxSizeMB.AudioMB = constants.DefaultMaxAudioSizeMB
	}
	if c.Media.MaxSizeMB.VideoMB == 0 {
		c.Media.MaxSizeMB.VideoMB = constants.DefaultMaxVideoSizeMB
	}
	if c.Media.MaxSizeMB.DocumentMB == 0 {
		c.Media.MaxSizeMB.DocumentMB = constants.DefaultMaxDocumentSizeMB
	}

	if len(c.Media.AllowedTypes.Image) == 0 {
		c.Media.AllowedTypes.Image = constants.DefaultImageTypes
	}
	if len(c.Media.AllowedTypes.Audio) == 0 {
		c.Media.AllowedTypes.Audio = constants.DefaultAudioTypes
	}
	if len(c.Media.AllowedTypes.Video) == 0 {
		c.Media.AllowedTypes.Video = constants.DefaultVideoTypes
	}
	if len(c.Media.AllowedTypes.Document) == 0 {
		c.Media.AllowedTypes.Document = constants.DefaultDocumentTypes
	}

	if c.Retry.InitialBackoffMs <= 0 {
		c.Retry.InitialBackoffMs = constants.DefaultRetryBackoffMs
	}
	if c.Retry.MaxBackoffMs <= 0 {
		c.Retry.MaxBackoffMs = constants.DefaultMaxBackoffMs
	}

	if c.RateLimit.OperatorRPS <= 0 {
		c.RateLimit.OperatorRPS = constants.DefaultOperatorRPS
	}
	if c.RateLimit.OperatorBurst <= 0 {
		c.RateLimit.OperatorBurst = constants.DefaultOperatorBurst
	}

	if c.RetentionDays <= 0 {
		c.RetentionDays = constants.DefaultRetentionDays
	}

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "voterdesk"
	}
	if c.Tracing.SampleRate <= 0 || c.Tracing.SampleRate > 1 {
		c.Tracing.SampleRate = 0.1
	}

	return nil
}

func applyEnvironmentOverrides(c *models.Config) {
	if url := os.Getenv("PROVIDER_API_URL"); url != "" {
		c.Provider.APIBaseURL = url
	}

	// SECURITY: tokens come from the environment, never the config file
	if token := os.Getenv("PROVIDER_ACCESS_TOKEN"); token != "" {
		c.Provider.AccessToken = token
	}
	if token := os.Getenv("WEBHOOK_VERIFY_TOKEN"); token != "" {
		c.Provider.VerifyToken = token
	}
	if token := os.Getenv("REALTIME_TOKEN"); token != "" {
		c.Server.RealtimeToken = token
	}

	if path := os.Getenv("DB_PATH"); path != "" {
		c.Database.Path = path
	}
	if dir := os.Getenv("MEDIA_DIR"); dir != "" {
		c.Media.StoreDir = dir
	}
}

// validateSecurity performs security-specific validation
func validateSecurity(c *models.Config) error {
	isProduction := os.Getenv("VOTERDESK_ENV") == "production"

	if isProduction {
		if c.Provider.AccessToken == "" {
			return models.ConfigError{Message: "provider access token is required in production (set PROVIDER_ACCESS_TOKEN environment variable)"}
		}
		if c.Provider.VerifyToken == "" {
			return models.ConfigError{Message: "webhook verify token is required in production (set WEBHOOK_VERIFY_TOKEN environment variable)"}
		}
		if len(c.Provider.VerifyToken) < 32 {
			return models.ConfigError{Message: "webhook verify token must be at least 32 characters long"}
		}
		if c.LogLevel == "debug" {
			return models.ConfigError{Message: "debug logging should not be used in production (security risk)"}
		}
	} else {
		if c.Provider.VerifyToken == "" {
			fmt.Fprintf(os.Stderr, "WARNING: webhook verify token not set. Set WEBHOOK_VERIFY_TOKEN environment variable for security.\n")
		}
	}

	return nil
}
