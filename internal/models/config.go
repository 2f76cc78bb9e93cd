package models

type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}

type Config struct {
	LogLevel      string          `json:"logLevel"`
	RetentionDays int             `json:"retentionDays"`
	Server        ServerConfig    `json:"server"`
	Provider      ProviderConfig  `json:"provider"`
	Database      DatabaseConfig  `json:"database"`
	Media         MediaConfig     `json:"media"`
	Retry         RetryConfig     `json:"retry"`
	RateLimit     RateLimitConfig `json:"rateLimit"`
	Tracing       TracingConfig   `json:"tracing"`
}

type ServerConfig struct {
	Port            int    `json:"port"`
	ReadTimeoutSec  int    `json:"readTimeoutSec"`
	WriteTimeoutSec int    `json:"writeTimeoutSec"`
	IdleTimeoutSec  int    `json:"idleTimeoutSec"`
	// RealtimeToken gates the /ws endpoint; carried out-of-band by the
	// operator frontend. Set via env in production.
	RealtimeToken string `json:"realtimeToken"`
}

type ProviderConfig struct {
	APIBaseURL    string `json:"apiBaseUrl"`
	PhoneNumberID string `json:"phoneNumberId"`
	// AccessToken and VerifyToken come from the environment, never the file.
	AccessToken string `json:"-"`
	VerifyToken string `json:"-"`
	// SendsPerSecond is the provider's per-second ceiling; it is also the
	// dispatcher's default chunk size.
	SendsPerSecond int `json:"sendsPerSecond"`
	TimeoutSec     int `json:"timeoutSec"`
	// CountryCode is the expected prefix when normalizing 12-digit numbers
	// down to 10 national digits.
	CountryCode string `json:"countryCode"`
	// ReengagementWindowHours bounds free-form sends; template sends are
	// exempt.
	ReengagementWindowHours int `json:"reengagementWindowHours"`
}

type DatabaseConfig struct {
	Path         string `json:"path"`
	MaxOpenConns int    `json:"maxOpenConns"`
	MaxIdleConns int    `json:"maxIdleConns"`
}

type MediaSizeLimits struct {
	ImageMB    int `json:"imageMB"`
	AudioMB    int `json:"audioMB"`
	VideoMB    int `json:"videoMB"`
	DocumentMB int `json:"documentMB"`
}

type MediaAllowedTypes struct {
	Image    []string `json:"image"`
	Audio    []string `json:"audio"`
	Video    []string `json:"video"`
	Document []string `json:"document"`
}

type MediaConfig struct {
	StoreDir string `json:"storeDir"`
	// PublicBaseURL prefixes mirrored files when building media_ref URLs.
	PublicBaseURL string            `json:"publicBaseUrl"`
	MaxSizeMB     MediaSizeLimits   `json:"maxSizeMB"`
	AllowedTypes  MediaAllowedTypes `json:"allowedTypes"`
}

type RetryConfig struct {
	InitialBackoffMs int `json:"initialBackoffMs"`
	MaxBackoffMs     int `json:"maxBackoffMs"`
}

type RateLimitConfig struct {
	// Per-operator ceiling on API calls that reach the provider
	// (send batches, media uploads).
	OperatorRPS   float64 `json:"operatorRps"`
	OperatorBurst int     `json:"operatorBurst"`
}

type TracingConfig struct {
	Enabled        bool    `json:"enabled"`
	ServiceName    string  `json:"serviceName"`
	ServiceVersion string  `json:"serviceVersion"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlpEndpoint"`
	SampleRate     float64 `json:"sampleRate"`
	UseStdout      bool    `json:"useStdout"`
}
