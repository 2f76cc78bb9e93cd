package constants

// Server defaults
const (
	DefaultServerPort            = 8084
	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 15
	DefaultServerIdleTimeoutSec  = 60
	DefaultGracefulShutdownSec   = 30
)

// Provider defaults
const (
	// DefaultSendsPerSecond is the provider's per-second throughput
	// ceiling and the dispatcher's default chunk size.
	DefaultSendsPerSecond          = 80
	DefaultProviderTimeoutSec      = 30
	DefaultCountryCode             = "91"
	DefaultReengagementWindowHours = 24
	NationalNumberDigits           = 10
)

// Media defaults (MB ceilings per kind)
const (
	DefaultMaxImageSizeMB    = 5
	DefaultMaxAudioSizeMB    = 16
	DefaultMaxVideoSizeMB    = 16
	DefaultMaxDocumentSizeMB = 100
	BytesPerMegabyte         = 1024 * 1024
)

// Retry and retention defaults
const (
	DefaultRetryBackoffMs        = 1000
	DefaultMaxBackoffMs          = 60000
	DefaultDatabaseRetryAttempts = 3
	DefaultRetentionDays         = 90
)

// Rate limiting defaults
const (
	DefaultOperatorRPS   = 5.0
	DefaultOperatorBurst = 10
	// PongMinIntervalSec throttles keep-alive replies per connection.
	PongMinIntervalSec = 5
)

// Log sanitization
const (
	// DefaultPhoneMaskLength is how many trailing digits survive masking.
	DefaultPhoneMaskLength  = 4
	DefaultMessageIDPreview = 20
)

// Validation bounds
const (
	MinPhoneNumberLength = 7
	MaxPhoneNumberLength = 15
	MaxMessageIDLength   = 256
	MaxMessageBodyBytes  = 4096
	MaxRecipientsPerSend = 5000
	MaxWebhookBodyBytes  = 1 << 20
	MaxUploadBodyBytes   = 110 << 20
)
