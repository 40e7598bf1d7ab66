package config

import "time"

// Default values for configuration.
const (
	// Server defaults
	DefaultServerHost          = "0.0.0.0"
	DefaultServerPort          = 8080
	DefaultReadTimeout         = 10 * time.Second
	DefaultWriteTimeout        = 30 * time.Second
	DefaultIdleTimeout         = 60 * time.Second
	DefaultShutdownTimeout     = 15 * time.Second
	DefaultMaxUploadSizeMB     = 50
	DefaultUploadRatePerMinute = 10
	DefaultUploadBurst         = 3

	// Processing defaults
	DefaultTaskTimeout     = 120 * time.Second
	DefaultCacheTTL        = 60 * time.Minute
	DefaultCleanupInterval = 10 * time.Minute
	DefaultMaxEntrySizeMB  = 64
	DefaultMaxCachedChats  = 100

	// Analysis defaults
	DefaultTimezone   = "Local"
	DefaultWindow     = "all"
	DefaultWordLength = 0

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// DefaultConfigFile ищется в рабочем каталоге.
	DefaultConfigFile = "config.yml"
)

// DefaultCORSOrigins разрешает любые источники; для публичного развертывания их нужно сузить.
var DefaultCORSOrigins = []string{"*"}
