// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading layers defaults, an optional YAML file and GRAFIXR_* env vars.
// - External errors are wrapped with ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseURL selects the Postgres store when set; the in-memory store is used otherwise.
	DatabaseURL string `koanf:"database_url"`

	// MediaDir is the root directory for uploaded media.
	MediaDir string `koanf:"media_dir"`

	// MaxUploadMB caps request bodies on the API and the admin console.
	MaxUploadMB int `koanf:"max_upload_mb"`

	// AdminToken protects admin endpoints when non-empty.
	AdminToken string `koanf:"admin_token"`

	// AllowedOrigins lists CORS origins for the API. "*" allows any origin.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// InquiryRatePerMinute and InquiryBurst shape the per-client contact form limiter.
	InquiryRatePerMinute int `koanf:"inquiry_rate_per_minute"`
	InquiryBurst         int `koanf:"inquiry_burst"`

	// MediaWorkerCount sets the number of media cleanup workers.
	MediaWorkerCount int `koanf:"media_worker_count"`

	// MediaQueueSize bounds the in-memory media cleanup queue.
	MediaQueueSize int `koanf:"media_queue_size"`

	// MediaDeleteAttempts bounds retries for a single media delete.
	MediaDeleteAttempts int `koanf:"media_delete_attempts"`

	// FeaturedCount is the number of items shown under Featured Work.
	FeaturedCount int `koanf:"featured_count"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":8080",
		MediaDir:             "data/media",
		MaxUploadMB:          64,
		InquiryRatePerMinute: 5,
		InquiryBurst:         3,
		MediaWorkerCount:     2,
		MediaQueueSize:       1024,
		MediaDeleteAttempts:  3,
		FeaturedCount:        6,
	}
}

// MaxUploadBytes returns the body limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	case strings.TrimSpace(c.MediaDir) == "":
		return fmt.Errorf("%w: media_dir must not be empty", ErrInvalidConfig)
	case c.MaxUploadMB <= 0:
		return fmt.Errorf("%w: max_upload_mb must be positive", ErrInvalidConfig)
	case c.InquiryRatePerMinute <= 0 || c.InquiryBurst <= 0:
		return fmt.Errorf("%w: inquiry rate and burst must be positive", ErrInvalidConfig)
	case c.MediaWorkerCount <= 0:
		return fmt.Errorf("%w: media_worker_count must be positive", ErrInvalidConfig)
	case c.MediaQueueSize <= 0:
		return fmt.Errorf("%w: media_queue_size must be positive", ErrInvalidConfig)
	case c.MediaDeleteAttempts <= 0:
		return fmt.Errorf("%w: media_delete_attempts must be positive", ErrInvalidConfig)
	case c.FeaturedCount < 0:
		return fmt.Errorf("%w: featured_count must not be negative", ErrInvalidConfig)
	}
	return nil
}
