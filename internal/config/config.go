// Package config loads crawldash settings from defaults, a YAML file,
// CRAWLDASH_ environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"crawldash/internal/utils"
)

// Defaults.
const (
	DefaultBackendURL     = "http://localhost:8080"
	DefaultBackendTimeout = time.Duration(0)
	DefaultListen         = ":8090"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultRatePerMinute  = 60
	DefaultRateBurst      = 10
)

// Config is the full crawldash configuration.
type Config struct {
	Backend   BackendConfig   `koanf:"backend"`
	Listen    string          `koanf:"listen" validate:"required"`
	Log       LogConfig       `koanf:"log"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	TLS       TLSConfig       `koanf:"tls"`
}

// BackendConfig locates the crawler backend.
type BackendConfig struct {
	URL     string        `koanf:"url" validate:"required,http_url"`
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"` // zero disables the per-request limit
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn warning error"`
	Format string `koanf:"format" validate:"oneof=json text"`
	File   string `koanf:"file"`
}

// RateLimitConfig bounds action requests per client IP.
type RateLimitConfig struct {
	PerMinute int `koanf:"per_minute" validate:"gt=0"`
	Burst     int `koanf:"burst" validate:"gt=0"`
}

type TLSConfig struct {
	Enabled bool   `koanf:"enabled"`
	Cert    string `koanf:"cert" validate:"required_if=Enabled true"`
	Key     string `koanf:"key" validate:"required_if=Enabled true"`
}

// LogOptions converts the log section for utils.NewLogger.
func (c *Config) LogOptions() utils.LogOptions {
	return utils.LogOptions{Level: c.Log.Level, Format: c.Log.Format, File: c.Log.File}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field and reports all failures in one error.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	key := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required", "required_if":
		return key + " is required"
	case "http_url":
		return key + " must be an http or https URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", key, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", key, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", key, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", key, fe.Tag())
	}
}
