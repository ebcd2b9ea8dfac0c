package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config captures environment driven configuration for the syncify service.
type Config struct {
	HTTPAddr  string `envconfig:"SYNCIFY_HTTP_ADDR" default:":8080"`
	SQLiteDSN string `envconfig:"SYNCIFY_SQLITE_DSN" default:"file:syncify.db?_foreign_keys=on"`

	SessionTTL time.Duration `envconfig:"SYNCIFY_SESSION_TTL" default:"24h"`
	RequestTTL time.Duration `envconfig:"SYNCIFY_REQUEST_TTL" default:"15m"`

	// MaxSearchOwnerDays bounds one slot search as participants multiplied
	// by calendar days. Oversized searches are rejected, not truncated.
	MaxSearchOwnerDays int `envconfig:"SYNCIFY_MAX_SEARCH_OWNER_DAYS" default:"10000"`

	// GenerationTimezone anchors candidate slot boundaries. Slot times are
	// still exchanged in UTC regardless of this setting.
	GenerationTimezone string `envconfig:"SYNCIFY_GENERATION_TIMEZONE" default:"UTC"`

	// GenerationLocation is resolved from GenerationTimezone during Load.
	GenerationLocation *time.Location `ignored:"true"`
}

// Load parses configuration values from the current process environment,
// applying defaults for unset entries and validating the result.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	loc, err := time.LoadLocation(cfg.GenerationTimezone)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SYNCIFY_GENERATION_TIMEZONE %q: %w", cfg.GenerationTimezone, err)
	}
	cfg.GenerationLocation = loc

	return cfg, nil
}

func (c Config) validate() error {
	invalid := make([]string, 0, 2)

	if strings.TrimSpace(c.HTTPAddr) == "" {
		invalid = append(invalid, "SYNCIFY_HTTP_ADDR")
	}
	if strings.TrimSpace(c.SQLiteDSN) == "" {
		invalid = append(invalid, "SYNCIFY_SQLITE_DSN")
	}
	if c.SessionTTL <= 0 {
		invalid = append(invalid, "SYNCIFY_SESSION_TTL")
	}
	if c.RequestTTL <= 0 {
		invalid = append(invalid, "SYNCIFY_REQUEST_TTL")
	}
	if c.MaxSearchOwnerDays < 0 {
		invalid = append(invalid, "SYNCIFY_MAX_SEARCH_OWNER_DAYS")
	}

	if len(invalid) > 0 {
		return errors.New("invalid environment values: " + strings.Join(invalid, ", "))
	}
	return nil
}
