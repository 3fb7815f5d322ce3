package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "atomity", "password",
}

type Config struct {
	Port                   int    `env:"PORT" envDefault:"8080"`
	DatabaseURL            string `env:"DATABASE_URL,required"`
	RedisURL               string `env:"REDIS_URL,required"`
	BaseURL                string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	SessionSecret          string `env:"SESSION_SECRET"`
	ReservationWindowHours int    `env:"RESERVATION_WINDOW_HOURS" envDefault:"24"`
	KeepAliveSeconds       int    `env:"KEEP_ALIVE_SECONDS" envDefault:"60"`
	LoginTokenTTLMinutes   int    `env:"LOGIN_TOKEN_TTL_MINUTES" envDefault:"15"`
	SMTPAddr               string `env:"SMTP_ADDR"`
	SMTPFrom               string `env:"SMTP_FROM" envDefault:"no-reply@atomity.app"`
	MigrateOnStart         bool   `env:"MIGRATE_ON_START" envDefault:"false"`
	LogLevel               string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) ReservationWindow() time.Duration {
	return time.Duration(c.ReservationWindowHours) * time.Hour
}

func (c *Config) KeepAliveInterval() time.Duration {
	return time.Duration(c.KeepAliveSeconds) * time.Second
}

func (c *Config) LoginTokenTTL() time.Duration {
	return time.Duration(c.LoginTokenTTLMinutes) * time.Minute
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.ReservationWindowHours <= 0 {
		return fmt.Errorf("RESERVATION_WINDOW_HOURS must be positive")
	}
	if c.KeepAliveSeconds <= 0 {
		return fmt.Errorf("KEEP_ALIVE_SECONDS must be positive")
	}

	if isProduction {
		if err := validateSecret("SESSION_SECRET", c.SessionSecret); err != nil {
			return err
		}
		if c.SMTPAddr == "" {
			log.Warn().Msg("SMTP_ADDR is empty in production: magic links will only be logged")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
