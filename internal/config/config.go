package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	HTTPAddr  string
	ServerURL string

	RedisURL    string
	DatabaseURL string
	ArchiveDir  string

	GameTTLSec   int
	ClockSeconds int
	ClockEnabled bool

	WhiteName string
	BlackName string
	PGNEvent  string
	PGNSite   string

	MsgOverrideDir string
}

// GameTTL returns the persisted-game expiry.
func (c *AppConfig) GameTTL() time.Duration { return time.Duration(c.GameTTLSec) * time.Second }

// ClockBudget returns the per-side starting time.
func (c *AppConfig) ClockBudget() time.Duration {
	return time.Duration(c.ClockSeconds) * time.Second
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:     ":8080",
		ServerURL:    "http://127.0.0.1:8080",
		GameTTLSec:   86400,
		ClockSeconds: 600,
		WhiteName:    "White",
		BlackName:    "Black",
		PGNEvent:     "Casual Game",
		PGNSite:      "Local",
	}

	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("SERVER_URL")); v != "" {
		cfg.ServerURL = strings.TrimRight(v, "/")
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.ArchiveDir = strings.TrimSpace(os.Getenv("ARCHIVE_DIR"))
	cfg.MsgOverrideDir = strings.TrimSpace(os.Getenv("MSG_OVERRIDE_DIR"))

	if v := strings.TrimSpace(os.Getenv("GAME_TTL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.GameTTLSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CLOCK_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ClockSeconds = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CLOCK_ENABLED")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ClockEnabled = b
		}
	}

	if v := strings.TrimSpace(os.Getenv("WHITE_NAME")); v != "" {
		cfg.WhiteName = v
	}
	if v := strings.TrimSpace(os.Getenv("BLACK_NAME")); v != "" {
		cfg.BlackName = v
	}
	if v := strings.TrimSpace(os.Getenv("PGN_EVENT")); v != "" {
		cfg.PGNEvent = v
	}
	if v := strings.TrimSpace(os.Getenv("PGN_SITE")); v != "" {
		cfg.PGNSite = v
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("HTTP_ADDR must not be empty")
	}
	if cfg.RedisURL != "" && !strings.HasPrefix(cfg.RedisURL, "redis://") && !strings.HasPrefix(cfg.RedisURL, "rediss://") {
		return nil, errors.New("REDIS_URL must start with redis:// or rediss://")
	}
	return cfg, nil
}
