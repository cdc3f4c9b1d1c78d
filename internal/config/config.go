// Package config loads process settings from the environment and the engine
// policy (layout geometry, idle threshold) from an optional TOML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AdamBeresnev/bracket-lanes/internal/layout"
	"github.com/AdamBeresnev/bracket-lanes/internal/watchdog"
	"github.com/BurntSushi/toml"
)

type Config struct {
	// Database
	DatabaseDriver string
	DatabaseURL    string

	// HTTP server
	HTTPAddr string

	// CORS
	CORSAllowOrigins []string

	// Rate limiting of mutating endpoints
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	EngineConfigPath string
	Engine           Engine
}

// Engine is the policy shared by the layout engine and the idle watchdog.
type Engine struct {
	Layout          layout.Config `toml:"layout"`
	IdleThresholdMS int64         `toml:"idle_threshold_ms"`
}

func DefaultEngine() Engine {
	return Engine{
		Layout:          layout.DefaultConfig(),
		IdleThresholdMS: watchdog.DefaultThreshold.Milliseconds(),
	}
}

func (e Engine) IdleThreshold() time.Duration {
	return time.Duration(e.IdleThresholdMS) * time.Millisecond
}

func (e Engine) validate() error {
	l := e.Layout
	if l.MatchHeight <= 0 || l.MatchGap < 0 || l.ByeGap < 0 || l.ConnectorWidth < 0 {
		return fmt.Errorf("layout sizes must be positive: %+v", l)
	}
	if e.IdleThresholdMS <= 0 {
		return fmt.Errorf("idle_threshold_ms must be positive, got %d", e.IdleThresholdMS)
	}
	return nil
}

// LoadEngine reads the policy file at path over the defaults. Keys missing
// from the file keep their default value. An empty path means defaults.
func LoadEngine(path string) (Engine, error) {
	engine := DefaultEngine()
	if path == "" {
		return engine, nil
	}
	if _, err := toml.DecodeFile(path, &engine); err != nil {
		return Engine{}, fmt.Errorf("failed to read engine config %s: %w", path, err)
	}
	if err := engine.validate(); err != nil {
		return Engine{}, fmt.Errorf("invalid engine config %s: %w", path, err)
	}
	return engine, nil
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseDriver: envOr("DATABASE_DRIVER", "sqlite3"),
		DatabaseURL:    envOr("DATABASE_URL", "bracket.db"),

		HTTPAddr: envOr("HTTP_ADDR", ":8080"),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{"http://localhost:5173"}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		EngineConfigPath: envOr("ENGINE_CONFIG", ""),
	}

	switch cfg.DatabaseDriver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("DATABASE_DRIVER must be sqlite3 or postgres, got %q", cfg.DatabaseDriver)
	}

	engine, err := LoadEngine(cfg.EngineConfigPath)
	if err != nil {
		return nil, err
	}
	cfg.Engine = engine
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
