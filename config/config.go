// Package config loads gateway configuration from a JSON file with
// environment overrides for deployment settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/paygate/x402-gateway/facilitator"
	"github.com/paygate/x402-gateway/types"
)

var validate = validator.New()

// Config is the full gateway configuration.
type Config struct {
	// ListenAddr the HTTP server binds to.
	ListenAddr string `json:"listenAddr" validate:"required"`

	LogLevel string `json:"logLevel"`

	// DatabaseURL selects the Postgres catalog when set; empty runs
	// the in-memory catalog.
	DatabaseURL string `json:"databaseUrl"`

	// MaxTimeoutSeconds is the settlement window offered in payment
	// requirements.
	MaxTimeoutSeconds int `json:"maxTimeoutSeconds"`

	Facilitator facilitator.Config `json:"facilitator"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		ListenAddr:        ":8080",
		LogLevel:          "info",
		MaxTimeoutSeconds: types.DefaultMaxTimeoutSeconds,
		Facilitator: facilitator.Config{
			BaseURL: "https://x402.org/facilitator",
		},
	}
}

// Load reads configuration from path (optional), applies environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, &types.GatewayError{
				Code:    types.ErrConfigError,
				Message: fmt.Sprintf("failed to parse config: %v", err),
			}
		}
	}

	applyEnv(cfg)

	if err := validate.Struct(cfg); err != nil {
		return nil, &types.GatewayError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("validation failed: %v", err),
		}
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GATEWAY_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("GATEWAY_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("GATEWAY_DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("GATEWAY_FACILITATOR_URL"); v != "" {
		cfg.Facilitator.BaseURL = v
	}
}
