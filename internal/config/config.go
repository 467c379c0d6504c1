// Package config provides environment configuration for dialbridge.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults.
const (
	DefaultPort          = 5050
	DefaultLogLevel      = "info"
	DefaultTranscriptDir = "."
)

// ErrMissingAPIKey is returned when OPENAI_API_KEY is not set.
// The process must refuse to start without it.
var ErrMissingAPIKey = errors.New("config: OPENAI_API_KEY is required")

// Config holds the process configuration, loaded from the environment.
type Config struct {
	// OpenAIKey is the credential for the Realtime API. Required.
	OpenAIKey string

	// Port is the HTTP listen port.
	Port int

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string

	// TranscriptDir is where finished call transcripts are written.
	TranscriptDir string
}

// Load reads configuration from the environment. A .env file in the
// working directory is honored when present.
func Load() (Config, error) {
	// Best effort: a missing .env file is not an error.
	_ = godotenv.Load()

	cfg := Config{
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		Port:          DefaultPort,
		LogLevel:      DefaultLogLevel,
		TranscriptDir: DefaultTranscriptDir,
	}

	if cfg.OpenAIKey == "" {
		return Config{}, ErrMissingAPIKey
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid PORT %q: %w", port, err)
		}
		cfg.Port = p
	}

	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.LogLevel = lvl
	}

	if dir := os.Getenv("TRANSCRIPT_DIR"); dir != "" {
		cfg.TranscriptDir = dir
	}

	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
