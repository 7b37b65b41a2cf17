package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.vedchat/config.toml.
type Config struct {
	DefaultSession string  `toml:"default_session"`
	API            API     `toml:"api"`
	Reveal         Reveal  `toml:"reveal"`
	Storage        Storage `toml:"storage"`
	Metrics        Metrics `toml:"metrics"`
}

// API configures the remote chat endpoint and send retry policy.
type API struct {
	Provider         string `toml:"provider"` // "http" or "anthropic"
	BaseURL          string `toml:"base_url"`
	Model            string `toml:"model"` // anthropic provider only
	TimeoutMs        int    `toml:"timeout_ms"`
	RetryMaxAttempts int    `toml:"retry_max_attempts"`
	RetryBaseDelayMs int    `toml:"retry_base_delay_ms"`
}

// Reveal configures the incremental reply reveal.
type Reveal struct {
	IntervalMs int `toml:"interval_ms"`
}

// Storage configures the bounded key-value store and its budgets.
// Capacity bounds the adapter itself; ByteBudget is the smaller eviction
// target for the serialized topic set, so an evicted set always fits.
type Storage struct {
	Backend          string `toml:"backend"` // "sqlite", "bolt" or "memory"
	Capacity         int    `toml:"capacity"`
	ByteBudget       int    `toml:"byte_budget"`
	TopicLimit       int    `toml:"topic_limit"`
	MessagesPerTopic int    `toml:"messages_per_topic"`
}

// Metrics configures the optional Prometheus listener.
type Metrics struct {
	Listen string `toml:"listen"` // empty disables the listener
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: API{
			Provider:         "http",
			BaseURL:          "http://127.0.0.1:8000",
			TimeoutMs:        12000,
			RetryMaxAttempts: 3,
			RetryBaseDelayMs: 500,
		},
		Reveal: Reveal{
			IntervalMs: 55,
		},
		Storage: Storage{
			Backend:          "sqlite",
			Capacity:         5_000_000,
			ByteBudget:       2_000_000,
			TopicLimit:       80,
			MessagesPerTopic: 200,
		},
	}
}

// Load reads config from the given path, overlaying the defaults.
// A missing file is not an error: the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	_, err := toml.DecodeFile(path, cfg)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// Timeout returns the remote send timeout as a duration.
func (a API) Timeout() time.Duration {
	return time.Duration(a.TimeoutMs) * time.Millisecond
}

// RetryBaseDelay returns the first retry backoff as a duration.
func (a API) RetryBaseDelay() time.Duration {
	return time.Duration(a.RetryBaseDelayMs) * time.Millisecond
}

// Interval returns the reveal tick as a duration.
func (r Reveal) Interval() time.Duration {
	return time.Duration(r.IntervalMs) * time.Millisecond
}
