package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.opchat/config.toml.
type Config struct {
	DefaultProfile string `toml:"default_profile"`

	// Remote messenger administration backend.
	APIBaseURL string `toml:"api_base_url"`

	// Generative text API.
	GenAIBaseURL string `toml:"genai_base_url"`
	GenAIKey     string `toml:"genai_key"`
	GenAIModel   string `toml:"genai_model"`

	// Fixed polling intervals, in seconds. Zero means default.
	ChatPollSeconds      int `toml:"chat_poll_seconds"`
	MessagePollSeconds   int `toml:"message_poll_seconds"`
	DashboardPollSeconds int `toml:"dashboard_poll_seconds"`

	AutoLoadMedia bool `toml:"auto_load_media"`
}

// Poll interval defaults. The messenger view refreshes chats and
// messages every 10s; the condensed dashboard preset refreshes at 5s.
const (
	DefaultChatPollSeconds      = 10
	DefaultMessagePollSeconds   = 10
	DefaultDashboardPollSeconds = 5
)

// Load reads config from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
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

func (c *Config) applyDefaults() {
	if c.ChatPollSeconds <= 0 {
		c.ChatPollSeconds = DefaultChatPollSeconds
	}
	if c.MessagePollSeconds <= 0 {
		c.MessagePollSeconds = DefaultMessagePollSeconds
	}
	if c.DashboardPollSeconds <= 0 {
		c.DashboardPollSeconds = DefaultDashboardPollSeconds
	}
}
