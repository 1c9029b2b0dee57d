package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models devteam.yml.
type Config struct {
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
	Simulation struct {
		TickInterval Duration `yaml:"tick_interval"`
		LogLimit     int      `yaml:"log_limit"`
		Seed         uint64   `yaml:"seed"`
	} `yaml:"simulation"`
	Chat struct {
		Endpoint       string   `yaml:"endpoint"`
		Model          string   `yaml:"model"`
		ThinkingBudget int      `yaml:"thinking_budget"`
		Timeout        Duration `yaml:"timeout"`
	} `yaml:"chat"`
	Journal struct {
		Enabled   bool   `yaml:"enabled"`
		Workspace string `yaml:"workspace"`
	} `yaml:"journal"`
	Webhooks []Webhook `yaml:"webhooks"`
}

type Webhook struct {
	URL            string   `yaml:"url"`
	Events         []string `yaml:"events"`
	Secret         string   `yaml:"secret"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	Enabled        *bool    `yaml:"enabled"`
}

// Active reports whether the webhook should receive deliveries. Hooks are on
// unless disabled explicitly.
func (w Webhook) Active() bool {
	return w.Enabled == nil || *w.Enabled
}

// Duration is a time.Duration written as a Go duration string in YAML.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(v)
	return nil
}

// Load reads and validates config from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with devteam config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the default config when path does not exist.
func LoadOptional(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config.server.addr is required")
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("config.server.base_path must start with /")
	}
	if c.Simulation.TickInterval <= 0 {
		return fmt.Errorf("config.simulation.tick_interval must be positive")
	}
	if c.Simulation.LogLimit <= 0 {
		return fmt.Errorf("config.simulation.log_limit must be positive")
	}
	if c.Chat.Model == "" {
		return fmt.Errorf("config.chat.model is required")
	}
	if _, err := url.ParseRequestURI(c.Chat.Endpoint); err != nil {
		return fmt.Errorf("config.chat.endpoint is invalid: %w", err)
	}
	if c.Chat.ThinkingBudget < 0 {
		return fmt.Errorf("config.chat.thinking_budget must not be negative")
	}
	if c.Chat.Timeout <= 0 {
		return fmt.Errorf("config.chat.timeout must be positive")
	}
	if c.Journal.Enabled && c.Journal.Workspace == "" {
		return fmt.Errorf("config.journal.workspace is required when the journal is enabled")
	}
	if len(c.Webhooks) > 0 && !c.Journal.Enabled {
		return fmt.Errorf("config.webhooks require config.journal.enabled")
	}
	for i, hook := range c.Webhooks {
		if hook.URL == "" {
			return fmt.Errorf("webhook %d has empty url", i)
		}
		if _, err := url.ParseRequestURI(hook.URL); err != nil {
			return fmt.Errorf("webhook %d has invalid url: %w", i, err)
		}
		if hook.TimeoutSeconds < 0 {
			return fmt.Errorf("webhook %d has negative timeout_seconds", i)
		}
		for _, evt := range hook.Events {
			if evt == "" {
				return fmt.Errorf("webhook %d has empty event type", i)
			}
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "devteam.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes. Keys missing from
// data keep their default values.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

const defaultTemplate = `server:
  addr: 127.0.0.1:8080
  base_path: /v0

simulation:
  tick_interval: 1s
  log_limit: 200
  # 0 seeds the race from the clock
  seed: 0

chat:
  endpoint: https://generativelanguage.googleapis.com
  model: gemini-3-pro-preview
  thinking_budget: 32768
  timeout: 60s

journal:
  enabled: false
  workspace: .devteam

webhooks: []
`
