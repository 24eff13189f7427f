// Package config provides unified configuration loading for agentsim.
// Precedence: compiled-in defaults → YAML file → environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete agentsim configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Agent   AgentConfig   `yaml:"agent"`
	Window  WindowConfig  `yaml:"window"`
	Warming WarmingConfig `yaml:"warming"`
	Redis   RedisConfig   `yaml:"redis"`
	Archive ArchiveConfig `yaml:"archive"`
	Data    DataConfig    `yaml:"data"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig configures the HTTP/WebSocket server.
type ServerConfig struct {
	HTTPPort        int           `yaml:"http_port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// UpstreamURL is the production conversation endpoint the playground
	// bridge relays to.
	UpstreamURL string `yaml:"upstream_url"`
	// AllowedOrigin restricts WebSocket origins; "*" disables the check.
	AllowedOrigin string `yaml:"allowed_origin"`
}

// AgentConfig configures the external agent runtime boundary.
type AgentConfig struct {
	Name string `yaml:"name"`
	// Endpoint is the HTTP URL of the external agent runtime. Empty means
	// no runtime is reachable; the server falls back to a canned responder.
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// WindowConfig configures the context window builder.
type WindowConfig struct {
	// MaxMessages is the sliding-window size W: the most recent W messages
	// are included in the model context.
	MaxMessages int `yaml:"max_messages"`
	// MaxTokens optionally caps the window by token count (0 disables).
	MaxTokens int `yaml:"max_tokens"`
	// TokenModel selects the tiktoken encoding used for the token cap.
	TokenModel string `yaml:"token_model"`
}

// WarmingConfig configures the startup cache-warming run.
type WarmingConfig struct {
	Enabled bool `yaml:"enabled"`
	// Concurrency bounds how many (universe, workflow) tasks may be
	// invoking the agent runtime simultaneously.
	Concurrency int `yaml:"concurrency"`
	// RatePerSecond throttles runtime invocations across all warming
	// workers (0 disables throttling).
	RatePerSecond float64       `yaml:"rate_per_second"`
	TaskTimeout   time.Duration `yaml:"task_timeout"`
}

// RedisConfig configures the response cache.
type RedisConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DefaultTTL   time.Duration `yaml:"default_ttl"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
}

// ArchiveConfig configures transcript persistence.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DataConfig locates the on-disk universe, workflow, and merchant-memory
// directories.
type DataConfig struct {
	UniverseDir string `yaml:"universe_dir"`
	WorkflowDir string `yaml:"workflow_dir"`
	MemoryDir   string `yaml:"memory_dir"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level            string   `yaml:"level"`
	Format           string   `yaml:"format"`
	OutputPaths      []string `yaml:"output_paths"`
	EnableCaller     bool     `yaml:"enable_caller"`
	EnableStacktrace bool     `yaml:"enable_stacktrace"`
}

// Validate checks cross-field constraints after loading.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.Server.HTTPPort)
	}
	if c.Warming.Concurrency <= 0 {
		return fmt.Errorf("warming concurrency must be positive, got %d", c.Warming.Concurrency)
	}
	if c.Window.MaxMessages <= 0 {
		return fmt.Errorf("window max_messages must be positive, got %d", c.Window.MaxMessages)
	}
	return nil
}

// Loader loads configuration in builder style.
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a loader with the default env prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: "AGENTSIM"}
}

// WithConfigPath sets the YAML config file path.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load resolves the configuration. Precedence: defaults → YAML → env.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	l.applyEnv(cfg)
	return cfg, nil
}

// applyEnv overrides selected fields from environment variables.
func (l *Loader) applyEnv(cfg *Config) {
	if v := l.env("HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.HTTPPort = port
		}
	}
	if v := l.env("UPSTREAM_URL"); v != "" {
		cfg.Server.UpstreamURL = v
	}
	if v := l.env("AGENT_ENDPOINT"); v != "" {
		cfg.Agent.Endpoint = v
	}
	if v := l.env("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := l.env("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := l.env("WARMING_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Warming.Concurrency = n
		}
	}
	if v := l.env("WINDOW_MAX_MESSAGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Window.MaxMessages = n
		}
	}
	if v := l.env("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func (l *Loader) env(key string) string {
	return os.Getenv(l.envPrefix + "_" + key)
}

// LoadWindowConfig loads just the window section from an optional config
// file, falling back to defaults on any failure. Context window sizing must
// never abort a turn, so this path swallows read and parse errors.
func LoadWindowConfig(path string) WindowConfig {
	def := DefaultWindowConfig()
	if path == "" {
		return def
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return def
	}
	var cfg Config
	cfg.Window = def
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return def
	}
	if cfg.Window.MaxMessages <= 0 {
		cfg.Window.MaxMessages = def.MaxMessages
	}
	return cfg.Window
}
