package config

import "time"

// DefaultConfig returns the complete default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server:  DefaultServerConfig(),
		Agent:   DefaultAgentConfig(),
		Window:  DefaultWindowConfig(),
		Warming: DefaultWarmingConfig(),
		Redis:   DefaultRedisConfig(),
		Archive: DefaultArchiveConfig(),
		Data:    DefaultDataConfig(),
		Log:     DefaultLogConfig(),
	}
}

// DefaultServerConfig returns default server settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8001,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		UpstreamURL:     "ws://localhost:8000/ws/chat",
		AllowedOrigin:   "*",
	}
}

// DefaultAgentConfig returns default agent runtime settings.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		Name:    "cj",
		Timeout: 2 * time.Minute,
	}
}

// DefaultWindowConfig returns default context window settings.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		MaxMessages: 10,
		MaxTokens:   0,
		TokenModel:  "gpt-4",
	}
}

// DefaultWarmingConfig returns default cache-warming settings.
func DefaultWarmingConfig() WarmingConfig {
	return WarmingConfig{
		Enabled:       true,
		Concurrency:   3,
		RatePerSecond: 0,
		TaskTimeout:   3 * time.Minute,
	}
}

// DefaultRedisConfig returns default response cache settings.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:      false,
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		DefaultTTL:   24 * time.Hour,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultArchiveConfig returns default transcript archive settings.
func DefaultArchiveConfig() ArchiveConfig {
	return ArchiveConfig{
		Enabled: false,
		Path:    "agentsim.db",
	}
}

// DefaultDataConfig returns default data directory locations.
func DefaultDataConfig() DataConfig {
	return DataConfig{
		UniverseDir: "data/universes",
		WorkflowDir: "data/workflows",
		MemoryDir:   "data/memories",
	}
}

// DefaultLogConfig returns default logging settings.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}
