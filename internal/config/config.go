// Package config loads scanhub configuration from an optional YAML file with
// environment-variable overrides.
package config

type Config struct {
	Server ServerConfig `yaml:"server"`
	Agent  AgentConfig  `yaml:"agent"`
}

// ServerConfig configures the collector daemon.
type ServerConfig struct {
	Addr         string  `yaml:"addr" env:"SCANHUB_ADDR"`
	MaxHistory   int     `yaml:"max_history" env:"SCANHUB_MAX_HISTORY"`
	MaxBodyBytes int64   `yaml:"max_body_bytes" env:"SCANHUB_MAX_BODY_BYTES"`
	RatePerSec   float64 `yaml:"rate_per_sec" env:"SCANHUB_RATE_PER_SEC"` // 0 = unlimited
	RateBurst    int     `yaml:"rate_burst" env:"SCANHUB_RATE_BURST"`
}

// AgentConfig configures the operator client.
type AgentConfig struct {
	// BaseURL is the collector server base, e.g. http://192.168.0.10:5173.
	BaseURL   string `yaml:"base_url" env:"SCANHUB_BASE_URL"`
	Mode      string `yaml:"mode" env:"SCANHUB_MODE"`
	TimeoutMs int    `yaml:"timeout_ms" env:"SCANHUB_TIMEOUT_MS"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":5173",
			MaxHistory:   2000,
			MaxBodyBytes: 1 << 20,
		},
		Agent: AgentConfig{
			BaseURL:   "http://127.0.0.1:5173",
			Mode:      "TEST",
			TimeoutMs: 7000,
		},
	}
}
