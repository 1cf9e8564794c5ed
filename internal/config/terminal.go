package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Session store backends supported by the terminal.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// TerminalConfig configures the POS terminal client.
type TerminalConfig struct {
	APIURL                string
	RequestTimeoutSeconds int
	IdleTimeoutMinutes    int
	Store                 StoreConfig
	Redis                 RedisConfig
	Logger                LoggerConfig
}

// StoreConfig selects where the session token and profile are persisted.
type StoreConfig struct {
	Backend   string
	Path      string
	Namespace string
}

// LoadTerminal reads terminal configuration from the environment.
func LoadTerminal() (*TerminalConfig, error) {
	_ = godotenv.Load()

	redis, err := loadRedis()
	if err != nil {
		return nil, err
	}

	cfg := &TerminalConfig{
		APIURL:                getEnv("TERMINAL_API_URL", "http://127.0.0.1:8080"),
		RequestTimeoutSeconds: getEnvAsInt("TERMINAL_REQUEST_TIMEOUT_SECONDS", 15),
		IdleTimeoutMinutes:    getEnvAsInt("TERMINAL_IDLE_TIMEOUT_MINUTES", 120),
		Store: StoreConfig{
			Backend:   getEnv("TERMINAL_STORE", StoreFile),
			Path:      getEnv("TERMINAL_STORE_PATH", defaultStorePath()),
			Namespace: getEnv("TERMINAL_STORE_NAMESPACE", "default"),
		},
		Redis: redis,
		Logger: LoggerConfig{
			Service: "pos-terminal",
			Level:   getEnv("LOG_LEVEL", "warn"),
			Output:  getEnv("LOG_OUTPUT", "stderr"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot fall back to defaults.
func (c *TerminalConfig) Validate() error {
	switch c.Store.Backend {
	case StoreFile, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("invalid TERMINAL_STORE %q", c.Store.Backend)
	}
	if c.Store.Backend == StoreFile && c.Store.Path == "" {
		return fmt.Errorf("TERMINAL_STORE_PATH required for file store")
	}
	if c.APIURL == "" {
		return fmt.Errorf("TERMINAL_API_URL required")
	}
	return nil
}

// IdleTimeout returns the inactivity window after which the session ends.
func (c *TerminalConfig) IdleTimeout() time.Duration {
	if c.IdleTimeoutMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(c.IdleTimeoutMinutes) * time.Minute
}

// RequestTimeout returns the per-request HTTP timeout.
func (c *TerminalConfig) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "hospitality", "session.json")
}
