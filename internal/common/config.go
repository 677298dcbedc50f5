package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the ledger server.
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Ledger      LedgerConfig  `toml:"ledger"`
	Auth        AuthConfig    `toml:"auth"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig selects and configures the repository backend.
type StorageConfig struct {
	Driver   string         `toml:"driver"` // "postgres" or "memory"
	Postgres PostgresConfig `toml:"postgres"`
}

// PostgresConfig holds connection settings for the Postgres repository.
type PostgresConfig struct {
	DSN             string `toml:"dsn"`
	MaxConns        int    `toml:"max_conns"`
	ConnectTimeout  string `toml:"connect_timeout"`
	StatementCache  bool   `toml:"statement_cache"`
	ApplicationName string `toml:"application_name"`
}

// GetConnectTimeout parses and returns the connection timeout duration.
func (c *PostgresConfig) GetConnectTimeout() time.Duration {
	d, err := time.ParseDuration(c.ConnectTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// LedgerConfig holds ledger engine behavior settings.
type LedgerConfig struct {
	// SettlementCalendar selects business-day advancement: "legacy" keeps the
	// one-day-at-a-time weekend skip, "business" uses correct business-day math.
	SettlementCalendar string `toml:"settlement_calendar"`
	CheckDuplicates    bool   `toml:"check_duplicates"`
	MaxBulkRows        int    `toml:"max_bulk_rows"`
	MaxPageLimit       int    `toml:"max_page_limit"`
	DefaultPageLimit   int    `toml:"default_page_limit"`
}

// AuthConfig holds bearer-token verification settings. Token issuance belongs
// to the identity provider; the server only verifies.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Driver: "memory",
			Postgres: PostgresConfig{
				MaxConns:        8,
				ConnectTimeout:  "10s",
				StatementCache:  true,
				ApplicationName: "ledger-server",
			},
		},
		Ledger: LedgerConfig{
			SettlementCalendar: "legacy",
			CheckDuplicates:    true,
			MaxBulkRows:        1000,
			MaxPageLimit:       500,
			DefaultPageLimit:   50,
		},
		Auth: AuthConfig{
			JWTSecret: "dev-jwt-secret-change-in-production",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones; missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("LEDGER_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("LEDGER_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("LEDGER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("LEDGER_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if driver := os.Getenv("LEDGER_STORAGE_DRIVER"); driver != "" {
		config.Storage.Driver = driver
	}

	if dsn := os.Getenv("LEDGER_DATABASE_URL"); dsn != "" {
		config.Storage.Postgres.DSN = dsn
	}

	if v := os.Getenv("LEDGER_AUTH_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}

	if v := os.Getenv("LEDGER_SETTLEMENT_CALENDAR"); v != "" {
		config.Ledger.SettlementCalendar = v
	}
}

// validateConfig rejects values the engine cannot run with.
func validateConfig(config *Config) error {
	switch strings.ToLower(config.Storage.Driver) {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown storage driver %q (expected postgres or memory)", config.Storage.Driver)
	}

	switch strings.ToLower(config.Ledger.SettlementCalendar) {
	case "legacy", "business":
	default:
		return fmt.Errorf("unknown settlement calendar %q (expected legacy or business)", config.Ledger.SettlementCalendar)
	}

	if config.Ledger.MaxBulkRows <= 0 {
		config.Ledger.MaxBulkRows = 1000
	}
	if config.Ledger.MaxPageLimit <= 0 {
		config.Ledger.MaxPageLimit = 500
	}
	if config.Ledger.DefaultPageLimit <= 0 || config.Ledger.DefaultPageLimit > config.Ledger.MaxPageLimit {
		config.Ledger.DefaultPageLimit = 50
	}

	return nil
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
