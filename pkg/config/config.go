package config

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config represents the orchestrator service configuration.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Backend      BackendConfig      `mapstructure:"backend"`
	Wallet       WalletConfig       `mapstructure:"wallet"`
	Registry     RegistryConfig     `mapstructure:"registry"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Monitoring   MonitoringConfig   `mapstructure:"monitoring"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// BackendConfig contains bridge backend API settings
type BackendConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// WalletConfig contains the signer settings. Gasless routes the deposit
// through the backend's meta-transaction endpoint instead of submitting it
// directly on chain.
type WalletConfig struct {
	PrivateKey string `mapstructure:"private_key"`
	Gasless    bool   `mapstructure:"gasless"`
}

// RegistryConfig points at the static chain/token registry file
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// OrchestratorConfig contains the transfer pipeline tunables. Unset values
// are filled from struct defaults and the result is validated.
type OrchestratorConfig struct {
	ExitPollInterval    time.Duration `mapstructure:"exit_poll_interval" default:"5s" validate:"gt=0"`
	ExitPollMaxAttempts int           `mapstructure:"exit_poll_max_attempts" default:"300" validate:"gt=0"`
	GasPriceDebounce    time.Duration `mapstructure:"gas_price_debounce" default:"500ms" validate:"gte=0"`
	ConfirmationDepth   uint64        `mapstructure:"confirmation_depth" default:"1" validate:"gt=0"`
}

// ApplyDefaults fills unset orchestrator tunables and validates the result.
func (c *OrchestratorConfig) ApplyDefaults() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("apply orchestrator defaults: %w", err)
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("orchestrator config: %w", err)
	}
	return nil
}

// MonitoringConfig contains monitoring and metrics settings
type MonitoringConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Orchestrator.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.database", "bridge_orchestrator")

	// Backend defaults
	viper.SetDefault("backend.request_timeout", "30s")

	// Registry defaults
	viper.SetDefault("registry.path", "registry.yaml")

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output_path", "stdout")
}

func validate(config *Config) error {
	if config.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if config.Registry.Path == "" {
		return fmt.Errorf("registry.path is required")
	}
	if config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	return nil
}

// GetConnectionString returns a PostgreSQL connection string
func (c *DatabaseConfig) GetConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
