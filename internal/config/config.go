package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Services ServicesConfig `mapstructure:"services"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Invoice  InvoiceConfig  `mapstructure:"invoice"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxUploadSizeMB int64         `mapstructure:"max_upload_size_mb"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds sqlite configuration for session state
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// StorageConfig holds file storage configuration
type StorageConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// ServicesConfig holds endpoints for the external invoice services
type ServicesConfig struct {
	// ExtractionURL is the PDF extraction endpoint. Empty switches the
	// gateway to the embedded text+LLM extractor.
	ExtractionURL string        `mapstructure:"extraction_url"`
	ConversionURL string        `mapstructure:"conversion_url"`
	ValidationURL string        `mapstructure:"validation_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// OpenAIConfig holds parameters for the embedded extractor
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	PromptsPath string        `mapstructure:"prompts_path"`
}

// InvoiceConfig holds totals engine parameters
type InvoiceConfig struct {
	// RoundingMode is "half_up" or "half_even".
	RoundingMode   string  `mapstructure:"rounding_mode"`
	DefaultTaxRate float64 `mapstructure:"default_tax_rate"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
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

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 60*time.Second)
	viper.SetDefault("server.max_upload_size_mb", 20)
	viper.SetDefault("server.allowed_origins", []string{"*"})

	viper.SetDefault("database.path", "data/sessions.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.migrations_dir", "migrations")

	viper.SetDefault("storage.base_dir", "data/files")

	viper.SetDefault("services.timeout", 120*time.Second)

	viper.SetDefault("openai.model", "gpt-4o")
	viper.SetDefault("openai.temperature", 0.1)
	viper.SetDefault("openai.max_tokens", 4000)
	viper.SetDefault("openai.timeout", 120*time.Second)
	viper.SetDefault("openai.prompts_path", "configs/prompts.yaml")

	viper.SetDefault("invoice.rounding_mode", "half_up")
	viper.SetDefault("invoice.default_tax_rate", 19.0)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
	viper.BindEnv("services.extraction_url", "EXTRACTION_SERVICE_URL")
	viper.BindEnv("services.conversion_url", "CONVERSION_SERVICE_URL")
	viper.BindEnv("services.validation_url", "VALIDATION_SERVICE_URL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Services.ConversionURL == "" {
		return fmt.Errorf("services.conversion_url is required")
	}
	if c.Services.ValidationURL == "" {
		return fmt.Errorf("services.validation_url is required")
	}
	if c.Services.ExtractionURL == "" && c.OpenAI.APIKey == "" {
		return fmt.Errorf("either services.extraction_url or openai.api_key is required")
	}
	switch c.Invoice.RoundingMode {
	case "half_up", "half_even":
	default:
		return fmt.Errorf("invoice.rounding_mode must be half_up or half_even")
	}
	return nil
}
