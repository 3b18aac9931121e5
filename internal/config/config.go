package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Providers  []ProviderConfig `mapstructure:"providers"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Enrichment EnrichmentConfig `mapstructure:"enrichment"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite, postgres
	Path            string        `mapstructure:"path"`   // sqlite file path
	DSN             string        `mapstructure:"dsn"`    // postgres DSN
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

type ExtractionConfig struct {
	MinChars int           `mapstructure:"min_chars"` // minimum extracted content length
	Timeout  time.Duration `mapstructure:"timeout"`
	OCR      OCRConfig     `mapstructure:"ocr"`
}

// OCRConfig configures the vision-model OCR extraction backend.
type OCRConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Model     string `mapstructure:"model"`
	APIKey    string `mapstructure:"api_key"`
	APIKeyEnv string `mapstructure:"api_key_env"`
	BaseURL   string `mapstructure:"base_url"`
}

type EnrichmentConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	UserAgent    string        `mapstructure:"user_agent"`
}

type PipelineConfig struct {
	// ExhaustionPolicy decides the terminal behavior when every generation
	// provider is exhausted: "degrade" completes the job with a labeled
	// placeholder result, "fail" marks it failed.
	ExhaustionPolicy  string        `mapstructure:"exhaustion_policy"`
	MinOutputChars    int           `mapstructure:"min_output_chars"`
	GenerationTimeout time.Duration `mapstructure:"generation_timeout"`
	RenderTimeout     time.Duration `mapstructure:"render_timeout"`
	FallbackFormat    string        `mapstructure:"fallback_format"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/docsmith.db")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.bucket", "docsmith")
	v.SetDefault("extraction.min_chars", 80)
	v.SetDefault("extraction.timeout", 60*time.Second)
	v.SetDefault("extraction.ocr.enabled", true)
	v.SetDefault("extraction.ocr.model", "gpt-4o-mini")
	v.SetDefault("extraction.ocr.api_key_env", "OPENAI_API_KEY")
	v.SetDefault("extraction.ocr.base_url", "https://api.openai.com/v1")
	v.SetDefault("enrichment.timeout", 20*time.Second)
	v.SetDefault("enrichment.max_body_bytes", 2<<20)
	v.SetDefault("enrichment.user_agent", "docsmith/1.0")
	v.SetDefault("pipeline.exhaustion_policy", "degrade")
	v.SetDefault("pipeline.min_output_chars", 120)
	v.SetDefault("pipeline.generation_timeout", 120*time.Second)
	v.SetDefault("pipeline.render_timeout", 90*time.Second)
	v.SetDefault("pipeline.fallback_format", "text")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("storage.use_ssl", "STORAGE_USE_SSL")
	v.BindEnv("database.dsn", "DATABASE_DSN")
	v.BindEnv("extraction.ocr.api_key", "OPENAI_API_KEY")
	v.BindEnv("extraction.ocr.base_url", "OPENAI_BASE_URL")
	v.BindEnv("pipeline.exhaustion_policy", "EXHAUSTION_POLICY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
