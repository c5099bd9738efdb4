package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// DefaultDumpURLTemplate is the public location of the hourly pageview dumps.
const DefaultDumpURLTemplate = "https://dumps.wikimedia.org/other/pageviews/#{year}/#{year}-#{month}/pageviews-#{isoDate}-#{hhmmss}.gz"

// Config stores all configuration for the job.
type Config struct {
	ExecutionTarget string `mapstructure:"EXECUTION_TARGET"`
	StartTime       string `mapstructure:"START_TIME"`
	EndTime         string `mapstructure:"END_TIME"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`

	OutputDir       string `mapstructure:"OUTPUT_DIR"`
	TempDir         string `mapstructure:"TEMP_DIR"`
	BlacklistPath   string `mapstructure:"BLACKLIST_PATH"`
	DumpURLTemplate string `mapstructure:"DUMP_URL_TEMPLATE"`

	DownloadTimeoutSeconds int  `mapstructure:"DOWNLOAD_TIMEOUT_SECONDS"`
	TLSInsecureSkipVerify  bool `mapstructure:"TLS_INSECURE_SKIP_VERIFY"`

	TopN                  int  `mapstructure:"TOP_N"`
	DeterministicTieBreak bool `mapstructure:"DETERMINISTIC_TIE_BREAK"`
	LegacyFetchStartHour  bool `mapstructure:"LEGACY_FETCH_START_HOUR"`
	LegacyAbortOnExisting bool `mapstructure:"LEGACY_ABORT_ON_EXISTING"`

	MetricsAddr    string `mapstructure:"METRICS_ADDR"`
	PushgatewayURL string `mapstructure:"PUSHGATEWAY_URL"`

	PostgresURL string `mapstructure:"POSTGRES_URL"`

	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RedisPassword      string `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int    `mapstructure:"REDIS_DB"`
	HourStatusTTLHours int    `mapstructure:"HOUR_STATUS_TTL_HOURS"`

	MinioEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinioBucket    string `mapstructure:"MINIO_BUCKET"`
	MinioSSL       bool   `mapstructure:"MINIO_SSL"`

	RabbitMQURL   string `mapstructure:"RABBITMQ_URL"`
	RabbitMQQueue string `mapstructure:"RABBITMQ_QUEUE"`
}

var defaults = map[string]any{
	"EXECUTION_TARGET":         "local[*]",
	"START_TIME":               "",
	"END_TIME":                 "",
	"LOG_LEVEL":                "info",
	"OUTPUT_DIR":               "output",
	"TEMP_DIR":                 "temp",
	"BLACKLIST_PATH":           "blacklist_domains_and_pages",
	"DUMP_URL_TEMPLATE":        DefaultDumpURLTemplate,
	"DOWNLOAD_TIMEOUT_SECONDS": 15,
	"TLS_INSECURE_SKIP_VERIFY": true,
	"TOP_N":                    25,
	"DETERMINISTIC_TIE_BREAK":  false,
	"LEGACY_FETCH_START_HOUR":  false,
	"LEGACY_ABORT_ON_EXISTING": false,
	"METRICS_ADDR":             "",
	"PUSHGATEWAY_URL":          "",
	"POSTGRES_URL":             "",
	"REDIS_ADDR":               "",
	"REDIS_PASSWORD":           "",
	"REDIS_DB":                 0,
	"HOUR_STATUS_TTL_HOURS":    48,
	"MINIO_ENDPOINT":           "",
	"MINIO_ACCESS_KEY":         "",
	"MINIO_SECRET_KEY":         "",
	"MINIO_BUCKET":             "pageviews",
	"MINIO_SSL":                false,
	"RABBITMQ_URL":             "",
	"RABBITMQ_QUEUE":           "pageviews.hour_completed",
}

// Load reads and validates the configuration.
func Load(envFile string) (*Config, error) {
	cfg, err := Read(envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read reads configuration from an optional env file and the environment
// without validating it. Environment variables take precedence over the file.
func Read(envFile string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// A missing file is fine, the job is normally configured purely through the environment.
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read %s: %w", envFile, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the static shape of the configuration. Date range rules are
// enforced by the pipeline before any work starts.
func (c *Config) Validate() error {
	if c.StartTime == "" {
		return errors.New("START_TIME is required")
	}
	if c.TopN <= 0 {
		return fmt.Errorf("TOP_N must be positive, got %d", c.TopN)
	}
	if c.DownloadTimeoutSeconds <= 0 {
		return fmt.Errorf("DOWNLOAD_TIMEOUT_SECONDS must be positive, got %d", c.DownloadTimeoutSeconds)
	}
	return nil
}

// DownloadTimeout is applied to both connecting and reading.
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.DownloadTimeoutSeconds) * time.Second
}

func (c *Config) HourStatusTTL() time.Duration {
	return time.Duration(c.HourStatusTTLHours) * time.Hour
}
