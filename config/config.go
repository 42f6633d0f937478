package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`

	ServerPort         int           `mapstructure:"SERVER_PORT"`
	ServerBodyLimit    int           `mapstructure:"SERVER_BODY_LIMIT"`
	ServerReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	ServerWriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
	CorsAllowOrigins   string        `mapstructure:"CORS_ALLOW_ORIGINS"`

	DatabaseDriver       string        `mapstructure:"DATABASE_DRIVER"`
	DatabaseDbPath       string        `mapstructure:"DATABASE_DB_PATH"`
	DatabaseHost         string        `mapstructure:"DATABASE_HOST"`
	DatabasePort         int           `mapstructure:"DATABASE_PORT"`
	DatabaseUser         string        `mapstructure:"DATABASE_USER"`
	DatabasePassword     string        `mapstructure:"DATABASE_PASSWORD"`
	DatabaseName         string        `mapstructure:"DATABASE_NAME"`
	DatabaseSSLMode      string        `mapstructure:"DATABASE_SSL_MODE"`
	DatabaseQueryTimeout time.Duration `mapstructure:"DATABASE_QUERY_TIMEOUT"`
	DatabaseAutoMigrate  bool          `mapstructure:"DATABASE_AUTO_MIGRATE"`
	DatabaseCacheAddress string        `mapstructure:"DATABASE_CACHE_ADDRESS"`
	DatabaseCachePort    int           `mapstructure:"DATABASE_CACHE_PORT"`

	EventsChannel string `mapstructure:"EVENTS_CHANNEL"`
	SchemaPath    string `mapstructure:"SCHEMA_PATH"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var defaults = map[string]any{
	"ENVIRONMENT":            "development",
	"SERVER_PORT":            8080,
	"SERVER_BODY_LIMIT":      4 * 1024 * 1024,
	"SERVER_READ_TIMEOUT":    15 * time.Second,
	"SERVER_WRITE_TIMEOUT":   15 * time.Second,
	"CORS_ALLOW_ORIGINS":     "*",
	"DATABASE_DRIVER":        DriverSQLite,
	"DATABASE_DB_PATH":       "data/trials.db",
	"DATABASE_HOST":          "localhost",
	"DATABASE_PORT":          5432,
	"DATABASE_USER":          "",
	"DATABASE_PASSWORD":      "",
	"DATABASE_NAME":          "trials",
	"DATABASE_SSL_MODE":      "disable",
	"DATABASE_QUERY_TIMEOUT": 5 * time.Second,
	"DATABASE_AUTO_MIGRATE":  true,
	"DATABASE_CACHE_ADDRESS": "",
	"DATABASE_CACHE_PORT":    6379,
	"EVENTS_CHANNEL":         "trial-records",
	"SCHEMA_PATH":            "",
	"LOG_LEVEL":              "info",
	"LOG_FORMAT":             "text",
}

// InitConfig reads CONFIG_FILE (default ".env") when it exists and lets
// environment variables override every key.
func InitConfig() (Config, error) {
	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = ".env"
	}
	return Load(configFile)
}

func Load(configFile string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			v.SetConfigFile(configFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("failed to read config file %q: %w", configFile, err)
			}
		}
	}

	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.DatabaseDriver = strings.ToLower(strings.TrimSpace(config.DatabaseDriver))
	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabaseDbPath == "" {
			return errors.New("DATABASE_DB_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseHost == "" || c.DatabaseName == "" {
			return errors.New("DATABASE_HOST and DATABASE_NAME are required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	if c.ServerPort <= 0 {
		return fmt.Errorf("invalid SERVER_PORT %d", c.ServerPort)
	}

	if c.DatabaseQueryTimeout <= 0 {
		return errors.New("DATABASE_QUERY_TIMEOUT must be positive")
	}

	return nil
}

func (c Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseName,
		c.DatabaseSSLMode,
	)
}

func (c Config) CacheAddress() string {
	if c.DatabaseCacheAddress == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.DatabaseCacheAddress, c.DatabaseCachePort)
}
