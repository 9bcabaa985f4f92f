package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	App      AppConfig      `mapstructure:"app"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

type AppConfig struct {
	// BaseURL prefixes short links. Empty means "use the request host".
	BaseURL         string   `mapstructure:"base_url"`
	MaxRetries      int      `mapstructure:"max_retries"`
	DefaultValidity int      `mapstructure:"default_validity"` // minutes
	Environment     string   `mapstructure:"environment"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
}

type RedisConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	MaxRetries   int    `mapstructure:"max_retry"`
	CacheTTL     int    `mapstructure:"cache_ttl"`
	Namespace    string `mapstructure:"namespace"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configs/config.yaml (or ./config.yaml) and URLSHORT_* variables.
// A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix("URLSHORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	config.Storage.Driver = strings.ToLower(strings.TrimSpace(config.Storage.Driver))
	config.App.BaseURL = strings.TrimRight(config.App.BaseURL, "/")

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")

	v.SetDefault("storage.driver", StorageMemory)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "urlshortener")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "urlshortener")

	v.SetDefault("app.base_url", "")
	v.SetDefault("app.max_retries", 3)
	v.SetDefault("app.default_validity", 30)
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.allowed_origins", []string{"*"})

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 5)
	v.SetDefault("redis.max_retry", 3)
	v.SetDefault("redis.cache_ttl", 3600)
	v.SetDefault("redis.namespace", "")

	v.SetDefault("log.level", "info")
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.App.MaxRetries <= 0 {
		return fmt.Errorf("app.max_retries must be positive, got %d", c.App.MaxRetries)
	}

	if c.App.DefaultValidity <= 0 {
		return fmt.Errorf("app.default_validity must be positive, got %d", c.App.DefaultValidity)
	}

	if c.Redis.Enabled {
		// Redis outlives the process, so over memory storage it would serve
		// records the store no longer has.
		if c.Storage.Driver == StorageMemory {
			return errors.New("redis.enabled requires storage.driver=postgres")
		}
		if c.Redis.CacheTTL <= 0 {
			return fmt.Errorf("redis.cache_ttl must be positive, got %d", c.Redis.CacheTTL)
		}
	}

	return nil
}

func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func (c *Config) GetBaseURL() string {
	return c.App.BaseURL
}

func (c *Config) IsProduction() bool {
	return strings.ToLower(c.App.Environment) == "production"
}

func (c *Config) IsDevelopment() bool {
	return strings.ToLower(c.App.Environment) == "development"
}

func (c *Config) GetAllowedOrigins() []string {
	if len(c.App.AllowedOrigins) == 0 {
		if c.IsProduction() && c.App.BaseURL != "" {
			// production requires explicit origins
			return []string{c.App.BaseURL}
		}
		return []string{"*"}
	}
	return c.App.AllowedOrigins
}
