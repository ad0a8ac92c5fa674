package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	BrickLink BrickLinkConfig `mapstructure:"bricklink"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Taxonomy  TaxonomyConfig  `mapstructure:"taxonomy"`
	Log       LogConfig       `mapstructure:"log"`
}

// BrickLinkConfig holds BrickLink catalog access configuration
type BrickLinkConfig struct {
	BaseURL              string   `mapstructure:"base_url"`
	Timeout              int      `mapstructure:"timeout"`
	MaxRetries           int      `mapstructure:"max_retries"`
	MaxWorkers           int      `mapstructure:"max_workers"`
	MaxRequestsPerSecond int      `mapstructure:"max_requests_per_second"`
	Proxies              []string `mapstructure:"proxies"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	Database      int    `mapstructure:"database"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	MinIdleTime   int    `mapstructure:"min_idle_time"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// TaxonomyConfig tunes selection sessions and the category tree cache.
type TaxonomyConfig struct {
	HistoryLimit    int           `mapstructure:"history_limit"`
	TreeCacheTTL    time.Duration `mapstructure:"tree_cache_ttl"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Apply sets the global logrus level.
func (l LogConfig) Apply() error {
	level, err := log.ParseLevel(l.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	log.SetLevel(level)
	return nil
}

// Load loads configuration from config.yaml in the working directory with
// environment variable overrides
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom loads config.yaml from dir.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("config.yaml file not found in %s", dir)
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if config.BrickLink.MaxWorkers < 1 {
		return nil, fmt.Errorf("bricklink.max_workers must be positive, got %d", config.BrickLink.MaxWorkers)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bricklink.base_url", "https://www.bricklink.com")
	v.SetDefault("bricklink.timeout", 60)
	v.SetDefault("bricklink.max_retries", 3)
	v.SetDefault("bricklink.max_workers", 4)
	v.SetDefault("bricklink.max_requests_per_second", 5)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "bricklink")
	v.SetDefault("database.user", "bricklink_user")
	v.SetDefault("database.password", "bricklink_pass")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "redis_pass")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.consumer_group", "taxonomy_consumer")
	v.SetDefault("redis.min_idle_time", 120)

	v.SetDefault("taxonomy.history_limit", 50)
	v.SetDefault("taxonomy.tree_cache_ttl", "24h")
	v.SetDefault("taxonomy.refresh_interval", "6h")

	v.SetDefault("log.level", "info")
}
