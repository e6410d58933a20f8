package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"clustering-api/internal/models"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds the full application configuration.
type Config struct {
	ServerAddress  string                `mapstructure:"server_address"`
	DBSource       string                `mapstructure:"db_source"`
	MigrateOnStart bool                  `mapstructure:"migrate_on_start"`
	Cache          CacheConfig           `mapstructure:"cache"`
	Geocoder       GeocoderConfig        `mapstructure:"geocoder"`
	Clustering     models.ClusterOptions `mapstructure:"clustering"`
	Log            LogConfig             `mapstructure:"log"`
}

// CacheConfig selects the address cache backend.
type CacheConfig struct {
	Driver      string `mapstructure:"driver"`
	RedisURL    string `mapstructure:"redis_url"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

// GeocoderConfig configures the external geocoding provider.
type GeocoderConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RateLimit   float64       `mapstructure:"rate_limit"`
	Concurrency int           `mapstructure:"concurrency"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads config.yaml from path (optional) and CLUSTERING_* environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)

	v.SetEnvPrefix("CLUSTERING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server_address", ":8080")
	v.SetDefault("db_source", "")
	v.SetDefault("migrate_on_start", true)
	v.SetDefault("cache.driver", "postgres")
	v.SetDefault("cache.redis_url", "redis://localhost:6379/0")
	v.SetDefault("cache.redis_prefix", "addrcache")
	v.SetDefault("geocoder.base_url", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("geocoder.api_key", "")
	v.SetDefault("geocoder.timeout", 10*time.Second)
	v.SetDefault("geocoder.rate_limit", 10.0)
	v.SetDefault("geocoder.concurrency", 6)
	v.SetDefault("clustering.max_distance_meters", 30000.0)
	v.SetDefault("clustering.max_cluster_size", 95)
	v.SetDefault("clustering.min_locations_per_cluster", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	switch cfg.Cache.Driver {
	case "postgres", "redis":
	default:
		return nil, eris.Errorf("config: unknown cache driver %q", cfg.Cache.Driver)
	}

	return &cfg, nil
}

// InitLogger configures the global zerolog logger.
func InitLogger(cfg LogConfig) error {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return nil
}
