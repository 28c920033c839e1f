package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port               int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins     []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ShutdownTimeoutSec int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
	ReloadIntervalMins int      `yaml:"reload_interval_mins" mapstructure:"reload_interval_mins"`
}

// SourcesConfig describes where the static city data lives.
//
// Kind is one of "file", "http" or "store". For "file" Location is a
// directory, for "http" it is a base URL. "store" reads from the configured
// database, populated by the load command.
type SourcesConfig struct {
	Kind        string  `yaml:"kind" mapstructure:"kind"`
	Location    string  `yaml:"location" mapstructure:"location"`
	Border      string  `yaml:"border" mapstructure:"border"`
	Points      string  `yaml:"points" mapstructure:"points"`
	Metadata    string  `yaml:"metadata" mapstructure:"metadata"`
	Images      string  `yaml:"images" mapstructure:"images"`
	News        string  `yaml:"news" mapstructure:"news"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// CacheConfig configures the query result cache.
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries"`
	TTLSecs    int `yaml:"ttl_secs" mapstructure:"ttl_secs"`
}

// TTL returns the cache TTL as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSecs) * time.Second
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CITIES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("server.reload_interval_mins", 0)
	v.SetDefault("sources.kind", "file")
	v.SetDefault("sources.location", "public")
	v.SetDefault("sources.border", "mn_border.geojson")
	v.SetDefault("sources.points", "mn_cities_dec.json")
	v.SetDefault("sources.metadata", "cities_full.json")
	v.SetDefault("sources.images", "city_images.json")
	v.SetDefault("sources.news", "city_news.json")
	v.SetDefault("sources.timeout_secs", 15)
	v.SetDefault("sources.rate_per_sec", 10.0)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "cities.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("cache.max_entries", 256)
	v.SetDefault("cache.ttl_secs", 300)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the fields required by the given command mode are set.
// Supported modes: "serve", "store", "query".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be between 1 and 65535")
		}
		if c.Cache.MaxEntries < 0 {
			problems = append(problems, "cache.max_entries must not be negative")
		}
		problems = append(problems, c.validateSources()...)
	case "query":
		problems = append(problems, c.validateSources()...)
	case "store":
		problems = append(problems, c.validateStore()...)
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) validateSources() []string {
	var problems []string
	switch c.Sources.Kind {
	case "file", "http":
		if c.Sources.Location == "" {
			problems = append(problems, "sources.location is required")
		}
		if c.Sources.Points == "" {
			problems = append(problems, "sources.points is required")
		}
	case "store":
		problems = append(problems, c.validateStore()...)
	default:
		problems = append(problems, "sources.kind must be one of file, http, store")
	}
	if c.Sources.Kind == "http" && !strings.HasPrefix(c.Sources.Location, "http://") &&
		!strings.HasPrefix(c.Sources.Location, "https://") {
		problems = append(problems, "sources.location must be an http(s) URL")
	}
	return problems
}

func (c *Config) validateStore() []string {
	var problems []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}
	if c.Store.MaxConns < 0 || c.Store.MinConns < 0 {
		problems = append(problems, "store.max_conns and store.min_conns must not be negative")
	}
	return problems
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
