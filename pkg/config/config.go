package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config is the full process configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Auth          AuthConfig          `koanf:"auth"`
	Feed          FeedConfig          `koanf:"feed"`
	Notifications NotificationsConfig `koanf:"notifications"`
	Logging       LoggingConfig       `koanf:"logging"`
}

type ServerConfig struct {
	Port        string `koanf:"port"`
	Env         string `koanf:"env"`
	MetricsPort string `koanf:"metrics_port"`
}

type DatabaseConfig struct {
	PostgresURL     string        `koanf:"postgres_url"`
	MongoURI        string        `koanf:"mongo_uri"`
	MongoDatabase   string        `koanf:"mongo_database"`
	PostStore       string        `koanf:"post_store"` // postgres or mongo
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	StoreTimeout    time.Duration `koanf:"store_timeout"`
	SlowQuery       time.Duration `koanf:"slow_query"`
}

type AuthConfig struct {
	JWTSecret               string        `koanf:"jwt_secret"`
	TokenTTL                time.Duration `koanf:"token_ttl"`
	FirebaseCredentialsPath string        `koanf:"firebase_credentials_path"`
}

type FeedConfig struct {
	DefaultLimit      int `koanf:"default_limit"`
	MaxLimit          int `koanf:"max_limit"`
	TrendingScanLimit int `koanf:"trending_scan_limit"`
}

type NotificationsConfig struct {
	// RetractOnRemoval deletes the matching notification when a like, follow
	// or comment is removed. Off by default.
	RetractOnRemoval bool `koanf:"retract_on_removal"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Post store backends.
const (
	PostStorePostgres = "postgres"
	PostStoreMongo    = "mongo"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

var defaultConfigPaths = []string{"config.yaml", "config.yml"}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			Env:         "development",
			MetricsPort: "9090",
		},
		Database: DatabaseConfig{
			MongoDatabase:   "socialmedia",
			PostStore:       PostStorePostgres,
			MaxOpenConns:    25,
			MaxIdleConns:    25,
			ConnMaxLifetime: 5 * time.Minute,
			StoreTimeout:    5 * time.Second,
			SlowQuery:       200 * time.Millisecond,
		},
		Auth: AuthConfig{
			TokenTTL: 72 * time.Hour,
		},
		Feed: FeedConfig{
			DefaultLimit:      50,
			MaxLimit:          200,
			TrendingScanLimit: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load layers defaults, an optional YAML file and the environment. A .env
// file is loaded into the environment first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range defaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envMappings maps the environment variables the service has always read to
// config paths. Anything else may be set with its dotted path in upper
// snake case, e.g. FEED__MAX_LIMIT -> feed.max_limit.
var envMappings = map[string]string{
	"port":                      "server.port",
	"env":                       "server.env",
	"metrics_port":              "server.metrics_port",
	"postgres_conn_str":         "database.postgres_url",
	"postgres_url":              "database.postgres_url",
	"mongo_uri":                 "database.mongo_uri",
	"mongo_database":            "database.mongo_database",
	"post_store":                "database.post_store",
	"store_timeout":             "database.store_timeout",
	"jwt_secret":                "auth.jwt_secret",
	"token_ttl":                 "auth.token_ttl",
	"firebase_credentials_path": "auth.firebase_credentials_path",
	"log_level":                 "logging.level",
	"log_format":                "logging.format",
	"notifications_retract":     "notifications.retract_on_removal",
	"feed_default_limit":        "feed.default_limit",
	"feed_max_limit":            "feed.max_limit",
	"feed_trending_scan_limit":  "feed.trending_scan_limit",
}

func envTransform(key string) string {
	key = strings.ToLower(key)
	if path, ok := envMappings[key]; ok {
		return path
	}
	if strings.Contains(key, "__") {
		return strings.ReplaceAll(key, "__", ".")
	}
	return ""
}

// Validate rejects inconsistent settings.
func (c *Config) Validate() error {
	switch c.Database.PostStore {
	case PostStorePostgres:
	case PostStoreMongo:
		if c.Database.MongoURI == "" {
			return fmt.Errorf("database.post_store=mongo requires database.mongo_uri")
		}
	default:
		return fmt.Errorf("unknown database.post_store %q", c.Database.PostStore)
	}
	if c.Feed.DefaultLimit <= 0 || c.Feed.MaxLimit <= 0 {
		return fmt.Errorf("feed limits must be positive")
	}
	if c.Feed.DefaultLimit > c.Feed.MaxLimit {
		return fmt.Errorf("feed.default_limit (%d) exceeds feed.max_limit (%d)", c.Feed.DefaultLimit, c.Feed.MaxLimit)
	}
	if c.Feed.TrendingScanLimit < c.Feed.MaxLimit {
		return fmt.Errorf("feed.trending_scan_limit must be at least feed.max_limit")
	}
	if c.Database.StoreTimeout <= 0 {
		return fmt.Errorf("database.store_timeout must be positive")
	}
	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required in production")
	}
	return nil
}

// IsProduction reports whether the service runs with production checks.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}
