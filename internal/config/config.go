package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "github.com/jwalitptl/clinic-dashboard/pkg/errors"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Session   SessionConfig   `mapstructure:"session"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Mode            string        `mapstructure:"mode"`
}

type DatabaseConfig struct {
	// Driver is "sqlite3" (default) or "postgres".
	Driver string `mapstructure:"driver"`
	// Path is the SQLite database file. Required for sqlite3.
	Path string `mapstructure:"path"`
	// DSN is the connection string for postgres.
	DSN string `mapstructure:"dsn"`
}

type SessionConfig struct {
	Secret     string        `mapstructure:"secret"`
	CookieName string        `mapstructure:"cookie_name"`
	TTL        time.Duration `mapstructure:"ttl"`
	Secure     bool          `mapstructure:"secure"`
}

type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	TTL      time.Duration `mapstructure:"ttl"`
	RedisURL string        `mapstructure:"redis_url"`
}

type RateLimitConfig struct {
	LoginPerSecond float64 `mapstructure:"login_per_second"`
	LoginBurst     int     `mapstructure:"login_burst"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.driver", "sqlite3")

	v.SetDefault("session.secret", "dev-secret")
	v.SetDefault("session.cookie_name", "session")
	v.SetDefault("session.ttl", 0)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 30*time.Second)

	v.SetDefault("rate_limit.login_per_second", 1.0)
	v.SetDefault("rate_limit.login_burst", 10)

	v.SetDefault("log.level", "info")
}

// legacy env names, bound onto config keys
var envBindings = map[string][]string{
	"database.path":   {"DB_PATH"},
	"database.driver": {"DB_DRIVER"},
	"database.dsn":    {"DATABASE_URL"},
	"session.secret":  {"SECRET_KEY"},
	"server.port":     {"PORT"},
	"cache.redis_url": {"REDIS_URL"},
	"log.level":       {"LOG_LEVEL"},
}

// LoadConfig reads .env, an optional config.yml and the environment, in
// increasing order of precedence.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app/config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envBindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate reports the first configuration problem that would stop the
// server from serving requests.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "sqlite":
		if c.Database.Path == "" {
			return apperrors.NewConfig("DB_PATH is not set. Create a .env file or set database.path in config.yml", nil)
		}
		if c.Database.Path != ":memory:" && !strings.HasPrefix(c.Database.Path, "file:") {
			if _, err := os.Stat(c.Database.Path); err != nil {
				return apperrors.NewConfig(fmt.Sprintf("database file not found at DB_PATH=%s; set an absolute path to clinic.db", c.Database.Path), err)
			}
		}
	case "postgres":
		if c.Database.DSN == "" {
			return apperrors.NewConfig("DATABASE_URL is not set for the postgres driver", nil)
		}
	default:
		return apperrors.NewConfig(fmt.Sprintf("unsupported database driver %q", c.Database.Driver), nil)
	}

	if c.Session.Secret == "" {
		return apperrors.NewConfig("SECRET_KEY must not be empty", nil)
	}
	if c.Server.Port <= 0 {
		return apperrors.NewConfig(fmt.Sprintf("invalid server port %d", c.Server.Port), nil)
	}
	return nil
}
