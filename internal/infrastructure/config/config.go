package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`
	LogFile   string        `env:"LOG_FILE"`
	Timezone  string        `env:"TIMEZONE,  default=Asia/Shanghai"`

	Database DatabaseConfig
	Mongo    MongoConfig
	Redis    RedisConfig
}

type DatabaseConfig struct {
	Driver   string `env:"DB_DRIVER,    default=sqlite"`
	DSN      string `env:"DB_DSN,       default=crm.db"`
	LogLevel string `env:"DB_LOG_LEVEL, default=warn"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=crm"`
}

type RedisConfig struct {
	Enabled  bool          `env:"REDIS_ENABLED,   default=false"`
	Addr     string        `env:"REDIS_ADDR,      default=localhost:6379"`
	DB       int           `env:"REDIS_DB,        default=0"`
	StatsTTL time.Duration `env:"STATS_CACHE_TTL, default=1m"`
}

// UsesMongo reports whether the document store backs the repositories.
func (c *Config) UsesMongo() bool {
	return strings.EqualFold(c.Database.Driver, "mongo")
}

// IsDevelopment reports whether the service runs in a development environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Location resolves the configured timezone used for statistics windows.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load reads configuration from environment variables using go-envconfig.
// Variables found in the optional dotenv files are loaded first and never
// override ones already set in the environment.
func Load(ctx context.Context, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "postgres", "mysql", "sqlite", "mongo":
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.JWTSecret == "" && !c.IsDevelopment() {
		return errors.New("config: JWT_SECRET is required outside development")
	}
	if c.TokenTTL <= 0 {
		return errors.New("config: TOKEN_TTL must be positive")
	}
	return nil
}
