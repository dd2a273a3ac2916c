package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	Minio  MinioConfig
	Log    LogConfig

	JWTSecret string `env:"JWT_SECRET"`
}

type ServerConfig struct {
	Port           string        `env:"PORT" envDefault:"5000"`
	GinMode        string        `env:"GIN_MODE" envDefault:"debug"`
	CORSOrigins    []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`

	// OfficerSignupOpen leaves /api/auth/register public. When false only
	// admin sessions can create officer accounts.
	OfficerSignupOpen bool `env:"OFFICER_SIGNUP_OPEN" envDefault:"true"`
}

type MongoConfig struct {
	URI      string `env:"MONGODB_URI"`
	Database string `env:"MONGODB_DATABASE" envDefault:"civicresolve"`
}

// RedisConfig is optional; an empty Address disables rate limiting and events.
type RedisConfig struct {
	Address       string `env:"REDIS_ADDRESS"`
	Password      string `env:"REDIS_PASSWORD"`
	QueuePrefix   string `env:"REDIS_QUEUE_FOR_ISSUE_LIMIT" envDefault:"issue-limit"`
	DailyLimit    int    `env:"ISSUE_DAILY_LIMIT" envDefault:"10"`
	EventsChannel string `env:"ISSUE_EVENTS_CHANNEL" envDefault:"issue-events"`
}

type MinioConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET" envDefault:"civic-issues"`
	PublicURL string `env:"MINIO_PUBLIC_URL"`
	UseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := new(Config)
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Mongo.URI == "" {
		errs = append(errs, errors.New("MONGODB_URI is required"))
	}
	if c.Minio.Endpoint == "" {
		errs = append(errs, errors.New("MINIO_ENDPOINT is required"))
	}
	if c.Redis.DailyLimit < 1 {
		errs = append(errs, errors.New("ISSUE_DAILY_LIMIT must be positive"))
	}
	return errors.Join(errs...)
}
