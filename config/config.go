// Package config loads server settings and opens the MongoDB and Redis
// connections.
//
// Settings are layered: built-in defaults, then an optional YAML file
// (--config), then environment variables (a .env file is loaded into the
// environment first), then command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const Production = "production"

type Config struct {
	Port        string      `yaml:"port"`
	Env         string      `yaml:"env"`
	Mongo       MongoConfig `yaml:"mongo"`
	Redis       RedisConfig `yaml:"redis"`
	Auth        AuthConfig  `yaml:"auth"`
	Media       MediaConfig `yaml:"media"`
	CORSOrigins []string    `yaml:"cors_origins"`

	// EnvFileLoaded reports whether the .env file was found.
	EnvFileLoaded bool `yaml:"-"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	// IssueQueue prefixes the per-user issue submission counters.
	IssueQueue      string `yaml:"issue_queue"`
	IssueDailyLimit int    `yaml:"issue_daily_limit"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	// IdP* verify identity tokens presented at register and login.
	IdPSecret string `yaml:"idp_secret"`
	IdPIssuer string `yaml:"idp_issuer"`
}

type MediaConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		Port: "8080",
		Env:  "development",
		Mongo: MongoConfig{
			Database: "civicpulse",
		},
		Redis: RedisConfig{
			Address:         "localhost:6379",
			IssueQueue:      "issue-limit",
			IssueDailyLimit: 5,
		},
		Auth: AuthConfig{
			TokenTTL: 72 * time.Hour,
		},
		Media: MediaConfig{
			Bucket: "issue-media",
		},
		CORSOrigins: []string{"http://localhost:3000"},
	}
}

// IsProduction reports whether GO_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == Production
}

// Load builds the configuration from args (without the program name).
func Load(args []string) (*Config, error) {
	var configPath, envFile, port string

	flags := pflag.NewFlagSet("civicpulse", pflag.ContinueOnError)
	flags.StringVar(&configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&envFile, "env-file", ".env", "path to a dotenv file")
	flags.StringVar(&port, "port", "", "HTTP listen port (overrides PORT)")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()
	cfg.EnvFileLoaded = godotenv.Load(envFile) == nil

	if configPath != "" {
		if err := cfg.loadFile(configPath); err != nil {
			return nil, fmt.Errorf("load %s: %w", configPath, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if port != "" {
		cfg.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnv() error {
	envString(&c.Port, "PORT")
	envString(&c.Env, "GO_ENV")
	envString(&c.Mongo.URI, "MONGODB_URI")
	envString(&c.Mongo.Database, "MONGODB_DATABASE")
	envString(&c.Redis.Address, "REDIS_ADDRESS")
	envString(&c.Redis.Password, "REDIS_PASSWORD")
	envString(&c.Redis.IssueQueue, "REDIS_QUEUE_FOR_ISSUE_LIMIT")
	envString(&c.Auth.JWTSecret, "JWT_SECRET")
	envString(&c.Auth.IdPSecret, "IDP_SIGNING_SECRET")
	envString(&c.Auth.IdPIssuer, "IDP_ISSUER")
	envString(&c.Media.Endpoint, "MINIO_ENDPOINT")
	envString(&c.Media.AccessKey, "MINIO_ACCESS_KEY")
	envString(&c.Media.SecretKey, "MINIO_SECRET_KEY")
	envString(&c.Media.Bucket, "MEDIA_BUCKET")

	if v := os.Getenv("ISSUE_DAILY_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ISSUE_DAILY_LIMIT: %w", err)
		}
		c.Redis.IssueDailyLimit = n
	}
	if v := os.Getenv("JWT_EXPIRES_IN"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("JWT_EXPIRES_IN: %w", err)
		}
		c.Auth.TokenTTL = d
	}
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MINIO_USE_SSL: %w", err)
		}
		c.Media.UseSSL = b
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.CORSOrigins = append(c.CORSOrigins, origin)
			}
		}
	}
	return nil
}

// Validate reports every missing or out-of-range required setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Mongo.URI == "" {
		errs = append(errs, errors.New("MONGODB_URI is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Redis.IssueDailyLimit < 1 {
		errs = append(errs, errors.New("ISSUE_DAILY_LIMIT must be positive"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be positive"))
	}
	return errors.Join(errs...)
}

// MediaEnabled reports whether object storage is configured.
func (c *Config) MediaEnabled() bool {
	return c.Media.Endpoint != "" && c.Media.AccessKey != "" && c.Media.SecretKey != ""
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
