// Package config loads inventoryd settings from defaults, an optional YAML
// file, .env files and INVENTORY_* environment variables, in increasing
// precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// EnvPrefix namespaces every environment override: storage.driver is read
// from INVENTORY_STORAGE_DRIVER.
const EnvPrefix = "INVENTORY"

// Config is the resolved inventoryd configuration.
type Config struct {
	App struct {
		Env string
	} `mapstructure:"app"`

	Log struct {
		Level string
	} `mapstructure:"log"`

	HTTP struct {
		Addr           string
		RateLimit      float64       `mapstructure:"rate_limit"`
		RateBurst      int           `mapstructure:"rate_burst"`
		RequestTimeout time.Duration `mapstructure:"request_timeout"`
		CORSOrigins    []string      `mapstructure:"cors_origins"`
		ShutdownGrace  time.Duration `mapstructure:"shutdown_grace"`
	} `mapstructure:"http"`

	Storage struct {
		Driver      string
		SQLitePath  string `mapstructure:"sqlite_path"`
		PostgresDSN string `mapstructure:"postgres_dsn"`
	} `mapstructure:"storage"`

	Metrics struct {
		Enabled bool
		Backend string
	} `mapstructure:"metrics"`

	Blob struct {
		Driver string
		FSRoot string `mapstructure:"fs_root"`
		S3     struct {
			Region          string
			Bucket          string
			Endpoint        string
			AccessKeyID     string `mapstructure:"access_key_id"`
			SecretAccessKey string `mapstructure:"secret_access_key"`
			SessionToken    string `mapstructure:"session_token"`
			PathStyle       bool   `mapstructure:"path_style"`
		} `mapstructure:"s3"`
	} `mapstructure:"blob"`

	Kafka struct {
		Brokers    []string
		AuditTopic string `mapstructure:"audit_topic"`
	} `mapstructure:"kafka"`

	Redis struct {
		Addr           string
		Password       string
		DB             int           `mapstructure:"db"`
		IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`
	} `mapstructure:"redis"`
}

var defaults = map[string]any{
	"app.env":                   "dev",
	"log.level":                 "info",
	"http.addr":                 ":8080",
	"http.rate_limit":           0.0,
	"http.rate_burst":           0,
	"http.request_timeout":      "30s",
	"http.cors_origins":         []string{},
	"http.shutdown_grace":       "10s",
	"storage.driver":            "sqlite",
	"storage.sqlite_path":       "inventory.db",
	"storage.postgres_dsn":      "",
	"metrics.enabled":           true,
	"metrics.backend":           "prometheus",
	"blob.driver":               "fs",
	"blob.fs_root":              "./reports",
	"blob.s3.region":            "",
	"blob.s3.bucket":            "",
	"blob.s3.endpoint":          "",
	"blob.s3.access_key_id":     "",
	"blob.s3.secret_access_key": "",
	"blob.s3.session_token":     "",
	"blob.s3.path_style":        false,
	"kafka.brokers":             []string{},
	"kafka.audit_topic":         "inventory.audit",
	"redis.addr":                "",
	"redis.password":            "",
	"redis.db":                  0,
	"redis.idempotency_ttl":     "24h",
}

// Load reads the configuration. path names an optional YAML file; envFiles
// are loaded into the process environment first and may be absent.
func Load(path string, envFiles ...string) (Config, error) {
	var c Config
	if err := loadEnvFiles(envFiles); err != nil {
		return c, err
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return c, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	c.HTTP.CORSOrigins = splitList(c.HTTP.CORSOrigins)
	c.Kafka.Brokers = splitList(c.Kafka.Brokers)
	return c, c.Validate()
}

func loadEnvFiles(files []string) error {
	for _, f := range files {
		if err := gotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// splitList flattens comma separated entries, which is how list values
// arrive from the environment.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Validate rejects settings the process cannot start with.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case "memory", "sqlite":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return errors.New("config: storage.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unsupported storage.driver %q", c.Storage.Driver)
	}
	switch c.Blob.Driver {
	case "memory", "fs":
	case "s3":
		if c.Blob.S3.Bucket == "" {
			return errors.New("config: blob.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("config: unsupported blob.driver %q", c.Blob.Driver)
	}
	switch c.Metrics.Backend {
	case "prometheus", "expvar":
	default:
		return fmt.Errorf("config: unsupported metrics.backend %q", c.Metrics.Backend)
	}
	if c.HTTP.RateLimit < 0 {
		return errors.New("config: http.rate_limit cannot be negative")
	}
	return nil
}
