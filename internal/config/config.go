// Package config loads daemon settings from an optional YAML file with
// CERTIFY_* environment overrides.
package config

import (
	"encoding/hex"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config represents the daemon configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Latency LatencyConfig `yaml:"latency"`
	Log     LogConfig     `yaml:"log"`
	Tracing TracingConfig `yaml:"tracing"`
}

// StorageConfig selects and configures the durable slot backend.
type StorageConfig struct {
	Backend     string `yaml:"backend"`
	DataDir     string `yaml:"data_dir"`
	SQLitePath  string `yaml:"sqlite_path"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisDB     int    `yaml:"redis_db"`
	RedisPrefix string `yaml:"redis_prefix"`
	// VaultKey is a hex-encoded 32 byte AES key. When set, the session blob is sealed at rest.
	VaultKey string `yaml:"vault_key"`
}

type ServerConfig struct {
	Port       string `yaml:"port"`
	HTTPPort   string `yaml:"http_port"`
	DisableTLS bool   `yaml:"disable_tls"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// LatencyConfig holds the artificial delays applied to each operation.
type LatencyConfig struct {
	Add    time.Duration `yaml:"add"`
	Update time.Duration `yaml:"update"`
	Delete time.Duration `yaml:"delete"`
	Login  time.Duration `yaml:"login"`
}

type LogConfig struct {
	Mode  string `yaml:"mode"`
	Level string `yaml:"level"`
}

// TracingConfig controls OpenTelemetry tracing. Spans go to the OTLP/HTTP
// endpoint when one is set, otherwise to stdout.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Storage: StorageConfig{
			Backend:     BackendFile,
			DataDir:     "./data",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "certify-one:",
		},
		Server: ServerConfig{
			Port:     "7101",
			HTTPPort: "7102",
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Latency: LatencyConfig{
			Add:    500 * time.Millisecond,
			Update: 500 * time.Millisecond,
			Delete: 300 * time.Millisecond,
			Login:  time.Second,
		},
		Log: LogConfig{
			Mode:  "dev",
			Level: "info",
		},
		Tracing: TracingConfig{
			ServiceName: "certify-stored",
			SampleRatio: 1,
		},
	}
}

// Load reads configuration from path (skipped when empty) and applies
// environment overrides on top.
func Load(path string) (cfg Config, err error) {
	cfg = Default()

	if path != "" {
		var data []byte
		data, err = os.ReadFile(path)
		if err != nil {
			err = errors.Wrapf(err, "failed to read config file: %s", path)
			return cfg, err
		}
		err = yaml.Unmarshal(data, &cfg)
		if err != nil {
			err = errors.Wrapf(err, "failed to parse config file: %s", path)
			return cfg, err
		}
	}

	err = cfg.applyEnv()
	if err != nil {
		return cfg, err
	}

	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = strings.TrimSuffix(cfg.Storage.DataDir, "/") + "/certify.db"
	}

	err = cfg.Validate()
	if err != nil {
		err = errors.Wrap(err, "config validation failed")
		return cfg, err
	}
	return cfg, err
}

func (c *Config) applyEnv() error {
	setString(&c.Storage.Backend, "CERTIFY_BACKEND")
	setString(&c.Storage.DataDir, "CERTIFY_DATA_DIR")
	setString(&c.Storage.SQLitePath, "CERTIFY_SQLITE_PATH")
	setString(&c.Storage.RedisAddr, "CERTIFY_REDIS_ADDR")
	setString(&c.Storage.RedisPrefix, "CERTIFY_REDIS_PREFIX")
	setString(&c.Storage.VaultKey, "CERTIFY_VAULT_KEY")
	setString(&c.Server.Port, "CERTIFY_PORT")
	setString(&c.Server.HTTPPort, "CERTIFY_HTTP_PORT")
	setString(&c.Auth.JWTSecret, "CERTIFY_JWT_SECRET")
	setString(&c.Log.Mode, "CERTIFY_LOG_MODE")
	setString(&c.Log.Level, "CERTIFY_LOG_LEVEL")
	setString(&c.Tracing.Endpoint, "CERTIFY_OTEL_ENDPOINT")
	setString(&c.Tracing.ServiceName, "CERTIFY_OTEL_SERVICE_NAME")

	if v := os.Getenv("CERTIFY_DISABLE_TLS"); v != "" {
		c.Server.DisableTLS = v == "true"
	}
	if v := os.Getenv("CERTIFY_OTEL_ENABLED"); v != "" {
		c.Tracing.Enabled = v == "true"
	}
	if v := os.Getenv("CERTIFY_OTEL_INSECURE"); v != "" {
		c.Tracing.Insecure = v == "true"
	}
	if v := os.Getenv("CERTIFY_OTEL_SAMPLE_RATIO"); v != "" {
		ratio, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrapf(err, "CERTIFY_OTEL_SAMPLE_RATIO")
		}
		c.Tracing.SampleRatio = ratio
	}
	if v := os.Getenv("CERTIFY_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "CERTIFY_REDIS_DB")
		}
		c.Storage.RedisDB = db
	}

	durations := map[string]*time.Duration{
		"CERTIFY_TOKEN_TTL":      &c.Auth.TokenTTL,
		"CERTIFY_LATENCY_ADD":    &c.Latency.Add,
		"CERTIFY_LATENCY_UPDATE": &c.Latency.Update,
		"CERTIFY_LATENCY_DELETE": &c.Latency.Delete,
		"CERTIFY_LATENCY_LOGIN":  &c.Latency.Login,
	}
	for name, dst := range durations {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "%s", name)
		}
		*dst = d
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() (err error) {
	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.DataDir == "" {
			err = errors.New("data_dir is required for the file backend")
			return err
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			err = errors.New("sqlite_path is required for the sqlite backend")
			return err
		}
	case BackendRedis:
		if c.Storage.RedisAddr == "" {
			err = errors.New("redis_addr is required for the redis backend")
			return err
		}
	default:
		err = errors.Errorf("unknown storage backend %q", c.Storage.Backend)
		return err
	}

	if c.Storage.VaultKey != "" {
		if _, err = c.VaultKeyBytes(); err != nil {
			return err
		}
	}

	for name, d := range map[string]time.Duration{
		"latency.add":    c.Latency.Add,
		"latency.update": c.Latency.Update,
		"latency.delete": c.Latency.Delete,
		"latency.login":  c.Latency.Login,
	} {
		if d < 0 {
			err = errors.Errorf("%s must not be negative", name)
			return err
		}
	}

	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		err = errors.Errorf("tracing.sample_ratio must be within [0, 1], got %v", c.Tracing.SampleRatio)
		return err
	}

	if c.Auth.TokenTTL <= 0 {
		err = errors.New("auth.token_ttl must be positive")
		return err
	}
	return err
}

// VaultKeyBytes decodes the configured vault key.
func (c *Config) VaultKeyBytes() ([]byte, error) {
	key, err := hex.DecodeString(c.Storage.VaultKey)
	if err != nil {
		return nil, errors.Wrap(err, "vault_key must be hex encoded")
	}
	if len(key) != 32 {
		return nil, errors.Errorf("vault_key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

func setString(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}
