// Package config loads the engine configuration from YAML.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Client      ClientConfig      `yaml:"client"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Log         LogConfig         `yaml:"log"`
	Admin       AdminConfig       `yaml:"admin"`
}

type ServerConfig struct {
	Listen       string        `yaml:"listen"`
	Name         string        `yaml:"name"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxRequests  int           `yaml:"max_requests"`
	Workers      int           `yaml:"workers"`
	MaxBodyBytes int           `yaml:"max_body_bytes"`
	Webroot      string        `yaml:"webroot"`
}

type ClientConfig struct {
	Target          string        `yaml:"target"`
	UserAgent       string        `yaml:"user_agent"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	FollowRedirects bool          `yaml:"follow_redirects"`
	DialTimeout     time.Duration `yaml:"dial_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
}

// Backends for the credential store.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type CredentialsConfig struct {
	Backend     string `yaml:"backend"`
	SQLitePath  string `yaml:"sqlite_path"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisPrefix string `yaml:"redis_prefix"`
	// BcryptCost of zero means bcrypt's default.
	BcryptCost int `yaml:"bcrypt_cost"`
	// SeedDefaultUsers registers the demo accounts at startup.
	SeedDefaultUsers bool `yaml:"seed_default_users"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// AdminConfig configures the metrics endpoint. An empty Listen disables it.
type AdminConfig struct {
	Listen string `yaml:"listen"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:       ":8022",
			Name:         "http-engine",
			IdleTimeout:  5 * time.Second,
			MaxRequests:  100,
			Workers:      10,
			MaxBodyBytes: 10 << 20,
			Webroot:      "webroot",
		},
		Client: ClientConfig{
			Target:          "localhost:8022",
			UserAgent:       "http-engine-client/1.0",
			CacheTTL:        5 * time.Minute,
			FollowRedirects: true,
			DialTimeout:     5 * time.Second,
			ReadTimeout:     30 * time.Second,
		},
		Credentials: CredentialsConfig{
			Backend:          BackendMemory,
			SQLitePath:       "users.db",
			RedisAddr:        "localhost:6379",
			SeedDefaultUsers: true,
		},
		Log: LogConfig{
			Level: "info",
		},
		Admin: AdminConfig{
			Listen: ":9090",
		},
	}
}

// Load reads a YAML config file over the defaults.
// Environment variables in the file are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Credentials.Backend {
	case BackendMemory, BackendSQLite, BackendRedis:
	default:
		return errors.Errorf("unknown credentials backend %q", c.Credentials.Backend)
	}

	if c.Server.IdleTimeout <= 0 {
		return errors.New("server.idle_timeout must be positive")
	}
	if c.Server.MaxRequests <= 0 {
		return errors.New("server.max_requests must be positive")
	}
	if c.Server.Workers <= 0 {
		return errors.New("server.workers must be positive")
	}
	if c.Server.MaxBodyBytes < 0 {
		return errors.New("server.max_body_bytes must not be negative")
	}

	return nil
}
