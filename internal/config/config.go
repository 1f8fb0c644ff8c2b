// Package config loads the bookbot configuration: the core sections plus
// database, session store, metrics listener and support settings.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/bookbot/core/config"
	coredatabase "github.com/m3rciful/bookbot/core/database"
	"github.com/m3rciful/bookbot/internal/domain"
)

const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"

	defaultSessionTTL    = 24 * time.Hour
	defaultSessionPrefix = "bookbot:session:"
)

// RedisConfig points at the Redis server used for sessions.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
	Prefix   string `yaml:"prefix" envconfig:"REDIS_PREFIX"`
}

// SessionConfig selects where conversation state lives.
// TTL is a Go duration; "0" keeps sessions until they finish.
type SessionConfig struct {
	Backend string      `yaml:"backend" envconfig:"SESSION_BACKEND"`
	TTL     string      `yaml:"ttl" envconfig:"SESSION_TTL"`
	Redis   RedisConfig `yaml:"redis"`

	ttl time.Duration
}

// TTLDuration is the inactivity timeout parsed by Normalize.
func (s SessionConfig) TTLDuration() time.Duration { return s.ttl }

// MetricsConfig enables the Prometheus and health listener. Empty Listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

// SupportConfig names the admin role that answers general support requests.
type SupportConfig struct {
	Role string `yaml:"role" envconfig:"SUPPORT_ROLE"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Session  SessionConfig       `yaml:"session"`
	Metrics  MetricsConfig       `yaml:"metrics"`
	Support  SupportConfig       `yaml:"support"`
}

// CoreConfig exposes the embedded core section to the runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads path and the environment, then validates and fills defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the application sections on top of the core ones.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}
	cfg.Database = cfg.Database.WithDefaults()

	s := &cfg.Session
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	switch s.Backend {
	case "":
		s.Backend = SessionBackendMemory
	case SessionBackendMemory:
	case SessionBackendRedis:
		if strings.TrimSpace(s.Redis.Addr) == "" {
			return errors.New("session.redis.addr is required when session.backend is 'redis'")
		}
	default:
		return fmt.Errorf("invalid session.backend %q; allowed: memory, redis", s.Backend)
	}
	if s.Redis.Prefix == "" {
		s.Redis.Prefix = defaultSessionPrefix
	}

	switch raw := strings.TrimSpace(s.TTL); raw {
	case "":
		s.ttl = defaultSessionTTL
	default:
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid session.ttl %q; use a duration such as 24h, or 0 to disable", s.TTL)
		}
		s.ttl = d
	}

	cfg.Support.Role = strings.TrimSpace(cfg.Support.Role)
	if cfg.Support.Role == "" {
		cfg.Support.Role = domain.RoleTechSupport
	}
	return nil
}
