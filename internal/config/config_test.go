package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/bookbot/core/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.CoreConfig().Telegram.Token)
	assert.Equal(t, coreconfig.RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, SessionBackendMemory, cfg.Session.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTLDuration())
	assert.Equal(t, "bookbot:session:", cfg.Session.Redis.Prefix)
	assert.Equal(t, "tech_support", cfg.Support.Role)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "migrations", cfg.Database.MigrationsDir)
	assert.Empty(t, cfg.Metrics.Listen)
}

func TestLoadYAMLSections(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: from-file
  admin_id: 7
database:
  host: db
  name: books
session:
  backend: Redis
  ttl: 30m
  redis:
    addr: redis:6379
metrics:
  listen: ":9090"
support:
  role: helpdesk
`)
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Telegram.Token)
	assert.Equal(t, int64(7), cfg.Telegram.AdminID)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, "books", cfg.Database.Name)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, SessionBackendRedis, cfg.Session.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTLDuration())
	assert.Equal(t, "redis:6379", cfg.Session.Redis.Addr)
	assert.Equal(t, ":9090", cfg.Metrics.Listen)
	assert.Equal(t, "helpdesk", cfg.Support.Role)
}

func TestSessionTTLZeroDisablesExpiry(t *testing.T) {
	cfg := &Config{Config: coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t"}}}
	cfg.Session.TTL = "0"
	require.NoError(t, Normalize(cfg))
	assert.Zero(t, cfg.Session.TTLDuration())
}

func TestNormalizeRejects(t *testing.T) {
	base := func() *Config {
		return &Config{Config: coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t"}}}
	}
	cases := map[string]func(c *Config){
		"missing token":      func(c *Config) { c.Telegram.Token = "" },
		"unknown backend":    func(c *Config) { c.Session.Backend = "etcd" },
		"redis without addr": func(c *Config) { c.Session.Backend = SessionBackendRedis },
		"bad ttl":            func(c *Config) { c.Session.TTL = "forever" },
		"negative ttl":       func(c *Config) { c.Session.TTL = "-1h" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base()
			mutate(cfg)
			assert.Error(t, Normalize(cfg))
		})
	}
}
