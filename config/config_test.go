package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8022", cfg.Server.Listen)
	assert.Equal(t, 5*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 100, cfg.Server.MaxRequests)
	assert.Equal(t, 10, cfg.Server.Workers)
	assert.Equal(t, "localhost:8022", cfg.Client.Target)
	assert.Equal(t, 5*time.Minute, cfg.Client.CacheTTL)
	assert.True(t, cfg.Client.FollowRedirects)
	assert.Equal(t, BackendMemory, cfg.Credentials.Backend)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Setenv("HTTPENGINE_REDIS", "cache:6379")

	path := writeConfig(t, `
server:
  listen: ":9000"
  idle_timeout: 2s
  max_requests: 3
client:
  follow_redirects: false
  cache_ttl: 1m
credentials:
  backend: redis
  redis_addr: ${HTTPENGINE_REDIS}
log:
  level: debug
  pretty: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Listen)
	assert.Equal(t, 2*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 3, cfg.Server.MaxRequests)
	assert.False(t, cfg.Client.FollowRedirects)
	assert.Equal(t, time.Minute, cfg.Client.CacheTTL)
	assert.Equal(t, "cache:6379", cfg.Credentials.RedisAddr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)

	// Untouched keys keep their defaults.
	assert.Equal(t, 10, cfg.Server.Workers)
	assert.Equal(t, "webroot", cfg.Server.Webroot)
}

func TestLoadErrors(t *testing.T) {
	testcases := []struct {
		desc    string
		content string
	}{
		{desc: "bad yaml", content: "server: [1, 2"},
		{desc: "unknown backend", content: "credentials:\n  backend: ldap\n"},
		{desc: "zero idle timeout", content: "server:\n  idle_timeout: 0s\n"},
		{desc: "bad duration", content: "server:\n  idle_timeout: soon\n"},
		{desc: "negative workers", content: "server:\n  workers: -1\n"},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
