package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/walletvault/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WALLETVAULT_AUTH_SECRET", testSecret)

	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.EqualValues(t, 32<<20, cfg.Server.MaxUploadSize)
	assert.Equal(t, "./data", cfg.Storage.Path)
	assert.NotEmpty(t, cfg.Auth.Challenge)
	assert.Equal(t, testSecret, cfg.Auth.Secret)
	assert.Equal(t, "walletvault", cfg.Auth.Issuer)
	assert.Equal(t, "walletvault-clients", cfg.Auth.Audience)
	assert.False(t, cfg.Events.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := config.Load(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Secret")
}

func TestLoad_ShortSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WALLETVAULT_AUTH_SECRET", "too-short")

	_, err := config.Load(nil, nil)
	require.Error(t, err)
}

func TestLoad_ConfigFileMerge(t *testing.T) {
	base := writeConfig(t, "base.yaml", `
env: prod
server:
  port: 9000
storage:
  path: /srv/vault
auth:
  challenge: Sign in please
  secret: `+testSecret+`
  issuer: vault
  audience: vault-users
log:
  level: debug
`)
	override := writeConfig(t, "override.yaml", `
server:
  port: 9100
log:
  level: warn
`)

	cfg, err := config.Load([]string{base, override}, nil)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "/srv/vault", cfg.Storage.Path)
	assert.Equal(t, "Sign in please", cfg.Auth.Challenge)
	assert.Equal(t, "vault", cfg.Auth.Issuer)
	assert.Equal(t, "vault-users", cfg.Auth.Audience)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := config.Load([]string{filepath.Join(t.TempDir(), "nope.yaml")}, nil)
	require.Error(t, err)
}

func TestLoad_Precedence(t *testing.T) {
	file := writeConfig(t, "config.yaml", `
server:
  port: 9000
storage:
  path: /from/file
auth:
  secret: `+testSecret+`
`)
	t.Setenv("WALLETVAULT_SERVER_PORT", "9500")
	t.Setenv("WALLETVAULT_STORAGE_PATH", "/from/env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 0, "")
	flags.String("storage-path", "", "")
	require.NoError(t, flags.Parse([]string{"--storage-path", "/from/flag"}))

	cfg, err := config.Load([]string{file}, flags)
	require.NoError(t, err)

	assert.Equal(t, 9500, cfg.Server.Port, "env beats file")
	assert.Equal(t, "/from/flag", cfg.Storage.Path, "flag beats env")
}

func TestLoad_EventsRequireRedisURL(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WALLETVAULT_AUTH_SECRET", testSecret)
	t.Setenv("WALLETVAULT_EVENTS_ENABLED", "true")

	_, err := config.Load(nil, nil)
	require.Error(t, err)

	t.Setenv("WALLETVAULT_EVENTS_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)
	assert.True(t, cfg.Events.Enabled)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Events.RedisURL)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad env", map[string]string{"WALLETVAULT_ENV": "staging"}},
		{"bad port", map[string]string{"WALLETVAULT_SERVER_PORT": "70000"}},
		{"bad mode", map[string]string{"WALLETVAULT_SERVER_MODE": "turbo"}},
		{"bad log level", map[string]string{"WALLETVAULT_LOG_LEVEL": "trace"}},
		{"negative upload size", map[string]string{"WALLETVAULT_SERVER_MAX_UPLOAD_SIZE": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv("WALLETVAULT_AUTH_SECRET", testSecret)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load(nil, nil)
			assert.Error(t, err)
		})
	}
}
