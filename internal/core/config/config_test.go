package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waste-recycling-tracker/internal/core/config"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_YAML(t *testing.T) {
	p := writeYAML(t, `
app:
  http:
    port: 9000
db:
  driver: postgres
  dsn: "jdbc:postgresql://db:5432/waste"
stats:
  mode: redis
auth:
  policy: jwt
  rules:
    center: [CENTER]
limits:
  per_ip: true
`)
	c, err := config.Load(p)
	require.NoError(t, err)

	assert.Equal(t, 9000, c.App.HTTP.Port)
	assert.Equal(t, "postgres", c.DB.Driver)
	assert.Equal(t, "redis", c.Stats.Mode)
	assert.Equal(t, "jwt", c.Auth.Policy)
	assert.Equal(t, []string{"CENTER"}, c.Auth.Rules["center"])
	assert.True(t, c.Limits.PerIP)

	// 未配置的项取默认值
	assert.Equal(t, "0.0.0.0", c.App.HTTP.Host)
	assert.Equal(t, 8082, c.App.Admin.Port)
	assert.Equal(t, "plain", c.Password.Hasher)
	assert.Equal(t, "wrt:stats", c.Stats.KeyPrefix)
	assert.True(t, c.Notify.OnLifecycle)
	assert.Equal(t, []string{"http://localhost:5173"}, c.CORS.AllowOrigins)
	assert.EqualValues(t, 1<<20, c.Limits.MaxBodyBytes)
}

func TestLoad_EnvOverrides(t *testing.T) {
	p := writeYAML(t, "db:\n  driver: mysql\n")
	t.Setenv("APP_DB_DRIVER", "sqlite")
	t.Setenv("APP_APP_HTTP_PORT", "7001")
	t.Setenv("APP_PASSWORD_HASHER", "bcrypt")

	c, err := config.Load(p)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", c.DB.Driver)
	assert.Equal(t, 7001, c.App.HTTP.Port)
	assert.Equal(t, "bcrypt", c.Password.Hasher)
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", "")

	c, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", c.DB.Driver)
	assert.Equal(t, 8081, c.App.HTTP.Port)
	assert.Equal(t, "allow_all", c.Auth.Policy)
	assert.Equal(t, "scan", c.Stats.Mode)
	assert.Equal(t, []string{"FAMILY"}, c.Auth.Rules["family"])
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
