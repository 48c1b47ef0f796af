package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_ExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("JUDO_TOKEN", "tok")
	t.Setenv("JUDO_SECRET", "sec")

	cfg, err := Load(writeConfig(t, `
app:
  env: development
gateway:
  sandboxed: true
  token: ${JUDO_TOKEN}
  secret: ${JUDO_SECRET}
  timeout: 5s
kafka:
  bootstrap_servers: "k1:9092, k2:9092,"
`))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.True(t, cfg.Gateway.Sandboxed)
	assert.Equal(t, "tok", cfg.Gateway.Token)
	assert.Equal(t, "sec", cfg.Gateway.Secret)
	assert.Equal(t, 5*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "5.0.0", cfg.Gateway.APIVersion)
	assert.Equal(t, "Custom-UI", cfg.Gateway.UIClientMode)
	assert.Equal(t, 50, cfg.Reference.MaxLength)
	assert.Equal(t, 4, cfg.Reference.TrimSuffix)
	assert.Equal(t, "0.01", cfg.RegisterCard.Amount)
	assert.Equal(t, 24*time.Hour, cfg.ReferenceGuard.TTL)
	assert.Equal(t, 2*time.Second, cfg.DeviceSignal.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.DeviceSignal.CacheTTL)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers())
}

func TestLoad_RejectsUnknownStrategy(t *testing.T) {
	_, err := Load(writeConfig(t, "reference:\n  strategy: random\n"))
	assert.ErrorContains(t, err, "reference.strategy")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.ErrorContains(t, err, "error reading config file")
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "gateway: [unclosed"))
	assert.ErrorContains(t, err, "error parsing config file")
}
