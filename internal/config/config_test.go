package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, Initialize("", nil))

	cfg := Get()
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "human", cfg.Log.Format)
	assert.Equal(t, "base64", cfg.TMK.Format)
	assert.False(t, cfg.OpenSSL.Enabled)
	assert.Equal(t, "openssl", cfg.OpenSSL.Path)
	assert.Equal(t, 10*time.Second, cfg.OpenSSL.Timeout)
	assert.Equal(t, 1600, cfg.Server.Port)
}

func TestInitializeDoesNotWriteFiles(t *testing.T) {
	home := t.TempDir()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", home)

	require.NoError(t, Initialize("", nil))

	_, err := os.Stat(filepath.Join(home, ".go_rki"))
	assert.True(t, os.IsNotExist(err))
}

func TestInitializeFileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfgFile := filepath.Join(dir, "rki.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
log:
  level: debug
tmk:
  format: hex
openssl:
  enabled: true
  timeout: 3s
rsa:
  key_path: /keys/rki.pem
server:
  port: 1700
`), 0o600))

	t.Setenv("GORKI_SERVER_HOST", "0.0.0.0")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 1600, "")
	require.NoError(t, flags.Parse([]string{"--port", "1800"}))

	require.NoError(t, Initialize(cfgFile, flags))

	cfg := Get()
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "hex", cfg.TMK.Format)
	assert.True(t, cfg.OpenSSL.Enabled)
	assert.Equal(t, 3*time.Second, cfg.OpenSSL.Timeout)
	assert.Equal(t, "/keys/rki.pem", cfg.RSA.KeyPath)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 1800, cfg.Server.Port)
	assert.Equal(t, "hex", GetViper().GetString("tmk.format"))
}

func TestInitializeBadFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("log: [unterminated"), 0o600))

	assert.Error(t, Initialize(cfgFile, nil))
}
