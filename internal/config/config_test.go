package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Rooms: RoomsConfig{
			OutboxBuffer: 64,
		},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestHTTPAddr(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	err := os.WriteFile(path, []byte(`
http:
  host: 127.0.0.1
  port: 9090
  read_timeout: 15s
  write_timeout: 20s
  shutdown_timeout: 5s
logging:
  level: debug
  format: console
rooms:
  outbox_buffer: 32
`), 0o600)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.HTTP.Host)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 32, cfg.Rooms.OutboxBuffer)
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "minimal.yaml")
	err := os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0o600)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 64, cfg.Rooms.OutboxBuffer)
	assert.Empty(t, cfg.Rooms.SeedFile)
}

func TestLoadFromViper(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("logging.level", "error")

	cfg, err := LoadFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 64, cfg.Rooms.OutboxBuffer)
}

func TestLoadFromViperRejectsInvalid(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("http.port", 0)

	_, err := LoadFromViper(v)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadHTTPPort(t *testing.T) {
	for _, port := range []int{0, -1, 65536} {
		cfg := validConfig()
		cfg.HTTP.Port = port
		assert.Error(t, cfg.Validate(), "port %d must be rejected", port)
	}
}

func TestValidateRejectsNegativeTimeouts(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.ReadTimeout = -time.Second
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.HTTP.WriteTimeout = -time.Second
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.HTTP.ShutdownTimeout = -time.Second
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadLogging(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "trace"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadOutboxBuffer(t *testing.T) {
	cfg := validConfig()
	cfg.Rooms.OutboxBuffer = 0
	assert.Error(t, cfg.Validate())
}

// TestValidate_Property verifies that any config with an in-range port,
// non-negative timeouts, valid logging enums, and a positive outbox buffer
// passes validation.
func TestValidate_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cfg := Config{
			HTTP: HTTPConfig{
				Host:            "0.0.0.0",
				Port:            rapid.IntRange(1, 65535).Draw(rt, "port"),
				ReadTimeout:     time.Duration(rapid.IntRange(0, 3600).Draw(rt, "read")) * time.Second,
				WriteTimeout:    time.Duration(rapid.IntRange(0, 3600).Draw(rt, "write")) * time.Second,
				ShutdownTimeout: time.Duration(rapid.IntRange(0, 3600).Draw(rt, "shutdown")) * time.Second,
			},
			Logging: LoggingConfig{
				Level:  rapid.SampledFrom([]string{"debug", "info", "warn", "error"}).Draw(rt, "level"),
				Format: rapid.SampledFrom([]string{"json", "console"}).Draw(rt, "format"),
			},
			Rooms: RoomsConfig{
				OutboxBuffer: rapid.IntRange(1, 4096).Draw(rt, "buffer"),
			},
		}
		assert.NoError(rt, cfg.Validate())
	})
}
