package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "http://127.0.0.1:8000/api", cfg.Directory.BaseURL)
	assert.Equal(t, "127.0.0.1:8001", cfg.Rendezvous.Addr)
	assert.Equal(t, 2048, cfg.Rendezvous.MaxPayload)
	assert.Equal(t, "wlan0", cfg.Injection.Interface)
	assert.Equal(t, NotificationLoopback, cfg.Notification.Mode)
}

func TestConfig_ValidateErrors(t *testing.T) {
	cases := map[string]func(*Config){
		"directory url":   func(c *Config) { c.Directory.BaseURL = "ftp://x" },
		"rendezvous addr": func(c *Config) { c.Rendezvous.Addr = "nohostport" },
		"payload":         func(c *Config) { c.Rendezvous.MaxPayload = 1 },
		"ws url":          func(c *Config) { c.Notification.Mode = NotificationWebSocket },
		"mode":            func(c *Config) { c.Notification.Mode = "carrier-pigeon" },
		"storage":         func(c *Config) { c.Storage.DataDir = "" },
		"injection":       func(c *Config) { c.Injection.Mode = "magic" },
		"history":         func(c *Config) { c.Coordinator.HistorySize = -1 },
		"server rate":     func(c *Config) { c.Server.RequestRate = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := NewConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())
}

func TestFromJSON_KeepsDefaults(t *testing.T) {
	cfg, err := FromJSON([]byte(`{
		"rendezvous": {"addr": "rv.example.org:9001", "exchange_timeout": "5s"},
		"injection": {"mode": "log", "interface": "eth0"}
	}`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "rv.example.org:9001", cfg.Rendezvous.Addr)
	assert.Equal(t, 5*time.Second, cfg.Rendezvous.ExchangeTimeout.Duration())
	assert.Equal(t, 10*time.Second, cfg.Rendezvous.DialTimeout.Duration(), "未指定字段保留默认值")
	assert.Equal(t, InjectionLog, cfg.Injection.Mode)

	_, err = FromJSON([]byte(`{"rendezvous": {"dial_timeout": "soon"}}`))
	assert.Error(t, err)
}

func TestLoadFile_RoundTrip(t *testing.T) {
	cfg := NewConfig()
	cfg.Storage.DataDir = "/var/lib/natpeer"
	data, err := cfg.ToJSON()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "natpeer.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.Equal(t, filepath.Join("/var/lib/natpeer", "natpeer.db"), loaded.Storage.DBPath())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestDuration_JSON(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"1m30s"`)))
	assert.Equal(t, 90*time.Second, d.Duration())
	require.NoError(t, d.UnmarshalJSON([]byte(`1000`)))
	assert.Equal(t, time.Microsecond, d.Duration())
	assert.Error(t, d.UnmarshalJSON([]byte(`true`)))

	out, err := Duration(2 * time.Second).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2s"`, string(out))
}
