package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for name, want := range cases {
		got, ok := ParseLevel(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	lvl, ok := ParseLevel("verbose")
	assert.False(t, ok)
	assert.Equal(t, slog.LevelInfo, lvl)
}

func TestLazyLogger_FollowsDefault(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	l := Logger("test/component")

	var first, second bytes.Buffer
	Configure(&first, FormatText, slog.LevelInfo)
	l.Info("hello")
	assert.Contains(t, first.String(), "component=test/component")

	// 切换输出后，已创建的 LazyLogger 立即使用新的 handler
	Configure(&second, FormatJSON, slog.LevelDebug)
	l.Debug("world", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(second.Bytes(), &rec))
	assert.Equal(t, "world", rec["msg"])
	assert.Equal(t, "test/component", rec["component"])
	assert.Equal(t, "v", rec["k"])
	assert.NotContains(t, first.String(), "world")
}

func TestConfigure_LevelFilter(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	Configure(&buf, FormatText, slog.LevelWarn)
	Logger("x").Info("dropped")
	Logger("x").Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvLevel, "debug")
	t.Setenv(EnvFormat, "json")
	lvl, format := FromEnv()
	assert.Equal(t, slog.LevelDebug, lvl)
	assert.Equal(t, FormatJSON, format)

	t.Setenv(EnvLevel, "")
	t.Setenv(EnvFormat, "")
	lvl, format = FromEnv()
	assert.Equal(t, slog.LevelInfo, lvl)
	assert.Equal(t, FormatText, format)
}
