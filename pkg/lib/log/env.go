package log

import (
	"io"
	"log/slog"
	"os"
)

// 环境变量
const (
	// EnvLevel 日志级别：debug / info / warn / error
	EnvLevel = "NATPEER_LOG_LEVEL"
	// EnvFormat 日志格式：text / json
	EnvFormat = "NATPEER_LOG_FORMAT"
)

// FromEnv 从环境变量读取级别与格式
//
// 未设置或无法识别时返回 (LevelInfo, FormatText)。
func FromEnv() (slog.Level, Format) {
	level, _ := ParseLevel(os.Getenv(EnvLevel))
	return level, ParseFormat(os.Getenv(EnvFormat))
}

// ConfigureFromEnv 按环境变量配置默认 logger
func ConfigureFromEnv(w io.Writer) {
	level, format := FromEnv()
	Configure(w, format, level)
}
