package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// 日志级别，数值越小越啰嗦。
const (
	LevelDebug int32 = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	level int32 = LevelInfo
	std         = log.New(os.Stderr, "", log.LstdFlags)
)

// SetLevel 按名称设置全局日志级别，未知名称回落到 info。
func SetLevel(name string) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		atomic.StoreInt32(&level, LevelDebug)
	case "warn", "warning":
		atomic.StoreInt32(&level, LevelWarn)
	case "error":
		atomic.StoreInt32(&level, LevelError)
	default:
		atomic.StoreInt32(&level, LevelInfo)
	}
}

func enabled(l int32) bool { return atomic.LoadInt32(&level) <= l }

func Debugf(format string, args ...any) {
	if enabled(LevelDebug) {
		std.Output(2, "[DEBUG] "+fmt.Sprintf(format, args...))
	}
}

func Infof(format string, args ...any) {
	if enabled(LevelInfo) {
		std.Output(2, "[INFO] "+fmt.Sprintf(format, args...))
	}
}

func Warnf(format string, args ...any) {
	if enabled(LevelWarn) {
		std.Output(2, "[WARN] "+fmt.Sprintf(format, args...))
	}
}

func Errorf(format string, args ...any) {
	if enabled(LevelError) {
		std.Output(2, "[ERROR] "+fmt.Sprintf(format, args...))
	}
}
