// Package logger adds an opt-in debug channel next to the standard log
// output. Enable it with DEBUG=1.
package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
)

var (
	debugMode   atomic.Bool
	debugLogger = log.New(os.Stdout, "[debug] ", log.LstdFlags|log.Lmicroseconds)
)

func init() {
	if v := os.Getenv("DEBUG"); v == "1" || v == "true" {
		debugMode.Store(true)
	}
}

// SetDebugMode enables or disables debug logging.
func SetDebugMode(enabled bool) {
	debugMode.Store(enabled)
}

// IsDebugMode returns the current debug mode.
func IsDebugMode() bool {
	return debugMode.Load()
}

// Debug logs a message with the caller's file and line when debug mode is on.
func Debug(format string, args ...any) {
	if !debugMode.Load() {
		return
	}
	_, file, line, _ := runtime.Caller(1)
	debugLogger.Printf("%s:%d - %s", filepath.Base(file), line, fmt.Sprintf(format, args...))
}

// SetOutput redirects debug output, mainly for tests.
func SetOutput(l *log.Logger) {
	debugLogger = l
}
