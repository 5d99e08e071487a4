// Package applog provides the leveled file logger used across the
// multiplexer. Mirrors h2's direct use of the standard log
// package rather than a third-party structured logger, since nothing in
// the example pack reaches for one.
package applog

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

var (
	mu      sync.Mutex
	std     = log.New(io.Discard, "", log.LstdFlags)
	logFile *os.File
)

// Init opens (creating if needed) "<dir>/mprocs.log" and directs all
// subsequent logging there. Safe to call once at startup; a zero dir
// leaves logging discarded, matching mprocs' default of not writing logs
// unless --log-dir is given.
func Init(dir string) error {
	mu.Lock()
	defer mu.Unlock()
	if dir == "" {
		std = log.New(io.Discard, "", log.LstdFlags)
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "mprocs.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logFile = f
	std = log.New(f, "", log.LstdFlags|log.Lmicroseconds)
	return nil
}

// Close flushes and closes the underlying log file, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func Info(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	std.Printf("INFO "+format, args...)
}

func Warn(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	std.Printf("WARN "+format, args...)
}

func Error(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	std.Printf("ERROR "+format, args...)
}
