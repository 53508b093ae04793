// Package logger is a small prefixed, levelled logger shared by every
// component of the process. Output goes to stderr and, once Init is given a
// file, to a size-rotated log file as well.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Debug      bool
}

type Logger struct {
	prefix string
}

var (
	base         = log.New(os.Stderr, "", log.LstdFlags)
	mu           sync.Mutex
	rotator      *lumberjack.Logger
	debugEnabled bool
	debugMu      sync.RWMutex
)

// Init configures the shared output. Debug is also enabled when the DEBUG
// environment variable is set.
func Init(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	if rotator != nil {
		rotator.Close()
		rotator = nil
	}

	var w io.Writer = os.Stderr
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		rotator = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		w = io.MultiWriter(os.Stderr, rotator)
	}
	base.SetOutput(w)

	EnableDebug(opts.Debug || os.Getenv("DEBUG") != "")
	return nil
}

// Close flushes and closes the log file (call on shutdown)
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if rotator == nil {
		return nil
	}
	err := rotator.Close()
	rotator = nil
	base.SetOutput(os.Stderr)
	return err
}

// SetOutput redirects all loggers to w.
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

// Writer returns the shared destination, for access logs and the like.
func Writer() io.Writer {
	return base.Writer()
}

// EnableDebug dynamically turns debug logging on/off
func EnableDebug(on bool) {
	debugMu.Lock()
	debugEnabled = on
	debugMu.Unlock()
}

// IsDebug returns current debug state
func IsDebug() bool {
	debugMu.RLock()
	defer debugMu.RUnlock()
	return debugEnabled
}

func New(prefix string) *Logger {
	return &Logger{prefix: prefix}
}

func (l *Logger) Info(fmtstr string, v ...any) {
	base.Printf("[%s] INFO: %s", l.prefix, fmt.Sprintf(fmtstr, v...))
}

func (l *Logger) Warn(fmtstr string, v ...any) {
	base.Printf("[%s] WARN: %s", l.prefix, fmt.Sprintf(fmtstr, v...))
}

func (l *Logger) Error(fmtstr string, v ...any) {
	formatted := fmt.Sprintf(fmtstr, v...)
	_, file, line, ok := runtime.Caller(1)
	if ok {
		base.Printf("[%s] ERROR: (%s:%d) %s", l.prefix, filepath.Base(file), line, formatted)
	} else {
		base.Printf("[%s] ERROR: %s", l.prefix, formatted)
	}
}

func (l *Logger) Debug(fmtstr string, v ...any) {
	if !IsDebug() {
		return
	}
	base.Printf("[%s] DEBUG: %s", l.prefix, fmt.Sprintf(fmtstr, v...))
}
