// Package logging configures the process-wide standard logger.
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls log output.
type Config struct {
	// File, when set, receives a copy of all log output with rotation.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Verbose enables Debugf output.
	Verbose bool
}

var verbose atomic.Bool

// Setup routes the standard logger to stderr and, if configured, a rotating
// log file. The returned closer flushes and closes the file.
func Setup(cfg Config) (io.Closer, error) {
	verbose.Store(cfg.Verbose)
	log.SetFlags(log.LstdFlags)

	if cfg.File == "" {
		log.SetOutput(os.Stderr)
		return io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, err
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	return rotator, nil
}

// SetVerbose toggles Debugf output.
func SetVerbose(v bool) {
	verbose.Store(v)
}

// Debugf logs only when verbose output is enabled.
func Debugf(format string, args ...any) {
	if verbose.Load() {
		log.Printf("[debug] "+format, args...)
	}
}

// BackupPattern returns a base-name glob matching the rotated backups of
// file, which the rotator names "<name>-<timestamp><ext>" and gzips.
func BackupPattern(file string) string {
	base := filepath.Base(file)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "-*" + ext + "*"
}
