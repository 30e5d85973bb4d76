// Package spmlog is spm's single logging entry point. Every other package
// logs through here instead of reaching for fmt or the stdlib log package,
// so verbosity and formatting stay consistent across the CLI.
package spmlog

import (
	"os"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: false,
	Level:           log.InfoLevel,
})

// SetVerbose switches between info-level and debug-level output. The
// installer CLI wires this to its --verbose flag.
func SetVerbose(v bool) {
	if v {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}
}

// Debugf logs resolution/link chatter that is only useful with --verbose.
func Debugf(format string, args ...any) {
	logger.Debugf(format, args...)
}

// Infof logs a user-facing progress line.
func Infof(format string, args ...any) {
	logger.Infof(format, args...)
}

// Warnf logs a recoverable problem (e.g. a tidy version lookup that failed).
func Warnf(format string, args ...any) {
	logger.Warnf(format, args...)
}

// Errorf logs an unrecoverable problem right before it propagates to the
// command's exit path.
func Errorf(format string, args ...any) {
	logger.Errorf(format, args...)
}
