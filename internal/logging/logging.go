// Package logging wires slog to a rotating debug log under
// ~/.pgsqlmgr/logs. Command output goes to stdout/stderr; the log file
// records the shell commands each operation ran, for postmortems.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dominicchang/pgsqlmgr/internal/config"
)

// Setup installs the default slog logger. Verbose mirrors debug records
// to stderr in addition to the rotating file.
func Setup(verbose bool) {
	logger := &lumberjack.Logger{
		Filename:   filepath.Join(config.DefaultDir(), "logs", "pgsqlmgr.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
		Compress:   true,
	}

	var w io.Writer = logger
	if verbose {
		w = io.MultiWriter(logger, os.Stderr)
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(handler))
}
