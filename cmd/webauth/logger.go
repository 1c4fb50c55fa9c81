package main

import (
	"io"
	"log/slog"

	"github.com/ethereum/go-ethereum/log"
)

// newLogger builds the service logger. Unknown levels fall back to info.
func newLogger(w io.Writer, level, format string) log.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = log.LevelInfo
	}

	var handler slog.Handler
	if format == "json" {
		handler = log.JSONHandlerWithLevel(w, lvl)
	} else {
		handler = log.NewTerminalHandlerWithLevel(w, lvl, false)
	}
	return log.NewLogger(handler)
}
