/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const logDate string = `2006-01-02T15:04:05.000-07:00`

func newLogger(cfg *Config, out io.Writer) zerolog.Logger {
	if cfg.logFormat == "json" {
		return zerolog.New(out).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: logDate}).With().Timestamp().Logger()
}

// configureLogging installs the global logger. Debug output, including
// every logf line, only shows with --verbose.
func configureLogging(cfg *Config) {
	zerolog.TimeFieldFormat = logDate

	level := zerolog.InfoLevel
	if cfg.verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = newLogger(cfg, os.Stderr)
}

func logf(format string, args ...any) {
	log.Debug().Msgf(format, args...)
}
