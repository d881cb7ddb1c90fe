// Package cli implements the pkgrun command-line interface.
//
// pkgrun drives npm or yarn for the packages of a monorepo. It can install
// an explicit dependency subset into a package by temporarily swapping its
// package.json, and it wraps dist-tag, run-script and publish.
//
// # Commands
//
//   - install: Install a dependency subset (or the original manifest) in one
//     or more package directories
//   - restore: Put back manifests left swapped by an interrupted install
//   - dist-tag: Add, remove or check registry dist-tags
//   - run: Run an npm script, optionally streaming labelled output
//   - publish: Publish a package under a dist-tag
//
// # Configuration
//
// Client settings come from pkgrun.toml or lerna.json, found by walking up
// from the working directory, and can be overridden with --npm-client,
// --registry and --mutex.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// traces every spawned process. Loggers are passed through context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger writing to w at level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs completion of an operation with its elapsed duration.
// It is safe for sequential use by a single goroutine.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Installed in 3 packages (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a copy of ctx carrying l.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger carried by ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
