// Package cli implements the ruleviz command-line interface.
//
// The commands talk to a rule service to compile and evaluate rules, lay out
// the returned syntax trees and draw them. The CLI is built using cobra and
// logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - compile: Fetch the AST of a rule from the rule service
//   - eval: Evaluate a rule against data and draw its tree
//   - layout: Compute node positions for an AST file
//   - render: Draw an AST file as SVG, PNG, PDF, JSON, DOT or text
//   - serve: Host the rule form and the layout API
//   - tui: Interactive rule prompt
//   - cache: Manage the AST and layout cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// logTimeFormat prints wall-clock time with centiseconds, e.g. "14:32:01.45".
const logTimeFormat = "15:04:05.00"

// newLogger creates the CLI logger writing to w at level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      logTimeFormat,
		Level:           level,
	})
}

// progress times one pipeline stage of a command.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg at info level with the stage's elapsed time, rounded to the
// millisecond, appended to keyvals:
//
//	14:32:01.45 INFO Computed layout nodes=7 cached=false elapsed=3ms
func (p *progress) done(msg string, keyvals ...any) {
	elapsed := time.Since(p.start).Round(time.Millisecond)
	p.logger.Info(msg, append(keyvals, "elapsed", elapsed)...)
}

type loggerKey struct{}

// withLogger attaches l to ctx for the command's helpers.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger attached by [withLogger]. Commands
// run outside RootCommand get a logger that discards everything.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.New(io.Discard)
}
