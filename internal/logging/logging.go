// Package logging holds the process-wide structured logger shared by the
// drawing core and its collaborators.
package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards every record. Enabled reports false so callers skip
// formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger installs l as the shared logger. By default nothing is logged;
// the terminal host owns stdout, so the binary points this at a file.
// Passing nil restores the silent default.
//
// Levels:
//   - [slog.LevelDebug]: state machine transitions, hit-test cache churn
//   - [slog.LevelInfo]: board/page switches, session save and restore
//   - [slog.LevelWarn]: evictions, caps, corrupt session data
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the shared logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
