package glstate

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/glstate/shader"
)

// nopHandler drops every record. Enabled reports false, so callers skip
// building attributes.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger installs l as the logger of glstate, the shader package and
// the devices of every live Context. Devices opt in by implementing
// SetLogger(*slog.Logger). A nil l silences logging again, which is also
// the state at startup.
//
// Debug records the bind cache at work: resolved units, evictions, program
// switches and resets. Info marks context and surface lifecycle. Warn
// flags state that drifted from what the Context believed, such as a stale
// reverse-index entry or the release of an unknown handle.
//
// A replay with every cache decision on stderr:
//
//	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
//	glstate.SetLogger(slog.New(h))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	shader.SetLogger(l)

	// Propagate to the devices of live contexts.
	for _, dev := range activeDevices() {
		propagateLogger(dev, l)
	}
}

// Logger returns the logger installed by SetLogger. The pipeline and
// surface packages log through it.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by devices that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger hands l to dev when it accepts a logger.
func propagateLogger(dev any, l *slog.Logger) {
	if ls, ok := dev.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
