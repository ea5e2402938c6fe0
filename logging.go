package roomview

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// DefaultLogger writes debug and info lines to one writer and warnings and
// errors to another. Lines read "[prefix] LEVEL: msg"; loggers made with
// Component read "[prefix/component] LEVEL: msg" and share the debug switch
// of the logger they came from.
type DefaultLogger struct {
	debug  *debugSwitch
	prefix string
	out    *log.Logger
	err    *log.Logger
}

type debugSwitch struct {
	mu sync.Mutex
	on bool
}

func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	return NewWriterLogger(os.Stdout, os.Stderr, prefix, debug)
}

func NewWriterLogger(out, errOut io.Writer, prefix string, debug bool) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	return &DefaultLogger{
		debug:  &debugSwitch{on: debug},
		prefix: prefix,
		out:    log.New(out, "", flags),
		err:    log.New(errOut, "", flags),
	}
}

// Component returns a logger for one subsystem (store, gestures, scene).
func (l *DefaultLogger) Component(name string) *DefaultLogger {
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "/" + name
	}
	return &DefaultLogger{debug: l.debug, prefix: prefix, out: l.out, err: l.err}
}

func (l *DefaultLogger) DebugEnabled() bool {
	l.debug.mu.Lock()
	defer l.debug.mu.Unlock()
	return l.debug.on
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	l.debug.mu.Lock()
	l.debug.on = enabled
	l.debug.mu.Unlock()
}

func (l *DefaultLogger) line(level string, format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		return fmt.Sprintf("[%s] %s: %s", l.prefix, level, msg)
	}
	return level + ": " + msg
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	if !l.DebugEnabled() {
		return
	}
	l.out.Print(l.line("DEBUG", format, args...))
}

func (l *DefaultLogger) Infof(format string, args ...any) {
	l.out.Print(l.line("INFO", format, args...))
}

func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.err.Print(l.line("WARN", format, args...))
}

func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.err.Print(l.line("ERROR", format, args...))
}

// ComponentLogger tags l with a subsystem name when it supports components
// and returns it unchanged otherwise.
func ComponentLogger(l Logger, name string) Logger {
	if c, ok := l.(interface{ Component(string) *DefaultLogger }); ok {
		return c.Component(name)
	}
	return LoggerOrNop(l)
}

// LoggingModule installs a DefaultLogger on the viewer being built.
type LoggingModule struct {
	Prefix string
	Debug  bool
}

func (m LoggingModule) Install(b *ViewerBuilder) {
	b.WithLogger(NewDefaultLogger(m.Prefix, m.Debug))
}

type nopLogger struct{}

func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) DebugEnabled() bool    { return false }
func (nopLogger) SetDebug(enabled bool) {}
func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// LoggerOrNop never returns nil.
func LoggerOrNop(l Logger) Logger {
	if l == nil {
		return NewNopLogger()
	}
	return l
}
