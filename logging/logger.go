// Package logging provides the structured logger shared by the console screens.
package logging

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// Logger defines the structured logging interface used across the console.
type Logger interface {
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
	Debug(msg string, fields map[string]any)
}

// JSONLogger writes structured JSON log entries to an io.Writer.
type JSONLogger struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
	fields  map[string]any
}

// NewJSONLogger creates a JSONLogger writing to w. Debug entries are only
// emitted when verbose is true.
func NewJSONLogger(w io.Writer, verbose bool) *JSONLogger {
	return &JSONLogger{w: w, verbose: verbose}
}

// With returns a logger that adds fields to every entry. The returned logger
// shares the writer and its lock with the parent.
func (l *JSONLogger) With(fields map[string]any) *JSONLogger {
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &JSONLogger{w: &lockedWriter{parent: l}, verbose: l.verbose, fields: merged}
}

func (l *JSONLogger) Info(msg string, fields map[string]any)  { l.log("info", msg, fields) }
func (l *JSONLogger) Warn(msg string, fields map[string]any)  { l.log("warn", msg, fields) }
func (l *JSONLogger) Error(msg string, fields map[string]any) { l.log("error", msg, fields) }

func (l *JSONLogger) Debug(msg string, fields map[string]any) {
	if !l.verbose {
		return
	}
	l.log("debug", msg, fields)
}

func (l *JSONLogger) log(level, msg string, fields map[string]any) {
	entry := make(map[string]any, len(l.fields)+len(fields)+3)
	for k, v := range l.fields {
		entry[k] = v
	}
	for k, v := range fields {
		entry[k] = v
	}
	entry["time"] = time.Now().UTC().Format(time.RFC3339)
	entry["level"] = level
	entry["msg"] = msg

	data, _ := json.Marshal(entry)
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(data) //nolint:errcheck
}

// lockedWriter routes child logger writes through the parent's lock.
type lockedWriter struct {
	parent *JSONLogger
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.parent.mu.Lock()
	defer w.parent.mu.Unlock()
	return w.parent.w.Write(p)
}

// WithFields returns l adding fields to every entry. Loggers other than
// JSONLogger are returned unchanged.
func WithFields(l Logger, fields map[string]any) Logger {
	if jl, ok := l.(*JSONLogger); ok {
		return jl.With(fields)
	}
	return l
}

// Nop discards every entry.
type Nop struct{}

func (Nop) Info(string, map[string]any)  {}
func (Nop) Warn(string, map[string]any)  {}
func (Nop) Error(string, map[string]any) {}
func (Nop) Debug(string, map[string]any) {}

// OpenFile returns a JSONLogger appending to path and a close func. An empty
// path yields a Nop logger.
func OpenFile(path string, verbose bool) (Logger, func() error, error) {
	if path == "" {
		return Nop{}, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return NewJSONLogger(f, verbose), f.Close, nil
}
