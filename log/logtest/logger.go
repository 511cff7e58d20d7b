// Package logtest provides loggers for tests.
package logtest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jacobpatterson1549/hide-and-seek/log"
)

type (
	// discard drops every message.
	discard struct{}

	// Logger records each message so tests can check what was logged.
	Logger struct {
		mu    sync.Mutex
		lines []string
	}
)

// DiscardLogger is used by tests that do not check the log.
var DiscardLogger log.Logger = discard{}

var _ log.Logger = (*Logger)(nil)

// Printf implements the log.Logger interface.
func (discard) Printf(format string, v ...interface{}) {
	// NOOP
}

// NewLogger creates a Logger with no messages.
func NewLogger() *Logger {
	return new(Logger)
}

// Printf records the formatted message.
func (l *Logger) Printf(format string, v ...interface{}) {
	line := fmt.Sprintf(format, v...)
	l.mu.Lock()
	l.lines = append(l.lines, line)
	l.mu.Unlock()
}

// Lines returns a copy of the recorded messages, oldest first.
func (l *Logger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.lines...)
}

// String joins the recorded messages, each on its own line.
func (l *Logger) String() string {
	var sb strings.Builder
	for _, line := range l.Lines() {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Empty reports if nothing was logged.
func (l *Logger) Empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines) == 0
}

// Contains reports whether any logged line contains the text.
func (l *Logger) Contains(text string) bool {
	for _, line := range l.Lines() {
		if strings.Contains(line, text) {
			return true
		}
	}
	return false
}
