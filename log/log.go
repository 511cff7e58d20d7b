// Package log defines the logger that components write to.
package log

// Logger writes formatted messages.  The standard library *log.Logger satisfies it.
// Components take a Logger in their configuration instead of using the default logger.
type Logger interface {
	// Printf writes one message, formatting the values as fmt.Printf does.
	Printf(format string, v ...interface{})
}
