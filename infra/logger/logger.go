package logger

import corelogger "github.com/ejosa-pasquale/HoreCa/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.NopLogger

// New returns a Logger for the given component. The output format follows
// Configure, and APP_ENV=dev forces the console format.
func New(component string) Logger {
	return NewZerologLogger(component)
}
