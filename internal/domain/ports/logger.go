package ports

// Logger is the structured logging port. Concrete implementations adapt
// it onto a real logging library (go.uber.org/zap, see
// internal/infrastructure/logger) rather than hand-rolling JSON
// marshaling.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)

	// With returns a logger that always includes the given key/value
	// pairs on every subsequent call.
	With(fields ...any) Logger

	Close() error
}
