package logger

// Logger is the subset of *slog.Logger the generic HTTP handlers depend on.
// Tests substitute a capturing implementation.
type Logger interface {
	// Info logs an informational message with optional key-value pairs
	Info(msg string, args ...any)

	// Warn logs a warning with optional key-value pairs
	Warn(msg string, args ...any)

	// Error logs an error message with optional key-value pairs
	Error(msg string, args ...any)
}
