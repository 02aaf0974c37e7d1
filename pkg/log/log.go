package log

var (
	// std is the default logger used by the package-level functions.
	std = New()
)

// Default returns the standard logger used by the package-level output functions. Typically used as the default
// logger for packages that were not handed one explicitly. Avoid it in tests to prevent cross-test interference.
func Default() Logger {
	return std
}

// Trace logs a message at level Trace on the standard logger.
func Trace(args ...any) {
	std.Trace(args...)
}

// Debug logs a message at level Debug on the standard logger.
func Debug(args ...any) {
	std.Debug(args...)
}

// Info logs a message at level Info on the standard logger.
func Info(args ...any) {
	std.Info(args...)
}

// Warn logs a message at level Warn on the standard logger.
func Warn(args ...any) {
	std.Warn(args...)
}

// Error logs a message at level Error on the standard logger.
func Error(args ...any) {
	std.Error(args...)
}
