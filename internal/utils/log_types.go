package utils

// LogLevel identifies the minimum severity emitted by the diagnostic logger.
type LogLevel string

// LogFormat identifies the encoding used for diagnostic log output.
type LogFormat string

const (
	// LogLevelDebug enables debug and higher severity log events.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo enables info and higher severity log events.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn enables warn and higher severity log events.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError enables only error severity log events.
	LogLevelError LogLevel = "error"

	// LogFormatStructured emits machine-readable JSON log lines.
	LogFormatStructured LogFormat = "structured"
	// LogFormatConsole emits human-readable log lines.
	LogFormatConsole LogFormat = "console"
)
