package utils

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
	consoleMessageKeyConstant            = "message"
)

// LoggerOutputs bundles the loggers produced for a single configuration.
type LoggerOutputs struct {
	// DiagnosticLogger records operational events at the configured level.
	DiagnosticLogger *zap.Logger
	// ConsoleLogger emits human-facing messages and stays silent for structured output.
	ConsoleLogger *zap.Logger
}

// LoggerFactory builds zap loggers for the requested level and format.
type LoggerFactory struct{}

// NewLoggerFactory constructs a LoggerFactory instance.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// CreateLoggerOutputs builds diagnostic and console loggers writing to standard error.
func (factory *LoggerFactory) CreateLoggerOutputs(logLevel LogLevel, logFormat LogFormat) (LoggerOutputs, error) {
	zapLevel, levelError := resolveZapLevel(logLevel)
	if levelError != nil {
		return LoggerOutputs{}, levelError
	}

	standardErrorSyncer := zapcore.Lock(os.Stderr)

	switch LogFormat(strings.ToLower(string(logFormat))) {
	case LogFormatStructured:
		encoderConfiguration := zap.NewProductionEncoderConfig()
		diagnosticCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfiguration), standardErrorSyncer, zapLevel)
		return LoggerOutputs{DiagnosticLogger: zap.New(diagnosticCore), ConsoleLogger: zap.NewNop()}, nil
	case LogFormatConsole:
		encoderConfiguration := zap.NewDevelopmentEncoderConfig()
		encoderConfiguration.EncodeLevel = zapcore.CapitalLevelEncoder
		diagnosticCore := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfiguration), standardErrorSyncer, zapLevel)
		consoleEncoderConfiguration := zapcore.EncoderConfig{
			MessageKey: consoleMessageKeyConstant,
			LineEnding: zapcore.DefaultLineEnding,
		}
		consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfiguration), standardErrorSyncer, zapcore.InfoLevel)
		return LoggerOutputs{DiagnosticLogger: zap.New(diagnosticCore), ConsoleLogger: zap.New(consoleCore)}, nil
	default:
		return LoggerOutputs{}, fmt.Errorf(unsupportedLogFormatTemplateConstant, logFormat)
	}
}

func resolveZapLevel(logLevel LogLevel) (zapcore.Level, error) {
	switch LogLevel(strings.ToLower(string(logLevel))) {
	case LogLevelDebug:
		return zapcore.DebugLevel, nil
	case LogLevelInfo:
		return zapcore.InfoLevel, nil
	case LogLevelWarn:
		return zapcore.WarnLevel, nil
	case LogLevelError:
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InvalidLevel, fmt.Errorf(unsupportedLogLevelTemplateConstant, logLevel)
	}
}
