package services

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger defines common logging interface for all services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// ZeroLogger adapts a zerolog.Logger to the Logger interface.
type ZeroLogger struct {
	zl zerolog.Logger
}

// NewZeroLogger wraps an existing zerolog logger.
func NewZeroLogger(zl zerolog.Logger) *ZeroLogger {
	return &ZeroLogger{zl: zl}
}

// Zerolog exposes the underlying logger for HTTP middleware.
func (z *ZeroLogger) Zerolog() zerolog.Logger {
	return z.zl
}

func (z *ZeroLogger) Info(msg string, keysAndValues ...interface{}) {
	z.zl.Info().Fields(fields(keysAndValues)).Msg(msg)
}

func (z *ZeroLogger) Error(msg string, keysAndValues ...interface{}) {
	z.zl.Error().Fields(fields(keysAndValues)).Msg(msg)
}

func (z *ZeroLogger) Debug(msg string, keysAndValues ...interface{}) {
	z.zl.Debug().Fields(fields(keysAndValues)).Msg(msg)
}

func (z *ZeroLogger) Warn(msg string, keysAndValues ...interface{}) {
	z.zl.Warn().Fields(fields(keysAndValues)).Msg(msg)
}

// fields turns alternating key/value pairs into a map. A trailing key
// without a value is kept under "!BADKEY" so nothing is silently lost.
func fields(keysAndValues []interface{}) map[string]interface{} {
	if len(keysAndValues) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(keysAndValues)/2+1)
	for i := 0; i < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		if i+1 >= len(keysAndValues) {
			out["!BADKEY"] = key
			break
		}
		value := keysAndValues[i+1]
		if err, ok := value.(error); ok && err != nil {
			value = err.Error()
		}
		out[key] = value
	}
	return out
}

// ParseLevel maps LOG_LEVEL values onto zerolog levels, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger builds the process logger. Production writes JSON lines,
// everything else gets the human-readable console writer.
func NewLogger(service, env, level string) *ZeroLogger {
	return newLogger(os.Stdout, service, env, level)
}

func newLogger(w io.Writer, service, env, level string) *ZeroLogger {
	if !strings.EqualFold(env, "production") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	zl := zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("service", service).
		Logger()
	return &ZeroLogger{zl: zl}
}

// NoOpLogger is a logger that does nothing (for testing)
type NoOpLogger struct{}

func (n *NoOpLogger) Info(msg string, keysAndValues ...interface{})  {}
func (n *NoOpLogger) Error(msg string, keysAndValues ...interface{}) {}
func (n *NoOpLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (n *NoOpLogger) Warn(msg string, keysAndValues ...interface{})  {}
