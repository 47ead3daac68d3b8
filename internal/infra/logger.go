package infra

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger aliases zerolog.Logger so packages outside infra depend on the
// logging contract rather than on the module directly.
type Logger = zerolog.Logger

// NewLogger builds the service logger: debug level with a console writer in
// development, info level JSON elsewhere.
func NewLogger(appEnv string) Logger {
	level := zerolog.InfoLevel
	if appEnv == "development" {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", "shopgen").
		Logger()

	if appEnv == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return logger
}

// LoggerOrNop dereferences l, or returns a disabled logger when l is nil.
func LoggerOrNop(l *Logger) Logger {
	if l == nil {
		return zerolog.Nop()
	}
	return *l
}
