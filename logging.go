package tymbox

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const _TimeFormatConsole = "2006-01-02T15:04:05.000Z07:00"

type ParamsNewLogger struct {
	Output io.Writer // defaults to stderr

	Level    string
	FilePath string // JSON lines appended here, empty for none

	Console bool
}

// NewLogger builds the root logger.
// closer releases the log file, it is never nil.
func NewLogger(params *ParamsNewLogger) (logger zerolog.Logger, closer func() error, err error) {
	zerolog.ErrorFieldName = "err"

	output := params.Output
	if output == nil {
		output = os.Stderr
	}

	if params.Console {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: _TimeFormatConsole,
		}
	}

	closer = func() error { return nil }

	if len(params.FilePath) > 0 {
		file, errOpen := os.OpenFile(params.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if errOpen != nil {
			return zerolog.Nop(),
				closer,
				errOpen
		}

		output = zerolog.MultiLevelWriter(output, file)
		closer = file.Close
	}

	return zerolog.New(output).
			Level(ParseLevel(params.Level, zerolog.InfoLevel)).
			With().
			Timestamp().
			Logger(),
		closer,
		nil
}

func ParseLevel(level string, fallback zerolog.Level) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return zerolog.TraceLevel

	case "DEBUG":
		return zerolog.DebugLevel

	case "INFO":
		return zerolog.InfoLevel

	case "WARN", "WARNING":
		return zerolog.WarnLevel

	case "ERROR":
		return zerolog.ErrorLevel

	case "DISABLED", "OFF":
		return zerolog.Disabled
	}

	return fallback
}
