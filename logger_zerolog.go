package auth

import (
	"github.com/rs/zerolog"
)

// ZerologLogger adapts a zerolog.Logger to the package Logger interface so
// embedding services get structured output instead of the stdout fallback.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger wraps an existing zerolog logger.
func NewZerologLogger(log zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{log: log}
}

func (l *ZerologLogger) Debug(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Info(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warn(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Error(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}

var _ Logger = &ZerologLogger{}
