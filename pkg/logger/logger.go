// Package logger builds the structured loggers used throughout lexi.
// Every subsystem takes a *zap.SugaredLogger through its Config struct
// rather than reaching for a package-level logger, so tests can inject a
// no-op or observed logger without touching global state.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-configured SugaredLogger tagged with the given
// service name. The returned logger writes JSON-encoded entries to stderr
// at info level and above.
func New(service string) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := cfg.Build()
	if err != nil {
		// Fall back to a no-op logger rather than leaving the caller with a
		// nil logger; this should only happen for a malformed static config.
		log = zap.NewNop()
	}

	return log.Sugar().With("service", service)
}

// NewNop returns a logger that discards everything, used by tests and by
// callers that have not opted into observability.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
