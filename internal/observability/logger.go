package observability

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the JSON production logger. Level comes from LOG_LEVEL (default INFO).
func NewLogger() (*zap.Logger, error) {
	return NewLoggerWithLevel(os.Getenv("LOG_LEVEL"), "info")
}

// NewLoggerWithLevel builds the production logger at level, falling back to fallback when level is
// empty or unrecognized. Output goes to stderr so stdout stays free for results.
func NewLoggerWithLevel(level, fallback string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = []string{"stderr"}
	config.Level = parseLogLevel(level, parseLogLevel(fallback, zap.NewAtomicLevelAt(zap.InfoLevel)))

	return config.Build()
}

// NewLoggerTo builds a logger with the production JSON encoding that writes to w. Used by the CLI
// so error output follows the command's stderr.
func NewLoggerTo(w io.Writer, level, fallback string) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	lvl := parseLogLevel(level, parseLogLevel(fallback, zap.NewAtomicLevelAt(zap.InfoLevel)))
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(w), lvl)
	return zap.New(core)
}

func parseLogLevel(s string, fallback zap.AtomicLevel) zap.AtomicLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "INFO":
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	case "WARN":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "ERROR":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return fallback
	}
}
