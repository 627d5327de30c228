package logger

import (
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// New builds the production JSON zap logger. An empty or unknown level falls back to info.
// When file is set, output goes to stdout and the file.
func New(level, file string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil || level == "" {
		cfg.Level.SetLevel(zapcore.InfoLevel)
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if file != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, file)
	}

	return cfg.Build()
}

// InstallSlog routes log/slog through the same zap core so stray slog calls land in one stream.
func InstallSlog(l *zap.Logger) *slog.Logger {
	handler := zapslog.NewHandler(l.Core(), zapslog.WithName("slog"))
	stdLogger := slog.New(handler)
	slog.SetDefault(stdLogger)
	return stdLogger
}
