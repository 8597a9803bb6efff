package observability

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jcamiloaa/deep90-app/internal/config"
	"github.com/jcamiloaa/deep90-app/internal/platform/logging"
	otellog "go.opentelemetry.io/otel/log"
	otelglobal "go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap/zapcore"
)

const logInstrumentation = "deep90-app/internal/platform/logging"

// InitLogger builds the process logger: JSON to stdout, plus Better Stack
// and OpenTelemetry log sinks when configured. The returned func drains the
// remote sinks.
func InitLogger(cfg config.Config) (*logging.Logger, func(context.Context) error, error) {
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(logging.EncoderConfig()), zapcore.Lock(os.Stdout), cfg.LogLevel),
	}
	closers := make([]func(context.Context) error, 0, 1)
	sinks := []string{"stdout"}

	if cfg.BetterStackEnabled {
		endpoint := normalizeBetterStackEndpoint(cfg.BetterStackEndpoint)
		if endpoint == "" {
			return nil, nil, fmt.Errorf("betterstack endpoint cannot be empty")
		}
		syncer := newBetterStackWriteSyncer(endpoint, strings.TrimSpace(cfg.BetterStackToken), cfg.BetterStackTimeout)
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(logging.EncoderConfig()),
			zapcore.AddSync(syncer),
			cfg.BetterStackMinLevel,
		))
		closers = append(closers, syncer.Close)
		sinks = append(sinks, "betterstack")
	}

	if cfg.UptraceEnabled && cfg.UptraceLogsEnabled {
		otelLogger := otelglobal.Logger(logInstrumentation, otellog.WithInstrumentationVersion(cfg.ServiceVersion))
		cores = append(cores, newOTelLogCore(otelLogger, cfg.LogLevel))
		sinks = append(sinks, "otel")
	}

	logger := logging.NewTee(cores...).With("service", cfg.ServiceName, "env", cfg.AppEnv)
	logger.Info("logger initialized", "sinks", sinks, "level", cfg.LogLevel.String())

	return logger, func(ctx context.Context) error {
		drainCtx := ctx
		if drainCtx == nil {
			drainCtx = context.Background()
		}
		if _, hasDeadline := drainCtx.Deadline(); !hasDeadline {
			withTimeout, cancel := context.WithTimeout(drainCtx, 5*time.Second)
			defer cancel()
			drainCtx = withTimeout
		}
		for _, closeSink := range closers {
			if err := closeSink(drainCtx); err != nil {
				return fmt.Errorf("drain log sink: %w", err)
			}
		}
		if err := logger.Sync(); err != nil && !isIgnorableLoggerSyncError(err) {
			return err
		}
		return nil
	}, nil
}

func isIgnorableLoggerSyncError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "bad file descriptor") || strings.Contains(msg, "invalid argument")
}
