package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jcamiloaa/deep90-app/internal/app"
	"github.com/jcamiloaa/deep90-app/internal/config"
	"github.com/jcamiloaa/deep90-app/internal/observability"
	"github.com/jcamiloaa/deep90-app/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, drainLogs, err := observability.InitLogger(cfg)
	if err != nil {
		panic(err)
	}
	logger = logger.With("process", "worker")
	logging.SetDefault(logger)

	shutdownTracing, err := observability.InitUptrace(cfg, "worker", logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}
	stopProfiler, err := observability.InitPyroscope(cfg, "worker", logger)
	if err != nil {
		logger.Warn("init pyroscope", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, "worker", logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}

	sources, err := application.Reconciler.RegisterDefaults(ctx)
	if err != nil {
		logger.Error("register default sources", "error", err)
		os.Exit(1)
	}
	logger.Info("sources registered", "count", len(sources))

	sched, err := newScheduler(ctx, application.Reconciler, schedulerConfig{
		Tick:                 cfg.SchedulerTick,
		StalledCheckInterval: cfg.StalledCheckInterval,
		RunInline:            cfg.WorkerRunInline,
		JobTimeout:           cfg.ReconcileRunningLease,
	}, logger)
	if err != nil {
		logger.Error("build scheduler", "error", err)
		os.Exit(1)
	}
	sched.Start()

	<-ctx.Done()

	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	exitCode := 0
	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Error("scheduler did not stop in time", "error", err)
		exitCode = 1
	}
	if err := application.Close(shutdownCtx); err != nil {
		logger.Error("close app", "error", err)
		exitCode = 1
	}
	if stopProfiler != nil {
		if err := stopProfiler(); err != nil {
			logger.Warn("stop pyroscope", "error", err)
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("shutdown uptrace", "error", err)
	}

	logger.Info("worker stopped")
	_ = drainLogs(shutdownCtx)
	os.Exit(exitCode)
}
