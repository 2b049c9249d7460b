package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jkaninda/credcheck/internal/config"
	"github.com/jkaninda/credcheck/internal/scheduler"
	"github.com/jkaninda/credcheck/internal/server"
)

var (
	serveListen   string
	serveSchedule string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Re-run probes on a schedule and serve the latest report",
	Long: `Load secrets once, then run the probes on a cron schedule. The latest
report is served at /v1/report, readiness at /readyz (503 unless every
probe passed), liveness at /healthz and Prometheus metrics at /metrics.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "override listen address (e.g. :9090)")
	serveCmd.Flags().StringVar(&serveSchedule, "schedule", "", "override probe schedule (cron expression or @every duration)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sc, err := initShared()
	if err != nil {
		return err
	}
	defer sc.Cleanup()

	cfg := sc.Config
	if cfg.Serve == nil {
		cfg.Serve = &config.ServeConfig{}
	}
	if serveListen != "" {
		cfg.Serve.ListenAddr = serveListen
	}
	if serveSchedule != "" {
		cfg.Serve.Cron = serveSchedule
	}
	if err := config.ValidateListenAddr(cfg.Serve.Addr()); err != nil {
		return err
	}
	nextRun, err := scheduler.ComputeNextRunFrom(cfg.Serve.Schedule(), time.Now())
	if err != nil {
		return fmt.Errorf("--schedule: %w", err)
	}
	sc.Logger.Info("watch mode configured",
		slog.String("listen", cfg.Serve.Addr()),
		slog.String("schedule", cfg.Serve.Schedule()),
		slog.String("next_run", nextRun.UTC().Format(time.RFC3339)),
	)

	metrics := sc.ensureMetrics()

	if _, err := resolveAndExport(ctx, sc); err != nil {
		return err
	}

	harness, err := newHarness(sc, nil)
	if err != nil {
		return err
	}

	store := &server.Store{}
	sched, err := scheduler.New(harness, cfg.Serve.Schedule(), store.Set, scheduler.NewMetrics(metrics.Registry), sc.Logger)
	if err != nil {
		return err
	}
	cancelScheduler := sched.Start(ctx)
	defer cancelScheduler()

	var metricsPath string
	if o := cfg.Observability; o != nil {
		metricsPath = o.Metrics.MetricsPath()
	}
	srv := server.New(server.Config{
		ListenAddr:      cfg.Serve.Addr(),
		MetricsRegistry: metrics.Registry,
		MetricsPath:     metricsPath,
		Metrics:         metrics,
		Tracer:          sc.Obs.TracerOrNil(),
		HealthChecker:   sc.Obs.Health,
	}, store, sc.Logger)

	errs := make(chan error, 1)
	go func() {
		errs <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		sc.Logger.Info("shutdown signal received")
	case err := <-errs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			sc.Logger.Error("watch server exited with error", slog.String("error", err.Error()))
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		sc.Logger.Error("stopping watch server", slog.String("error", err.Error()))
	}
	return nil
}
