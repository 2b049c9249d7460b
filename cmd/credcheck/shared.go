package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goutils "github.com/jkaninda/go-utils"

	"github.com/jkaninda/credcheck/internal/config"
	"github.com/jkaninda/credcheck/internal/observability"
	"github.com/jkaninda/credcheck/internal/secrets"
)

// SharedComponents holds what every command needs. Built once by
// initShared, torn down by Cleanup.
type SharedComponents struct {
	Config *config.Config
	Logger *slog.Logger
	Env    secrets.Environment
	Obs    *observability.Observability // nil = observability disabled.

	cleanups []func()
}

// Cleanup runs all deferred cleanup functions in reverse order.
func (sc *SharedComponents) Cleanup() {
	for i := len(sc.cleanups) - 1; i >= 0; i-- {
		sc.cleanups[i]()
	}
}

func (sc *SharedComponents) addCleanup(fn func()) {
	sc.cleanups = append(sc.cleanups, fn)
}

// initShared loads config and builds the logger and observability stack.
// Callers must call sc.Cleanup() when done.
func initShared() (*SharedComponents, error) {
	cfg, err := config.Load(goutils.Env("CREDCHECK_CONFIG", configPath))
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	format := cfg.LogFormat
	if logFormat != "" {
		format = logFormat
	}
	logger, err := newLogger(level, format)
	if err != nil {
		return nil, err
	}

	sc := &SharedComponents{
		Config: cfg,
		Logger: logger,
		Env:    secrets.NewOSEnvironment(),
	}

	obs, err := observability.New(cfg.Observability, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing observability: %w", err)
	}
	sc.Obs = obs
	sc.addCleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		sc.Obs.Shutdown(ctx)
	})

	return sc, nil
}

// ensureMetrics guarantees a metrics collector, creating the facade if
// observability is not configured.
func (sc *SharedComponents) ensureMetrics() *observability.MetricsCollector {
	if sc.Obs == nil {
		sc.Obs = &observability.Observability{Health: observability.NewHealthChecker(sc.Logger)}
	}
	if sc.Obs.Metrics == nil {
		sc.Obs.Metrics = observability.NewMetricsCollector()
	}
	return sc.Obs.Metrics
}

func newLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q", level)
		}
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return nil, fmt.Errorf("invalid log format %q (want text or json)", format)
}

// resolveAndExport resolves secrets and writes them into sc.Env. A resolution
// failure is returned as-is and maps to exit status 1.
func resolveAndExport(ctx context.Context, sc *SharedComponents) (*secrets.Summary, error) {
	paths := secrets.Paths{
		SecretsFile: sc.Config.Secrets.SecretsFile(),
		DevMarker:   sc.Config.Secrets.DevMarkerPath(),
	}
	resolver := secrets.NewResolver(sc.Env, sc.Logger, secrets.WithPaths(paths))

	res, err := resolver.Resolve(ctx)
	if err != nil {
		sc.Obs.MetricsOrNil().RecordSecrets(string(secrets.SourceAbsent), 0, requiredCount(resolver.Specs()))
		return nil, err
	}

	sum, err := secrets.ValidateAndExport(ctx, sc.Env, res, sc.Logger)
	missing := 0
	var ce *secrets.ContextError
	if errors.As(err, &ce) {
		missing = len(ce.Missing)
	}
	if sum != nil {
		sc.Obs.MetricsOrNil().RecordSecrets(string(res.Source), len(sum.Loaded), missing)
	}
	if err != nil {
		return nil, err
	}

	sc.Logger.InfoContext(ctx, "secrets exported",
		slog.String("source", string(sum.Source)),
		slog.Int("loaded", len(sum.Loaded)),
		slog.Int("empty", len(sum.Empty)),
		slog.Int("ai_available", sum.AIAvailable),
	)
	return sum, nil
}

func requiredCount(specs []secrets.Spec) int {
	n := 0
	for _, s := range specs {
		if s.Required {
			n++
		}
	}
	return n
}
