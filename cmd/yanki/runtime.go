package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"yanki-connect/internal/domain"
	"yanki-connect/internal/infra/config"
	"yanki-connect/internal/infra/logger"
	"yanki-connect/internal/infra/tracer"
	"yanki-connect/pkg/ankiconnect"
	"yanki-connect/pkg/launcher"
)

// runtime is what every command that talks to Anki needs.
type runtime struct {
	cfg    *config.Config
	log    *slog.Logger
	client *ankiconnect.Client
	close  func()
}

func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	shutdownTracer, err := tracer.Setup(ctx, cfg.Tracer, os.Stderr)
	if err != nil {
		logCloser()
		return nil, fmt.Errorf("tracer: %w", err)
	}

	client, err := buildClient(cfg, log)
	if err != nil {
		stopTracer(log, shutdownTracer, slog.LevelDebug)
		logCloser()
		return nil, err
	}

	return &runtime{
		cfg:    cfg,
		log:    log,
		client: client,
		close: func() {
			stopTracer(log, shutdownTracer, slog.LevelWarn)
			logCloser()
		},
	}, nil
}

// stopTracer flushes the tracer and logs a failed flush at level.
func stopTracer(log *slog.Logger, shutdown func(context.Context) error, level slog.Level) {
	if err := shutdown(context.Background()); err != nil {
		log.Log(context.Background(), level, "tracer shutdown failed", "error", err)
	}
}

// clientOptions converts the config into client options.
func clientOptions(cfg *config.Config, log *slog.Logger) ([]ankiconnect.Option, error) {
	policy, err := domain.ParseAutoLaunch(cfg.Anki.AutoLaunch)
	if err != nil {
		return nil, err
	}

	starter := launcher.Detect(cfg.Launch.AppPath)
	throttle := launcher.NewThrottle(starter, launcher.ThrottleConfig{
		Cooldown:   cfg.Launch.Cooldown,
		SessionCap: cfg.Launch.SessionCap,
	}, log)

	httpClient := ankiconnect.NewHTTPClient(ankiconnect.HTTPConfig{
		ConnTimeout: cfg.Transport.ConnTimeout,
		RespTimeout: cfg.Transport.RespTimeout,
		Pool: ankiconnect.PoolConfig{
			MaxIdleConns:        cfg.Transport.Pool.MaxIdleConns,
			MaxIdleConnsPerHost: cfg.Transport.Pool.MaxIdleConnsPerHost,
			MaxConnsPerHost:     cfg.Transport.Pool.MaxConnsPerHost,
			IdleConnTimeout:     cfg.Transport.Pool.IdleConnTimeout,
		},
	})

	opts := []ankiconnect.Option{
		ankiconnect.WithHost(cfg.Anki.Host),
		ankiconnect.WithPort(cfg.Anki.Port),
		ankiconnect.WithVersion(cfg.Anki.Version),
		ankiconnect.WithKey(cfg.Anki.Key),
		ankiconnect.WithAutoLaunch(policy),
		ankiconnect.WithRetryDelay(cfg.Anki.RetryDelay),
		ankiconnect.WithNotReadyError(cfg.Anki.NotReadyError),
		ankiconnect.WithHTTPClient(httpClient),
		ankiconnect.WithThrottle(throttle),
		ankiconnect.WithLogger(log),
	}
	if cfg.Breaker.Enabled {
		opts = append(opts, ankiconnect.WithBreaker(ankiconnect.BreakerConfig{
			MaxFailures: cfg.Breaker.MaxFailures,
			Timeout:     cfg.Breaker.Timeout,
			Interval:    cfg.Breaker.Interval,
		}))
	}
	return opts, nil
}

func buildClient(cfg *config.Config, log *slog.Logger, extra ...ankiconnect.Option) (*ankiconnect.Client, error) {
	opts, err := clientOptions(cfg, log)
	if err != nil {
		return nil, err
	}
	client, err := ankiconnect.New(append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	return client, nil
}
