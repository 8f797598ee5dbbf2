package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	decisionservice "propdesk/contexts/community-governance/decision-service"
	decisionpostgres "propdesk/contexts/community-governance/decision-service/adapters/postgres"
	"propdesk/contexts/community-governance/decision-service/adapters/telegram"
	decisionworkers "propdesk/contexts/community-governance/decision-service/application/workers"
	"propdesk/contexts/community-governance/decision-service/ports"
	authorization "propdesk/contexts/identity-access/authorization-service"
	authmemory "propdesk/contexts/identity-access/authorization-service/adapters/memory"
	authpostgres "propdesk/contexts/identity-access/authorization-service/adapters/postgres"
	"propdesk/internal/platform/config"
	"propdesk/internal/platform/db"
	"propdesk/internal/platform/httpserver"
	"propdesk/internal/platform/identity"
	"propdesk/internal/platform/messaging"

	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const shutdownTimeout = 10 * time.Second

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres      *db.Postgres
	outboxRelay   decisionworkers.OutboxRelay
	notifications decisionworkers.NotificationConsumer
	closer        decisionworkers.DeadlineCloser
	autoClose     bool
	pollInterval  time.Duration
	logger        *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN, logger)
	if err != nil {
		return nil, err
	}

	repo := decisionpostgres.NewRepository(pg.DB, logger)
	authRepo := authpostgres.NewRepository(pg.DB, logger)
	if cfg.AutoMigrate {
		if err := migrate(context.Background(), repo, authRepo); err != nil {
			_ = pg.Close()
			return nil, err
		}
	}

	decisionModule := decisionservice.NewModule(decisionservice.Dependencies{
		Decisions:      repo,
		Ballots:        repo,
		Buildings:      repo,
		Idempotency:    repo,
		Clock:          decisionpostgres.SystemClock{},
		IDGen:          decisionpostgres.UUIDGenerator{},
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})
	authModule := authorization.NewModule(authorization.Dependencies{
		Repository:         authRepo,
		PermissionCache:    authmemory.NewPermissionCache(),
		PermissionCacheTTL: cfg.PermissionCacheTTL,
		Logger:             logger,
	})

	server := httpserver.New(
		decisionModule,
		authModule,
		identity.NewVerifier(cfg.JWTSecret),
		logger,
		normalizeAddr(cfg.HTTPPort),
		cfg.CORSAllowedOrigins,
	)
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN, logger)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	var notifier ports.DecisionNotifier
	if cfg.TelegramEnabled() {
		telegramNotifier, err := telegram.NewNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, logger)
		if err != nil {
			// Notifications are optional; the worker keeps relaying and closing.
			logger.Warn("telegram notifier disabled",
				"event", "bootstrap_telegram_disabled",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		} else {
			notifier = telegramNotifier
		}
	}

	repo := decisionpostgres.NewRepository(pg.DB, logger)
	clock := decisionpostgres.SystemClock{}
	lifecycle := decisionservice.NewModule(decisionservice.Dependencies{
		Decisions:   repo,
		Ballots:     repo,
		Buildings:   repo,
		Idempotency: repo,
		Clock:       clock,
		IDGen:       decisionpostgres.UUIDGenerator{},
		Logger:      logger,
	}).Lifecycle

	return &WorkerApp{
		postgres: pg,
		outboxRelay: decisionworkers.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     clock,
			BatchSize: 100,
			Logger:    logger,
		},
		notifications: decisionworkers.NotificationConsumer{
			Subscriber:    kafka,
			Dedup:         repo,
			Notifier:      notifier,
			Clock:         clock,
			ConsumerGroup: "decision-service-notifications-cg",
			DedupTTL:      7 * 24 * time.Hour,
			Logger:        logger,
		},
		closer: decisionworkers.DeadlineCloser{
			Decisions: repo,
			Lifecycle: lifecycle,
			Clock:     clock,
			BatchSize: 50,
			Logger:    logger,
		},
		autoClose:    cfg.EnableDecisionAutoClose,
		pollInterval: cfg.WorkerPollInterval,
		logger:       logger,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *APIApp) Run(ctx context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(a.server.Start)
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

// Run supervises the relay loop, the notification consumer and, when enabled,
// the deadline closer until ctx is cancelled.
func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"auto_close", w.autoClose,
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return w.notifications.Start(groupCtx)
	})
	group.Go(func() error {
		return poll(groupCtx, w.logger, "outbox_relay", w.pollInterval, func(ctx context.Context) error {
			return w.outboxRelay.RunOnce(ctx)
		})
	})
	if w.autoClose {
		group.Go(func() error {
			return poll(groupCtx, w.logger, "deadline_closer", w.pollInterval, func(ctx context.Context) error {
				_, err := w.closer.RunOnce(ctx)
				return err
			})
		})
	}
	return group.Wait()
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

// poll runs step on every tick. Step failures are logged and retried on the
// next tick; only cancellation ends the loop.
func poll(
	ctx context.Context,
	logger *slog.Logger,
	loop string,
	interval time.Duration,
	step func(context.Context) error,
) error {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := step(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("worker loop step failed",
				"event", "bootstrap_worker_step_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"loop", loop,
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

type migrator interface {
	Migrate(ctx context.Context) error
}

func migrate(ctx context.Context, migrators ...migrator) error {
	for _, m := range migrators {
		if err := m.Migrate(ctx); err != nil {
			return err
		}
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
