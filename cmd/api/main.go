package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartlead_backend/internal/ai"
	"smartlead_backend/internal/email"
	"smartlead_backend/internal/events"
	apphttp "smartlead_backend/internal/http"
	"smartlead_backend/internal/http/router"
	"smartlead_backend/internal/identity"
	"smartlead_backend/internal/leads"
	"smartlead_backend/internal/meta"
	"smartlead_backend/internal/notification"
	"smartlead_backend/internal/scheduler"
	"smartlead_backend/internal/voice"
	"smartlead_backend/internal/webhook"
	"smartlead_backend/internal/whatsapp"
	"smartlead_backend/platform/config"
	"smartlead_backend/platform/db"
	"smartlead_backend/platform/logger"
	"smartlead_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Webhook dedup and the task queue both ride on Redis; without it the
	// webhooks still work, just without retry suppression.
	deduper, taskClient, closeRedis := initRedis(cfg, log)
	if closeRedis != nil {
		defer closeRedis()
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// Vendor clients
	whatsappClient := whatsapp.NewClient(cfg, log)
	voiceClient := voice.NewClient(cfg, log)
	metaClient := meta.NewClient(cfg, log)
	aiClient := ai.NewClient(cfg, log)
	emailSender := email.NewSender(cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notification.NewModule(eventBus, whatsappClient, log)

	leadsModule := leads.NewModule(pool, eventBus, voiceClient, whatsappClient, emailSender, log)

	// The inbox depends on the leads service, so it is injected after the
	// module exists.
	inbox := email.NewInbox(cfg, leadsModule.Repository(), leadsModule.Service(), aiClient, log)
	leadsModule.SetInboxProcessor(inbox)

	resolver := identity.NewResolver(leadsModule.Repository())
	webhookModule := webhook.NewModule(leadsModule.Service(), resolver, voiceClient, metaClient, aiClient, deduper, eventBus, val, cfg, log)

	if taskClient != nil {
		defer func() {
			_ = taskClient.Close()
		}()
		// Kick off one poll now instead of waiting a full interval.
		if err := taskClient.EnqueueProcessInbox(ctx); err != nil {
			log.Warn("failed to enqueue initial inbox poll", "error", err)
		}
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			webhookModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initRedis(cfg config.SchedulerConfig, log *logger.Logger) (webhook.Deduper, *scheduler.Client, func()) {
	if !cfg.IsRedisEnabled() {
		log.Warn("REDIS_URL not configured; webhook dedup and background tasks disabled")
		return webhook.NoopDeduper{}, nil, nil
	}

	opts, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL", "error", err)
		return webhook.NoopDeduper{}, nil, nil
	}
	client := redis.NewClient(opts)

	taskClient, err := scheduler.NewClient(cfg, log)
	if err != nil {
		log.Error("failed to initialize task client", "error", err)
		taskClient = nil
	}

	return webhook.NewRedisDeduper(client, log), taskClient, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
