package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartlead_backend/internal/ai"
	"smartlead_backend/internal/email"
	"smartlead_backend/internal/events"
	"smartlead_backend/internal/leads"
	"smartlead_backend/internal/scheduler"
	"smartlead_backend/internal/whatsapp"
	"smartlead_backend/platform/config"
	"smartlead_backend/platform/db"
	"smartlead_backend/platform/logger"
)

// The worker consumes background tasks (periodic inbox polls) so the API
// process never blocks on Gmail round-trips.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

	if !cfg.IsRedisEnabled() {
		panic("REDIS_URL is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(initCtx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	whatsappClient := whatsapp.NewClient(cfg, log)
	aiClient := ai.NewClient(cfg, log)
	emailSender := email.NewSender(cfg, log)

	// The worker does not serve HTTP, but inbound email still flows through
	// the same lead service the API uses.
	leadsModule := leads.NewModule(pool, eventBus, nil, whatsappClient, emailSender, log)
	inbox := email.NewInbox(cfg, leadsModule.Repository(), leadsModule.Service(), aiClient, log)

	worker, err := scheduler.NewWorker(cfg, inbox, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	workerErr := make(chan error, 1)
	go func() {
		workerErr <- worker.Run()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping worker")
		worker.Shutdown()
	case err := <-workerErr:
		if err != nil {
			log.Error("worker error", "error", err)
			panic("worker error: " + err.Error())
		}
	}
}
