package scheduler

import (
	"context"
	"fmt"

	"smartlead_backend/platform/config"
	"smartlead_backend/platform/logger"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"
)

// InboxProcessor pulls unread inbound email into the activity log.
type InboxProcessor interface {
	ProcessUnread(ctx context.Context) (processed, created int, err error)
}

// Worker consumes background tasks and schedules the periodic inbox poll.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	inbox     InboxProcessor
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, inbox InboxProcessor, log *logger.Logger) (*Worker, error) {
	opt, err := asynq.ParseRedisURI(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: cfg.GetAsynqConcurrency(),
		Queues:      map[string]int{cfg.GetAsynqQueueName(): 1},
	})

	w := &Worker{
		server:    server,
		scheduler: asynq.NewScheduler(opt, nil),
		mux:       asynq.NewServeMux(),
		inbox:     inbox,
		log:       log,
	}
	w.mux.HandleFunc(TaskProcessInbox, w.handleProcessInbox)

	interval := cfg.GetInboxPollInterval()
	if interval > 0 {
		spec := fmt.Sprintf("@every %s", interval)
		if _, err := w.scheduler.Register(spec, NewProcessInboxTask(), asynq.Queue(cfg.GetAsynqQueueName())); err != nil {
			return nil, fmt.Errorf("register inbox poll: %w", err)
		}
	}

	return w, nil
}

// Run starts the task server and the periodic scheduler, returning when
// either fails.
func (w *Worker) Run() error {
	var g errgroup.Group
	g.Go(func() error { return w.server.Run(w.mux) })
	g.Go(func() error { return w.scheduler.Run() })
	return g.Wait()
}

// Shutdown stops both loops gracefully.
func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
}

func (w *Worker) handleProcessInbox(ctx context.Context, _ *asynq.Task) error {
	processed, created, err := w.inbox.ProcessUnread(ctx)
	if err != nil {
		w.log.Error("inbox poll failed", "error", err)
		return err
	}

	w.log.Info("inbox poll task finished", "processed", processed, "leads_created", created)
	return nil
}
