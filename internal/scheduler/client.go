package scheduler

import (
	"context"

	"smartlead_backend/platform/config"
	"smartlead_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Client enqueues background tasks from the API process.
type Client struct {
	client *asynq.Client
	queue  string
	log    *logger.Logger
}

func NewClient(cfg config.SchedulerConfig, log *logger.Logger) (*Client, error) {
	opt, err := asynq.ParseRedisURI(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  cfg.GetAsynqQueueName(),
		log:    log,
	}, nil
}

// EnqueueProcessInbox queues an immediate inbox poll.
func (c *Client) EnqueueProcessInbox(ctx context.Context) error {
	info, err := c.client.EnqueueContext(ctx, NewProcessInboxTask(), asynq.Queue(c.queue))
	if err != nil {
		return err
	}

	c.log.Info("task enqueued", "task", TaskProcessInbox, "task_id", info.ID)
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
