package queue

import (
	"context"

	"github.com/jobmonitor/backend/internal/config"
	"github.com/jobmonitor/backend/internal/core/ports"
	"github.com/jobmonitor/backend/internal/infrastructure/logger"
)

// Open builds the queue backend named in cfg.Queue. The returned func
// releases whatever connection the backend holds.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (ports.JobQueue, func() error, error) {
	if cfg.Queue.Backend == "memory" {
		log.Infow("queue_open", "backend", "memory", "queue", cfg.Queue.Name)
		return NewMemoryQueue(cfg.Queue.Name, cfg.Queue.ResultTTL), func() error { return nil }, nil
	}

	client, err := NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	log.Infow("queue_open", "backend", "redis", "queue", cfg.Queue.Name, "prefix", cfg.Redis.KeyPrefix)
	q := NewRedisQueue(RedisQueueConfig{
		Client:    client,
		Name:      cfg.Queue.Name,
		Prefix:    cfg.Redis.KeyPrefix,
		ResultTTL: cfg.Queue.ResultTTL,
		Logger:    log.Named("queue"),
	})
	return q, client.Close, nil
}
