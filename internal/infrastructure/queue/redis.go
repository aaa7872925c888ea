package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jobmonitor/backend/internal/config"
	"github.com/jobmonitor/backend/internal/domain"
	"github.com/jobmonitor/backend/internal/infrastructure/logger"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to the server named by cfg.URL and checks it answers.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	url := cfg.URL
	if url == "" {
		url = "redis://localhost:6379"
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// RedisQueue stores each job as a JSON document under <prefix>:job:<id> and
// the waiting job ids in the list <prefix>:queue:<name>. Several processes can
// share one queue: the API server enqueues and any number of workers dequeue.
type RedisQueue struct {
	client    redis.UniversalClient
	name      string
	prefix    string
	resultTTL time.Duration
	log       *logger.Logger
}

type RedisQueueConfig struct {
	Client redis.UniversalClient
	Name   string
	Prefix string
	// ResultTTL expires finished and failed jobs. Zero keeps them forever.
	ResultTTL time.Duration
	Logger    *logger.Logger
}

func NewRedisQueue(cfg RedisQueueConfig) *RedisQueue {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "jobmonitor"
	}
	name := cfg.Name
	if name == "" {
		name = "default"
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &RedisQueue{
		client:    cfg.Client,
		name:      name,
		prefix:    prefix,
		resultTTL: cfg.ResultTTL,
		log:       log,
	}
}

func (q *RedisQueue) Name() string {
	return q.name
}

func (q *RedisQueue) jobKey(id string) string {
	return q.prefix + ":job:" + id
}

func (q *RedisQueue) queueKey() string {
	return q.prefix + ":queue:" + q.name
}

func (q *RedisQueue) Enqueue(ctx context.Context, job *domain.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, q.jobKey(job.ID), data, 0)
		pipe.RPush(ctx, q.queueKey(), job.ID)
		return nil
	})
	if err != nil {
		q.log.Errorw("queue_enqueue_failed", "id", job.ID, "queue", q.name, "error", err)
		return err
	}
	q.log.Debugw("queue_enqueue_ok", "id", job.ID, "queue", q.name)
	return nil
}

func (q *RedisQueue) Fetch(ctx context.Context, id string) (*domain.Job, error) {
	data, err := q.client.Get(ctx, q.jobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrJobNotFound
		}
		return nil, err
	}
	return decodeJob(data)
}

func decodeJob(data []byte) (*domain.Job, error) {
	var job domain.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

func (q *RedisQueue) List(ctx context.Context) ([]*domain.Job, error) {
	ids, err := q.client.LRange(ctx, q.queueKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*domain.Job{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = q.jobKey(id)
	}
	values, err := q.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	jobs := make([]*domain.Job, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// Expired between LRANGE and MGET.
			continue
		}
		job, err := decodeJob([]byte(s))
		if err != nil {
			q.log.Warnw("queue_list_decode_failed", "id", ids[i], "error", err)
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*domain.Job, error) {
	res, err := q.client.BLPop(ctx, timeout, q.queueKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	// BLPOP answers with [key, value].
	id := res[1]
	job, err := q.Fetch(ctx, id)
	if errors.Is(err, domain.ErrJobNotFound) {
		q.log.Warnw("queue_dequeue_missing_job", "id", id, "queue", q.name)
		return nil, nil
	}
	return job, err
}

func (q *RedisQueue) Save(ctx context.Context, job *domain.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	var ttl time.Duration
	if !job.Status.IsPending() {
		ttl = q.resultTTL
	}
	return q.client.Set(ctx, q.jobKey(job.ID), data, ttl).Err()
}

// Empty drops every job still waiting on the queue.
func (q *RedisQueue) Empty(ctx context.Context) error {
	ids, err := q.client.LRange(ctx, q.queueKey(), 0, -1).Result()
	if err != nil {
		return err
	}
	keys := []string{q.queueKey()}
	for _, id := range ids {
		keys = append(keys, q.jobKey(id))
	}
	return q.client.Del(ctx, keys...).Err()
}
