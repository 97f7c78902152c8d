package redis

import (
	"context"
	"errors"
	"time"

	"go-fanout/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultQueue       = "docworker:queue:pending"
	DefaultResultQueue = "docworker:queue:results"

	popTimeout = 5 * time.Second
)

type RedisQueue struct {
	client      *redis.Client
	queueName   string
	resultQueue string
	popTimeout  time.Duration
}

func NewRedisQueue(client *redis.Client, queueName, resultQueue string) *RedisQueue {
	if queueName == "" {
		queueName = DefaultQueue
	}
	if resultQueue == "" {
		resultQueue = DefaultResultQueue
	}
	return &RedisQueue{
		client:      client,
		queueName:   queueName,
		resultQueue: resultQueue,
		popTimeout:  popTimeout,
	}
}

// Push adds a record to the end of the pending list
func (q *RedisQueue) Push(ctx context.Context, record []byte) error {
	return q.client.RPush(ctx, q.queueName, record).Err()
}

// Pop waits up to popTimeout for a record and removes it from the front of
// the list. The bounded wait lets callers observe context cancellation.
func (q *RedisQueue) Pop(ctx context.Context) ([]byte, error) {
	result, err := q.client.BLPop(ctx, q.popTimeout, q.queueName).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrQueueEmpty
	}
	if err != nil {
		return nil, err
	}
	// BLPop returns a slice: [QueueName, Element]
	return []byte(result[1]), nil
}

// PushResult hands a resulting record back to the scheduler
func (q *RedisQueue) PushResult(ctx context.Context, record []byte) error {
	return q.client.RPush(ctx, q.resultQueue, record).Err()
}
