// Package queue implements the asynchronous notification queue on a Redis
// list. Producers LPUSH encoded jobs; the worker BRPOPs them and hands each
// to a handler. Delivery is at-least-once: a job popped before a crash of the
// handler is lost, one popped after a handler error is logged and dropped,
// but enqueue and pop themselves never double-deliver silently.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/qnahub/qna/services"
)

const answersKey = "queue:answer_notifications"

// Redis is a TaskQueue backed by a Redis list.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis queue over an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Enqueue pushes one job. Non-blocking apart from the Redis round trip; the
// caller bounds it with a context deadline.
func (q *Redis) Enqueue(ctx context.Context, job services.NotificationJob) error {
	b, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, answersKey, b).Err()
}

// Handler executes one notification job.
type Handler func(job services.NotificationJob) error

// Worker consumes jobs until ctx is cancelled.
type Worker struct {
	client  *redis.Client
	handler Handler
	log     *zap.SugaredLogger
}

// NewWorker creates a Worker.
func NewWorker(client *redis.Client, handler Handler, log *zap.SugaredLogger) *Worker {
	return &Worker{client: client, handler: handler, log: log}
}

// Run blocks, popping jobs one at a time. Transient Redis errors back off and
// retry; handler errors are logged and the job is dropped.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := w.client.BRPop(ctx, 5*time.Second, answersKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			w.log.Warnf("queue pop failed: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if len(res) != 2 {
			continue
		}

		var job services.NotificationJob
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			w.log.Errorf("malformed notification job %q: %v", res[1], err)
			continue
		}
		if err := w.handler(job); err != nil {
			w.log.Errorf("notification job for answer %d failed: %v", job.AnswerID, err)
		}
	}
}
