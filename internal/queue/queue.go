package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "queue:"
	failedSufx = ":failed"
	addTimeout = 5 * time.Second
	popTimeout = 5 * time.Second
)

// Job handles payloads pushed under its key.
type Job interface {
	Key() string
	Handle(ctx context.Context, payload []byte) error
}

// ErrorHandler receives failures from producers and the worker loop.
type ErrorHandler func(key string, err error)

// Queue is a Redis list backed job queue. Producers call Add; a worker
// process calls Process.
type Queue struct {
	rdb     *redis.Client
	jobs    map[string]Job
	keys    []string
	onError ErrorHandler
	pending sync.WaitGroup
}

// New creates a queue over rdb. Jobs are only needed by the consuming side.
func New(rdb *redis.Client, jobs ...Job) *Queue {
	q := &Queue{
		rdb:  rdb,
		jobs: make(map[string]Job, len(jobs)),
		onError: func(key string, err error) {
			log.Printf("queue %s: %v", key, err)
		},
	}
	for _, job := range jobs {
		q.jobs[job.Key()] = job
		q.keys = append(q.keys, listKey(job.Key()))
	}
	return q
}

// OnError replaces the default logging error handler.
func (q *Queue) OnError(h ErrorHandler) {
	q.onError = h
}

func listKey(key string) string {
	return keyPrefix + key
}

func failedKey(key string) string {
	return keyPrefix + key + failedSufx
}

// Add submits a job in the background. It never blocks on Redis and never
// returns an error; failures go to the error handler.
func (q *Queue) Add(key string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		q.onError(key, fmt.Errorf("marshal payload: %w", err))
		return
	}

	q.pending.Add(1)
	go func() {
		defer q.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), addTimeout)
		defer cancel()
		if err := q.rdb.LPush(ctx, listKey(key), data).Err(); err != nil {
			q.onError(key, fmt.Errorf("enqueue: %w", err))
		}
	}()
}

// Wait blocks until every submission started by Add has finished.
func (q *Queue) Wait() {
	q.pending.Wait()
}

// Process consumes jobs until ctx is cancelled.
func (q *Queue) Process(ctx context.Context) error {
	if len(q.keys) == 0 {
		return errors.New("queue: no jobs registered")
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if _, err := q.ProcessOne(ctx, popTimeout); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			q.onError("worker", err)
			time.Sleep(time.Second)
		}
	}
}

// ProcessOne waits up to timeout for one job and runs it. It reports
// whether a job was taken off the queue.
func (q *Queue) ProcessOne(ctx context.Context, timeout time.Duration) (bool, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.keys...).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("pop: %w", err)
	}

	list, data := res[0], res[1]
	key := list[len(keyPrefix):]
	job, ok := q.jobs[key]
	if !ok {
		return true, fmt.Errorf("no handler for %s", key)
	}

	if err := job.Handle(ctx, []byte(data)); err != nil {
		q.onError(key, fmt.Errorf("handle: %w", err))
		// the job is already off the queue; keep it even when shutdown cancelled ctx
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), addTimeout)
		defer cancel()
		if perr := q.rdb.LPush(saveCtx, failedKey(key), data).Err(); perr != nil {
			q.onError(key, fmt.Errorf("record failure: %w", perr))
		}
	}
	return true, nil
}
