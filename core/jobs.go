package core

import (
	"context"
	"time"
)

// ReloadJobMessage describes a scheduled route/permission reload for queue
// transports; adapters map it onto go-job's execution message.
type ReloadJobMessage struct {
	JobID          string
	Targets        []string
	MaxAttempts    int
	IdempotencyKey string
	DedupPolicy    string
}

// JobNackOptions controls what happens to a failed delivery.
type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

// JobEnqueuer submits reload jobs to a queue transport.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *ReloadJobMessage) error
}

// JobDelivery is one in-flight reload job taken off a queue.
type JobDelivery interface {
	Message() *ReloadJobMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

// JobDequeuer pulls reload jobs from a queue transport.
type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

// JobWorkerEvent carries worker lifecycle details for observability hooks.
type JobWorkerEvent struct {
	Message   *ReloadJobMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

// JobWorkerHook observes worker lifecycle transitions for reload jobs.
type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}
