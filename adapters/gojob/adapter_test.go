package gojob

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-txdispatch/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
)

func TestMessageMappingRoundTrip(t *testing.T) {
	original := &core.ReloadJobMessage{
		JobID:          JobIDReload,
		Targets:        []string{"routes", "permissions"},
		MaxAttempts:    5,
		IdempotencyKey: "idem-1",
		DedupPolicy:    "drop",
	}

	converted := ToExecutionMessage(original)
	if converted == nil {
		t.Fatalf("expected converted message")
	}
	roundTrip := FromExecutionMessage(converted)
	if roundTrip.JobID != original.JobID {
		t.Fatalf("expected job id %q, got %q", original.JobID, roundTrip.JobID)
	}
	if roundTrip.IdempotencyKey != original.IdempotencyKey {
		t.Fatalf("expected idempotency key %q, got %q", original.IdempotencyKey, roundTrip.IdempotencyKey)
	}
	if roundTrip.DedupPolicy != original.DedupPolicy {
		t.Fatalf("expected dedup policy %q, got %q", original.DedupPolicy, roundTrip.DedupPolicy)
	}
	if roundTrip.MaxAttempts != 5 {
		t.Fatalf("expected max attempts to survive mapping, got %d", roundTrip.MaxAttempts)
	}
	if len(roundTrip.Targets) != 2 || roundTrip.Targets[0] != "routes" || roundTrip.Targets[1] != "permissions" {
		t.Fatalf("expected targets to survive mapping, got %+v", roundTrip.Targets)
	}
}

func TestFromExecutionMessage_TargetsAsAnySlice(t *testing.T) {
	msg := FromExecutionMessage(&job.ExecutionMessage{
		JobID: JobIDReloadRoutes,
		Parameters: map[string]any{
			"targets":      []any{"routes", "", 42},
			"max_attempts": float64(3),
		},
	})
	if len(msg.Targets) != 1 || msg.Targets[0] != "routes" {
		t.Fatalf("expected only string targets to survive, got %+v", msg.Targets)
	}
	if msg.MaxAttempts != 3 {
		t.Fatalf("expected numeric max attempts coercion, got %d", msg.MaxAttempts)
	}
}

func TestEnqueueAndDequeueAdapters(t *testing.T) {
	ctx := context.Background()
	enqueuer := &stubQueueEnqueuer{}
	enqueueAdapter := NewEnqueuerAdapter(enqueuer)

	msg := &core.ReloadJobMessage{
		JobID:          JobIDReloadPermissions,
		Targets:        []string{"permissions"},
		IdempotencyKey: "idem-perms",
		DedupPolicy:    "merge",
	}
	if err := enqueueAdapter.Enqueue(ctx, msg); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if enqueuer.last == nil || enqueuer.last.JobID != JobIDReloadPermissions {
		t.Fatalf("expected mapped go-job message")
	}

	dequeuer := &stubQueueDequeuer{delivery: &stubQueueDelivery{msg: enqueuer.last}}
	dequeueAdapter := NewDequeuerAdapter(dequeuer, RetryPolicy{})
	delivery, err := dequeueAdapter.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	got := delivery.Message()
	if got == nil || got.JobID != JobIDReloadPermissions {
		t.Fatalf("expected mapped reload message")
	}
	if len(got.Targets) != 1 || got.Targets[0] != "permissions" {
		t.Fatalf("expected targets through the queue, got %+v", got.Targets)
	}
	if err := delivery.Ack(ctx); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if !dequeuer.delivery.(*stubQueueDelivery).acked {
		t.Fatalf("expected ack on underlying delivery")
	}
}

func TestNackRetryPolicyBoundaries(t *testing.T) {
	ctx := context.Background()
	rawDelivery := &stubQueueDelivery{
		msg: &job.ExecutionMessage{
			JobID: JobIDReload,
		},
	}
	adapter := NewDeliveryAdapter(rawDelivery, RetryPolicy{
		MaxAttempts:     3,
		MaxDelay:        10 * time.Second,
		DeadLetterOnMax: true,
	})

	if err := adapter.NackForAttempt(ctx, core.JobNackOptions{
		Delay:   30 * time.Second,
		Requeue: true,
		Reason:  "transient",
	}, 1); err != nil {
		t.Fatalf("nack attempt 1: %v", err)
	}
	if rawDelivery.nackOpts.Delay != 10*time.Second {
		t.Fatalf("expected delay to be bounded, got %s", rawDelivery.nackOpts.Delay)
	}
	if !rawDelivery.nackOpts.Requeue {
		t.Fatalf("expected message to be requeued before max attempts")
	}

	if err := adapter.NackForAttempt(ctx, core.JobNackOptions{
		Delay:   time.Second,
		Requeue: true,
		Reason:  "still failing",
	}, 3); err != nil {
		t.Fatalf("nack max attempt: %v", err)
	}
	if rawDelivery.nackOpts.Requeue {
		t.Fatalf("expected no requeue once max attempts is reached")
	}
	if !rawDelivery.nackOpts.DeadLetter {
		t.Fatalf("expected dead letter on max attempts")
	}
}

func TestReloadWorker_ProcessOne(t *testing.T) {
	ctx := context.Background()

	runner := &stubReloadRunner{}
	policy := RetryPolicy{MaxAttempts: 3, DeadLetterOnMax: true}
	reloadWorker, err := NewReloadWorker(runner, policy)
	if err != nil {
		t.Fatalf("new reload worker: %v", err)
	}

	rawDelivery := &stubQueueDelivery{
		msg: &job.ExecutionMessage{
			JobID: JobIDReload,
			Parameters: map[string]any{
				"targets":      []string{"routes"},
				"max_attempts": 2,
			},
		},
	}
	delivery := NewDeliveryAdapter(rawDelivery, policy)

	if err := reloadWorker.ProcessOne(ctx, delivery, 1); err != nil {
		t.Fatalf("process successful delivery: %v", err)
	}
	if !rawDelivery.acked {
		t.Fatalf("expected successful delivery to be acked")
	}
	if len(runner.lastOpts.Targets) != 1 || runner.lastOpts.Targets[0] != "routes" {
		t.Fatalf("expected targets to reach the runner, got %+v", runner.lastOpts.Targets)
	}
	if runner.lastOpts.MaxAttempts != 2 {
		t.Fatalf("expected attempt budget to reach the runner, got %d", runner.lastOpts.MaxAttempts)
	}

	runner.err = errors.New("store unavailable")
	failed := &stubQueueDelivery{msg: rawDelivery.msg}
	if err := reloadWorker.ProcessOne(ctx, NewDeliveryAdapter(failed, policy), 1); err == nil {
		t.Fatalf("expected failure to propagate after nack")
	}
	if failed.acked {
		t.Fatalf("expected failed delivery not to be acked")
	}
	if !failed.nackOpts.Requeue {
		t.Fatalf("expected failed delivery to be requeued before max attempts")
	}
	if failed.nackOpts.Reason != "store unavailable" {
		t.Fatalf("expected failure reason on nack, got %q", failed.nackOpts.Reason)
	}

	exhausted := &stubQueueDelivery{msg: rawDelivery.msg}
	if err := reloadWorker.ProcessOne(ctx, NewDeliveryAdapter(exhausted, policy), 3); err == nil {
		t.Fatalf("expected failure at max attempts")
	}
	if exhausted.nackOpts.Requeue {
		t.Fatalf("expected no requeue at max attempts")
	}
	if !exhausted.nackOpts.DeadLetter {
		t.Fatalf("expected dead letter at max attempts")
	}
}

func TestWorkerHookAdapterEventMapping(t *testing.T) {
	now := time.Now().UTC().Add(-time.Second)
	coreHook := &capturingHook{}
	adapter := NewWorkerHookAdapter(coreHook)

	evt := worker.Event{
		Message: &job.ExecutionMessage{
			JobID:          JobIDReload,
			IdempotencyKey: "idem-reload",
		},
		Attempt:   2,
		Delay:     5 * time.Second,
		Err:       errors.New("retry"),
		StartedAt: now,
		Duration:  250 * time.Millisecond,
	}

	adapter.OnRetry(context.Background(), evt)
	if coreHook.last.Message == nil {
		t.Fatalf("expected worker message mapping")
	}
	if coreHook.last.Message.JobID != JobIDReload {
		t.Fatalf("expected job id mapping, got %q", coreHook.last.Message.JobID)
	}
	if coreHook.last.Attempt != 2 {
		t.Fatalf("expected attempt 2, got %d", coreHook.last.Attempt)
	}
	if coreHook.last.Delay != 5*time.Second {
		t.Fatalf("expected delay 5s, got %s", coreHook.last.Delay)
	}
	if coreHook.last.Duration != 250*time.Millisecond {
		t.Fatalf("expected duration mapping")
	}
	if coreHook.last.StartedAt.IsZero() {
		t.Fatalf("expected started_at mapping")
	}
	if coreHook.last.Err == nil || coreHook.last.Err.Error() != "retry" {
		t.Fatalf("expected error mapping")
	}
}

type stubReloadRunner struct {
	lastOpts core.ReloadRunOptions
	err      error
}

func (s *stubReloadRunner) RunReloadWithRetry(_ context.Context, opts core.ReloadRunOptions) (core.ReloadRunResult, error) {
	s.lastOpts = opts
	if s.err != nil {
		return core.ReloadRunResult{}, s.err
	}
	return core.ReloadRunResult{Attempts: 1, Targets: opts.Targets}, nil
}

type stubQueueEnqueuer struct {
	last *job.ExecutionMessage
}

func (s *stubQueueEnqueuer) Enqueue(_ context.Context, msg *job.ExecutionMessage) error {
	s.last = msg
	return nil
}

type stubQueueDequeuer struct {
	delivery queue.Delivery
}

func (s *stubQueueDequeuer) Dequeue(context.Context) (queue.Delivery, error) {
	return s.delivery, nil
}

type stubQueueDelivery struct {
	msg      *job.ExecutionMessage
	acked    bool
	nackOpts queue.NackOptions
}

func (s *stubQueueDelivery) Message() *job.ExecutionMessage {
	return s.msg
}

func (s *stubQueueDelivery) Ack(context.Context) error {
	s.acked = true
	return nil
}

func (s *stubQueueDelivery) Nack(_ context.Context, opts queue.NackOptions) error {
	s.nackOpts = opts
	return nil
}

type capturingHook struct {
	last core.JobWorkerEvent
}

func (h *capturingHook) OnStart(context.Context, core.JobWorkerEvent)   {}
func (h *capturingHook) OnSuccess(context.Context, core.JobWorkerEvent) {}
func (h *capturingHook) OnFailure(context.Context, core.JobWorkerEvent) {}
func (h *capturingHook) OnRetry(_ context.Context, event core.JobWorkerEvent) {
	h.last = event
}
