package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"flowtext/internal/domain"
	"flowtext/internal/engine"
	"flowtext/internal/errlog"
	"flowtext/internal/logging"
	"flowtext/internal/pipeline"
	"flowtext/internal/progress"
	"flowtext/internal/session"
)

// blockingExtractor parks until its run context is cancelled.
type blockingExtractor struct{}

func (blockingExtractor) ExtractAudio(ctx context.Context, _ string, _ int) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

// failingExtractor fails immediately.
type failingExtractor struct{ err error }

func (e failingExtractor) ExtractAudio(context.Context, string, int) (string, error) {
	return "", e.err
}

// idleBackend answers every poll with a processing snapshot.
type idleBackend struct{}

func (idleBackend) Submit(taskID string, _ domain.RecognitionParams) (domain.RecognitionTask, error) {
	return domain.RecognitionTask{ID: taskID, Status: domain.RecognitionProcessing}, nil
}

func (idleBackend) Status(string) (engine.Snapshot, error) {
	return engine.Snapshot{Status: domain.RecognitionProcessing}, nil
}

func (idleBackend) Cancel(string) error { return nil }

// discardSink accepts every result.
type discardSink struct{}

func (discardSink) SaveResult(context.Context, session.Result, []domain.Subtitle) (string, error) {
	return "result-1", nil
}

// newAwaitFixture builds a controller on fakes and starts one run.
func newAwaitFixture(t *testing.T, extractor pipeline.Extractor) (*pipeline.Controller, *progress.Registry, string) {
	t.Helper()

	registry := progress.NewRegistry()
	controller := pipeline.New(pipeline.Config{
		Registry:     registry,
		Animator:     progress.NewAnimator(nil),
		Extractor:    extractor,
		Backend:      idleBackend{},
		Sink:         discardSink{},
		Errors:       errlog.NewLog(0),
		Logger:       logging.Discard(),
		PollInterval: 5 * time.Millisecond,
	})

	if _, err := controller.Start(pipeline.StartParams{VideoPath: "/tmp/movie.mp4", Engine: "fake"}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	tasks := registry.All()
	return controller, registry, tasks[len(tasks)-1].ID
}

// TestAwaitRunCancelsOnContextDone verifies an interrupt mid-run triggers
// the cooperative cancel path and the task ends cancelled.
func TestAwaitRunCancelsOnContextDone(t *testing.T) {
	controller, registry, taskID := newAwaitFixture(t, blockingExtractor{})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	var out bytes.Buffer
	_, err := awaitRun(ctx, &out, false, controller, registry, taskID, make(chan []domain.Subtitle, 1))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("awaitRun error = %v, want context.Canceled", err)
	}

	task, ok := registry.Get(taskID)
	if !ok {
		t.Fatal("task disappeared from registry")
	}
	if task.Status != progress.StatusCancelled {
		t.Fatalf("task status = %s, want cancelled", task.Status)
	}
	if state := controller.State(); state != pipeline.StateIdle {
		t.Fatalf("controller state = %s, want idle", state)
	}
}

// TestAwaitRunPicksUpFinishedTask verifies a run that fails before the
// progress subscription lands still unblocks the wait loop.
func TestAwaitRunPicksUpFinishedTask(t *testing.T) {
	controller, registry, taskID := newAwaitFixture(t, failingExtractor{err: errors.New("no such track")})

	deadline := time.Now().Add(2 * time.Second)
	for {
		if task, ok := registry.Get(taskID); ok && task.Status.Terminal() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("run never reached a terminal state")
		}
		time.Sleep(5 * time.Millisecond)
	}

	done := make(chan error, 1)
	go func() {
		var out bytes.Buffer
		_, err := awaitRun(context.Background(), &out, false, controller, registry, taskID, make(chan []domain.Subtitle, 1))
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil || err.Error() != "no such track" {
			t.Fatalf("awaitRun error = %v, want no such track", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("awaitRun blocked on an already finished task")
	}
}
