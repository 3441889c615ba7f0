package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"flowtext/internal/domain"
)

// defaultRetention is how long terminal tasks stay queryable before the
// janitor may drop them, giving consumers time to fetch results.
const defaultRetention = 30 * time.Minute

// Snapshot is one poll response for a tracked task. Progress is a
// fraction in [0,1].
type Snapshot struct {
	Status    domain.RecognitionStatus `json:"status"`
	Progress  float64                  `json:"progress"`
	Subtitles []domain.Subtitle        `json:"subtitles,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

// taskState is the service-internal record for one submitted task.
type taskState struct {
	task   domain.RecognitionTask
	cancel context.CancelFunc
	doneAt time.Time
}

// Service runs providers asynchronously and answers status polls. It owns
// the task map for every recognition request it accepts.
type Service struct {
	mu        sync.Mutex
	tasks     map[string]*taskState
	registry  *Registry
	retention time.Duration
	logger    *slog.Logger
}

// NewService creates a service backed by the global provider registry.
func NewService(logger *slog.Logger) *Service {
	return NewServiceWithRegistry(globalRegistry, logger)
}

// NewServiceWithRegistry creates a service with an explicit registry,
// used by tests to isolate providers.
func NewServiceWithRegistry(registry *Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		tasks:     make(map[string]*taskState),
		registry:  registry,
		retention: defaultRetention,
		logger:    logger,
	}
}

// Submit accepts one recognition request under the caller-chosen task id
// and starts the provider in the background. It fails when the id is
// already taken or the engine is unknown.
func (s *Service) Submit(taskID string, params domain.RecognitionParams) (domain.RecognitionTask, error) {
	provider, err := s.registry.Get(params.Engine)
	if err != nil {
		return domain.RecognitionTask{}, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now().UTC()
	task := domain.RecognitionTask{
		ID:        taskID,
		Status:    domain.RecognitionPending,
		Engine:    params.Engine,
		Language:  params.Language,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	if _, exists := s.tasks[taskID]; exists {
		s.mu.Unlock()
		cancel()
		return domain.RecognitionTask{}, fmt.Errorf("task id already exists: %s", taskID)
	}
	s.tasks[taskID] = &taskState{task: task, cancel: cancel}
	s.mu.Unlock()

	go s.run(ctx, provider, taskID, params)
	return task, nil
}

// Status returns the current snapshot for one task.
func (s *Service) Status(taskID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.tasks[taskID]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	return Snapshot{
		Status:    state.task.Status,
		Progress:  state.task.Progress / 100,
		Subtitles: state.task.Subtitles,
		Error:     state.task.Error,
	}, nil
}

// Task returns the domain record for one task.
func (s *Service) Task(taskID string) (domain.RecognitionTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.tasks[taskID]
	if !ok {
		return domain.RecognitionTask{}, fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	return state.task, nil
}

// Cancel requests best-effort cancellation of a running task.
func (s *Service) Cancel(taskID string) error {
	s.mu.Lock()
	state, ok := s.tasks[taskID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	cancel := state.cancel
	s.mu.Unlock()

	cancel()
	return nil
}

// Sweep drops terminal tasks older than the retention window and returns
// how many were removed.
func (s *Service) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	cutoff := time.Now().UTC().Add(-s.retention)
	for id, state := range s.tasks {
		if state.task.Status.Terminal() && !state.doneAt.IsZero() && state.doneAt.Before(cutoff) {
			delete(s.tasks, id)
			removed++
		}
	}
	return removed
}

// run executes the provider and records the terminal outcome.
func (s *Service) run(ctx context.Context, provider Provider, taskID string, params domain.RecognitionParams) {
	s.update(taskID, func(t *domain.RecognitionTask) {
		t.Status = domain.RecognitionProcessing
	})

	req := Request{
		AudioPath:      params.AudioPath,
		Language:       params.Language,
		ModelSize:      params.ModelSize,
		BeamSize:       params.BeamSize,
		Temperature:    params.Temperature,
		ComputeType:    params.ComputeType,
		DetectEmotion:  params.DetectEmotion,
		TagAudioEvents: params.TagAudioEvents,
		Credentials:    params.Credentials,
	}

	subtitles, err := provider.Transcribe(ctx, req, func(fraction float64) {
		s.update(taskID, func(t *domain.RecognitionTask) {
			percent := fraction * 100
			if percent > t.Progress {
				t.Progress = percent
			}
		})
	})

	switch {
	case err == nil:
		s.logger.Info("recognition completed", "task", taskID, "engine", provider.Name(), "entries", len(subtitles))
		s.finish(taskID, func(t *domain.RecognitionTask) {
			t.Status = domain.RecognitionCompleted
			t.Progress = 100
			t.Subtitles = subtitles
		})
	case errors.Is(err, context.Canceled):
		s.logger.Info("recognition cancelled", "task", taskID, "engine", provider.Name())
		s.finish(taskID, func(t *domain.RecognitionTask) {
			t.Status = domain.RecognitionCancelled
		})
	default:
		wrapped := recognitionError{err}
		s.logger.Error("recognition failed", "task", taskID, "engine", provider.Name(), "error", err)
		s.finish(taskID, func(t *domain.RecognitionTask) {
			t.Status = domain.RecognitionFailed
			t.Error = wrapped.Error()
		})
	}
}

// update applies a mutation to one tracked task.
func (s *Service) update(taskID string, fn func(*domain.RecognitionTask)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.tasks[taskID]; ok {
		fn(&state.task)
		state.task.UpdatedAt = time.Now().UTC()
	}
}

// finish applies a terminal mutation, stamps the retention clock, and
// schedules the janitor drop for this task.
func (s *Service) finish(taskID string, fn func(*domain.RecognitionTask)) {
	s.mu.Lock()
	state, ok := s.tasks[taskID]
	if ok {
		fn(&state.task)
		state.task.UpdatedAt = time.Now().UTC()
		state.doneAt = time.Now().UTC()
	}
	retention := s.retention
	s.mu.Unlock()

	if ok {
		time.AfterFunc(retention, func() { s.expire(taskID) })
	}
}

// expire drops one task once it is terminal. Submit rejects duplicate ids
// while the task exists, so the timer can only ever see its own task.
func (s *Service) expire(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.tasks[taskID]; ok && state.task.Status.Terminal() {
		delete(s.tasks, taskID)
	}
}
