package progress

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Listener receives a snapshot of a task after each mutation. Listeners run
// synchronously in registration order on the mutating goroutine and must not
// re-enter a mutation for the same task id.
type Listener func(Task)

// Registry is a shared store of tracked tasks. It is injected into every
// component that reports or observes progress; all holders see the same
// live tasks.
type Registry struct {
	mu        sync.Mutex
	tasks     map[string]*Task
	order     []string
	listeners map[string][]listenerEntry
	nextSub   int64
	now       func() time.Time
}

type listenerEntry struct {
	id int64
	fn Listener
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{
		tasks:     make(map[string]*Task),
		listeners: make(map[string][]listenerEntry),
		now:       time.Now,
	}
}

// Create allocates a new idle task and returns its id. estimate may be 0
// when no duration hint exists; context is an optional diagnostic bag.
func (r *Registry) Create(name string, estimate time.Duration, context map[string]string) string {
	id := uuid.New().String()

	r.mu.Lock()
	r.tasks[id] = &Task{
		ID:                id,
		Name:              name,
		Status:            StatusIdle,
		EstimatedDuration: estimate,
		Context:           context,
	}
	r.order = append(r.order, id)
	r.mu.Unlock()

	return id
}

// Start transitions a task to running, resetting progress and stamping
// StartTime. A missing id is silently ignored: tasks may be cleared
// concurrently with in-flight updates.
func (r *Registry) Start(id, message string) {
	r.mutate(id, func(t *Task) {
		now := r.now()
		t.Status = StatusRunning
		t.Progress = 0
		t.Message = message
		t.StartTime = &now
		t.EndTime = nil
		t.Err = ""
	})
}

// UpdateProgress sets the task's progress (clamped to [0,100]) and replaces
// its message.
func (r *Registry) UpdateProgress(id string, percent float64, message string) {
	r.mutate(id, func(t *Task) {
		t.Progress = clampPercent(percent)
		if message != "" {
			t.Message = message
		}
	})
}

// Complete finalizes a task as completed with progress forced to 100.
func (r *Registry) Complete(id, message string) {
	r.mutate(id, func(t *Task) {
		now := r.now()
		t.Status = StatusCompleted
		t.Progress = 100
		if message != "" {
			t.Message = message
		}
		t.EndTime = &now
	})
}

// Fail finalizes a task as failed with the given error description.
// Progress is left where it was.
func (r *Registry) Fail(id, errMsg string) {
	r.mutate(id, func(t *Task) {
		now := r.now()
		t.Status = StatusFailed
		t.Err = errMsg
		t.EndTime = &now
	})
}

// Cancel finalizes a task as cancelled. Cancellation is not a failure and
// leaves Err empty.
func (r *Registry) Cancel(id, message string) {
	r.mutate(id, func(t *Task) {
		now := r.now()
		t.Status = StatusCancelled
		if message != "" {
			t.Message = message
		}
		t.EndTime = &now
	})
}

// Remove deletes a task and its listeners.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(id)
}

// ClearTerminal removes every completed, failed, or cancelled task.
func (r *Registry) ClearTerminal() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range append([]string(nil), r.order...) {
		if t, ok := r.tasks[id]; ok && t.Status.Terminal() {
			r.removeLocked(id)
		}
	}
}

// Get returns a snapshot of one task.
func (r *Registry) Get(id string) (Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return Task{}, false
	}
	return t.clone(), true
}

// All returns snapshots of every task in creation order.
func (r *Registry) All() []Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Task, 0, len(r.order))
	for _, id := range r.order {
		if t, ok := r.tasks[id]; ok {
			out = append(out, t.clone())
		}
	}
	return out
}

// Running returns snapshots of running tasks in creation order.
func (r *Registry) Running() []Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Task
	for _, id := range r.order {
		if t, ok := r.tasks[id]; ok && t.Status == StatusRunning {
			out = append(out, t.clone())
		}
	}
	return out
}

// EstimateRemaining extrapolates time left assuming uniform progress
// velocity: elapsed/(progress/100) − elapsed, clamped to zero. This is an
// approximation, not a prediction guarantee. ok is false when the task is
// unknown, has not started, or carries no duration hint.
func (r *Registry) EstimateRemaining(id string) (time.Duration, bool) {
	r.mu.Lock()
	t, ok := r.tasks[id]
	if !ok || t.StartTime == nil || t.EstimatedDuration <= 0 {
		r.mu.Unlock()
		return 0, false
	}
	progress := t.Progress
	start := *t.StartTime
	r.mu.Unlock()

	elapsed := r.now().Sub(start)
	if progress <= 0 {
		return t.EstimatedDuration, true
	}

	total := time.Duration(float64(elapsed) / (progress / 100))
	remaining := total - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// Subscribe registers a listener invoked after every mutation of the given
// task. The returned function unsubscribes; Remove also drops listeners.
func (r *Registry) Subscribe(id string, fn Listener) func() {
	r.mu.Lock()
	r.nextSub++
	sub := r.nextSub
	r.listeners[id] = append(r.listeners[id], listenerEntry{id: sub, fn: fn})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		entries := r.listeners[id]
		for i, e := range entries {
			if e.id == sub {
				r.listeners[id] = append(entries[:i:i], entries[i+1:]...)
				break
			}
		}
	}
}

// mutate applies fn to a task under lock and notifies listeners with the
// resulting snapshot. Missing ids are ignored.
func (r *Registry) mutate(id string, fn func(*Task)) {
	r.mu.Lock()
	t, ok := r.tasks[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	fn(t)
	snapshot := t.clone()
	entries := append([]listenerEntry(nil), r.listeners[id]...)
	r.mu.Unlock()

	for _, e := range entries {
		e.fn(snapshot)
	}
}

// removeLocked drops one task and its listeners. Caller holds the lock.
func (r *Registry) removeLocked(id string) {
	if _, ok := r.tasks[id]; !ok {
		return
	}
	delete(r.tasks, id)
	delete(r.listeners, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
}
