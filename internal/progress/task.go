// Package progress tracks named, observable, cancellable units of work and
// animates their displayed completion percentage.
package progress

import "time"

// Status is the lifecycle state of one tracked task.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Task is one unit of observable work. Progress is a percentage in [0,100],
// monotonically non-decreasing while running and reset to 0 only on entry to
// running. EndTime is set exactly when the status is terminal.
type Task struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Status            Status            `json:"status"`
	Progress          float64           `json:"progress"`
	Message           string            `json:"message,omitempty"`
	Err               string            `json:"error,omitempty"`
	StartTime         *time.Time        `json:"startTime,omitempty"`
	EndTime           *time.Time        `json:"endTime,omitempty"`
	EstimatedDuration time.Duration     `json:"estimatedDuration,omitempty"`
	Context           map[string]string `json:"context,omitempty"`
}

// clone returns a copy safe to hand to listeners and snapshot readers.
func (t *Task) clone() Task {
	out := *t
	if t.StartTime != nil {
		st := *t.StartTime
		out.StartTime = &st
	}
	if t.EndTime != nil {
		et := *t.EndTime
		out.EndTime = &et
	}
	if t.Context != nil {
		ctx := make(map[string]string, len(t.Context))
		for k, v := range t.Context {
			ctx[k] = v
		}
		out.Context = ctx
	}
	return out
}

// clampPercent restricts a progress value to [0,100].
func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
