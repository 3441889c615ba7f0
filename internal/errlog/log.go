// Package errlog records handled failures in a bounded, queryable log.
package errlog

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind is the failure taxonomy tag.
type Kind string

const (
	KindNetwork         Kind = "network"
	KindFilesystem      Kind = "filesystem"
	KindValidation      Kind = "validation"
	KindRecognition     Kind = "recognition"
	KindVideoProcessing Kind = "video-processing"
	KindUnknown         Kind = "unknown"
)

// Severity ranks how urgently a recorded failure needs attention.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Entry is one recorded failure.
type Entry struct {
	ID        string            `json:"id"`
	Kind      Kind              `json:"type"`
	Severity  Severity          `json:"severity"`
	Message   string            `json:"message"`
	Details   string            `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Context   map[string]string `json:"context,omitempty"`
}

// DefaultCapacity bounds the log when no explicit capacity is given.
const DefaultCapacity = 100

// Log is a bounded failure log, newest entry first. Entries past capacity
// are dropped oldest-first. Cleared only by explicit Clear.
type Log struct {
	mu       sync.Mutex
	capacity int
	entries  []Entry
}

// NewLog creates a bounded log. capacity <= 0 selects DefaultCapacity.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity}
}

// Record appends one failure and returns the stored entry.
func (l *Log) Record(kind Kind, severity Severity, message, details string, context map[string]string) Entry {
	entry := Entry{
		ID:        uuid.New().String(),
		Kind:      kind,
		Severity:  severity,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		Context:   context,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append([]Entry{entry}, l.entries...)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
	return entry
}

// RecordError classifies err and records it with the given severity.
func (l *Log) RecordError(err error, severity Severity, context map[string]string) Entry {
	return l.Record(Classify(err), severity, err.Error(), "", context)
}

// All returns every entry, newest first.
func (l *Log) All() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// FilterKind returns entries of one taxonomy kind, newest first.
func (l *Log) FilterKind(kind Kind) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Entry
	for _, e := range l.entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// FilterSeverity returns entries of one severity, newest first.
func (l *Log) FilterSeverity(severity Severity) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Entry
	for _, e := range l.entries {
		if e.Severity == severity {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of stored entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear drops every entry. Intended for explicit user action only.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// Classify maps an error to its taxonomy kind. Collaborators may implement
// interface{ ErrorKind() Kind } to classify themselves.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var kinder interface{ ErrorKind() Kind }
	if errors.As(err, &kinder) {
		return kinder.ErrorKind()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) || errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
		return KindFilesystem
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	return KindUnknown
}
