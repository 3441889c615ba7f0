// Package media probes video files and extracts audio tracks with the
// FFmpeg command line tools.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"flowtext/internal/errlog"
)

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}

// Error is a tool-aware extraction or probe failure.
type Error struct {
	Tool     string
	Message  string
	ExitCode int
	Stderr   string
	Err      error
}

// Error formats the failure for logs and UI.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Tool == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s (exit=%d)", e.Tool, e.Message, e.ExitCode)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ErrorKind classifies media failures as video-processing errors.
func (e *Error) ErrorKind() errlog.Kind {
	return errlog.KindVideoProcessing
}
