// Package engine defines the pluggable speech-recognition provider
// interface and the service that tracks asynchronous recognition tasks.
package engine

import (
	"context"
	"errors"

	"flowtext/internal/domain"
	"flowtext/internal/errlog"
)

// ErrUnknownEngine is returned when no provider matches the requested name.
var ErrUnknownEngine = errors.New("unknown recognition engine")

// ErrUnknownTask is returned for status or cancel requests against task
// ids the service does not track.
var ErrUnknownTask = errors.New("unknown recognition task")

// Request carries one transcription invocation to a provider.
type Request struct {
	AudioPath      string
	Language       string
	ModelSize      string
	BeamSize       int
	Temperature    float64
	ComputeType    string
	DetectEmotion  bool
	TagAudioEvents bool
	Credentials    domain.Credentials
}

// ProgressFunc reports provider progress as a fraction in [0,1].
type ProgressFunc func(fraction float64)

// Provider is one recognition engine. Transcribe blocks until the engine
// produces subtitles or fails; cancellation arrives via ctx.
type Provider interface {
	Name() string
	Languages() []domain.Language
	Transcribe(ctx context.Context, req Request, onProgress ProgressFunc) ([]domain.Subtitle, error)
}

// KeyValidator is implemented by providers that require API credentials.
type KeyValidator interface {
	ValidateKeys(creds domain.Credentials) error
}

// recognitionError tags provider failures for the error taxonomy.
type recognitionError struct{ err error }

func (e recognitionError) Error() string          { return e.err.Error() }
func (e recognitionError) Unwrap() error          { return e.err }
func (e recognitionError) ErrorKind() errlog.Kind { return errlog.KindRecognition }
