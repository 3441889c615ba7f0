// Package pipeline drives one video through audio extraction and speech
// recognition, reporting progress along the way.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"flowtext/internal/domain"
	"flowtext/internal/engine"
	"flowtext/internal/errlog"
	"flowtext/internal/progress"
	"flowtext/internal/session"
)

// defaultPollInterval is the recognition status polling period.
const defaultPollInterval = 2 * time.Second

// State is the controller lifecycle position.
type State string

const (
	StateIdle        State = "idle"
	StateExtracting  State = "extracting"
	StateRecognizing State = "recognizing"
)

// ErrBusy is returned when a run is started while another is active.
var ErrBusy = errors.New("a recognition run is already in progress")

// ErrNothingRunning is returned when Cancel finds no active run.
var ErrNothingRunning = errors.New("no recognition run is in progress")

// Extractor produces a mono WAV from one audio track of a video.
type Extractor interface {
	ExtractAudio(ctx context.Context, videoPath string, trackID int) (string, error)
}

// Backend runs recognition tasks asynchronously and answers status polls.
type Backend interface {
	Submit(taskID string, params domain.RecognitionParams) (domain.RecognitionTask, error)
	Status(taskID string) (engine.Snapshot, error)
	Cancel(taskID string) error
}

// ResultSink receives finished transcripts. *session.Store satisfies it.
type ResultSink interface {
	SaveResult(ctx context.Context, result session.Result, subtitles []domain.Subtitle) (string, error)
}

// ResultFunc is notified after a run completes and its result is stored.
type ResultFunc func(resultID string, subtitles []domain.Subtitle)

// StartParams describes one recognition run.
type StartParams struct {
	VideoPath      string
	TrackID        int
	Engine         string
	ModelSize      string
	Language       string
	BeamSize       int
	Temperature    float64
	ComputeType    string
	DetectEmotion  bool
	TagAudioEvents bool
	Credentials    domain.Credentials
	// Estimate is an optional duration hint for remaining-time display.
	Estimate time.Duration
}

// Config wires the controller's collaborators.
type Config struct {
	Registry     *progress.Registry
	Animator     *progress.Animator
	Extractor    Extractor
	Backend      Backend
	Sink         ResultSink
	Errors       *errlog.Log
	Logger       *slog.Logger
	OnResult     ResultFunc
	PollInterval time.Duration
}

// Controller owns one run at a time: extracting, then recognizing, then
// back to idle. A second Start while non-idle fails with ErrBusy.
type Controller struct {
	mu             sync.Mutex
	state          State
	gen            int
	currentTaskID  string
	progressTaskID string
	cancelRun      context.CancelFunc

	registry     *progress.Registry
	animator     *progress.Animator
	extractor    Extractor
	backend      Backend
	sink         ResultSink
	errors       *errlog.Log
	logger       *slog.Logger
	onResult     ResultFunc
	pollInterval time.Duration
	newTaskID    func() string
}

// New creates an idle controller.
func New(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Controller{
		state:        StateIdle,
		registry:     cfg.Registry,
		animator:     cfg.Animator,
		extractor:    cfg.Extractor,
		backend:      cfg.Backend,
		sink:         cfg.Sink,
		errors:       cfg.Errors,
		logger:       logger,
		onResult:     cfg.OnResult,
		pollInterval: interval,
		newTaskID:    func() string { return uuid.New().String() },
	}
}

// State returns the current lifecycle position.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentTaskID returns the active backend task id, empty when idle.
func (c *Controller) CurrentTaskID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentTaskID
}

// Start launches one run. The backend task id is allocated up front so
// Cancel works during extraction, before the backend knows the task.
func (c *Controller) Start(params StartParams) (string, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return "", ErrBusy
	}

	taskID := c.newTaskID()
	progressID := c.registry.Create(
		"Transcribe "+filepath.Base(params.VideoPath),
		params.Estimate,
		map[string]string{"video": params.VideoPath, "engine": params.Engine},
	)

	ctx, cancel := context.WithCancel(context.Background())
	c.state = StateExtracting
	c.gen++
	gen := c.gen
	c.currentTaskID = taskID
	c.progressTaskID = progressID
	c.cancelRun = cancel
	c.mu.Unlock()

	c.registry.Start(progressID, "Preparing")
	c.logger.Info("run started", "task", taskID, "video", params.VideoPath, "engine", params.Engine)

	go c.run(ctx, gen, taskID, progressID, params)
	return taskID, nil
}

// Cancel aborts the active run. Extraction results landing after a cancel
// are abandoned by the generation check.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	if c.currentTaskID == "" {
		c.mu.Unlock()
		return ErrNothingRunning
	}
	taskID := c.currentTaskID
	progressID := c.progressTaskID
	cancel := c.cancelRun
	c.gen++
	c.state = StateIdle
	c.currentTaskID = ""
	c.progressTaskID = ""
	c.cancelRun = nil
	c.mu.Unlock()

	// Best effort: the backend only knows the id once submission happened.
	_ = c.backend.Cancel(taskID)
	if cancel != nil {
		cancel()
	}

	c.registry.Cancel(progressID, "Cancelled")
	c.animator.Stop()
	c.logger.Info("run cancelled", "task", taskID)
	return nil
}

// run executes extraction, submission, and the polling loop for one
// generation. Every write re-checks the generation so a cancelled run
// leaves no trace.
func (c *Controller) run(ctx context.Context, gen int, taskID, progressID string, params StartParams) {
	c.report(gen, 10, "Extracting audio")

	audioPath, err := c.extractor.ExtractAudio(ctx, params.VideoPath, params.TrackID)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		c.failRun(gen, errlog.Classify(err), err, map[string]string{
			"stage": "extract", "video": params.VideoPath,
		})
		return
	}
	if !c.advance(gen, StateRecognizing) {
		return
	}
	c.report(gen, 30, "Audio ready")

	_, err = c.backend.Submit(taskID, domain.RecognitionParams{
		AudioPath:      audioPath,
		Engine:         params.Engine,
		ModelSize:      params.ModelSize,
		Language:       params.Language,
		BeamSize:       params.BeamSize,
		Temperature:    params.Temperature,
		ComputeType:    params.ComputeType,
		DetectEmotion:  params.DetectEmotion,
		TagAudioEvents: params.TagAudioEvents,
		Credentials:    params.Credentials,
	})
	if err != nil {
		c.failRun(gen, errlog.KindRecognition, err, map[string]string{
			"stage": "submit", "engine": params.Engine,
		})
		return
	}

	c.poll(gen, taskID, audioPath, params)
}

// poll drives the recognition status loop. Ticks never overlap: each
// awaits one Status call before the next fires.
func (c *Controller) poll(gen int, taskID, audioPath string, params StartParams) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for range ticker.C {
		if !c.isCurrent(gen, StateRecognizing) {
			return
		}

		snapshot, err := c.backend.Status(taskID)
		if err != nil {
			c.failRun(gen, errlog.KindRecognition, err, map[string]string{
				"stage": "poll", "task": taskID,
			})
			return
		}

		switch snapshot.Status {
		case domain.RecognitionCompleted:
			c.completeRun(gen, taskID, audioPath, params, snapshot.Subtitles)
			return
		case domain.RecognitionFailed:
			c.failRun(gen, errlog.KindRecognition, errors.New(snapshot.Error), map[string]string{
				"stage": "recognize", "task": taskID,
			})
			return
		case domain.RecognitionCancelled:
			// Cancel already reset the controller; nothing left to write.
			return
		default:
			c.report(gen, 30+snapshot.Progress*70, "Recognizing speech")
		}
	}
}

// report updates the progress task and animator when the run is current.
func (c *Controller) report(gen int, percent float64, message string) {
	c.mu.Lock()
	if c.gen != gen || c.state == StateIdle {
		c.mu.Unlock()
		return
	}
	progressID := c.progressTaskID
	c.mu.Unlock()

	c.registry.UpdateProgress(progressID, percent, message)
	c.animator.SetTarget(percent, message)
}

// advance moves the current run to the next state; false means the run
// was superseded.
func (c *Controller) advance(gen int, next State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.state == StateIdle {
		return false
	}
	c.state = next
	return true
}

// isCurrent reports whether gen is still the live run in the given state.
func (c *Controller) isCurrent(gen int, state State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen && c.state == state
}

// takeTerminal claims the terminal transition for gen, resetting the
// controller to idle. false means another writer got there first.
func (c *Controller) takeTerminal(gen int) (progressID string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.state == StateIdle {
		return "", false
	}
	progressID = c.progressTaskID
	c.state = StateIdle
	c.currentTaskID = ""
	c.progressTaskID = ""
	c.cancelRun = nil
	return progressID, true
}

// failRun records the failure and finalizes the run. There are no
// retries: the user decides what happens next.
func (c *Controller) failRun(gen int, kind errlog.Kind, err error, context map[string]string) {
	progressID, ok := c.takeTerminal(gen)
	if !ok {
		return
	}

	c.errors.Record(kind, errlog.SeverityHigh, err.Error(), "", context)
	c.registry.Fail(progressID, err.Error())
	c.animator.Stop()
	c.logger.Error("run failed", "stage", context["stage"], "error", err)
}

// completeRun stores the transcript and finalizes the run.
func (c *Controller) completeRun(gen int, taskID, audioPath string, params StartParams, subtitles []domain.Subtitle) {
	progressID, ok := c.takeTerminal(gen)
	if !ok {
		return
	}

	summary := fmt.Sprintf("Recognition finished: %d entries", len(subtitles))
	c.registry.UpdateProgress(progressID, 100, summary)
	c.animator.SetTarget(100, summary)
	c.registry.Complete(progressID, summary)

	resultID, err := c.sink.SaveResult(context.Background(), session.Result{
		VideoPath: params.VideoPath,
		AudioPath: audioPath,
		Engine:    params.Engine,
		Language:  params.Language,
		ModelSize: params.ModelSize,
	}, subtitles)
	if err != nil {
		// The transcript still reached the caller; losing the library copy
		// is not a run failure.
		c.errors.RecordError(err, errlog.SeverityMedium, map[string]string{"stage": "store", "task": taskID})
		c.logger.Error("store result", "task", taskID, "error", err)
	}

	c.logger.Info("run completed", "task", taskID, "entries", len(subtitles))
	if c.onResult != nil {
		c.onResult(resultID, subtitles)
	}
}
