// Package bootstrap wires configuration, the recognition pipeline, and
// the desktop UI runtime together.
package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"flowtext/internal/applock"
	"flowtext/internal/config"
	"flowtext/internal/diagnostics"
	"flowtext/internal/domain"
	"flowtext/internal/engine"
	"flowtext/internal/errlog"
	applang "flowtext/internal/language"
	"flowtext/internal/logging"
	"flowtext/internal/media"
	"flowtext/internal/pipeline"
	"flowtext/internal/progress"
	"flowtext/internal/session"
	"flowtext/internal/subtitle"

	_ "flowtext/internal/engine/cloud"
	_ "flowtext/internal/engine/mock"
	_ "flowtext/internal/engine/whisper"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

var videoDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Video files",
		Pattern:     "*.mp4;*.mov;*.mkv;*.avi;*.webm;*.flv;*.wmv",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

var subtitleDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Subtitle files",
		Pattern:     "*.srt;*.vtt",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// RecognitionRequest is the UI-facing payload for starting a run. Empty
// fields fall back to the persisted settings.
type RecognitionRequest struct {
	VideoPath      string  `json:"videoPath"`
	TrackID        int     `json:"trackId"`
	Engine         string  `json:"engine"`
	ModelSize      string  `json:"modelSize"`
	Language       string  `json:"language"`
	BeamSize       int     `json:"beamSize"`
	Temperature    float64 `json:"temperature"`
	ComputeType    string  `json:"computeType"`
	DetectEmotion  bool    `json:"detectEmotion"`
	TagAudioEvents bool    `json:"tagAudioEvents"`
	// DurationSeconds is the probed media duration, used as the
	// remaining-time hint.
	DurationSeconds float64 `json:"durationSeconds"`
}

// ExportRequest is the UI-facing payload for writing subtitles to disk.
type ExportRequest struct {
	Subtitles []domain.Subtitle `json:"subtitles"`
	Format    string            `json:"format"`
	Directory string            `json:"directory"`
	Name      string            `json:"name"`
}

// RemainingEstimate is the answer to a remaining-time query.
type RemainingEstimate struct {
	Seconds float64 `json:"seconds"`
	Known   bool    `json:"known"`
}

// App exposes backend bindings to the desktop frontend.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Registry    *progress.Registry
	Animator    *progress.Animator
	Controller  *pipeline.Controller
	Engines     *engine.Service
	Errors      *errlog.Log
	Library     *session.Store
	Diagnostics domain.DiagnosticReport

	assets  fs.FS
	checker *diagnostics.Checker
	prober  *media.Prober
	logger  *slog.Logger
	lock    *applock.Lock

	mu         sync.Mutex
	runtimeCtx context.Context
}

// New builds the application with persisted settings and startup checks.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded
// frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	lock, err := applock.Acquire(filepath.Join(config.AppDir(), "flowtext.lock"))
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:   "info",
		LogFile: filepath.Join(config.AppDir(), "flowtext.log"),
	})
	if err != nil {
		_ = lock.Release()
		return nil, fmt.Errorf("init logging: %w", err)
	}

	store := config.NewTOMLStore(config.DefaultSettingsPath())
	settings, err := store.Load()
	if err != nil {
		_ = lock.Release()
		return nil, fmt.Errorf("load settings: %w", err)
	}

	library, err := session.Open(config.DefaultLibraryPath())
	if err != nil {
		_ = lock.Release()
		return nil, fmt.Errorf("open library: %w", err)
	}

	checker := diagnostics.NewChecker()

	app := &App{
		Settings:    settings,
		Store:       store,
		Registry:    progress.NewRegistry(),
		Engines:     engine.NewService(logger),
		Errors:      errlog.NewLog(0),
		Library:     library,
		Diagnostics: checker.Run(settings),
		assets:      assets,
		checker:     checker,
		prober:      media.NewProber(),
		logger:      logger,
		lock:        lock,
	}
	app.Animator = progress.NewAnimator(app.emitFrame)
	app.Controller = pipeline.New(pipeline.Config{
		Registry:  app.Registry,
		Animator:  app.Animator,
		Extractor: media.NewExtractor(),
		Backend:   app.Engines,
		Sink:      library,
		Errors:    app.Errors,
		Logger:    logger,
		OnResult:  app.emitResult,
	})
	return app, nil
}

// Run starts the desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "FlowText",
		Width:       1180,
		Height:      780,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown:  a.Shutdown,
		Bind:        []interface{}{a},
	})
}

// Startup stores the runtime context for push events and dialogs.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// Shutdown releases the instance lock and closes the library.
func (a *App) Shutdown(context.Context) {
	a.mu.Lock()
	a.runtimeCtx = nil
	a.mu.Unlock()

	if err := a.Library.Close(); err != nil {
		a.logger.Error("close library", "error", err)
	}
	if err := a.lock.Release(); err != nil {
		a.logger.Error("release lock", "error", err)
	}
}

// ProbeVideo inspects a media file and returns its audio tracks.
func (a *App) ProbeVideo(path string) (domain.VideoInfo, error) {
	info, err := a.prober.Probe(context.Background(), path)
	if err != nil {
		a.Errors.RecordError(err, errlog.SeverityMedium, map[string]string{"stage": "probe", "video": path})
		return domain.VideoInfo{}, err
	}
	return info, nil
}

// StartRecognition begins one extraction-plus-recognition run. The task
// updates are pushed to the frontend as they happen.
func (a *App) StartRecognition(req RecognitionRequest) (string, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return "", fmt.Errorf("load settings: %w", err)
	}
	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	params, err := resolveRequest(settings, req)
	if err != nil {
		a.Errors.Record(errlog.KindValidation, errlog.SeverityMedium, err.Error(), "",
			map[string]string{"stage": "start"})
		return "", err
	}

	taskID, err := a.Controller.Start(params)
	if err != nil {
		return "", err
	}
	a.watchNewestTask()
	return taskID, nil
}

// CancelRecognition aborts the active run, if any.
func (a *App) CancelRecognition() error {
	return a.Controller.Cancel()
}

// PipelineState returns the controller position for UI gating.
func (a *App) PipelineState() string {
	return string(a.Controller.State())
}

// GetTasks returns every tracked progress task in creation order.
func (a *App) GetTasks() []progress.Task {
	return a.Registry.All()
}

// GetRunningTasks returns only the running progress tasks.
func (a *App) GetRunningTasks() []progress.Task {
	return a.Registry.Running()
}

// ClearCompletedTasks removes terminal tasks from the list.
func (a *App) ClearCompletedTasks() {
	a.Registry.ClearTerminal()
}

// RemoveTask drops one task regardless of state.
func (a *App) RemoveTask(id string) {
	a.Registry.Remove(id)
}

// EstimateRemaining extrapolates time left for one task.
func (a *App) EstimateRemaining(id string) RemainingEstimate {
	remaining, ok := a.Registry.EstimateRemaining(id)
	return RemainingEstimate{Seconds: remaining.Seconds(), Known: ok}
}

// GetErrorLog returns recorded failures, newest first.
func (a *App) GetErrorLog() []errlog.Entry {
	return a.Errors.All()
}

// GetErrorLogByKind filters recorded failures by taxonomy kind.
func (a *App) GetErrorLogByKind(kind string) []errlog.Entry {
	return a.Errors.FilterKind(errlog.Kind(kind))
}

// ClearErrorLog drops every recorded failure.
func (a *App) ClearErrorLog() {
	a.Errors.Clear()
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()
	return settings, nil
}

// SaveSettings normalizes and persists settings, then refreshes the
// diagnostics report.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := config.Normalize(trimSettings(settings))
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = normalized
	a.Diagnostics = a.checker.Run(normalized)
	a.mu.Unlock()
	return normalized, nil
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// RefreshDiagnostics reloads settings and reruns dependency checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}

	report := a.checker.Run(settings)
	a.mu.Lock()
	a.Settings = settings
	a.Diagnostics = report
	a.mu.Unlock()
	return report, nil
}

// GetEngines lists registered recognition engines.
func (a *App) GetEngines() []string {
	return engine.List()
}

// GetLanguages lists supported languages for one engine.
func (a *App) GetLanguages(engineName string) ([]domain.Language, error) {
	return applang.ForEngine(engineName)
}

// GetModelOptions lists selectable whisper model sizes.
func (a *App) GetModelOptions() []domain.ModelOption {
	return domain.WhisperModels()
}

// GetExportFormats lists supported subtitle export formats.
func (a *App) GetExportFormats() []string {
	return subtitle.Formats()
}

// ValidateEngineKeys checks stored credentials against one engine's
// requirements. Engines without key requirements always pass.
func (a *App) ValidateEngineKeys(engineName string) error {
	provider, err := engine.Get(engineName)
	if err != nil {
		return err
	}

	validator, ok := provider.(engine.KeyValidator)
	if !ok {
		return nil
	}

	a.mu.Lock()
	creds := a.Settings.Credentials[engineName]
	a.mu.Unlock()
	return validator.ValidateKeys(creds)
}

// ExportSubtitles writes subtitles to disk, defaulting format and
// directory from settings.
func (a *App) ExportSubtitles(req ExportRequest) (string, error) {
	a.mu.Lock()
	settings := a.Settings
	a.mu.Unlock()

	format := req.Format
	if format == "" {
		format = settings.ExportFormat
	}
	dir := req.Directory
	if dir == "" {
		dir = settings.ExportDir
	}

	path, err := subtitle.Export(req.Subtitles, format, dir, req.Name)
	if err != nil {
		a.Errors.RecordError(err, errlog.SeverityMedium, map[string]string{"stage": "export", "format": format})
		return "", err
	}
	return path, nil
}

// ImportSubtitles parses an SRT or VTT file.
func (a *App) ImportSubtitles(path string) ([]domain.Subtitle, error) {
	subs, err := subtitle.Import(path)
	if err != nil {
		a.Errors.RecordError(err, errlog.SeverityMedium, map[string]string{"stage": "import", "file": path})
		return nil, err
	}
	return subs, nil
}

// GetLibrary lists stored recognition results, newest first.
func (a *App) GetLibrary() ([]session.Result, error) {
	return a.Library.Results(context.Background())
}

// GetLibrarySubtitles returns the stored transcript of one result.
func (a *App) GetLibrarySubtitles(resultID string) ([]domain.Subtitle, error) {
	return a.Library.Subtitles(context.Background(), resultID)
}

// DeleteLibraryResult removes one stored result.
func (a *App) DeleteLibraryResult(resultID string) error {
	return a.Library.Delete(context.Background(), resultID)
}

// PickVideoFile opens a native file dialog for video selection.
func (a *App) PickVideoFile() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select video file",
		Filters: videoDialogFilter,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(path), nil
}

// PickSubtitleFile opens a native file dialog for subtitle import.
func (a *App) PickSubtitleFile() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select subtitle file",
		Filters: subtitleDialogFilter,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(path), nil
}

// PickExportDirectory opens a native directory picker for exports.
func (a *App) PickExportDirectory() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenDirectoryDialog(ctx, wailsruntime.OpenDialogOptions{
		Title: "Select export directory",
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(path), nil
}

// OpenExportFolder opens the given path (or the configured export dir)
// in the platform file manager.
func (a *App) OpenExportFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		a.mu.Lock()
		target = a.Settings.ExportDir
		a.mu.Unlock()
	}
	if target == "" {
		return fmt.Errorf("export path is empty")
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve export path: %w", err)
	}

	openPath := target
	if !info.IsDir() {
		openPath = filepath.Dir(target)
	}
	return openInFileManager(openPath)
}

// watchNewestTask subscribes to the progress task the controller just
// registered and pushes every mutation to the frontend. The registry
// drops the listener when the task is removed or cleared.
func (a *App) watchNewestTask() {
	tasks := a.Registry.All()
	if len(tasks) == 0 {
		return
	}
	id := tasks[len(tasks)-1].ID

	a.Registry.Subscribe(id, func(task progress.Task) {
		a.emit("task:update", task)
	})
}

// emitFrame is the animator's per-frame consumer.
func (a *App) emitFrame(percent float64, message string) {
	a.emit("progress:frame", map[string]any{"percent": percent, "message": message})
}

// emitResult announces a stored transcript.
func (a *App) emitResult(resultID string, subtitles []domain.Subtitle) {
	a.emit("recognition:result", map[string]any{"resultId": resultID, "subtitles": subtitles})
}

// emit pushes one event to the frontend when the runtime is up.
func (a *App) emit(name string, payload any) {
	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, name, payload)
	}
}

// runtimeContext returns the live runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// resolveRequest merges a UI request with settings defaults and validates
// the result.
func resolveRequest(settings domain.Settings, req RecognitionRequest) (pipeline.StartParams, error) {
	if strings.TrimSpace(req.VideoPath) == "" {
		return pipeline.StartParams{}, fmt.Errorf("video path is required")
	}

	engineName := req.Engine
	if engineName == "" {
		engineName = settings.Engine
	}
	modelSize := req.ModelSize
	if modelSize == "" {
		modelSize = settings.ModelSize
	}
	langCode := req.Language
	if langCode == "" {
		langCode = settings.Language
	}
	normalized, err := applang.Normalize(engineName, langCode)
	if err != nil {
		return pipeline.StartParams{}, err
	}

	beamSize := req.BeamSize
	if beamSize <= 0 {
		beamSize = settings.BeamSize
	}
	computeType := req.ComputeType
	if computeType == "" {
		computeType = settings.ComputeType
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = settings.Temperature
	}

	return pipeline.StartParams{
		VideoPath:      req.VideoPath,
		TrackID:        req.TrackID,
		Engine:         engineName,
		ModelSize:      modelSize,
		Language:       normalized,
		BeamSize:       beamSize,
		Temperature:    temperature,
		ComputeType:    computeType,
		DetectEmotion:  req.DetectEmotion,
		TagAudioEvents: req.TagAudioEvents,
		Credentials:    settings.Credentials[engineName],
		Estimate:       time.Duration(req.DurationSeconds * float64(time.Second)),
	}, nil
}

// trimSettings strips whitespace from user-entered string fields.
func trimSettings(settings domain.Settings) domain.Settings {
	settings.Engine = strings.TrimSpace(settings.Engine)
	settings.ModelSize = strings.TrimSpace(settings.ModelSize)
	settings.Language = strings.TrimSpace(settings.Language)
	settings.ExportDir = strings.TrimSpace(settings.ExportDir)
	settings.ExportFormat = strings.TrimSpace(settings.ExportFormat)
	settings.ComputeType = strings.TrimSpace(settings.ComputeType)
	return settings
}

// openInFileManager launches the platform file explorer for a path.
func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}
