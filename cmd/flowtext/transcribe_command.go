package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"flowtext/internal/config"
	"flowtext/internal/domain"
	"flowtext/internal/engine"
	"flowtext/internal/errlog"
	"flowtext/internal/logging"
	"flowtext/internal/media"
	"flowtext/internal/pipeline"
	"flowtext/internal/progress"
	"flowtext/internal/session"
	"flowtext/internal/subtitle"

	_ "flowtext/internal/engine/cloud"
	_ "flowtext/internal/engine/mock"
	_ "flowtext/internal/engine/whisper"
)

func newTranscribeCommand(loadSettings settingsLoader) *cobra.Command {
	var (
		engineFlag      string
		modelFlag       string
		languageFlag    string
		trackFlag       int
		formatFlag      string
		outputDirFlag   string
		beamSizeFlag    int
		temperatureFlag float64
	)

	cmd := &cobra.Command{
		Use:   "transcribe <video>",
		Short: "Run the full pipeline against a video file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, _, err := loadSettings()
			if err != nil {
				return err
			}

			videoPath, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			prober := media.NewProber()
			info, err := prober.Probe(cmd.Context(), videoPath)
			if err != nil {
				return fmt.Errorf("probe video: %w", err)
			}

			params := pipeline.StartParams{
				VideoPath:   videoPath,
				TrackID:     trackFlag,
				Engine:      firstNonEmpty(engineFlag, settings.Engine),
				ModelSize:   firstNonEmpty(modelFlag, settings.ModelSize),
				Language:    firstNonEmpty(languageFlag, settings.Language),
				BeamSize:    beamSizeFlag,
				Temperature: temperatureFlag,
				ComputeType: settings.ComputeType,
				Estimate:    time.Duration(info.Duration * float64(time.Second)),
			}
			if params.BeamSize <= 0 {
				params.BeamSize = settings.BeamSize
			}
			params.Credentials = settings.Credentials[params.Engine]

			subtitles, err := runPipeline(cmd, params)
			if err != nil {
				return err
			}

			format := firstNonEmpty(formatFlag, settings.ExportFormat)
			dir := firstNonEmpty(outputDirFlag, settings.ExportDir)
			name := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))

			outPath, err := subtitle.Export(subtitles, format, dir, name)
			if err != nil {
				return fmt.Errorf("export subtitles: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d entries to %s\n", len(subtitles), outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&engineFlag, "engine", "", "Recognition engine (whisper, cloud, mock)")
	cmd.Flags().StringVar(&modelFlag, "model", "", "Whisper model size")
	cmd.Flags().StringVar(&languageFlag, "language", "", "Recognition language code (auto detects)")
	cmd.Flags().IntVar(&trackFlag, "track", 0, "Audio track id")
	cmd.Flags().StringVar(&formatFlag, "format", "", "Export format (srt, vtt, ass, txt, json)")
	cmd.Flags().StringVar(&outputDirFlag, "output-dir", "", "Export directory")
	cmd.Flags().IntVar(&beamSizeFlag, "beam-size", 0, "Whisper beam size")
	cmd.Flags().Float64Var(&temperatureFlag, "temperature", 0, "Whisper sampling temperature")

	return cmd
}

// runPipeline drives one controller run to completion, rendering a live
// progress line, and returns the recognized subtitles.
func runPipeline(cmd *cobra.Command, params pipeline.StartParams) ([]domain.Subtitle, error) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	library, err := session.Open(config.DefaultLibraryPath())
	if err != nil {
		return nil, fmt.Errorf("open library: %w", err)
	}
	defer library.Close()

	registry := progress.NewRegistry()
	errorLog := errlog.NewLog(0)

	resultCh := make(chan []domain.Subtitle, 1)
	controller := pipeline.New(pipeline.Config{
		Registry:  registry,
		Animator:  progress.NewAnimator(nil),
		Extractor: media.NewExtractor(),
		Backend:   engine.NewService(logging.Discard()),
		Sink:      library,
		Errors:    errorLog,
		Logger:    logging.Discard(),
		OnResult: func(_ string, subs []domain.Subtitle) {
			resultCh <- subs
		},
	})

	if _, err := controller.Start(params); err != nil {
		return nil, err
	}

	tasks := registry.All()
	taskID := tasks[len(tasks)-1].ID

	return awaitRun(cmd.Context(), out, colorize, controller, registry, taskID, resultCh)
}

// awaitRun renders live progress for one started run until it reaches a
// terminal state, cancelling the run cooperatively when ctx is done.
func awaitRun(
	ctx context.Context,
	out io.Writer,
	colorize bool,
	controller *pipeline.Controller,
	registry *progress.Registry,
	taskID string,
	resultCh <-chan []domain.Subtitle,
) ([]domain.Subtitle, error) {
	terminal := make(chan progress.Task, 1)
	unsubscribe := registry.Subscribe(taskID, func(task progress.Task) {
		renderProgress(out, task, colorize)
		if task.Status.Terminal() {
			select {
			case terminal <- task:
			default:
			}
		}
	})
	defer unsubscribe()

	// The run may have finished before the subscription landed; pick up a
	// terminal state that would otherwise never fire a callback.
	if task, ok := registry.Get(taskID); ok && task.Status.Terminal() {
		select {
		case terminal <- task:
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			_ = controller.Cancel()
			fmt.Fprintln(out)
			return nil, context.Canceled
		case task := <-terminal:
			fmt.Fprintln(out)
			switch task.Status {
			case progress.StatusCompleted:
				return <-resultCh, nil
			case progress.StatusCancelled:
				return nil, context.Canceled
			default:
				return nil, errors.New(task.Err)
			}
		}
	}
}

// renderProgress rewrites the in-place progress line.
func renderProgress(out io.Writer, task progress.Task, colorize bool) {
	bar := progressBar(task.Progress, 30)
	if colorize {
		bar = ansiGreen + bar + ansiReset
	}
	fmt.Fprintf(out, "\r%s %5.1f%%  %s", bar, task.Progress, padRight(task.Message, 40))
}

func progressBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
