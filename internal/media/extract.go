package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extractor converts one audio track of a video into a mono 16 kHz WAV
// file suitable for speech recognition.
type Extractor struct {
	ffmpegPath string
	runner     commandRunner
	stat       func(string) (os.FileInfo, error)
}

// NewExtractor constructs an extractor backed by the ffmpeg binary on PATH.
func NewExtractor() *Extractor {
	return &Extractor{ffmpegPath: "ffmpeg", runner: &execRunner{}, stat: os.Stat}
}

// ExtractAudio writes the selected track next to the source video as
// "<stem>_audio_<track>.wav" and returns the output path. Extraction
// failures are not transient: a bad file or missing codec fails the run.
func (e *Extractor) ExtractAudio(ctx context.Context, videoPath string, trackID int) (string, error) {
	if strings.TrimSpace(videoPath) == "" {
		return "", &Error{Message: "video path is required"}
	}
	if _, err := e.stat(videoPath); err != nil {
		return "", &Error{
			Message: "cannot access video file: " + videoPath,
			Err:     err,
		}
	}

	stem := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	outPath := filepath.Join(filepath.Dir(videoPath), fmt.Sprintf("%s_audio_%d.wav", stem, trackID))

	args := buildExtractArgs(videoPath, trackID, outPath)
	result, err := e.runner.Run(ctx, e.ffmpegPath, args...)
	if err != nil {
		return "", &Error{
			Tool:     e.ffmpegPath,
			Message:  "audio extraction failed",
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
			Err:      err,
		}
	}

	if _, err := e.stat(outPath); err != nil {
		return "", &Error{
			Tool:    e.ffmpegPath,
			Message: "extraction completed but output file is missing",
			Err:     err,
		}
	}

	return outPath, nil
}

// buildExtractArgs builds ffmpeg args for mono 16k PCM WAV output of one
// mapped stream.
func buildExtractArgs(videoPath string, trackID int, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", videoPath,
		"-map", fmt.Sprintf("0:%d", trackID),
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		outPath,
	}
}

// newExtractorForTests constructs an extractor with injected dependencies.
func newExtractorForTests(runner commandRunner, stat func(string) (os.FileInfo, error)) *Extractor {
	return &Extractor{ffmpegPath: "ffmpeg", runner: runner, stat: stat}
}
