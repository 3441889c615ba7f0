// Package whisper runs the local whisper CLI as a recognition engine.
package whisper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"flowtext/internal/domain"
	"flowtext/internal/engine"
	applang "flowtext/internal/language"
	"flowtext/internal/subtitle"
)

func init() {
	engine.Register(New())
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command and captures its output streams.
func (execRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Provider shells out to the whisper CLI and parses its SRT output.
type Provider struct {
	whisperPath string
	runner      commandRunner
	lookPath    func(string) (string, error)
	readFile    func(string) ([]byte, error)
	remove      func(string) error
}

// New creates the production whisper provider.
func New() *Provider {
	return &Provider{
		whisperPath: "whisper",
		runner:      execRunner{},
		lookPath:    exec.LookPath,
		readFile:    os.ReadFile,
		remove:      os.Remove,
	}
}

// Name implements engine.Provider.
func (p *Provider) Name() string { return "whisper" }

// Languages implements engine.Provider.
func (p *Provider) Languages() []domain.Language {
	languages, _ := applang.ForEngine("whisper")
	return languages
}

// Available reports whether the whisper CLI is installed.
func (p *Provider) Available() bool {
	_, err := p.lookPath(p.whisperPath)
	return err == nil
}

// Transcribe runs the whisper CLI against the audio file, reads the SRT
// it emits next to the audio, and removes the intermediate file. Progress
// checkpoints are synthesized because the CLI reports none.
func (p *Provider) Transcribe(ctx context.Context, req engine.Request, onProgress engine.ProgressFunc) ([]domain.Subtitle, error) {
	report := func(fraction float64) {
		if onProgress != nil {
			onProgress(fraction)
		}
	}

	if _, err := p.lookPath(p.whisperPath); err != nil {
		return nil, fmt.Errorf("whisper CLI not found on PATH: %w", err)
	}
	report(0.1)

	outputDir := filepath.Dir(req.AudioPath)
	args := buildArgs(req, outputDir)
	report(0.3)

	_, stderr, err := p.runner.Run(ctx, p.whisperPath, args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("whisper failed: %s", firstLine(stderr, err))
	}
	report(0.8)

	stem := strings.TrimSuffix(filepath.Base(req.AudioPath), filepath.Ext(req.AudioPath))
	srtPath := filepath.Join(outputDir, stem+".srt")

	data, err := p.readFile(srtPath)
	if err != nil {
		return nil, fmt.Errorf("whisper produced no SRT output: %w", err)
	}
	defer func() { _ = p.remove(srtPath) }()

	subtitles, err := subtitle.ParseSRT(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}

	report(1)
	return subtitles, nil
}

// buildArgs assembles the whisper CLI invocation.
func buildArgs(req engine.Request, outputDir string) []string {
	model := req.ModelSize
	if model == "" {
		model = "base"
	}

	args := []string{
		req.AudioPath,
		"--model", model,
		"--output_format", "srt",
		"--output_dir", outputDir,
		"--verbose", "False",
		"--task", "transcribe",
	}

	if req.Language != "" && req.Language != applang.Auto {
		args = append(args, "--language", req.Language)
	}
	if req.BeamSize > 0 {
		args = append(args, "--beam_size", strconv.Itoa(req.BeamSize))
	}
	if req.Temperature > 0 {
		args = append(args, "--temperature", strconv.FormatFloat(req.Temperature, 'f', -1, 64))
	}
	if req.ComputeType != "" {
		args = append(args, "--fp16", strconv.FormatBool(req.ComputeType == "float16"))
	}
	return args
}

// firstLine extracts the leading stderr line, falling back to err.
func firstLine(stderr string, err error) string {
	for _, line := range strings.Split(stderr, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Error()
		}
		return err.Error()
	}
	return "unknown error"
}

// newProviderForTests creates a provider with injected dependencies.
func newProviderForTests(
	runner commandRunner,
	lookPath func(string) (string, error),
	readFile func(string) ([]byte, error),
	remove func(string) error,
) *Provider {
	return &Provider{
		whisperPath: "whisper",
		runner:      runner,
		lookPath:    lookPath,
		readFile:    readFile,
		remove:      remove,
	}
}
