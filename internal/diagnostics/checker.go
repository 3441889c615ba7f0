// Package diagnostics runs startup checks over external tools, the
// export directory, and engine credentials.
package diagnostics

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"flowtext/internal/domain"
)

// Checker validates external tools and required filesystem paths.
type Checker struct {
	lookPath   func(string) (string, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all startup checks and returns a combined report.
// Missing ffmpeg/ffprobe fails the report; an absent whisper CLI or
// missing cloud credentials only warn because other engines remain usable.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkTool("ffmpeg", domain.DiagnosticStatusFail),
		c.checkTool("ffprobe", domain.DiagnosticStatusFail),
		c.checkTool("whisper", domain.DiagnosticStatusWarn),
		c.checkExportDir(settings.ExportDir),
		c.checkCloudCredentials(settings.Credentials["cloud"]),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkTool verifies a CLI executable is on PATH. missingStatus controls
// whether absence fails or merely warns.
func (c *Checker) checkTool(name string, missingStatus domain.DiagnosticStatus) domain.DiagnosticItem {
	path, err := c.lookPath(name)
	if err != nil {
		return domain.DiagnosticItem{
			ID:      "tool_" + name,
			Name:    name,
			Status:  missingStatus,
			Message: fmt.Sprintf("Tool not found in PATH: %s", name),
			Hint:    "Install it and ensure the binary is available on PATH.",
		}
	}

	return domain.DiagnosticItem{
		ID:      "tool_" + name,
		Name:    name,
		Status:  domain.DiagnosticStatusPass,
		Message: fmt.Sprintf("Found at %s", path),
	}
}

// checkExportDir validates export directory existence and write access.
func (c *Checker) checkExportDir(exportDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "export_dir",
		Name: "Export directory",
	}

	if strings.TrimSpace(exportDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Export directory is empty."
		item.Hint = "Set a directory where subtitle files can be written."
		return item
	}

	if err := c.mkdirAll(exportDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create export directory: %s", exportDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(exportDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Export directory is not writable: %s", exportDir)
		item.Hint = "Choose a writable directory for subtitle export."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", exportDir)
	return item
}

// checkCloudCredentials reports whether the cloud engine is configured.
func (c *Checker) checkCloudCredentials(creds domain.Credentials) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "cloud_credentials",
		Name: "Cloud engine credentials",
	}

	missing := make([]string, 0, 4)
	if creds.SecretID == "" {
		missing = append(missing, "secretId")
	}
	if creds.SecretKey == "" {
		missing = append(missing, "secretKey")
	}
	if creds.Bucket == "" {
		missing = append(missing, "bucket")
	}
	if creds.Region == "" {
		missing = append(missing, "region")
	}

	if len(missing) > 0 {
		item.Status = domain.DiagnosticStatusWarn
		item.Message = fmt.Sprintf("Cloud engine not configured: missing %s", strings.Join(missing, ", "))
		item.Hint = "Add the credentials in settings to enable cloud recognition."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = "Cloud credentials present."
	return item
}

// NewCheckerForTests creates a checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}
