package config

import (
	"os"
	"path/filepath"

	"flowtext/internal/domain"
	"flowtext/internal/subtitle"
)

// appDirName is the dot directory under the user home that holds
// settings and the result library.
const appDirName = ".flowtext"

// DefaultSettings returns baseline configuration for first launch.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		Engine:       "whisper",
		ModelSize:    "base",
		Language:     "auto",
		ExportDir:    subtitle.DefaultExportDir(),
		ExportFormat: "srt",
		BeamSize:     5,
		ComputeType:  "float32",
	}
}

// Normalize fills empty core fields with defaults and clamps out-of-range
// values so downstream code can rely on the settings shape.
func Normalize(cfg domain.Settings) domain.Settings {
	defaults := DefaultSettings()

	if cfg.Engine == "" {
		cfg.Engine = defaults.Engine
	}
	if cfg.ModelSize == "" {
		cfg.ModelSize = defaults.ModelSize
	}
	if cfg.Language == "" {
		cfg.Language = defaults.Language
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = defaults.ExportDir
	}
	if cfg.ExportFormat == "" {
		cfg.ExportFormat = defaults.ExportFormat
	}
	if cfg.BeamSize <= 0 {
		cfg.BeamSize = defaults.BeamSize
	}
	if cfg.Temperature < 0 {
		cfg.Temperature = 0
	}
	if cfg.ComputeType == "" {
		cfg.ComputeType = defaults.ComputeType
	}
	return cfg
}

// AppDir returns the per-user application data directory.
func AppDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, appDirName)
}

// DefaultSettingsPath returns the standard settings file location.
func DefaultSettingsPath() string {
	return filepath.Join(AppDir(), "settings.toml")
}

// DefaultLibraryPath returns the standard result library location.
func DefaultLibraryPath() string {
	return filepath.Join(AppDir(), "library.db")
}
