package main

import (
	"github.com/spf13/cobra"

	"flowtext/internal/config"
	"flowtext/internal/domain"
)

func newRootCommand() *cobra.Command {
	var settingsFlag string

	rootCmd := &cobra.Command{
		Use:           "flowtext",
		Short:         "FlowText command line: turn videos into subtitles",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&settingsFlag, "settings", "", "Settings file path (default ~/.flowtext/settings.toml)")

	loadSettings := func() (domain.Settings, config.Store, error) {
		path := settingsFlag
		if path == "" {
			path = config.DefaultSettingsPath()
		}
		store := config.NewTOMLStore(path)
		settings, err := store.Load()
		return settings, store, err
	}

	rootCmd.AddCommand(newTranscribeCommand(loadSettings))
	rootCmd.AddCommand(newProbeCommand())
	rootCmd.AddCommand(newEnginesCommand())
	rootCmd.AddCommand(newModelsCommand())
	rootCmd.AddCommand(newExportCommand(loadSettings))
	rootCmd.AddCommand(newLibraryCommand())
	rootCmd.AddCommand(newDoctorCommand(loadSettings))

	return rootCmd
}

// settingsLoader resolves the persisted settings for a command run.
type settingsLoader func() (domain.Settings, config.Store, error)
