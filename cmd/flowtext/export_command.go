package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"flowtext/internal/subtitle"
)

func newExportCommand(loadSettings settingsLoader) *cobra.Command {
	var (
		formatFlag string
		dirFlag    string
		nameFlag   string
	)

	cmd := &cobra.Command{
		Use:   "export <subtitles.srt|.vtt>",
		Short: "Convert a subtitle file to another format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, _, err := loadSettings()
			if err != nil {
				return err
			}

			subs, err := subtitle.Import(args[0])
			if err != nil {
				return err
			}

			format := firstNonEmpty(formatFlag, settings.ExportFormat)
			dir := firstNonEmpty(dirFlag, filepath.Dir(args[0]))
			name := nameFlag
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}

			outPath, err := subtitle.Export(subs, format, dir, name)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d entries to %s\n", len(subs), outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&formatFlag, "format", "", "Target format (srt, vtt, ass, txt, json)")
	cmd.Flags().StringVar(&dirFlag, "dir", "", "Output directory (default: input directory)")
	cmd.Flags().StringVar(&nameFlag, "name", "", "Output base name (default: input name)")

	return cmd
}
