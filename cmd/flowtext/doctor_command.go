package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"flowtext/internal/diagnostics"
	"flowtext/internal/domain"
)

func newDoctorCommand(loadSettings settingsLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools and configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, _, err := loadSettings()
			if err != nil {
				return err
			}

			report := diagnostics.NewChecker().Run(settings)
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, item := range report.Items {
				fmt.Fprintln(out, statusLine(item.Name, string(item.Status), item.Message, colorize))
				if item.Hint != "" && item.Status != domain.DiagnosticStatusPass {
					fmt.Fprintf(out, "  %-24s   hint: %s\n", "", item.Hint)
				}
			}

			if report.HasFailures {
				return errors.New("some checks failed")
			}
			return nil
		},
	}
}
