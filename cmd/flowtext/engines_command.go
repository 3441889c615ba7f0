package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"flowtext/internal/domain"
	"flowtext/internal/engine"
	applang "flowtext/internal/language"
)

func newEnginesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List available recognition engines and their languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows := make([][]string, 0)
			for _, name := range engine.List() {
				languages, err := applang.ForEngine(name)
				if err != nil {
					return err
				}
				codes := make([]string, 0, len(languages))
				for _, lang := range languages {
					codes = append(codes, lang.Code)
				}
				rows = append(rows, []string{name, strings.Join(codes, ", ")})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Engine", "Languages"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List selectable whisper model sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows := make([][]string, 0)
			for _, model := range domain.WhisperModels() {
				rows = append(rows, []string{model.ID, model.Name, model.SizeLabel, model.Description})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Size", "Description"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}
