package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"flowtext/internal/config"
	"flowtext/internal/session"
	"flowtext/internal/subtitle"
)

func newLibraryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Browse stored recognition results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newLibraryListCommand())
	cmd.AddCommand(newLibraryShowCommand())
	cmd.AddCommand(newLibraryDeleteCommand())
	cmd.AddCommand(newLibraryClearCommand())
	return cmd
}

func openLibrary() (*session.Store, error) {
	return session.Open(config.DefaultLibraryPath())
}

func newLibraryListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored results, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			library, err := openLibrary()
			if err != nil {
				return err
			}
			defer library.Close()

			results, err := library.Results(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{
					r.ID,
					r.VideoPath,
					r.Engine,
					r.Language,
					strconv.Itoa(r.EntryCount),
					r.CreatedAt.Local().Format(time.DateTime),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Video", "Engine", "Language", "Entries", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func newLibraryShowCommand() *cobra.Command {
	var formatFlag string

	cmd := &cobra.Command{
		Use:   "show <result-id>",
		Short: "Print the transcript of one stored result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			library, err := openLibrary()
			if err != nil {
				return err
			}
			defer library.Close()

			subs, err := library.Subtitles(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if formatFlag != "" {
				outPath, err := subtitle.Export(subs, formatFlag, ".", args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d entries to %s\n", len(subs), outPath)
				return nil
			}

			for _, sub := range subs {
				fmt.Fprintf(cmd.OutOrStdout(), "[%8.2f - %8.2f] %s\n", sub.StartTime, sub.EndTime, sub.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&formatFlag, "format", "", "Write the transcript as a subtitle file instead")
	return cmd
}

func newLibraryDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <result-id>",
		Short: "Delete one stored result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			library, err := openLibrary()
			if err != nil {
				return err
			}
			defer library.Close()

			if err := library.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted", args[0])
			return nil
		},
	}
}

func newLibraryClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			library, err := openLibrary()
			if err != nil {
				return err
			}
			defer library.Close()

			if err := library.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Library cleared")
			return nil
		},
	}
}
