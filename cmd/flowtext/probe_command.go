package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"flowtext/internal/media"
)

func newProbeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "probe <video>",
		Short: "Inspect a video file and list its audio tracks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := media.NewProber().Probe(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", info.FilePath)
			fmt.Fprintf(out, "Duration: %.2fs  Resolution: %dx%d\n\n", info.Duration, info.Width, info.Height)

			rows := make([][]string, 0, len(info.AudioTracks))
			for _, track := range info.AudioTracks {
				rows = append(rows, []string{
					strconv.Itoa(track.ID),
					track.Codec,
					track.Language,
					strconv.Itoa(track.Channels),
					strconv.Itoa(track.SampleRate),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Track", "Codec", "Language", "Channels", "Sample rate"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
}
