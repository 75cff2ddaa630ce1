package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var formatsCmd = &cobra.Command{
	Use:   "formats <url>",
	Short: "List the useful formats of a video",
	Long:  "Lists one format per resolution, tallest first. Use a format id with 'nzzel download --format'.",
	Args:  cobra.ExactArgs(1),
	RunE:  runFormatsCmd,
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}

func runFormatsCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	resp, err := client.Formats(args[0])
	if err != nil {
		return fmt.Errorf("fetch formats failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		printJSON(out, resp)
		return nil
	}
	printFormats(out, resp.Formats)
	return nil
}

func printFormats(w io.Writer, formats []Format) {
	if len(formats) == 0 {
		fmt.Fprintln(w, "No formats found")
		return
	}

	fmt.Fprintf(w, "  %-8s %-7s %-5s %-10s %-5s %-14s %s\n", "ID", "HEIGHT", "EXT", "SIZE", "FPS", "VCODEC", "NOTE")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 70))
	for _, f := range formats {
		fps := "-"
		if f.FPS != nil {
			fps = fmt.Sprintf("%.0f", *f.FPS)
		}
		note := ""
		if f.FormatNote != nil {
			note = *f.FormatNote
		}
		fmt.Fprintf(w, "  %-8s %-7s %-5s %-10s %-5s %-14s %s\n",
			f.FormatID, fmt.Sprintf("%dp", f.Height), f.Ext, formatSize(f.Filesize), fps, truncate(f.VCodec, 14), note)
	}
}
