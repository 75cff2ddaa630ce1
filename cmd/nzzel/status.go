package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Server status",
	Long: `Show server health, the yt-dlp version, running jobs and
download counts by state.`,
	Args: cobra.NoArgs,
	RunE: runStatusCmd,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	client := NewClient(serverURL)
	status, err := client.Status()
	if err != nil {
		return fmt.Errorf("status check failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		printJSON(out, status)
		return nil
	}
	printStatus(out, serverURL, status)
	return nil
}

func printStatus(w io.Writer, server string, s *StatusResponse) {
	ytdlp := "unavailable"
	if s.YtDlp.Available {
		ytdlp = s.YtDlp.Version
	}
	fmt.Fprintf(w, "Server: %s (%s) | yt-dlp: %s\n\n", server, s.Status, ytdlp)

	fmt.Fprintln(w, "Downloads")
	for _, st := range validStates {
		fmt.Fprintf(w, "  %-13s %d\n", strings.ToUpper(st[:1])+st[1:]+":", s.Downloads[st])
	}
	fmt.Fprintln(w)

	if len(s.ActiveJobs) == 0 {
		fmt.Fprintln(w, "No running jobs")
		return
	}
	fmt.Fprintf(w, "Running jobs (%d):\n", len(s.ActiveJobs))
	for _, id := range s.ActiveJobs {
		fmt.Fprintf(w, "  %s\n", id)
	}
}
