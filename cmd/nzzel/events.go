package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent download outcomes",
	Args:  cobra.NoArgs,
	RunE:  runEventsCmd,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
}

func runEventsCmd(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	client := NewClient(serverURL)
	events, err := client.Events(limit)
	if err != nil {
		return fmt.Errorf("failed to fetch events: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		printJSON(out, events)
		return nil
	}
	printEvents(out, events)
	return nil
}

func printEvents(w io.Writer, events *ListEventsResponse) {
	if len(events.Items) == 0 {
		fmt.Fprintln(w, "No events")
		return
	}

	fmt.Fprintf(w, "Recent Events (%d):\n\n", events.Total)
	fmt.Fprintf(w, "  %-16s %-22s %-38s %s\n", "TIME", "TYPE", "JOB", "DETAIL")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 90))

	for _, e := range events.Items {
		fmt.Fprintf(w, "  %-16s %-22s %-38s %s\n", parseTimeAgo(e.OccurredAt), e.EventType, e.JobID, eventDetail(e))
	}
}

// eventDetail picks the most useful payload field for a one-line summary.
func eventDetail(e EventResponse) string {
	for _, key := range []string{"message", "filename"} {
		if v, ok := e.Payload[key].(string); ok && v != "" {
			return truncate(strings.ReplaceAll(v, "\n", " "), 60)
		}
	}
	return ""
}
