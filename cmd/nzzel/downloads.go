package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// Valid download states for --state flag validation
var validStates = []string{"pending", "downloading", "paused", "completed", "failed", "cancelled"}

var downloadsCmd = &cobra.Command{
	Use:     "downloads",
	Aliases: []string{"ls"},
	Short:   "Show and manage downloads",
	Long: `Show and manage downloads.

Examples:
  nzzel downloads                     # Show active downloads
  nzzel downloads --all               # Include finished downloads
  nzzel downloads --state failed      # Filter by state
  nzzel downloads -f "lecture"        # Fuzzy match on title
  nzzel downloads show 42             # Show detailed info for download #42
  nzzel downloads cancel 42           # Cancel download #42
  nzzel downloads remove 42           # Delete the record for download #42
  nzzel downloads retry 42            # Retry a failed download`,
	Args: cobra.NoArgs,
	RunE: runDownloadsCmd,
}

var downloadsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show detailed download info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDownloadsShow,
}

var downloadsCancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancel a download",
	Long:  "Stops the running yt-dlp job, if any, and marks the download cancelled.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDownloadsCancel,
}

var downloadsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a download record",
	Long:  "Deletes the download record. A running job is cancelled first. Downloaded files are left in place.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDownloadsRemove,
}

var downloadsRetryCmd = &cobra.Command{
	Use:   "retry <id>",
	Short: "Retry a failed download",
	Long:  "Starts a failed download again under a new job.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDownloadsRetry,
}

func init() {
	rootCmd.AddCommand(downloadsCmd)
	downloadsCmd.Flags().BoolP("all", "a", false, "Include finished downloads")
	downloadsCmd.Flags().StringP("state", "s", "", "Filter by state ("+strings.Join(validStates, ", ")+")")
	downloadsCmd.Flags().StringP("find", "f", "", "Fuzzy match on title")
	downloadsCmd.Flags().IntP("limit", "n", 0, "Maximum number of downloads to show")

	downloadsCmd.AddCommand(downloadsShowCmd)
	downloadsCmd.AddCommand(downloadsCancelCmd)
	downloadsCmd.AddCommand(downloadsRemoveCmd)
	downloadsCmd.AddCommand(downloadsRetryCmd)
}

func runDownloadsCmd(cmd *cobra.Command, _ []string) error {
	showAll, _ := cmd.Flags().GetBool("all")
	stateFilter, _ := cmd.Flags().GetString("state")
	query, _ := cmd.Flags().GetString("find")
	limit, _ := cmd.Flags().GetInt("limit")

	stateFilter = strings.ToLower(stateFilter)
	if stateFilter != "" && !slices.Contains(validStates, stateFilter) {
		return fmt.Errorf("invalid state %q, valid states: %s", stateFilter, strings.Join(validStates, ", "))
	}

	filter := DownloadFilter{
		Status: stateFilter,
		Active: !showAll && stateFilter == "",
		Query:  query,
		Limit:  limit,
	}

	client := NewClient(serverURL)
	downloads, err := client.Downloads(filter)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		printJSON(out, downloads)
		return nil
	}

	if filter.Active {
		printDownloadsActive(out, downloads)
	} else {
		printDownloadsAll(out, downloads)
	}
	return nil
}

func printDownloadsActive(w io.Writer, d *ListDownloadsResponse) {
	if len(d.Items) == 0 {
		fmt.Fprintln(w, "No active downloads")
		return
	}

	fmt.Fprintf(w, "Active Downloads (%d):\n\n", d.Total)
	fmt.Fprintf(w, "  %-4s %-12s %-46s %-8s %-12s %s\n", "ID", "STATE", "TITLE", "PROGRESS", "SPEED", "ETA")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 100))

	for i := range d.Items {
		dl := &d.Items[i]
		speed := "-"
		if dl.Speed != nil {
			speed = formatSpeed(*dl.Speed)
		}
		eta := "-"
		if dl.ETA != nil {
			eta = formatETA(*dl.ETA)
		}
		fmt.Fprintf(w, "  %-4d %-12s %-46s %-8s %-12s %s\n",
			dl.ID, dl.Status, truncate(dl.Title, 46), fmt.Sprintf("%.0f%%", dl.Progress), speed, eta)
	}
}

func printDownloadsAll(w io.Writer, d *ListDownloadsResponse) {
	if len(d.Items) == 0 {
		fmt.Fprintln(w, "No downloads")
		return
	}

	fmt.Fprintf(w, "Downloads (%d):\n\n", d.Total)
	fmt.Fprintf(w, "  %-4s %-12s %-40s %-16s\n", "ID", "STATE", "TITLE", "UPDATED")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 76))

	for i := range d.Items {
		dl := &d.Items[i]
		fmt.Fprintf(w, "  %-4d %-12s %-40s %-16s\n",
			dl.ID, dl.Status, truncate(dl.Title, 40), formatTimeAgo(dl.LastTransitionAt))
	}
}

func runDownloadsShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	client := NewClient(serverURL)
	dl, err := client.Download(id)
	if err != nil {
		return fmt.Errorf("failed to fetch download: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		printJSON(out, dl)
		return nil
	}

	fmt.Fprintf(out, "Download #%d\n\n", dl.ID)
	fmt.Fprintf(out, "  %-12s %s\n", "Title:", dl.Title)
	fmt.Fprintf(out, "  %-12s %s\n", "URL:", dl.URL)
	fmt.Fprintf(out, "  %-12s %s\n", "Status:", dl.Status)
	fmt.Fprintf(out, "  %-12s %.0f%%\n", "Progress:", dl.Progress)
	fmt.Fprintf(out, "  %-12s %s\n", "Job:", dl.JobID)
	kind := dl.Format
	if dl.AudioOnly {
		kind += " (audio only)"
	}
	fmt.Fprintf(out, "  %-12s %s, quality %s\n", "Format:", kind, dl.Quality)
	fmt.Fprintf(out, "  %-12s %s\n", "File:", dl.Filename)
	if dl.FileSize != nil {
		fmt.Fprintf(out, "  %-12s %s\n", "Size:", formatSize(*dl.FileSize))
	}
	fmt.Fprintf(out, "  %-12s %s\n", "Added:", dl.CreatedAt.Format(time.RFC3339))
	if dl.CompletedAt != nil {
		fmt.Fprintf(out, "  %-12s %s\n", "Completed:", dl.CompletedAt.Format(time.RFC3339))
	}
	if dl.ErrorMessage != nil {
		fmt.Fprintf(out, "  %-12s %s\n", "Error:", *dl.ErrorMessage)
	}

	// Fetch and display events
	events, err := client.DownloadEvents(id)
	if err == nil && len(events.Items) > 0 {
		fmt.Fprintf(out, "\n  Event History:\n")
		for _, e := range events.Items {
			t, _ := time.Parse(time.RFC3339, e.OccurredAt)
			fmt.Fprintf(out, "    %s  %s\n", t.Format("2006-01-02 15:04:05"), e.EventType)
		}
	}

	return nil
}

func runDownloadsCancel(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	client := NewClient(serverURL)
	resp, err := client.CancelDownload(id)
	if err != nil {
		return fmt.Errorf("cancel failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		printJSON(out, resp)
		return nil
	}
	if !quietOutput {
		if resp.JobActive {
			fmt.Fprintf(out, "Download %d cancelled\n", id)
		} else {
			fmt.Fprintf(out, "Download %d cancelled (no running job)\n", id)
		}
	}
	return nil
}

func runDownloadsRemove(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	client := NewClient(serverURL)
	if err := client.RemoveDownload(id); err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}

	if !quietOutput {
		fmt.Fprintf(cmd.OutOrStdout(), "Download %d removed\n", id)
	}
	return nil
}

func runDownloadsRetry(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	client := NewClient(serverURL)
	dl, err := client.RetryDownload(id)
	if err != nil {
		return fmt.Errorf("retry failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		printJSON(out, dl)
		return nil
	}

	if !quietOutput {
		fmt.Fprintf(out, "Retrying download #%d: %s\n", dl.ID, dl.Title)
		fmt.Fprintln(out, "Use 'nzzel downloads' or 'nzzel watch' to monitor progress")
	}
	return nil
}
