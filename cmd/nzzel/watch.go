package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/vmunix/nzzel/internal/realtime"
)

var watchCmd = &cobra.Command{
	Use:   "watch [download-id|job-id ...]",
	Short: "Follow download progress live",
	Long: `Stream download events from the server. With ids, only those
downloads are shown and the command exits once all of them finish.

Examples:
  nzzel watch             # Everything, until interrupted
  nzzel watch 42 43       # Downloads #42 and #43 until they finish`,
	RunE: runWatchCmd,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatchCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)

	jobs, err := resolveJobs(client, args)
	if err != nil {
		return err
	}

	wsURL, err := client.WebsocketURL()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", wsURL, err)
	}
	defer func() { _ = conn.Close() }()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	err = watch(conn, cmd.OutOrStdout(), jobs)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// resolveJobs maps numeric download ids to their job ids. Other arguments
// are taken as job ids.
func resolveJobs(client *Client, args []string) (map[string]string, error) {
	jobs := make(map[string]string, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			jobs[arg] = arg
			continue
		}
		dl, err := client.Download(id)
		if err != nil {
			return nil, fmt.Errorf("download %d: %w", id, err)
		}
		jobs[dl.JobID] = dl.Title
	}
	return jobs, nil
}

// watch prints frames until the connection closes or every job in jobs has
// reached a terminal state. An empty jobs map watches everything.
func watch(conn *websocket.Conn, w io.Writer, jobs map[string]string) error {
	filter := len(jobs) > 0
	for {
		var msg realtime.Message
		if err := conn.ReadJSON(&msg); err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		jobID, line, terminal, ok := describe(msg)
		if !ok {
			continue
		}
		if filter {
			label, watched := jobs[jobID]
			if !watched {
				continue
			}
			if label != jobID {
				line = label + ": " + line
			}
		}

		if jsonOutput {
			printJSON(w, msg)
		} else {
			fmt.Fprintf(w, "%s  %s\n", shortJobID(jobID), line)
		}

		if filter && terminal {
			delete(jobs, jobID)
			if len(jobs) == 0 {
				return nil
			}
		}
	}
}

// describe renders a frame as one line and reports whether it ends its job.
func describe(msg realtime.Message) (jobID, line string, terminal, ok bool) {
	switch msg.Type {
	case realtime.TypeProgress:
		var d realtime.ProgressData
		if json.Unmarshal(msg.Data, &d) != nil {
			return "", "", false, false
		}
		return d.JobID, fmt.Sprintf("%5.1f%%  %s  eta %s",
			d.Percentage, formatSpeed(d.Speed), formatETA(int64(d.ETA))), false, true
	case realtime.TypeCompleted:
		var d realtime.CompletedData
		if json.Unmarshal(msg.Data, &d) != nil {
			return "", "", false, false
		}
		return d.JobID, "completed " + d.Filename, true, true
	case realtime.TypeCancelled:
		var d realtime.CancelledData
		if json.Unmarshal(msg.Data, &d) != nil {
			return "", "", false, false
		}
		return d.JobID, "cancelled", true, true
	case realtime.TypeError:
		var d realtime.ErrorData
		if json.Unmarshal(msg.Data, &d) != nil {
			return "", "", false, false
		}
		return d.JobID, fmt.Sprintf("failed (exit %d): %s", d.ExitCode,
			truncate(strings.ReplaceAll(d.Message, "\n", " "), 80)), true, true
	}
	return "", "", false, false
}

func shortJobID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
