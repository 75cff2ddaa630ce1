package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download <url>",
	Short: "Start a download",
	Long: `Start downloading a video. Title and video id are looked up with
yt-dlp unless both are given.

Examples:
  nzzel download https://youtu.be/abc123
  nzzel download --audio https://youtu.be/abc123
  nzzel download --quality 720p -o ~/Videos https://youtu.be/abc123
  nzzel download --playlist "https://youtube.com/playlist?list=PL..."`,
	Args: cobra.ExactArgs(1),
	RunE: runDownloadCmd,
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().Bool("audio", false, "Extract audio only")
	downloadCmd.Flags().String("format", "", "yt-dlp format selector")
	downloadCmd.Flags().String("quality", "", "Quality (best, 1080p, 720p, ...)")
	downloadCmd.Flags().StringP("output", "o", "", "Output directory on the server")
	downloadCmd.Flags().String("title", "", "Title to record (skips lookup when --id is also set)")
	downloadCmd.Flags().String("id", "", "Video id to record (skips lookup when --title is also set)")
	downloadCmd.Flags().Bool("playlist", false, "Download every entry of a playlist URL")
}

func runDownloadCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	audio, _ := flags.GetBool("audio")
	format, _ := flags.GetString("format")
	quality, _ := flags.GetString("quality")
	output, _ := flags.GetString("output")
	title, _ := flags.GetString("title")
	videoID, _ := flags.GetString("id")
	playlist, _ := flags.GetBool("playlist")

	base := StartDownloadRequest{
		URL:        args[0],
		VideoID:    videoID,
		Title:      title,
		Format:     format,
		Quality:    quality,
		AudioOnly:  audio,
		OutputPath: output,
	}

	client := NewClient(serverURL)
	reqs := []StartDownloadRequest{base}
	if title == "" || videoID == "" {
		info, err := client.Extract(args[0])
		if err != nil {
			return fmt.Errorf("lookup failed: %w", err)
		}
		reqs, err = buildRequests(base, info, playlist)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	var started []*StartDownloadResponse
	var errs []error
	for i := range reqs {
		resp, err := client.StartDownload(&reqs[i])
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", reqs[i].Title, err))
			continue
		}
		started = append(started, resp)
		if !jsonOutput && !quietOutput {
			fmt.Fprintf(out, "Started download #%d: %s\n", resp.DownloadID, reqs[i].Title)
		}
	}

	if jsonOutput {
		printJSON(out, started)
	}
	return errors.Join(errs...)
}

// buildRequests fills the request from extracted metadata. A playlist
// expands to one request per entry, and only when expand is set.
func buildRequests(base StartDownloadRequest, info *ExtractResponse, expand bool) ([]StartDownloadRequest, error) {
	if info.Playlist != nil {
		if !expand {
			return nil, fmt.Errorf("%s is a playlist with %d entries, use --playlist to download all of them",
				base.URL, len(info.Playlist.Entries))
		}
		reqs := make([]StartDownloadRequest, 0, len(info.Playlist.Entries))
		for i := range info.Playlist.Entries {
			e := &info.Playlist.Entries[i]
			link := e.Link()
			if link == "" {
				continue
			}
			req := base
			req.URL = link
			req.VideoID = e.ID
			req.Title = e.Title
			applyVideo(&req, e)
			reqs = append(reqs, req)
		}
		if len(reqs) == 0 {
			return nil, fmt.Errorf("playlist %s has no downloadable entries", base.URL)
		}
		return reqs, nil
	}

	if info.Video == nil {
		return nil, fmt.Errorf("no metadata for %s", base.URL)
	}
	req := base
	if req.VideoID == "" {
		req.VideoID = info.Video.ID
	}
	if req.Title == "" {
		req.Title = info.Video.Title
	}
	applyVideo(&req, info.Video)
	return []StartDownloadRequest{req}, nil
}

func applyVideo(req *StartDownloadRequest, v *VideoInfo) {
	if v.Thumbnail != "" {
		thumb := v.Thumbnail
		req.ThumbnailURL = &thumb
	}
	if v.Duration > 0 {
		d := int64(v.Duration)
		req.Duration = &d
	}
}

var infoCmd = &cobra.Command{
	Use:     "info <url>",
	Aliases: []string{"extract"},
	Short:   "Show video or playlist metadata",
	Args:    cobra.ExactArgs(1),
	RunE:    runInfoCmd,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfoCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	info, err := client.Extract(args[0])
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		printJSON(out, info)
		return nil
	}

	if info.Playlist != nil {
		printPlaylist(out, info.Playlist)
	} else if info.Video != nil {
		printVideo(out, info.Video)
	}
	return nil
}

func printVideo(w io.Writer, v *VideoInfo) {
	fmt.Fprintf(w, "%s\n\n", v.Title)
	fmt.Fprintf(w, "  %-10s %s\n", "ID:", v.ID)
	fmt.Fprintf(w, "  %-10s %s\n", "Uploader:", v.Uploader)
	fmt.Fprintf(w, "  %-10s %s\n", "Duration:", formatDuration(v.Duration))
	fmt.Fprintf(w, "  %-10s %s\n", "Views:", formatCount(v.ViewCount))
	fmt.Fprintf(w, "  %-10s %s\n", "Likes:", formatCount(v.LikeCount))
	if v.WebpageURL != "" {
		fmt.Fprintf(w, "  %-10s %s\n", "URL:", v.WebpageURL)
	}
}

func printPlaylist(w io.Writer, p *PlaylistInfo) {
	fmt.Fprintf(w, "%s (%d entries)\n", p.Title, len(p.Entries))
	fmt.Fprintf(w, "  by %s\n\n", p.Uploader)
	for i := range p.Entries {
		e := &p.Entries[i]
		fmt.Fprintf(w, "  %3d. %-60s %8s\n", i+1, truncate(e.Title, 60), formatDuration(e.Duration))
	}
}
