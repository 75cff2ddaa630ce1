package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// VideoFormat is one entry of yt-dlp's format list.
type VideoFormat struct {
	FormatID       string   `json:"format_id"`
	Format         string   `json:"format"`
	Ext            string   `json:"ext"`
	Resolution     string   `json:"resolution"`
	FPS            *float64 `json:"fps"`
	VCodec         string   `json:"vcodec"`
	ACodec         string   `json:"acodec"`
	Filesize       *int64   `json:"filesize"`
	FilesizeApprox *int64   `json:"filesize_approx"`
	FormatNote     *string  `json:"format_note"`
	Quality        float64  `json:"quality"`
	Width          *int     `json:"width"`
	Height         *int     `json:"height"`
	TBR            *float64 `json:"tbr"`
	ABR            *float64 `json:"abr"`
	VBR            *float64 `json:"vbr"`
}

// Thumbnail is one thumbnail variant.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	ID     string `json:"id,omitempty"`
}

// VideoInfo is the subset of yt-dlp's --dump-json output nzzel uses.
type VideoInfo struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Uploader         string        `json:"uploader"`
	Duration         float64       `json:"duration"`
	ViewCount        int64         `json:"view_count"`
	LikeCount        int64         `json:"like_count"`
	Thumbnail        string        `json:"thumbnail"`
	Thumbnails       []Thumbnail   `json:"thumbnails,omitempty"`
	WebpageURL       string        `json:"webpage_url"`
	URL              string        `json:"url,omitempty"` // flat playlist entries only
	Formats          []VideoFormat `json:"formats"`
	RequestedFormats []VideoFormat `json:"requested_formats,omitempty"`
	PlaylistID       string        `json:"playlist_id,omitempty"`
	PlaylistTitle    string        `json:"playlist_title,omitempty"`
}

// PlaylistInfo describes a flat playlist listing.
type PlaylistInfo struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Uploader    string      `json:"uploader"`
	Description string      `json:"description"`
	WebpageURL  string      `json:"webpage_url"`
	Entries     []VideoInfo `json:"entries"`
}

// IsPlaylistURL reports whether url looks like a playlist.
func IsPlaylistURL(url string) bool {
	return strings.Contains(url, "playlist") || strings.Contains(url, "list=")
}

// Available reports whether yt-dlp can be invoked.
func (o *Orchestrator) Available(ctx context.Context) bool {
	_, err := o.run(ctx, "--version")
	if err != nil {
		o.log.Debug("yt-dlp probe failed", "path", o.cfg.Path, "error", err)
		return false
	}
	return true
}

// Version returns yt-dlp's version string.
func (o *Orchestrator) Version(ctx context.Context) (string, error) {
	out, err := o.run(ctx, "--version")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// VideoInfo fetches metadata for a single video without downloading it.
func (o *Orchestrator) VideoInfo(ctx context.Context, url string) (*VideoInfo, error) {
	out, err := o.run(ctx, "--dump-json", "--no-warnings", "--no-check-certificate", url)
	if err != nil {
		return nil, err
	}

	var info VideoInfo
	if err := json.Unmarshal(bytes.TrimSpace(out), &info); err != nil {
		return nil, fmt.Errorf("parse video info: %w", err)
	}
	return &info, nil
}

// PlaylistInfo lists a playlist's entries without resolving each video.
// Playlist metadata is taken from the first entry.
func (o *Orchestrator) PlaylistInfo(ctx context.Context, url string) (*PlaylistInfo, error) {
	out, err := o.run(ctx, "--dump-json", "--flat-playlist", "--no-warnings", "--no-check-certificate", url)
	if err != nil {
		return nil, err
	}

	p := &PlaylistInfo{
		ID:         "unknown",
		Title:      "Unknown Playlist",
		Uploader:   "Unknown",
		WebpageURL: url,
		Entries:    []VideoInfo{},
	}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry VideoInfo
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("parse playlist info: %w", err)
		}
		p.Entries = append(p.Entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read playlist info: %w", err)
	}

	if len(p.Entries) > 0 {
		first := p.Entries[0]
		if first.PlaylistID != "" {
			p.ID = first.PlaylistID
		}
		if first.PlaylistTitle != "" {
			p.Title = first.PlaylistTitle
		}
		if first.Uploader != "" {
			p.Uploader = first.Uploader
		}
	}
	return p, nil
}

// Formats returns every format yt-dlp reports for url.
func (o *Orchestrator) Formats(ctx context.Context, url string) ([]VideoFormat, error) {
	info, err := o.VideoInfo(ctx, url)
	if err != nil {
		return nil, err
	}
	return info.Formats, nil
}

// run executes a one-shot yt-dlp query and returns its stdout.
func (o *Orchestrator) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, o.cfg.Path, args...)
	cmd.Env = o.cfg.Env
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err == nil {
		return out, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil, &RuntimeError{
			ExitCode: exitErr.ExitCode(),
			Message:  strings.TrimSpace(stderr.String()),
		}
	}
	return nil, fmt.Errorf("%w: %w", ErrSpawn, err)
}
