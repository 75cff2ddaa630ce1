package ytdlp

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	defaultMergeFormat = "mkv"
	defaultAudioFormat = "mp3"
	outputTemplate     = "%(title)s.%(ext)s"
)

// downloadArgs builds the yt-dlp argument list for a download. The URL is
// always last.
func downloadArgs(url, outputDir string, opts Options, mergeFormat, audioFormat string) []string {
	args := []string{
		"--newline",
		"--no-colors",
		"--output", filepath.Join(outputDir, outputTemplate),
	}

	switch {
	case opts.AudioOnly:
		args = append(args, "-f", "bestaudio/best", "--extract-audio", "--audio-format", audioFormat)
	case opts.Format != "":
		args = append(args, "-f", opts.Format)
	case opts.Quality != "":
		args = append(args, "-f", qualitySelector(opts.Quality))
	default:
		args = append(args, "-f", "bestvideo+bestaudio/best")
	}

	if !opts.AudioOnly {
		args = append(args, "--merge-output-format", mergeFormat)
	}

	return append(args, url)
}

// qualitySelector maps a quality hint to a format selector. Unrecognised
// hints fall back to the best available streams.
func qualitySelector(quality string) string {
	switch quality {
	case "best":
		return "bestvideo+bestaudio/best"
	case "worst":
		return "worstvideo+worstaudio/worst"
	}
	if h, err := strconv.Atoi(quality); err == nil && h > 0 {
		return fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", h, h)
	}
	return "bestvideo+bestaudio/best"
}

// DefaultOutputDir returns the user's download folder.
func DefaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "Downloads"
	}
	return filepath.Join(home, "Downloads")
}
