// Package progress extracts structured progress information from the
// line-oriented text yt-dlp writes while downloading.
//
// yt-dlp has no machine-readable progress protocol and its output varies by
// version and locale, so ParseLine tries several patterns in a fixed order
// and takes the first match. Lines that match nothing are ignored.
package progress

import (
	"regexp"
	"strconv"
	"strings"
)

// Event is one parsed progress sample.
type Event struct {
	Percentage float64 // 0-100
	Rate       float64 // bytes per second, 0 if unknown
	ETA        int     // seconds remaining, 0 means unknown
	Filename   string  // last known output filename, may be empty
}

// Result is the outcome of parsing a single line. At most one of Event and
// Filename is set; both are empty for lines that carry no progress.
type Result struct {
	Event    *Event
	Filename string
}

// Empty reports whether the line produced nothing.
func (r Result) Empty() bool {
	return r.Event == nil && r.Filename == ""
}

// Progress patterns in priority order. Each captures percent, rate and an
// optional ETA.
var progressPatterns = []*regexp.Regexp{
	// [download]  45.2% of 120.5MiB at 2.1MiB/s ETA 00:34
	regexp.MustCompile(`\[download\]\s+(\d+(?:\.\d+)?)%\s+of\s+~?\s*[\d.]+\s*[A-Za-z]+\s+at\s+([\d.]+\s*[A-Za-z/]+)\s+ETA\s+([\d:]+)`),
	// download:[download]  45.2% of 120.5MiB at 2.1MiB/s ETA 00:34
	regexp.MustCompile(`\w+:\[download\]\s+(\d+(?:\.\d+)?)%\s+of\s+~?\s*[\d.]+\s*[A-Za-z]+\s+at\s+([\d.]+\s*[A-Za-z/]+)\s+ETA\s+([\d:]+)`),
	// 45.2% ... at 2.1MiB/s [ETA 00:34]
	regexp.MustCompile(`(\d+(?:\.\d+)?)%.*?\bat\s+([\d.]+\s*[A-Za-z/]+)(?:\s+ETA\s+([\d:]+))?`),
	// 45.2% ... ~ 2.1MiB/s [ETA 00:34]
	regexp.MustCompile(`(\d+(?:\.\d+)?)%.*?~\s*([\d.]+\s*[A-Za-z/]+)(?:\s+ETA\s+([\d:]+))?`),
	// 45.2% ... 2.1MiB/s [ETA 00:34]
	regexp.MustCompile(`(\d+(?:\.\d+)?)%.*?(\d[\d.]*\s*[A-Za-z/]+s)(?:\s+ETA\s+([\d:]+))?`),
}

// Filename patterns, checked before progress patterns.
var filenamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[Merger\]\s+Merging formats into\s+"([^"]+)"`),
	regexp.MustCompile(`\[\w+\]\s+Destination:\s+(.+?)\s*$`),
	regexp.MustCompile(`\[download\]\s+(.+?)\s+has already been downloaded`),
	regexp.MustCompile(`Merging formats into\s+"([^"]+)"`),
}

// ParseLine parses one line of yt-dlp output. sticky is the last filename
// seen for the job; it is copied into any progress event produced.
func ParseLine(line, sticky string) Result {
	line = strings.TrimSpace(line)
	if line == "" {
		return Result{}
	}

	if name := parseFilename(line); name != "" {
		return Result{Filename: name}
	}

	if !strings.Contains(line, "%") {
		return Result{}
	}

	for _, re := range progressPatterns {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		pct, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return Result{Event: &Event{
			Percentage: clampPercent(pct),
			Rate:       ParseRate(m[2]),
			ETA:        ParseETA(m[3]),
			Filename:   sticky,
		}}
	}
	return Result{}
}

func parseFilename(line string) string {
	for _, re := range filenamePatterns {
		if m := re.FindStringSubmatch(line); m != nil {
			return strings.Trim(m[1], `"' `)
		}
	}
	return ""
}

func clampPercent(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
