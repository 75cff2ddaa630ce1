package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/vmunix/nzzel/internal/download"
	"github.com/vmunix/nzzel/internal/events"
	"github.com/vmunix/nzzel/internal/ytdlp"
)

//go:generate mockgen -destination=mocks/extractor.go -package=mocks . Extractor

// ErrMissingDependency is returned when a required dependency is nil.
var ErrMissingDependency = errors.New("missing required dependency")

// Extractor queries yt-dlp for metadata and reports on the tool itself.
// *ytdlp.Orchestrator implements it.
type Extractor interface {
	Available(ctx context.Context) bool
	Version(ctx context.Context) (string, error)
	VideoInfo(ctx context.Context, url string) (*ytdlp.VideoInfo, error)
	PlaylistInfo(ctx context.Context, url string) (*ytdlp.PlaylistInfo, error)
	Formats(ctx context.Context, url string) ([]ytdlp.VideoFormat, error)
	Active() []string
}

// DownloadManager starts and manages persisted downloads.
// *download.Manager implements it.
type DownloadManager interface {
	Start(ctx context.Context, req download.Request) (*download.Download, error)
	Retry(ctx context.Context, id int64) (*download.Download, error)
	Cancel(id int64) (bool, error)
	Remove(id int64) error
	Get(id int64) (*download.Download, error)
	List(f download.Filter) ([]*download.Download, int, error)
	Counts() (map[download.Status]int, error)
}

// ServerDeps contains all dependencies for the API server.
// Required dependencies must be non-nil; optional dependencies may be nil.
type ServerDeps struct {
	// Required dependencies
	Extractor Extractor
	Downloads DownloadManager

	// Optional dependencies (nil if not configured)
	EventLog *events.EventLog // event audit log
	Realtime http.Handler     // websocket endpoint
}

// Validate checks that all required dependencies are provided.
func (d ServerDeps) Validate() error {
	if d.Extractor == nil {
		return errors.New("extractor is required")
	}
	if d.Downloads == nil {
		return errors.New("download manager is required")
	}
	return nil
}
