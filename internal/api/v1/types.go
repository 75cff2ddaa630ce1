package v1

import (
	"time"

	"github.com/vmunix/nzzel/internal/download"
	"github.com/vmunix/nzzel/internal/ytdlp"
)

// urlRequest is the body of POST /extract and POST /formats.
type urlRequest struct {
	URL string `json:"url"`
}

// extractResponse is the response for POST /extract. Data holds a
// ytdlp.VideoInfo or a ytdlp.PlaylistInfo depending on Type.
type extractResponse struct {
	Type string `json:"type"` // video or playlist
	Data any    `json:"data"`
}

// formatsResponse is the response for POST /formats.
type formatsResponse struct {
	Formats []ytdlp.UsefulFormat `json:"formats"`
}

// startDownloadRequest is the body of POST /downloads.
type startDownloadRequest struct {
	URL          string  `json:"url"`
	VideoID      string  `json:"video_id"`
	Title        string  `json:"title"`
	Format       string  `json:"format,omitempty"`
	Quality      string  `json:"quality,omitempty"`
	AudioOnly    bool    `json:"audio_only"`
	OutputPath   string  `json:"output_path,omitempty"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty"`
	Duration     *int64  `json:"duration,omitempty"`
}

// startDownloadResponse is the response for POST /downloads.
type startDownloadResponse struct {
	DownloadID int64  `json:"download_id"`
	JobID      string `json:"job_id"`
	Message    string `json:"message"`
}

// downloadResponse is the API representation of a download.
type downloadResponse struct {
	ID               int64      `json:"id"`
	JobID            string     `json:"job_id"`
	VideoID          string     `json:"video_id"`
	Title            string     `json:"title"`
	URL              string     `json:"url"`
	Quality          string     `json:"quality"`
	Format           string     `json:"format"`
	AudioOnly        bool       `json:"audio_only"`
	Filename         string     `json:"filename"`
	FilePath         string     `json:"file_path"`
	FileSize         *int64     `json:"file_size,omitempty"`
	Duration         *int64     `json:"duration,omitempty"`
	ThumbnailURL     *string    `json:"thumbnail_url,omitempty"`
	Status           string     `json:"status"`
	Progress         float64    `json:"progress"`
	Speed            *float64   `json:"download_speed,omitempty"`
	ETA              *int64     `json:"eta,omitempty"`
	ErrorMessage     *string    `json:"error_message,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	LastTransitionAt time.Time  `json:"last_transition_at"`
}

func downloadToResponse(d *download.Download) downloadResponse {
	return downloadResponse{
		ID:               d.ID,
		JobID:            d.JobID,
		VideoID:          d.VideoID,
		Title:            d.Title,
		URL:              d.URL,
		Quality:          d.Quality,
		Format:           d.Format,
		AudioOnly:        d.AudioOnly,
		Filename:         d.Filename,
		FilePath:         d.FilePath,
		FileSize:         d.FileSize,
		Duration:         d.Duration,
		ThumbnailURL:     d.ThumbnailURL,
		Status:           string(d.Status),
		Progress:         d.Progress,
		Speed:            d.Speed,
		ETA:              d.ETA,
		ErrorMessage:     d.ErrorMessage,
		CreatedAt:        d.CreatedAt,
		CompletedAt:      d.CompletedAt,
		LastTransitionAt: d.LastTransitionAt,
	}
}

// listDownloadsResponse is the response for GET /downloads.
type listDownloadsResponse struct {
	Items  []downloadResponse `json:"items"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// cancelResponse is the response for DELETE /downloads/{id}.
type cancelResponse struct {
	ID        int64  `json:"id"`
	Status    string `json:"status"`
	JobActive bool   `json:"job_active"`
}

// statusResponse is the response for GET /status.
type statusResponse struct {
	Status     string         `json:"status"`
	YtDlp      toolStatus     `json:"ytdlp"`
	ActiveJobs []string       `json:"active_jobs"`
	Downloads  map[string]int `json:"downloads"`
}

type toolStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
}

// EventResponse is one audit log entry.
type EventResponse struct {
	ID         int64          `json:"id"`
	EventType  string         `json:"event_type"`
	JobID      string         `json:"job_id"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt string         `json:"occurred_at"`
}

// listEventsResponse is the response for GET /events.
type listEventsResponse struct {
	Items  []EventResponse `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}
