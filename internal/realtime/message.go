// Package realtime pushes job events to browsers over websockets.
package realtime

import (
	"encoding/json"

	"github.com/vmunix/nzzel/internal/events"
)

// Message types sent to and accepted from clients.
const (
	TypeProgress  = "download-progress"
	TypeCompleted = "download-completed"
	TypeCancelled = "download-cancelled"
	TypeError     = "download-error"

	TypeCancelDownload = "cancel-download"
)

// Message is the envelope for every websocket frame.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ProgressData is the payload of download-progress.
type ProgressData struct {
	JobID      string  `json:"jobId"`
	Percentage float64 `json:"percentage"`
	Speed      float64 `json:"speed"`
	ETA        int     `json:"eta"`
	Filename   string  `json:"filename,omitempty"`
}

// CompletedData is the payload of download-completed.
type CompletedData struct {
	JobID    string `json:"jobId"`
	Filename string `json:"filename"`
}

// CancelledData is the payload of download-cancelled. Success is set only
// on replies to cancel-download.
type CancelledData struct {
	JobID    string `json:"jobId"`
	Filename string `json:"filename,omitempty"`
	Success  *bool  `json:"success,omitempty"`
}

// ErrorData is the payload of download-error.
type ErrorData struct {
	JobID    string `json:"jobId"`
	Message  string `json:"message"`
	ExitCode int    `json:"exitCode"`
}

// encode builds a frame. It only fails on unmarshalable data, which none of
// the payload types are.
func encode(typ string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: typ, Data: raw})
}

// fromEvent maps a bus event to its frame type and payload.
func fromEvent(e events.Event) (string, any, bool) {
	switch ev := e.(type) {
	case *events.DownloadProgressed:
		return TypeProgress, ProgressData{
			JobID:      ev.JobID(),
			Percentage: ev.Percentage,
			Speed:      ev.Speed,
			ETA:        ev.ETA,
			Filename:   ev.Filename,
		}, true
	case *events.DownloadCompleted:
		return TypeCompleted, CompletedData{JobID: ev.JobID(), Filename: ev.Filename}, true
	case *events.DownloadCancelled:
		return TypeCancelled, CancelledData{JobID: ev.JobID(), Filename: ev.Filename}, true
	case *events.DownloadFailed:
		return TypeError, ErrorData{JobID: ev.JobID(), Message: ev.Message, ExitCode: ev.ExitCode}, true
	}
	return "", nil, false
}
