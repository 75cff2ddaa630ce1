package ytdlp

import (
	"errors"
	"fmt"
)

// Sentinel errors for the ytdlp package.
var (
	// ErrSpawn is returned when the yt-dlp executable could not be launched.
	ErrSpawn = errors.New("spawn yt-dlp")

	// ErrCancelled rejects a job that was terminated on request.
	ErrCancelled = errors.New("download cancelled")

	// ErrDuplicateJob is returned when a job id is already live.
	ErrDuplicateJob = errors.New("job already running")

	// ErrUnavailable is returned when yt-dlp cannot be invoked at all.
	ErrUnavailable = errors.New("yt-dlp is not available")
)

// RuntimeError rejects a job whose process exited nonzero without a
// pending cancellation.
type RuntimeError struct {
	ExitCode int
	Message  string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("yt-dlp exited with code %d: %s", e.ExitCode, e.Message)
}
