package events

// DownloadProgressed is emitted for every parsed progress line.
type DownloadProgressed struct {
	BaseEvent
	Percentage float64 `json:"percentage"` // 0.0 - 100.0
	Speed      float64 `json:"speed_bps"`  // bytes per second
	ETA        int     `json:"eta_seconds"`
	Filename   string  `json:"filename,omitempty"`
}

// DownloadCompleted is emitted when the tool exits successfully.
type DownloadCompleted struct {
	BaseEvent
	Filename string `json:"filename"` // may be empty if the tool never reported one
}

// DownloadCancelled is emitted once when a job is cancelled.
type DownloadCancelled struct {
	BaseEvent
	Filename string `json:"filename,omitempty"`
}

// DownloadFailed is emitted when the tool exits nonzero without a
// pending cancellation.
type DownloadFailed struct {
	BaseEvent
	Message  string `json:"message"`
	ExitCode int    `json:"exit_code"`
}

// NewProgressed builds a progress event for jobID.
func NewProgressed(jobID string, pct, speed float64, eta int, filename string) *DownloadProgressed {
	return &DownloadProgressed{
		BaseEvent:  NewBaseEvent(KindProgress, jobID),
		Percentage: pct,
		Speed:      speed,
		ETA:        eta,
		Filename:   filename,
	}
}

// NewCompleted builds a completion event for jobID.
func NewCompleted(jobID, filename string) *DownloadCompleted {
	return &DownloadCompleted{
		BaseEvent: NewBaseEvent(KindCompleted, jobID),
		Filename:  filename,
	}
}

// NewCancelled builds a cancellation event for jobID.
func NewCancelled(jobID, filename string) *DownloadCancelled {
	return &DownloadCancelled{
		BaseEvent: NewBaseEvent(KindCancelled, jobID),
		Filename:  filename,
	}
}

// NewFailed builds a failure event for jobID.
func NewFailed(jobID, message string, exitCode int) *DownloadFailed {
	return &DownloadFailed{
		BaseEvent: NewBaseEvent(KindError, jobID),
		Message:   message,
		ExitCode:  exitCode,
	}
}
