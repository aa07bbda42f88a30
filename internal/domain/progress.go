package domain

// UnknownSize marks a total that the upstream did not report
const UnknownSize int64 = -1

// ProgressSample is a snapshot of one transfer
type ProgressSample struct {
	Downloaded int64
	Total      int64 // UnknownSize when not reported
}

// Known reports whether the total size is known
func (s ProgressSample) Known() bool {
	return s.Total > 0
}

// Percent returns the completion percentage clamped to [0, 100]. The second
// result is false when the total is unknown.
func (s ProgressSample) Percent() (float64, bool) {
	if !s.Known() {
		return 0, false
	}
	p := float64(s.Downloaded) / float64(s.Total) * 100
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return p, true
}

// ProgressEvent is the frame pushed to subscribers of a client channel
type ProgressEvent struct {
	Event           string   `json:"event"`
	DownloadID      string   `json:"downloadId,omitempty"`
	Progress        *float64 `json:"progress"`
	Indeterminate   bool     `json:"indeterminate"`
	DownloadedBytes int64    `json:"downloadedBytes"`
	TotalBytes      int64    `json:"totalBytes"`
}

// EventProgress names progress frames
const EventProgress = "progress"

// NewProgressEvent builds a frame from a sample. Unknown totals produce an
// indeterminate frame with a null progress value.
func NewProgressEvent(downloadID string, s ProgressSample) ProgressEvent {
	ev := ProgressEvent{
		Event:           EventProgress,
		DownloadID:      downloadID,
		DownloadedBytes: s.Downloaded,
		TotalBytes:      s.Total,
	}
	if p, ok := s.Percent(); ok {
		ev.Progress = &p
	} else {
		ev.Indeterminate = true
	}
	return ev
}

// ProgressPublisher delivers progress events to a client channel. Delivery is
// best-effort; publishing to an unknown client is a no-op.
type ProgressPublisher interface {
	Publish(clientID string, event ProgressEvent) bool
}
