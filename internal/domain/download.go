package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// DownloadStatus represents the current status of a download
type DownloadStatus string

const (
	StatusProcessing DownloadStatus = "processing"
	StatusCompleted  DownloadStatus = "completed"
	StatusFailed     DownloadStatus = "failed"
	StatusCancelled  DownloadStatus = "cancelled"
)

// Download represents one in-flight download request
type Download struct {
	ID              string         `json:"id"`
	URL             string         `json:"url"`
	ClientID        string         `json:"client_id,omitempty"`
	Platform        Platform       `json:"platform"`
	Status          DownloadStatus `json:"status"`
	FilePath        string         `json:"file_path,omitempty"`
	DownloadedBytes int64          `json:"downloaded_bytes"`
	TotalBytes      int64          `json:"total_bytes"`
	ErrorMessage    string         `json:"error_message,omitempty"`
	StartedAt       time.Time      `json:"started_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
}

// NewDownload creates a new download record in processing state
func NewDownload(url, clientID string, platform Platform) *Download {
	return &Download{
		ID:         uuid.New().String(),
		URL:        url,
		ClientID:   clientID,
		Platform:   platform,
		Status:     StatusProcessing,
		TotalBytes: UnknownSize,
		StartedAt:  time.Now(),
	}
}

// ShortID returns the first eight hex characters of the download id
func (d *Download) ShortID() string {
	if len(d.ID) < 8 {
		return d.ID
	}
	return d.ID[:8]
}

// MarkCompleted marks the download as completed
func (d *Download) MarkCompleted(filePath string) {
	d.Status = StatusCompleted
	d.FilePath = filePath
	now := time.Now()
	d.CompletedAt = &now
}

// MarkFailed marks the download as failed
func (d *Download) MarkFailed(err error) {
	d.Status = StatusFailed
	d.ErrorMessage = err.Error()
	now := time.Now()
	d.CompletedAt = &now
}

// MarkCancelled marks the download as cancelled
func (d *Download) MarkCancelled() {
	d.Status = StatusCancelled
	now := time.Now()
	d.CompletedAt = &now
}

// IsTerminal checks if the download is in a terminal state
func (d *Download) IsTerminal() bool {
	return d.Status == StatusCompleted || d.Status == StatusFailed || d.Status == StatusCancelled
}

// Duration returns how long the download ran, or has been running
func (d *Download) Duration() time.Duration {
	if d.CompletedAt != nil {
		return d.CompletedAt.Sub(d.StartedAt)
	}
	return time.Since(d.StartedAt)
}

var titleDisallowed = regexp.MustCompile(`[^a-zA-Z0-9 ]`)

// SanitizeTitle removes every character outside A-Z, a-z, 0-9 and space
func SanitizeTitle(title string) string {
	return titleDisallowed.ReplaceAllString(title, "")
}

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidClientID reports whether id is usable as a progress channel key
func ValidClientID(id string) bool {
	return clientIDPattern.MatchString(id)
}
