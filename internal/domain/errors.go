package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedPlatform is returned for URLs no extractor handles
	ErrUnsupportedPlatform = errors.New("unsupported URL")

	// ErrDownloadCancelled is returned when a download is cancelled via the API
	ErrDownloadCancelled = errors.New("download cancelled")

	// ErrDownloadNotFound is returned for unknown download ids
	ErrDownloadNotFound = errors.New("download not found")

	// ErrNoMedia is returned when an extractor finds no downloadable stream
	ErrNoMedia = errors.New("no media found")
)

// ExtractionError represents a failure to locate the media stream for a URL.
// Metadata lookups, scraping and upstream HTTP errors all end up here.
type ExtractionError struct {
	Platform Platform // Platform whose extractor failed
	Err      error    // Underlying error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s extraction failed: %v", e.Platform, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Transfer operations
const (
	OpCreate = "create"
	OpRead   = "read"
	OpWrite  = "write"
	OpSync   = "sync"
	OpClose  = "close"
)

// TransferError represents a failure while piping the stream into the
// output file.
type TransferError struct {
	Op   string // One of the Op* constants
	Path string // Output file path
	Err  error  // Underlying error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// IsDiskFailure reports whether the error came from the local file rather
// than the upstream stream.
func (e *TransferError) IsDiskFailure() bool {
	return e.Op != OpRead
}
