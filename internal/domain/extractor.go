package domain

import (
	"context"
	"io"
)

// MediaSource is an open, sequential media stream ready to be written
type MediaSource struct {
	Title      string        // Upstream title, may be empty
	Stream     io.ReadCloser // Owned by the caller once returned
	TotalBytes int64         // UnknownSize when not reported
}

// Extractor defines the interface for platform-specific media extraction
type Extractor interface {
	// Platform returns the platform this extractor handles
	Platform() Platform

	// Locate resolves the URL and opens its media stream
	Locate(ctx context.Context, url string) (*MediaSource, error)
}
