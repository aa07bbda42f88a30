package infrastructure

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/yourusername/clipfetch/internal/domain"
)

// MediaFetcher opens direct media URLs as streams
type MediaFetcher struct {
	client    *http.Client
	userAgent string
}

// NewMediaFetcher creates a new media fetcher. The client must not set a
// total timeout; cancellation comes from the request context.
func NewMediaFetcher(client *http.Client, userAgent string) *MediaFetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &MediaFetcher{
		client:    client,
		userAgent: userAgent,
	}
}

// Client returns the underlying HTTP client
func (f *MediaFetcher) Client() *http.Client {
	return f.client
}

// Get performs a GET with the configured user agent and returns the
// response for any status
func (f *MediaFetcher) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

// Open streams the body of url. The returned size is domain.UnknownSize
// when the server does not send a content length.
func (f *MediaFetcher) Open(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, int64, error) {
	resp, err := f.Get(ctx, url, headers)
	if err != nil {
		return nil, 0, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		return nil, 0, fmt.Errorf("unexpected status fetching media: %s", resp.Status)
	}

	size := resp.ContentLength
	if size <= 0 {
		size = domain.UnknownSize
	}

	return resp.Body, size, nil
}
