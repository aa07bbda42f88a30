package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/clipfetch/internal/domain"
)

const (
	tikwmAPIURL    = "https://www.tikwm.com/api/"
	tikwmMediaBase = "https://tikwm.com"
)

// TikTokExtractor resolves TikTok videos through the tikwm API
type TikTokExtractor struct {
	fetcher   *MediaFetcher
	apiURL    string
	mediaBase string
	logger    *zap.Logger
}

// NewTikTokExtractor creates a new TikTok extractor. Empty apiURL and
// mediaBase select the public tikwm endpoints.
func NewTikTokExtractor(fetcher *MediaFetcher, apiURL, mediaBase string, logger *zap.Logger) *TikTokExtractor {
	if apiURL == "" {
		apiURL = tikwmAPIURL
	}
	if mediaBase == "" {
		mediaBase = tikwmMediaBase
	}
	return &TikTokExtractor{
		fetcher:   fetcher,
		apiURL:    apiURL,
		mediaBase: strings.TrimSuffix(mediaBase, "/"),
		logger:    logger,
	}
}

// Platform returns the platform this extractor handles
func (e *TikTokExtractor) Platform() domain.Platform {
	return domain.PlatformTikTok
}

type tikwmResponse struct {
	Code int       `json:"code"`
	Msg  string    `json:"msg"`
	Data tikwmData `json:"data"`
}

type tikwmData struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Play     string `json:"play"`
	Size     int64  `json:"size"`
	Duration int    `json:"duration"`
}

// Locate fetches video metadata and opens the video stream
func (e *TikTokExtractor) Locate(ctx context.Context, url string) (*domain.MediaSource, error) {
	meta, err := e.fetchMeta(ctx, url)
	if err != nil {
		return nil, e.wrap(err)
	}

	videoURL := meta.Play
	if videoURL == "" {
		return nil, e.wrap(fmt.Errorf("video URL missing from metadata: %w", domain.ErrNoMedia))
	}
	if !strings.HasPrefix(videoURL, "http") {
		videoURL = e.mediaBase + "/" + strings.TrimPrefix(videoURL, "/")
	}

	e.logger.Debug("Resolved TikTok video",
		zap.String("video_id", meta.ID),
		zap.Int("duration", meta.Duration))

	stream, size, err := e.fetcher.Open(ctx, videoURL, nil)
	if err != nil {
		return nil, e.wrap(fmt.Errorf("failed to fetch media: %w", err))
	}

	if size == domain.UnknownSize && meta.Size > 0 {
		size = meta.Size
	}

	return &domain.MediaSource{
		Title:      meta.Title,
		Stream:     stream,
		TotalBytes: size,
	}, nil
}

func (e *TikTokExtractor) fetchMeta(ctx context.Context, tiktokURL string) (*tikwmData, error) {
	payload, err := json.Marshal(map[string]string{"url": tiktokURL})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.fetcher.Client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("metadata request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata API returned status %d", resp.StatusCode)
	}

	var result tikwmResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}

	if result.Code != 0 {
		return nil, fmt.Errorf("metadata API error %d: %s", result.Code, result.Msg)
	}

	return &result.Data, nil
}

func (e *TikTokExtractor) wrap(err error) error {
	return &domain.ExtractionError{Platform: domain.PlatformTikTok, Err: err}
}
