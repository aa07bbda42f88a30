package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/kkdai/youtube/v2"
	"go.uber.org/zap"

	"github.com/yourusername/clipfetch/internal/domain"
)

// YouTubeExtractor locates YouTube streams through the innertube client
type YouTubeExtractor struct {
	client *youtube.Client
	logger *zap.Logger
}

// NewYouTubeExtractor creates a new YouTube extractor
func NewYouTubeExtractor(httpClient *http.Client, logger *zap.Logger) *YouTubeExtractor {
	return &YouTubeExtractor{
		client: &youtube.Client{HTTPClient: httpClient},
		logger: logger,
	}
}

// Platform returns the platform this extractor handles
func (e *YouTubeExtractor) Platform() domain.Platform {
	return domain.PlatformYouTube
}

// Locate fetches video metadata and opens the highest quality progressive
// (audio and video) stream
func (e *YouTubeExtractor) Locate(ctx context.Context, url string) (*domain.MediaSource, error) {
	video, err := e.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, e.wrap(fmt.Errorf("failed to fetch video metadata: %w", describeYouTubeError(err)))
	}

	format := selectProgressiveFormat(video.Formats)
	if format == nil {
		return nil, e.wrap(fmt.Errorf("no progressive format for %s: %w", video.ID, domain.ErrNoMedia))
	}

	e.logger.Debug("Selected YouTube format",
		zap.String("video_id", video.ID),
		zap.Int("itag", format.ItagNo),
		zap.String("quality", format.QualityLabel),
		zap.String("mime_type", format.MimeType))

	stream, size, err := e.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, e.wrap(fmt.Errorf("failed to open stream: %w", err))
	}

	if size <= 0 {
		size = domain.UnknownSize
	}

	return &domain.MediaSource{
		Title:      video.Title,
		Stream:     stream,
		TotalBytes: size,
	}, nil
}

func (e *YouTubeExtractor) wrap(err error) error {
	return &domain.ExtractionError{Platform: domain.PlatformYouTube, Err: err}
}

// selectProgressiveFormat picks the format with both audio and video and the
// largest height, breaking ties by bitrate
func selectProgressiveFormat(formats youtube.FormatList) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if f.AudioChannels == 0 || f.Height == 0 {
			continue
		}
		if best == nil ||
			f.Height > best.Height ||
			(f.Height == best.Height && f.Bitrate > best.Bitrate) {
			best = f
		}
	}
	return best
}

// describeYouTubeError adds a readable reason to the client's sentinel errors
func describeYouTubeError(err error) error {
	switch {
	case errors.Is(err, youtube.ErrVideoPrivate):
		return fmt.Errorf("video is private: %w", err)
	case errors.Is(err, youtube.ErrLoginRequired):
		return fmt.Errorf("video requires sign-in: %w", err)
	case errors.Is(err, youtube.ErrNotPlayableInEmbed):
		return fmt.Errorf("video is not playable: %w", err)
	}
	return err
}
