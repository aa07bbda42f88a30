package infrastructure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/yourusername/clipfetch/internal/domain"
)

var (
	videoURLField  = regexp.MustCompile(`"video_url"\s*:\s*"([^"]+)"`)
	cdnVideoURL    = regexp.MustCompile(`https:(?:\\?/){2}[^"'\s]+(?:cdninstagram\.com|fbcdn\.net)[^"'\s]*\.mp4[^"'\s]*`)
	jsonURLEscapes = strings.NewReplacer(`\/`, `/`, `\u0026`, `&`, `\u003d`, `=`, `&amp;`, `&`)
)

// InstagramExtractor locates Instagram post videos by scraping the post page
type InstagramExtractor struct {
	fetcher *MediaFetcher
	logger  *zap.Logger
}

// NewInstagramExtractor creates a new Instagram extractor
func NewInstagramExtractor(fetcher *MediaFetcher, logger *zap.Logger) *InstagramExtractor {
	return &InstagramExtractor{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Platform returns the platform this extractor handles
func (e *InstagramExtractor) Platform() domain.Platform {
	return domain.PlatformInstagram
}

// Locate scrapes the post page for direct media URLs and opens the first one
func (e *InstagramExtractor) Locate(ctx context.Context, url string) (*domain.MediaSource, error) {
	urls, title, err := e.MediaURLs(ctx, url)
	if err != nil {
		return nil, e.wrap(err)
	}

	e.logger.Debug("Found Instagram media",
		zap.String("url", url),
		zap.Int("candidates", len(urls)))

	stream, size, err := e.fetcher.Open(ctx, urls[0], map[string]string{"Referer": "https://www.instagram.com/"})
	if err != nil {
		return nil, e.wrap(fmt.Errorf("failed to fetch media: %w", err))
	}

	return &domain.MediaSource{
		Title:      title,
		Stream:     stream,
		TotalBytes: size,
	}, nil
}

// MediaURLs returns the direct media URLs found on the post page, in page
// order and without duplicates
func (e *InstagramExtractor) MediaURLs(ctx context.Context, url string) ([]string, string, error) {
	resp, err := e.fetcher.Get(ctx, url, map[string]string{"Accept": "text/html"})
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch post page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, "", fmt.Errorf("post page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse post page: %w", err)
	}

	urls := collectInstagramMedia(doc)
	if len(urls) == 0 {
		return nil, "", domain.ErrNoMedia
	}

	title, _ := doc.Find(`meta[property="og:title"]`).Attr("content")

	return urls, title, nil
}

// collectInstagramMedia reads og:video meta tags first, then falls back to
// video URLs embedded in inline scripts
func collectInstagramMedia(doc *goquery.Document) []string {
	seen := make(map[string]bool)
	var urls []string
	add := func(u string) {
		u = jsonURLEscapes.Replace(strings.TrimSpace(u))
		if u == "" || seen[u] || !strings.HasPrefix(u, "http") {
			return
		}
		seen[u] = true
		urls = append(urls, u)
	}

	doc.Find(`meta[property="og:video"], meta[property="og:video:secure_url"], meta[property="og:video:url"]`).Each(func(i int, s *goquery.Selection) {
		if content, ok := s.Attr("content"); ok {
			add(content)
		}
	})

	doc.Find("script").Each(func(i int, s *goquery.Selection) {
		text := s.Text()
		for _, m := range videoURLField.FindAllStringSubmatch(text, -1) {
			add(m[1])
		}
		for _, m := range cdnVideoURL.FindAllString(text, -1) {
			add(m)
		}
	})

	return urls
}

func (e *InstagramExtractor) wrap(err error) error {
	return &domain.ExtractionError{Platform: domain.PlatformInstagram, Err: err}
}
