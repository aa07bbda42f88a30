package domain

import (
	"net/url"
	"regexp"
	"strings"
)

// Platform represents the source platform for downloads
type Platform string

const (
	PlatformYouTube     Platform = "youtube"
	PlatformInstagram   Platform = "instagram"
	PlatformTikTok      Platform = "tiktok"
	PlatformUnsupported Platform = "unsupported"
)

// IsSupported reports whether a platform has an extractor
func (p Platform) IsSupported() bool {
	switch p {
	case PlatformYouTube, PlatformInstagram, PlatformTikTok:
		return true
	}
	return false
}

var (
	videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

	youtubeHosts = map[string]bool{
		"youtube.com":        true,
		"www.youtube.com":    true,
		"m.youtube.com":      true,
		"music.youtube.com":  true,
		"gaming.youtube.com": true,
	}

	youtubePathKinds = map[string]bool{
		"embed":  true,
		"v":      true,
		"shorts": true,
		"live":   true,
	}
)

// DetectPlatform classifies a URL. Checks run in order and the first match
// wins: YouTube URL grammar, then "instagram.com", then "tiktok.com".
// The input is not normalized.
func DetectPlatform(rawURL string) Platform {
	if IsYouTubeURL(rawURL) {
		return PlatformYouTube
	}
	if strings.Contains(rawURL, "instagram.com") {
		return PlatformInstagram
	}
	if strings.Contains(rawURL, "tiktok.com") {
		return PlatformTikTok
	}
	return PlatformUnsupported
}

// IsYouTubeURL reports whether rawURL is a watch, short-link, embed or
// shorts URL carrying a video id.
func IsYouTubeURL(rawURL string) bool {
	return YouTubeVideoID(rawURL) != ""
}

// YouTubeVideoID extracts the video id from a YouTube URL, or "" if the URL
// does not match the YouTube grammar.
func YouTubeVideoID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}

	host := strings.ToLower(u.Hostname())
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	var id string
	switch {
	case host == "youtu.be":
		id = segments[0]
	case youtubeHosts[host]:
		if segments[0] == "watch" || segments[0] == "" {
			id = u.Query().Get("v")
		} else if youtubePathKinds[segments[0]] && len(segments) > 1 {
			id = segments[1]
		}
	}

	if !videoIDPattern.MatchString(id) {
		return ""
	}
	return id
}
