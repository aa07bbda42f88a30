package app

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/yourusername/clipfetch/internal/domain"
)

const fallbackTitle = "video"

// OutputNamer derives output file paths inside the downloads directory
type OutputNamer struct {
	dir    string
	unique bool
	now    func() time.Time
}

// NewOutputNamer creates a namer for dir. With unique set, names carry the
// download's short id so concurrent requests never share a file.
func NewOutputNamer(dir string, unique bool) *OutputNamer {
	return &OutputNamer{
		dir:    dir,
		unique: unique,
		now:    time.Now,
	}
}

// PathFor returns the output path for a download. YouTube files are named
// after the sanitized title; other platforms use a millisecond timestamp.
func (n *OutputNamer) PathFor(download *domain.Download, title string) string {
	var name string

	switch download.Platform {
	case domain.PlatformYouTube:
		base := domain.SanitizeTitle(title)
		if strings.TrimSpace(base) == "" && n.unique {
			base = fallbackTitle
		}
		if n.unique {
			name = fmt.Sprintf("%s %s.mp4", base, download.ShortID())
		} else {
			name = base + ".mp4"
		}
	default:
		millis := n.now().UnixMilli()
		if n.unique {
			name = fmt.Sprintf("%d-%s.mp4", millis, download.ShortID())
		} else {
			name = fmt.Sprintf("%d.mp4", millis)
		}
	}

	return filepath.Join(n.dir, name)
}
