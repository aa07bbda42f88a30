package app

import (
	"io"

	"github.com/yourusername/clipfetch/internal/domain"
)

// transferState accumulates progress for a single download. Each request
// owns its own instance.
type transferState struct {
	downloaded  int64
	total       int64
	lastEmitted int64
	lastPercent float64
	onProgress  func(domain.ProgressSample)
}

func newTransferState(total int64, onProgress func(domain.ProgressSample)) *transferState {
	if total <= 0 {
		total = domain.UnknownSize
	}
	return &transferState{
		total:       total,
		lastEmitted: -1,
		onProgress:  onProgress,
	}
}

// add records n more bytes and reports a sample
func (s *transferState) add(n int64) {
	s.downloaded += n
	s.emit(domain.ProgressSample{Downloaded: s.downloaded, Total: s.total})
}

// finish reports the closing sample after a successful copy. With a known
// total the last reported percent is exactly 100.
func (s *transferState) finish() {
	if s.total > 0 && s.downloaded > 0 {
		if s.lastPercent < 100 {
			s.emit(domain.ProgressSample{Downloaded: s.downloaded, Total: s.downloaded})
		}
		return
	}
	if s.lastEmitted != s.downloaded {
		s.emit(domain.ProgressSample{Downloaded: s.downloaded, Total: s.total})
	}
}

func (s *transferState) emit(sample domain.ProgressSample) {
	if p, ok := sample.Percent(); ok {
		s.lastPercent = p
	}
	s.lastEmitted = sample.Downloaded
	if s.onProgress != nil {
		s.onProgress(sample)
	}
}

// progressReader wraps an io.Reader and reports every chunk read
type progressReader struct {
	reader io.Reader
	state  *transferState
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.state.add(int64(n))
	}
	return n, err
}
