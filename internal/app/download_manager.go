package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/yourusername/clipfetch/internal/domain"
	"github.com/yourusername/clipfetch/internal/infrastructure"
	"github.com/yourusername/clipfetch/internal/telemetry"
	"github.com/yourusername/clipfetch/pkg/logger"
)

// DownloadRequest is one call to the download endpoint
type DownloadRequest struct {
	URL      string
	ClientID string
}

// activeDownload is a registry entry for an in-flight download
type activeDownload struct {
	download *domain.Download
	cancel   context.CancelCauseFunc
}

// DownloadManager runs downloads end to end and tracks the ones in flight
type DownloadManager struct {
	extractors map[domain.Platform]domain.Extractor
	publisher  domain.ProgressPublisher
	namer      *OutputNamer
	notifier   *infrastructure.NotificationService
	telemetry  *telemetry.Telemetry
	config     *domain.DownloadConfig
	logger     *zap.Logger
	events     *logger.MultiLogger
	active     map[string]*activeDownload
	mu         sync.RWMutex
}

// NewDownloadManager creates a new download manager. publisher, notifier,
// tel and events may be nil.
func NewDownloadManager(
	extractors map[domain.Platform]domain.Extractor,
	publisher domain.ProgressPublisher,
	notifier *infrastructure.NotificationService,
	tel *telemetry.Telemetry,
	config *domain.DownloadConfig,
	logger *zap.Logger,
	events *logger.MultiLogger,
) *DownloadManager {
	return &DownloadManager{
		extractors: extractors,
		publisher:  publisher,
		namer:      NewOutputNamer(config.Dir, config.UniqueNames),
		notifier:   notifier,
		telemetry:  tel,
		config:     config,
		logger:     logger,
		events:     events,
		active:     make(map[string]*activeDownload),
	}
}

// Download resolves the platform, opens the media stream and writes it to
// the downloads directory. The returned record reflects the final state and
// is non-nil whenever the URL was supported.
func (dm *DownloadManager) Download(ctx context.Context, req DownloadRequest) (*domain.Download, error) {
	platform := domain.DetectPlatform(req.URL)
	if !platform.IsSupported() {
		return nil, domain.ErrUnsupportedPlatform
	}

	clientID := req.ClientID
	if clientID != "" && !domain.ValidClientID(clientID) {
		dm.logger.Warn("Ignoring malformed client id, progress disabled",
			zap.String("client_id", truncateID(clientID)))
		clientID = ""
	}

	download := domain.NewDownload(req.URL, clientID, platform)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	if dm.config.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, dm.config.Timeout)
		defer cancelTimeout()
	}

	dm.register(download, cancel)
	defer dm.unregister(download.ID)

	dm.telemetry.IncrementActiveDownloads()
	defer dm.telemetry.DecrementActiveDownloads()

	log := dm.logger.With(
		zap.String("download_id", download.ID),
		zap.String("platform", string(platform)))

	log.Info("Processing download", zap.String("url", req.URL))
	dm.events.LogDownloadEvent("download_started",
		zap.String("download_id", download.ID),
		zap.String("url", req.URL),
		zap.String("platform", string(platform)),
		zap.String("client_id", clientID))

	filePath, err := dm.run(ctx, download, log)
	if err != nil {
		if ctx.Err() != nil {
			err = context.Cause(ctx)
		}
		return dm.fail(download, err, log), err
	}

	dm.mu.Lock()
	download.MarkCompleted(filePath)
	result := *download
	dm.mu.Unlock()

	log.Info("Download completed",
		zap.String("file_path", filePath),
		zap.String("size", humanize.Bytes(uint64(result.DownloadedBytes))),
		zap.Duration("duration", result.Duration()))
	dm.events.LogDownloadEvent("download_completed",
		zap.String("download_id", download.ID),
		zap.String("file_path", filePath),
		zap.Int64("bytes", result.DownloadedBytes),
		zap.Duration("duration", result.Duration()))
	dm.telemetry.RecordDownload(string(platform), string(domain.StatusCompleted), result.Duration())
	dm.notifier.NotifyDownloadCompleted(platform, filePath)

	return &result, nil
}

// run locates the stream and writes it to disk
func (dm *DownloadManager) run(ctx context.Context, download *domain.Download, log *zap.Logger) (string, error) {
	extractor, ok := dm.extractors[download.Platform]
	if !ok {
		return "", &domain.ExtractionError{
			Platform: download.Platform,
			Err:      fmt.Errorf("no extractor registered: %w", domain.ErrNoMedia),
		}
	}

	src, err := extractor.Locate(ctx, download.URL)
	if err != nil {
		var extractErr *domain.ExtractionError
		if !errors.As(err, &extractErr) {
			err = &domain.ExtractionError{Platform: download.Platform, Err: err}
		}
		return "", err
	}

	filePath := dm.namer.PathFor(download, src.Title)

	dm.mu.Lock()
	download.FilePath = filePath
	download.TotalBytes = src.TotalBytes
	dm.mu.Unlock()

	log.Info("Writing media stream",
		zap.String("file_path", filePath),
		zap.String("title", src.Title),
		zap.String("expected_size", sizeLabel(src.TotalBytes)))

	written, err := WriteStream(ctx, src, filePath, dm.progressCallback(download))
	dm.telemetry.RecordBytesWritten(string(download.Platform), written)
	if err != nil {
		return "", err
	}

	return filePath, nil
}

// progressCallback updates the registry and publishes to the client channel
func (dm *DownloadManager) progressCallback(download *domain.Download) func(domain.ProgressSample) {
	return func(sample domain.ProgressSample) {
		dm.mu.Lock()
		download.DownloadedBytes = sample.Downloaded
		dm.mu.Unlock()

		if download.ClientID == "" || dm.publisher == nil {
			return
		}
		delivered := dm.publisher.Publish(download.ClientID, domain.NewProgressEvent(download.ID, sample))
		dm.telemetry.RecordProgressEvent(delivered)
	}
}

// fail records a failed or cancelled download and returns its final state
func (dm *DownloadManager) fail(download *domain.Download, err error, log *zap.Logger) *domain.Download {
	cancelled := errors.Is(err, domain.ErrDownloadCancelled) || errors.Is(err, context.Canceled)

	dm.mu.Lock()
	if cancelled {
		download.MarkCancelled()
	} else {
		download.MarkFailed(err)
	}
	result := *download
	dm.mu.Unlock()

	if cancelled {
		log.Info("Download cancelled", zap.Error(err))
		dm.events.LogDownloadEvent("download_cancelled",
			zap.String("download_id", download.ID),
			zap.Int64("bytes", result.DownloadedBytes))
	} else {
		log.Error("Download failed", zap.Error(err))
		dm.events.LogAppError("download_failed",
			zap.String("download_id", download.ID),
			zap.String("url", download.URL),
			zap.String("platform", string(download.Platform)),
			zap.Error(err))
		dm.notifier.NotifyDownloadFailed(download.URL, download.Platform)
	}

	dm.telemetry.RecordDownload(string(download.Platform), string(result.Status), result.Duration())

	return &result
}

func (dm *DownloadManager) register(download *domain.Download, cancel context.CancelCauseFunc) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	dm.active[download.ID] = &activeDownload{download: download, cancel: cancel}
}

func (dm *DownloadManager) unregister(id string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	delete(dm.active, id)
}

// GetDownload returns a snapshot of an in-flight download
func (dm *DownloadManager) GetDownload(id string) (*domain.Download, error) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	entry, ok := dm.active[id]
	if !ok {
		return nil, domain.ErrDownloadNotFound
	}
	snapshot := *entry.download
	return &snapshot, nil
}

// ListDownloads returns snapshots of all in-flight downloads, oldest first
func (dm *DownloadManager) ListDownloads() []*domain.Download {
	dm.mu.RLock()
	downloads := make([]*domain.Download, 0, len(dm.active))
	for _, entry := range dm.active {
		snapshot := *entry.download
		downloads = append(downloads, &snapshot)
	}
	dm.mu.RUnlock()

	sort.Slice(downloads, func(i, j int) bool {
		return downloads[i].StartedAt.Before(downloads[j].StartedAt)
	})
	return downloads
}

// CancelDownload stops an in-flight download; its partial file is removed
func (dm *DownloadManager) CancelDownload(id string) error {
	dm.mu.RLock()
	entry, ok := dm.active[id]
	dm.mu.RUnlock()

	if !ok {
		return domain.ErrDownloadNotFound
	}

	dm.logger.Info("Cancelling download", zap.String("download_id", id))
	entry.cancel(domain.ErrDownloadCancelled)
	return nil
}

// ActiveCount returns the number of in-flight downloads
func (dm *DownloadManager) ActiveCount() int {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	return len(dm.active)
}

func sizeLabel(n int64) string {
	if n <= 0 {
		return "unknown"
	}
	return humanize.Bytes(uint64(n))
}

func truncateID(id string) string {
	if len(id) <= 70 {
		return id
	}
	return id[:70] + "..."
}
