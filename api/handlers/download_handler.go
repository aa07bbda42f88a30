package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/clipfetch/api/middleware"
	"github.com/yourusername/clipfetch/internal/app"
	"github.com/yourusername/clipfetch/internal/domain"
)

// statusClientClosedRequest is logged when the caller went away mid-download
const statusClientClosedRequest = 499

// Response bodies for POST /download
const (
	msgUnsupportedURL = "Unsupported URL"
	msgDownloadFailed = "Error downloading the file."
	msgWriteFailed    = "Error writing to file."
	msgCancelled      = "Download cancelled."
)

// DownloadService is the part of the download manager the handlers use
type DownloadService interface {
	Download(ctx context.Context, req app.DownloadRequest) (*domain.Download, error)
	GetDownload(id string) (*domain.Download, error)
	ListDownloads() []*domain.Download
	CancelDownload(id string) error
	ActiveCount() int
}

// DownloadHandler handles download-related HTTP requests
type DownloadHandler struct {
	downloads DownloadService
	logger    *zap.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(downloads DownloadService, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{
		downloads: downloads,
		logger:    logger,
	}
}

// DownloadResponse is the success body of POST /download
type DownloadResponse struct {
	FilePath string `json:"filePath"`
}

// Download handles POST /download. The request blocks until the file is
// fully written.
func (h *DownloadHandler) Download(c *gin.Context) {
	req := app.DownloadRequest{
		URL:      strings.TrimSpace(c.PostForm("url")),
		ClientID: c.GetHeader(middleware.ClientIDHeader),
	}

	download, err := h.downloads.Download(c.Request.Context(), req)
	if download != nil {
		c.Header(middleware.DownloadIDHeader, download.ID)
	}
	if err != nil {
		h.writeError(c, req.URL, err)
		return
	}

	c.JSON(http.StatusOK, DownloadResponse{FilePath: download.FilePath})
}

// writeError maps a download error to a plain-text response. Details stay
// in the server log.
func (h *DownloadHandler) writeError(c *gin.Context, url string, err error) {
	var transferErr *domain.TransferError

	switch {
	case errors.Is(err, domain.ErrUnsupportedPlatform):
		h.logger.Debug("Rejected unsupported URL", zap.String("url", url))
		c.String(http.StatusBadRequest, msgUnsupportedURL)
	case errors.Is(err, domain.ErrDownloadCancelled):
		c.String(http.StatusInternalServerError, msgCancelled)
	case c.Request.Context().Err() != nil:
		h.logger.Info("Client went away before the download finished",
			zap.String("url", url), zap.Error(err))
		c.AbortWithStatus(statusClientClosedRequest)
	case errors.As(err, &transferErr) && transferErr.IsDiskFailure():
		c.String(http.StatusInternalServerError, msgWriteFailed)
	default:
		c.String(http.StatusInternalServerError, msgDownloadFailed)
	}
}

// ListDownloads handles GET /api/v1/downloads
func (h *DownloadHandler) ListDownloads(c *gin.Context) {
	c.JSON(http.StatusOK, h.downloads.ListDownloads())
}

// GetDownload handles GET /api/v1/downloads/:id
func (h *DownloadHandler) GetDownload(c *gin.Context) {
	id := c.Param("id")

	download, err := h.downloads.GetDownload(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "download not found"})
		return
	}

	c.JSON(http.StatusOK, download)
}

// CancelDownload handles POST /api/v1/downloads/:id/cancel
func (h *DownloadHandler) CancelDownload(c *gin.Context) {
	id := c.Param("id")

	if err := h.downloads.CancelDownload(id); err != nil {
		if errors.Is(err, domain.ErrDownloadNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "download not found"})
			return
		}
		h.logger.Error("Failed to cancel download", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "download cancelled"})
}
