package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/clipfetch/internal/app"
	"github.com/yourusername/clipfetch/internal/domain"
)

// mockDownloads implements DownloadService for testing
type mockDownloads struct {
	download  func(ctx context.Context, req app.DownloadRequest) (*domain.Download, error)
	active    map[string]*domain.Download
	cancelled []string
	lastReq   app.DownloadRequest
}

func (m *mockDownloads) Download(ctx context.Context, req app.DownloadRequest) (*domain.Download, error) {
	m.lastReq = req
	return m.download(ctx, req)
}

func (m *mockDownloads) GetDownload(id string) (*domain.Download, error) {
	if d, ok := m.active[id]; ok {
		return d, nil
	}
	return nil, domain.ErrDownloadNotFound
}

func (m *mockDownloads) ListDownloads() []*domain.Download {
	list := make([]*domain.Download, 0, len(m.active))
	for _, d := range m.active {
		list = append(list, d)
	}
	return list
}

func (m *mockDownloads) CancelDownload(id string) error {
	if _, ok := m.active[id]; !ok {
		return domain.ErrDownloadNotFound
	}
	m.cancelled = append(m.cancelled, id)
	return nil
}

func (m *mockDownloads) ActiveCount() int {
	return len(m.active)
}

func setupDownloadRouter(svc *mockDownloads) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewDownloadHandler(svc, zap.NewNop())
	router.POST("/download", h.Download)
	router.GET("/api/v1/downloads", h.ListDownloads)
	router.GET("/api/v1/downloads/:id", h.GetDownload)
	router.POST("/api/v1/downloads/:id/cancel", h.CancelDownload)
	return router
}

func postDownload(router *gin.Engine, rawURL, clientID string) *httptest.ResponseRecorder {
	form := url.Values{"url": {rawURL}}
	req := httptest.NewRequest(http.MethodPost, "/download", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if clientID != "" {
		req.Header.Set("x-client-id", clientID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestDownloadHandler_Success(t *testing.T) {
	svc := &mockDownloads{
		download: func(ctx context.Context, req app.DownloadRequest) (*domain.Download, error) {
			d := domain.NewDownload(req.URL, req.ClientID, domain.PlatformYouTube)
			d.MarkCompleted("downloads/My Video 1234abcd.mp4")
			return d, nil
		},
	}
	router := setupDownloadRouter(svc)

	w := postDownload(router, "https://www.youtube.com/watch?v=abc123", "client1")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"filePath":"downloads/My Video 1234abcd.mp4"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Download-ID"))
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", svc.lastReq.URL)
	assert.Equal(t, "client1", svc.lastReq.ClientID)
}

func TestDownloadHandler_Errors(t *testing.T) {
	diskFull := &domain.TransferError{Op: domain.OpWrite, Path: "downloads/x.mp4", Err: errors.New("no space left on device")}
	readFailed := &domain.TransferError{Op: domain.OpRead, Path: "downloads/x.mp4", Err: errors.New("connection reset")}
	extractFailed := &domain.ExtractionError{Platform: domain.PlatformTikTok, Err: errors.New("status 403")}

	tests := []struct {
		name       string
		err        error
		withRecord bool
		wantStatus int
		wantBody   string
	}{
		{"unsupported", domain.ErrUnsupportedPlatform, false, http.StatusBadRequest, "Unsupported URL"},
		{"extraction", extractFailed, true, http.StatusInternalServerError, "Error downloading the file."},
		{"read", readFailed, true, http.StatusInternalServerError, "Error downloading the file."},
		{"disk", diskFull, true, http.StatusInternalServerError, "Error writing to file."},
		{"cancelled", domain.ErrDownloadCancelled, true, http.StatusInternalServerError, "Download cancelled."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockDownloads{
				download: func(ctx context.Context, req app.DownloadRequest) (*domain.Download, error) {
					if !tt.withRecord {
						return nil, tt.err
					}
					d := domain.NewDownload(req.URL, "", domain.PlatformTikTok)
					d.MarkFailed(tt.err)
					return d, tt.err
				},
			}
			router := setupDownloadRouter(svc)

			w := postDownload(router, "https://www.tiktok.com/@u/video/1", "")

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
			assert.Equal(t, tt.withRecord, w.Header().Get("X-Download-ID") != "")
			assert.NotContains(t, w.Body.String(), "403")
		})
	}
}

func TestDownloadHandler_EmptyURL(t *testing.T) {
	svc := &mockDownloads{
		download: func(ctx context.Context, req app.DownloadRequest) (*domain.Download, error) {
			assert.Empty(t, req.URL)
			return nil, domain.ErrUnsupportedPlatform
		},
	}
	router := setupDownloadRouter(svc)

	w := postDownload(router, "   ", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Unsupported URL", w.Body.String())
}

func TestDownloadHandler_ListAndGet(t *testing.T) {
	d := domain.NewDownload("https://youtu.be/abc123", "client1", domain.PlatformYouTube)
	svc := &mockDownloads{active: map[string]*domain.Download{d.ID: d}}
	router := setupDownloadRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/downloads", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var list []domain.Download
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, d.ID, list[0].ID)
	assert.Equal(t, domain.StatusProcessing, list[0].Status)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/downloads/"+d.ID, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/downloads/unknown", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadHandler_Cancel(t *testing.T) {
	d := domain.NewDownload("https://youtu.be/abc123", "", domain.PlatformYouTube)
	svc := &mockDownloads{active: map[string]*domain.Download{d.ID: d}}
	router := setupDownloadRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/downloads/"+d.ID+"/cancel", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{d.ID}, svc.cancelled)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/downloads/unknown/cancel", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	d := domain.NewDownload("https://youtu.be/abc123", "", domain.PlatformYouTube)
	svc := &mockDownloads{active: map[string]*domain.Download{d.ID: d}}

	router := gin.New()
	router.GET("/health", NewHealthHandler(svc, "1.0.0").Health)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","version":"1.0.0","active":1}`, w.Body.String())
}
