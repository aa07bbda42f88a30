package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/clipfetch/internal/app"
	"github.com/yourusername/clipfetch/internal/domain"
	"github.com/yourusername/clipfetch/internal/infrastructure"
	"github.com/yourusername/clipfetch/internal/telemetry"
)

const videoBody = "0123456789abcdef"

// fakeExtractor serves a fixed body for one platform
type fakeExtractor struct {
	platform domain.Platform
	total    int64
}

func (f *fakeExtractor) Platform() domain.Platform {
	return f.platform
}

func (f *fakeExtractor) Locate(ctx context.Context, url string) (*domain.MediaSource, error) {
	return &domain.MediaSource{
		Title:      "Test Clip",
		Stream:     io.NopCloser(strings.NewReader(videoBody)),
		TotalBytes: f.total,
	}, nil
}

func setupTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	log := zap.NewNop()

	tel, err := telemetry.New(telemetry.Config{Enabled: true, ServiceName: "clipfetch-test"})
	require.NoError(t, err)

	hub := infrastructure.NewProgressHub(&domain.ProgressConfig{SendBuffer: 64, PingInterval: time.Minute}, tel, log)
	t.Cleanup(hub.Close)

	extractors := map[domain.Platform]domain.Extractor{
		domain.PlatformYouTube: &fakeExtractor{platform: domain.PlatformYouTube, total: int64(len(videoBody))},
		domain.PlatformTikTok:  &fakeExtractor{platform: domain.PlatformTikTok, total: domain.UnknownSize},
	}
	manager := app.NewDownloadManager(extractors, hub, nil, tel,
		&domain.DownloadConfig{Dir: dir, UniqueNames: true}, log, nil)

	router := SetupRouter(RouterDeps{
		Downloads: manager,
		Hub:       hub,
		Telemetry: tel,
		Version:   "test",
		Logger:    log,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, dir
}

func connectProgress(t *testing.T, server *httptest.Server) (*websocket.Conn, string) {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var hello infrastructure.ConnectedEvent
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&hello))
	require.Equal(t, "connected", hello.Event)
	require.True(t, domain.ValidClientID(hello.ClientID))

	return conn, hello.ClientID
}

func postForm(t *testing.T, server *httptest.Server, rawURL, clientID string) *http.Response {
	t.Helper()

	form := url.Values{"url": {rawURL}}
	req, err := http.NewRequest(http.MethodPost, server.URL+"/download", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if clientID != "" {
		req.Header.Set("x-client-id", clientID)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readProgress(t *testing.T, conn *websocket.Conn) []domain.ProgressEvent {
	t.Helper()

	var events []domain.ProgressEvent
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var ev domain.ProgressEvent
		require.NoError(t, conn.ReadJSON(&ev))
		events = append(events, ev)
		if ev.DownloadedBytes == int64(len(videoBody)) {
			return events
		}
	}
}

func TestDownload_YouTubeWithProgress(t *testing.T) {
	server, dir := setupTestServer(t)
	conn, clientID := connectProgress(t, server)

	resp := postForm(t, server, "https://www.youtube.com/watch?v=abc123", clientID)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		FilePath string `json:"filePath"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, strings.HasPrefix(body.FilePath, dir))
	assert.True(t, strings.HasSuffix(body.FilePath, ".mp4"))
	assert.Contains(t, body.FilePath, "Test Clip")

	data, err := os.ReadFile(body.FilePath)
	require.NoError(t, err)
	assert.Equal(t, videoBody, string(data))

	events := readProgress(t, conn)
	last := events[len(events)-1]
	require.NotNil(t, last.Progress)
	assert.Equal(t, 100.0, *last.Progress)
	assert.Equal(t, resp.Header.Get("X-Download-ID"), last.DownloadID)
}

func TestDownload_UnknownTotalIsIndeterminate(t *testing.T) {
	server, _ := setupTestServer(t)
	conn, clientID := connectProgress(t, server)

	resp := postForm(t, server, "https://www.tiktok.com/@user/video/123", clientID)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, ev := range readProgress(t, conn) {
		assert.True(t, ev.Indeterminate)
		assert.Nil(t, ev.Progress)
	}
}

func TestDownload_UnsupportedURL(t *testing.T) {
	server, dir := setupTestServer(t)

	resp := postForm(t, server, "https://example.com/video", "client1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Unsupported URL", string(body))

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestDownload_WithoutProgressChannel(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := postForm(t, server, "https://youtu.be/abc123", "no-such-client")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postForm(t, server, "https://youtu.be/abc123", "not a valid id!")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_PagesAndProbes(t *testing.T) {
	server, _ := setupTestServer(t)

	tests := []struct {
		path        string
		wantStatus  int
		wantContain string
	}{
		{"/", http.StatusOK, `action="/download"`},
		{"/static/app.js", http.StatusOK, "WebSocket"},
		{"/health", http.StatusOK, `"status":"ok"`},
		{"/api/v1/downloads", http.StatusOK, "[]"},
		{"/api/v1/downloads/unknown", http.StatusNotFound, "download not found"},
		{"/metrics", http.StatusOK, "http_requests"},
		{"/nope", http.StatusNotFound, "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(server.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Contains(t, string(body), tt.wantContain)
		})
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	server, _ := setupTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/download", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "x-client-id")
}
