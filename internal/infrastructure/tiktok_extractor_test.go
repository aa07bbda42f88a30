package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/clipfetch/internal/domain"
)

const tiktokURL = "https://www.tiktok.com/@user/video/7234567890"

func newTikwmServer(t *testing.T, api http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/", api)
	mux.HandleFunc("/video/media/play/7234567890.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tiktok-video"))
	})
	mux.HandleFunc("/chunked.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tiktok"))
		w.(http.Flusher).Flush()
		w.Write([]byte("-video"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestTikTokExtractor_Locate(t *testing.T) {
	server := newTikwmServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, tiktokURL, req["url"])

		fmt.Fprint(w, `{"code":0,"msg":"success","data":{"id":"7234567890","title":"dance","play":"/video/media/play/7234567890.mp4","size":12,"duration":15}}`)
	})

	fetcher := NewMediaFetcher(server.Client(), "")
	extractor := NewTikTokExtractor(fetcher, server.URL+"/api/", server.URL, zap.NewNop())
	assert.Equal(t, domain.PlatformTikTok, extractor.Platform())

	src, err := extractor.Locate(context.Background(), tiktokURL)
	require.NoError(t, err)
	defer src.Stream.Close()

	body, err := io.ReadAll(src.Stream)
	require.NoError(t, err)
	assert.Equal(t, "tiktok-video", string(body))
	assert.Equal(t, "dance", src.Title)
	assert.Equal(t, int64(12), src.TotalBytes)
}

func TestTikTokExtractor_Locate_SizeFromMetadata(t *testing.T) {
	var server *httptest.Server
	server = newTikwmServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"code":0,"data":{"id":"1","play":"%s/chunked.mp4","size":12}}`, server.URL)
	})

	extractor := NewTikTokExtractor(NewMediaFetcher(server.Client(), ""), server.URL+"/api/", "", zap.NewNop())

	src, err := extractor.Locate(context.Background(), tiktokURL)
	require.NoError(t, err)
	defer src.Stream.Close()

	assert.Equal(t, int64(12), src.TotalBytes)
}

func TestTikTokExtractor_Locate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		errText string
	}{
		{
			name: "api error code",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"code":-1,"msg":"Url parsing is failed! Please check url."}`)
			},
			errText: "Url parsing is failed",
		},
		{
			name: "api status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			errText: "502",
		},
		{
			name: "bad json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `<html>`)
			},
			errText: "decode",
		},
		{
			name: "missing play url",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"code":0,"data":{"id":"1","play":""}}`)
			},
			errText: domain.ErrNoMedia.Error(),
		},
		{
			name: "media 404",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"code":0,"data":{"id":"1","play":"/missing.mp4"}}`)
			},
			errText: "404",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTikwmServer(t, tt.handler)
			extractor := NewTikTokExtractor(NewMediaFetcher(server.Client(), ""), server.URL+"/api/", server.URL, zap.NewNop())

			_, err := extractor.Locate(context.Background(), tiktokURL)
			require.Error(t, err)

			var extractErr *domain.ExtractionError
			require.ErrorAs(t, err, &extractErr)
			assert.Equal(t, domain.PlatformTikTok, extractErr.Platform)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestNewTikTokExtractor_Defaults(t *testing.T) {
	extractor := NewTikTokExtractor(NewMediaFetcher(nil, ""), "", "", zap.NewNop())

	assert.Equal(t, tikwmAPIURL, extractor.apiURL)
	assert.Equal(t, tikwmMediaBase, extractor.mediaBase)
}
