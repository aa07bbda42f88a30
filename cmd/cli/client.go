package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/yourusername/clipfetch/internal/domain"
)

// apiClient talks to a running clipfetch server
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{},
	}
}

// fetchResult is the outcome of POST /download
type fetchResult struct {
	DownloadID string
	FilePath   string
}

// download posts the form and blocks until the server finishes
func (c *apiClient) download(ctx context.Context, rawURL, clientID string) (*fetchResult, error) {
	form := url.Values{"url": {rawURL}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/download", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if clientID != "" {
		req.Header.Set("x-client-id", clientID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	result := &fetchResult{DownloadID: resp.Header.Get("X-Download-ID")}
	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		FilePath string `json:"filePath"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return result, fmt.Errorf("failed to decode response: %w", err)
	}
	result.FilePath = payload.FilePath
	return result, nil
}

func (c *apiClient) listDownloads(ctx context.Context) ([]domain.Download, error) {
	var downloads []domain.Download
	if err := c.getJSON(ctx, "/api/v1/downloads", &downloads); err != nil {
		return nil, err
	}
	return downloads, nil
}

func (c *apiClient) getDownload(ctx context.Context, id string) (*domain.Download, error) {
	var download domain.Download
	if err := c.getJSON(ctx, "/api/v1/downloads/"+url.PathEscape(id), &download); err != nil {
		return nil, err
	}
	return &download, nil
}

func (c *apiClient) cancelDownload(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/downloads/"+url.PathEscape(id)+"/cancel", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

// healthStatus mirrors the body of GET /health
type healthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Active  int    `json:"active"`
}

func (c *apiClient) health(ctx context.Context) (*healthStatus, error) {
	var status healthStatus
	if err := c.getJSON(ctx, "/health", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *apiClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(resp.Body)
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
}

// progressSocketURL turns the server base URL into the /ws endpoint
func progressSocketURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported server URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}
