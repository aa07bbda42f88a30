package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v4"
	"github.com/vbauerster/mpb/v4/decor"

	"github.com/yourusername/clipfetch/internal/domain"
)

// finalFrameWait bounds how long fetch waits for trailing progress frames
// after the response arrived
const finalFrameWait = 500 * time.Millisecond

// socketFrame covers both the connected and the progress frames
type socketFrame struct {
	domain.ProgressEvent
	ClientID string `json:"clientId"`
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [url]",
	Short: "Download a video and show its progress",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		quiet, _ := cmd.Flags().GetBool("quiet")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		result, err := fetch(ctx, newAPIClient(serverURL), args[0], quiet)
		if err != nil {
			if result != nil && result.DownloadID != "" {
				fmt.Fprintf(os.Stderr, "Download %s failed\n", result.DownloadID)
			}
			exitWithError(err)
		}

		fmt.Printf("Saved to %s\n", result.FilePath)
	},
}

func init() {
	fetchCmd.Flags().BoolP("quiet", "q", false, "Don't subscribe to progress events")
}

func fetch(ctx context.Context, client *apiClient, rawURL string, quiet bool) (*fetchResult, error) {
	if quiet {
		return client.download(ctx, rawURL, "")
	}

	wsURL, err := progressSocketURL(client.baseURL)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		// Progress is best-effort
		fmt.Fprintf(os.Stderr, "Warning: progress unavailable: %v\n", err)
		return client.download(ctx, rawURL, "")
	}
	defer conn.Close()

	var hello socketFrame
	if err := conn.ReadJSON(&hello); err != nil || hello.ClientID == "" {
		fmt.Fprintf(os.Stderr, "Warning: progress unavailable: no client id\n")
		return client.download(ctx, rawURL, "")
	}

	p := mpb.NewWithContext(ctx, mpb.WithWidth(60))
	bar := newProgressBar(p, rawURL)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var frame socketFrame
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			if frame.Event == domain.EventProgress && bar.update(frame.ProgressEvent) {
				return
			}
		}
	}()

	result, err := client.download(ctx, rawURL, hello.ClientID)

	if err == nil {
		select {
		case <-done:
		case <-time.After(finalFrameWait):
		}
	}
	conn.Close()
	<-done

	bar.finish()
	p.Wait()

	return result, err
}

// progressBar renders progress frames for one download
type progressBar struct {
	mu      sync.Mutex
	p       *mpb.Progress
	bar     *mpb.Bar
	name    string
	current int64
	known   bool
}

func newProgressBar(p *mpb.Progress, name string) *progressBar {
	return &progressBar{p: p, name: truncate(name, 40)}
}

// update applies a frame and reports whether the transfer is complete
func (b *progressBar) update(ev domain.ProgressEvent) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar == nil {
		b.known = !ev.Indeterminate && ev.TotalBytes > 0
		var total int64
		if b.known {
			total = ev.TotalBytes
		}
		b.bar = b.p.AddBar(total,
			mpb.PrependDecorators(decor.Name(b.name)),
			mpb.AppendDecorators(decor.Percentage()),
		)
	}

	delta := ev.DownloadedBytes - b.current
	if delta > 0 {
		if !b.known {
			// keep an unknown total just ahead of the current position
			b.bar.SetTotal(ev.DownloadedBytes+1, false)
		}
		b.bar.IncrBy(int(delta))
		b.current = ev.DownloadedBytes
	}

	return b.known && b.current >= ev.TotalBytes
}

func (b *progressBar) finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		b.bar.SetTotal(b.current, true)
	}
}
