package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yourusername/clipfetch/internal/domain"
)

var (
	serverURL string
	timeout   time.Duration
	rootCmd   = &cobra.Command{
		Use:   "clipfetch",
		Short: "clipfetch CLI - Download videos from YouTube, Instagram and TikTok",
		Long:  `A command-line client for a running clipfetch server.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:3000", "Server URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Timeout for status requests")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(healthCmd)
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List in-flight downloads",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := requestContext()
		defer cancel()

		downloads, err := newAPIClient(serverURL).listDownloads(ctx)
		if err != nil {
			exitWithError(err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tURL\tPLATFORM\tSTATUS\tPROGRESS\tSTARTED")
		for _, d := range downloads {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				truncate(d.ID, 8),
				truncate(d.URL, 40),
				d.Platform,
				d.Status,
				progressLabel(d),
				humanize.Time(d.StartedAt))
		}
		w.Flush()
	},
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get download details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := requestContext()
		defer cancel()

		download, err := newAPIClient(serverURL).getDownload(ctx, args[0])
		if err != nil {
			exitWithError(err)
		}

		fmt.Printf("Download Details:\n")
		fmt.Printf("  ID:       %s\n", download.ID)
		fmt.Printf("  URL:      %s\n", download.URL)
		fmt.Printf("  Platform: %s\n", download.Platform)
		fmt.Printf("  Status:   %s\n", download.Status)
		fmt.Printf("  Progress: %s\n", progressLabel(*download))
		fmt.Printf("  Started:  %s\n", download.StartedAt.Format(time.RFC3339))
		if download.FilePath != "" {
			fmt.Printf("  File:     %s\n", download.FilePath)
		}
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel an in-flight download",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := requestContext()
		defer cancel()

		if err := newAPIClient(serverURL).cancelDownload(ctx, args[0]); err != nil {
			exitWithError(err)
		}
		fmt.Println("Download cancelled successfully")
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the server is up",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := requestContext()
		defer cancel()

		status, err := newAPIClient(serverURL).health(ctx)
		if err != nil {
			exitWithError(err)
		}
		fmt.Printf("Server %s (version %s, %d active downloads)\n", status.Status, status.Version, status.Active)
	},
}

func progressLabel(d domain.Download) string {
	sample := domain.ProgressSample{Downloaded: d.DownloadedBytes, Total: d.TotalBytes}
	if p, ok := sample.Percent(); ok {
		return fmt.Sprintf("%.1f%% of %s", p, humanize.Bytes(uint64(d.TotalBytes)))
	}
	return humanize.Bytes(uint64(d.DownloadedBytes))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
